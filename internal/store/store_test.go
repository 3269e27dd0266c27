package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/chunker"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testChunk(text, source string, index int) chunker.Chunk {
	return chunker.Chunk{
		Text:       text,
		SourceFile: source,
		ChunkIndex: index,
	}
}

func TestSaveAndSearchOrdering(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveBatch(
		[]chunker.Chunk{
			testChunk("far", "a.md", 0),
			testChunk("near", "a.md", 1),
			testChunk("middle", "b.md", 0),
		},
		[][]float32{
			{0, 1, 0},
			{1, 0, 0},
			{1, 1, 0},
		},
	))

	got, err := s.Search([]float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "near", got[0].Record.Chunk.Text)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
	assert.Equal(t, "middle", got[1].Record.Chunk.Text)
	assert.Equal(t, "far", got[2].Record.Chunk.Text)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
}

func TestSearchTopKLimit(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveBatch(
		[]chunker.Chunk{testChunk("a", "f", 0), testChunk("b", "f", 1), testChunk("c", "f", 2)},
		[][]float32{{1, 0}, {0.5, 0.5}, {0, 1}},
	))

	got, err := s.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchEmptyStore(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Search([]float32{}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchDimensionMismatch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save(testChunk("a", "f", 0), []float32{1, 0, 0}))

	_, err := s.Search([]float32{1, 0}, 5)
	var dimErr *DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
}

func TestSearchRoundTripsRecordFields(t *testing.T) {
	s := openTestStore(t)
	c := chunker.Chunk{
		Text:           "Muscle fibers contract.",
		SourceFile:     "bio.md",
		ChunkIndex:     3,
		StartPos:       120,
		EndPos:         143,
		HeadingContext: "Basics > Tissues > Muscle tissue",
	}
	require.NoError(t, s.Save(c, []float32{0.5, 0.5}))

	got, err := s.Search([]float32{0.5, 0.5}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	rec := got[0].Record
	assert.Equal(t, c, rec.Chunk)
	assert.Equal(t, []float32{0.5, 0.5}, rec.Embedding)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Positive(t, rec.ID)
}

func TestClearAndStats(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveBatch(
		[]chunker.Chunk{testChunk("a", "one.md", 0), testChunk("b", "one.md", 1), testChunk("c", "two.md", 0)},
		[][]float32{{1}, {1}, {1}},
	))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalChunks: 3, DistinctSources: 2}, st)

	require.NoError(t, s.Clear())

	st, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalChunks: 0, DistinctSources: 0}, st)
}

func TestMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)

	v, err := s.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, s.SetMeta("embedding_model", "nomic-embed-text"))
	require.NoError(t, s.SetMeta("embedding_model", "mxbai-embed-large"))

	v, err = s.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", v)
}
