package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{TargetChunkSize: 500, OverlapSize: 50, MarkdownAware: true}
}

func TestNewConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{TargetChunkSize: 500, OverlapSize: 50}, false},
		{"valid upper bounds", Config{TargetChunkSize: 1000, OverlapSize: 100}, false},
		{"target too small", Config{TargetChunkSize: 499, OverlapSize: 50}, true},
		{"target too large", Config{TargetChunkSize: 1001, OverlapSize: 50}, true},
		{"overlap too small", Config{TargetChunkSize: 500, OverlapSize: 49}, true},
		{"overlap too large", Config{TargetChunkSize: 500, OverlapSize: 101}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.config)
			if tc.wantErr {
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c)
		})
	}
}

func TestChunkShortDocumentSingleChunk(t *testing.T) {
	c, err := New(Config{TargetChunkSize: 1000, OverlapSize: 50})
	require.NoError(t, err)

	chunks := c.Chunk("A. B. C.", "doc.txt")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A. B. C.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, "doc.txt", chunks[0].SourceFile)
}

func TestChunkEmptyDocument(t *testing.T) {
	c, err := New(validConfig())
	require.NoError(t, err)

	assert.Empty(t, c.Chunk("", "doc.txt"))
}

func TestChunkNoTerminators(t *testing.T) {
	c, err := New(validConfig())
	require.NoError(t, err)

	chunks := c.Chunk("no terminators anywhere in this text", "doc.txt")
	require.Len(t, chunks, 1)
	assert.Equal(t, "no terminators anywhere in this text", chunks[0].Text)
}

func TestChunkSentenceAccumulationWithOverlap(t *testing.T) {
	c, err := New(Config{TargetChunkSize: 500, OverlapSize: 50})
	require.NoError(t, err)

	// 12 sentences of exactly 100 tokens (400 chars) each.
	sentence := strings.Repeat("a", 399) + "."
	text := strings.Repeat(sentence, 12)

	chunks := c.Chunk(text, "doc.txt")
	require.Len(t, chunks, 3)

	// Five sentences fill the first chunk; one sentence of overlap seeds
	// each following chunk.
	assert.Equal(t, 0, chunks[0].StartPos)
	assert.Equal(t, 2000, chunks[0].EndPos)
	assert.Equal(t, 1600, chunks[1].StartPos)
	assert.Equal(t, 3600, chunks[1].EndPos)
	assert.Equal(t, 3200, chunks[2].StartPos)
	assert.Equal(t, len(text), chunks[2].EndPos)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkIndex)
		assert.Equal(t, text[ch.StartPos:ch.EndPos], ch.Text)
		assert.LessOrEqual(t, ch.TokenCount(), 500)
	}
}

func TestChunkPositionsReconstructDocument(t *testing.T) {
	c, err := New(Config{TargetChunkSize: 500, OverlapSize: 50})
	require.NoError(t, err)

	sentence := strings.Repeat("b", 149) + "!"
	text := strings.Repeat(sentence, 40)

	chunks := c.Chunk(text, "doc.txt")
	require.NotEmpty(t, chunks)

	// Chunks cover the document contiguously: each starts at or before
	// the previous end, and stitching the non-overlap spans back together
	// reproduces the original text.
	assert.Equal(t, 0, chunks[0].StartPos)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndPos)

	var b strings.Builder
	prevEnd := 0
	for _, ch := range chunks {
		require.LessOrEqual(t, ch.StartPos, prevEnd)
		b.WriteString(text[prevEnd:ch.EndPos])
		prevEnd = ch.EndPos
	}
	assert.Equal(t, text, b.String())
}

func TestChunkMarkdownHeadingPaths(t *testing.T) {
	c, err := New(validConfig())
	require.NoError(t, err)

	doc := `intro text before any heading.

# Basics

About basics.

## Tissues

About tissues.

### Muscle tissue

Muscle fibers contract.

## Organs

Organs are made of tissues.
`

	chunks := c.Chunk(doc, "bio.md")
	require.Len(t, chunks, 5)

	assert.Equal(t, "", chunks[0].HeadingContext)
	assert.Equal(t, "intro text before any heading.", chunks[0].Text)
	assert.Equal(t, "Basics", chunks[1].HeadingContext)
	assert.Equal(t, "Basics > Tissues", chunks[2].HeadingContext)
	assert.Equal(t, "Basics > Tissues > Muscle tissue", chunks[3].HeadingContext)
	// A sibling H2 pops everything down to its own level.
	assert.Equal(t, "Basics > Organs", chunks[4].HeadingContext)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkIndex)
		assert.Equal(t, doc[ch.StartPos:ch.EndPos], ch.Text)
	}
}

func TestChunkMarkdownOversizedSectionForceSplit(t *testing.T) {
	c, err := New(validConfig())
	require.NoError(t, err)

	// One section well past the 500-token target: 10 sentences of 100
	// tokens each.
	sentence := strings.Repeat("c", 399) + "."
	doc := "# Huge\n\n" + strings.Repeat(sentence, 10)

	chunks := c.Chunk(doc, "huge.md")
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.Equal(t, "Huge", ch.HeadingContext)
		assert.Equal(t, doc[ch.StartPos:ch.EndPos], ch.Text)
	}

	// Sub-chunks overlap by three sentences.
	assert.Equal(t, chunks[0].EndPos-3*400, chunks[1].StartPos)
}

func TestChunkMarkdownDisabledFallsBackToSentences(t *testing.T) {
	c, err := New(Config{TargetChunkSize: 500, OverlapSize: 50, MarkdownAware: false})
	require.NoError(t, err)

	chunks := c.Chunk("# Heading\n\nSome text.", "doc.md")
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].HeadingContext)
}

func TestChunkDocuments(t *testing.T) {
	c, err := New(validConfig())
	require.NoError(t, err)

	docs := map[string]string{
		"b.txt": "Beta one. Beta two.",
		"a.txt": "Alpha.",
	}

	chunks := c.ChunkDocuments(docs)
	require.Len(t, chunks, 2)

	// Sorted by file name, chunk indexes local to each file.
	assert.Equal(t, "a.txt", chunks[0].SourceFile)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, "b.txt", chunks[1].SourceFile)
	assert.Equal(t, 0, chunks[1].ChunkIndex)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}
