package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/chunker"
	"docsense/internal/store"
)

func candidate(sim float64, heading string) store.Candidate {
	return store.Candidate{
		Record: store.ChunkRecord{
			Chunk: chunker.Chunk{Text: "text", HeadingContext: heading},
		},
		Similarity: sim,
	}
}

func TestFilterPartition(t *testing.T) {
	f := NewFilter(0.25)

	res := f.FilterAndRank([]store.Candidate{
		candidate(0.9, ""),
		candidate(0.3, ""),
		candidate(0.1, ""),
	}, "query")

	require.Len(t, res.Relevant, 2)
	require.Len(t, res.FilteredOut, 1)
	assert.Equal(t, 0.9, res.Relevant[0].Similarity)
	assert.Equal(t, 0.3, res.Relevant[1].Similarity)
	assert.Equal(t, 0.1, res.FilteredOut[0].Similarity)
}

func TestFilterNoRelevantCandidates(t *testing.T) {
	f := NewFilter(0.25)

	res := f.FilterAndRank([]store.Candidate{candidate(0.1, ""), candidate(0.2, "")}, "query")
	assert.Empty(t, res.Relevant)
	assert.Len(t, res.FilteredOut, 2)
	assert.Zero(t, res.QualityScore)
	assert.Contains(t, res.Suggestion, "rephrasing")
}

func TestFilterEmptyInput(t *testing.T) {
	res := NewFilter(0).FilterAndRank(nil, "query")
	assert.Empty(t, res.Relevant)
	assert.Zero(t, res.QualityScore)
	assert.NotEmpty(t, res.Suggestion)
}

func TestQualityScoreHighSimilarity(t *testing.T) {
	f := NewFilter(0.25)

	// Five near-perfect matches saturate all three score terms.
	res := f.FilterAndRank([]store.Candidate{
		candidate(0.95, ""), candidate(0.95, ""), candidate(0.95, ""),
		candidate(0.95, ""), candidate(0.95, ""),
	}, "query")

	assert.Greater(t, res.QualityScore, 0.9)
	assert.LessOrEqual(t, res.QualityScore, 1.0)
	assert.Contains(t, res.Suggestion, "highly relevant")
}

func TestQualityScoreMonotonicInAverageSimilarity(t *testing.T) {
	f := NewFilter(0.25)

	prev := -1.0
	for _, sim := range []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9} {
		res := f.FilterAndRank([]store.Candidate{
			candidate(sim, ""), candidate(sim, ""), candidate(sim, ""),
		}, "query")
		assert.Greater(t, res.QualityScore, prev, "score must rise with average similarity (sim=%v)", sim)
		prev = res.QualityScore
	}
}

func TestSuggestionBuckets(t *testing.T) {
	f := NewFilter(0.25)

	// Low score: a single barely-relevant candidate.
	low := f.FilterAndRank([]store.Candidate{candidate(0.3, "")}, "query")
	assert.Less(t, low.QualityScore, 0.5)
	assert.Contains(t, low.Suggestion, "low relevance")

	// Medium score: a few middling candidates plus one filtered out.
	med := f.FilterAndRank([]store.Candidate{
		candidate(0.62, ""), candidate(0.62, ""), candidate(0.62, ""), candidate(0.1, ""),
	}, "query")
	assert.GreaterOrEqual(t, med.QualityScore, 0.5)
	assert.Less(t, med.QualityScore, 0.7)
	assert.Contains(t, med.Suggestion, "1 low-similarity")
}

func TestRerankWithHeadingBoost(t *testing.T) {
	candidates := []store.Candidate{
		candidate(0.60, "Installation"),
		candidate(0.55, "Muscle tissue > Contraction"),
	}

	// Two keyword hits lift the second candidate past the first.
	out := RerankWithHeadingBoost(candidates, "how does muscle contraction work", 0.15)
	require.Len(t, out, 2)
	assert.Equal(t, "Muscle tissue > Contraction", out[0].Record.Chunk.HeadingContext)
	assert.InDelta(t, 0.85, out[0].Similarity, 1e-9)
	assert.Equal(t, 0.60, out[1].Similarity)

	// Input order untouched.
	assert.Equal(t, 0.60, candidates[0].Similarity)
	assert.Equal(t, 0.55, candidates[1].Similarity)
}

func TestRerankBoostCappedAtOne(t *testing.T) {
	out := RerankWithHeadingBoost([]store.Candidate{
		candidate(0.95, "muscle contraction fibers"),
	}, "muscle contraction fibers", 0.15)
	assert.Equal(t, 1.0, out[0].Similarity)
}

func TestQueryKeywords(t *testing.T) {
	kws := queryKeywords("How does the muscle tissue work? muscle!")
	assert.Equal(t, []string{"muscle", "tissue", "work"}, kws)
}
