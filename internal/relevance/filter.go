// Package relevance post-processes ranked search candidates into a
// quality-scored result with a human-readable suggestion, and provides
// an optional heading-based reranking pass.
package relevance

import (
	"fmt"

	"docsense/internal/store"
)

// DefaultMinSimilarity is the similarity threshold below which a
// candidate is considered noise.
const DefaultMinSimilarity = 0.25

// Filter partitions candidates by similarity and scores result quality.
type Filter struct {
	minSimilarity float64
}

// NewFilter creates a filter with the given threshold; a non-positive
// threshold falls back to DefaultMinSimilarity.
func NewFilter(minSimilarity float64) *Filter {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	return &Filter{minSimilarity: minSimilarity}
}

// Result is the outcome of filtering a candidate list. Filtered-out
// candidates are kept for transparency, not discarded.
type Result struct {
	Relevant     []store.Candidate
	FilteredOut  []store.Candidate
	QualityScore float64
	Suggestion   string
}

// FilterAndRank partitions candidates at the similarity threshold and
// computes a quality score in [0, 1] from the relevant set: 60% average
// similarity, 20% result count saturation at 5, 20% peak similarity,
// with similarities rescaled from [threshold, 1] to [0, 1].
func (f *Filter) FilterAndRank(candidates []store.Candidate, query string) Result {
	var res Result
	for _, c := range candidates {
		if c.Similarity >= f.minSimilarity {
			res.Relevant = append(res.Relevant, c)
		} else {
			res.FilteredOut = append(res.FilteredOut, c)
		}
	}

	if len(res.Relevant) == 0 {
		res.Suggestion = "No relevant results found. Try rephrasing your question."
		return res
	}

	var sum, peak float64
	for _, c := range res.Relevant {
		sum += c.Similarity
		if c.Similarity > peak {
			peak = c.Similarity
		}
	}
	avg := sum / float64(len(res.Relevant))

	countTerm := float64(len(res.Relevant)) / 5
	if countTerm > 1 {
		countTerm = 1
	}

	res.QualityScore = 0.6*f.normalize(avg) + 0.2*countTerm + 0.2*f.normalize(peak)
	res.Suggestion = f.suggestion(res.QualityScore, len(res.FilteredOut))
	return res
}

// normalize rescales a similarity from [minSimilarity, 1] to [0, 1].
func (f *Filter) normalize(sim float64) float64 {
	n := (sim - f.minSimilarity) / (1 - f.minSimilarity)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

func (f *Filter) suggestion(score float64, filteredOut int) string {
	switch {
	case score >= 0.7:
		return "Results look highly relevant."
	case score >= 0.5:
		return fmt.Sprintf("Results are moderately relevant; %d low-similarity chunks were filtered out. Consider alternative phrasings.", filteredOut)
	default:
		return "Results have low relevance. Try rephrasing your question with more specific terms."
	}
}
