package relevance

import (
	"sort"
	"strings"
	"unicode"

	"docsense/internal/store"
)

// DefaultBoostFactor is the per-keyword similarity boost applied by
// RerankWithHeadingBoost.
const DefaultBoostFactor = 0.15

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"with": true, "that": true, "this": true, "what": true, "how": true,
	"why": true, "when": true, "where": true, "which": true, "who": true,
	"from": true, "have": true, "has": true, "can": true, "does": true,
	"did": true, "about": true, "into": true, "your": true, "you": true,
}

// RerankWithHeadingBoost adds boostFactor per query keyword found in a
// candidate's heading context (similarity capped at 1.0) and re-sorts
// descending. It does not mutate the input slice. A non-positive
// boostFactor falls back to DefaultBoostFactor.
func RerankWithHeadingBoost(candidates []store.Candidate, query string, boostFactor float64) []store.Candidate {
	if boostFactor <= 0 {
		boostFactor = DefaultBoostFactor
	}

	keywords := queryKeywords(query)
	out := make([]store.Candidate, len(candidates))
	copy(out, candidates)

	for i := range out {
		heading := strings.ToLower(out[i].Record.Chunk.HeadingContext)
		if heading == "" {
			continue
		}
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(heading, kw) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		out[i].Similarity += boostFactor * float64(matches)
		if out[i].Similarity > 1 {
			out[i].Similarity = 1
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

// queryKeywords extracts lowercased tokens longer than 2 characters,
// minus stop words, deduplicated.
func queryKeywords(query string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(tokens))
	var keywords []string
	for _, tok := range tokens {
		if len(tok) <= 2 || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}
	return keywords
}
