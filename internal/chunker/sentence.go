package chunker

import (
	"regexp"
)

// sentenceEnd matches a run of sentence terminators. The run belongs to
// the sentence it closes.
var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// span is a half-open byte range into the source document.
type span struct {
	start int
	end   int
}

// splitSentences splits text into contiguous sentence spans. A trailing
// remainder without a terminator is its own sentence. Text with no
// terminators at all yields a single span covering everything.
func splitSentences(text string) []span {
	matches := sentenceEnd.FindAllStringIndex(text, -1)

	var spans []span
	prev := 0
	for _, m := range matches {
		spans = append(spans, span{start: prev, end: m[1]})
		prev = m[1]
	}
	if prev < len(text) {
		spans = append(spans, span{start: prev, end: len(text)})
	}
	return spans
}

// tailFunc selects the trailing sentences of a closed chunk to carry into
// the next one.
type tailFunc func(text string, prev []span) []span

// chunkSentences is the sentence-based fallback path: accumulate sentences
// up to the target size, seeding each new chunk with a token-budgeted tail
// of the previous one.
func (c *Chunker) chunkSentences(text, sourceFile string, baseOffset int, heading string) []Chunk {
	return c.accumulate(text, sourceFile, baseOffset, heading, c.tokenTail)
}

// splitSection splits an oversized markdown section sentence-by-sentence,
// carrying a fixed 3-sentence trailing overlap between sub-chunks.
func (c *Chunker) splitSection(text, sourceFile string, baseOffset int, heading string) []Chunk {
	return c.accumulate(text, sourceFile, baseOffset, heading, lastThreeTail)
}

func (c *Chunker) accumulate(text, sourceFile string, baseOffset int, heading string, tail tailFunc) []Chunk {
	sents := splitSentences(text)
	if len(sents) == 0 {
		return nil
	}

	var chunks []Chunk
	var cur []span
	curTok := 0
	seedLen := 0 // number of leading overlap spans in cur

	flush := func() {
		chunks = append(chunks, Chunk{
			Text:           text[cur[0].start:cur[len(cur)-1].end],
			SourceFile:     sourceFile,
			StartPos:       baseOffset + cur[0].start,
			EndPos:         baseOffset + cur[len(cur)-1].end,
			HeadingContext: heading,
		})
	}

	for _, s := range sents {
		st := EstimateTokens(text[s.start:s.end])
		// Close the chunk when the next sentence would push it past the
		// target, but never close a chunk that holds only overlap.
		if len(cur) > seedLen && curTok+st > c.config.TargetChunkSize {
			flush()
			cur = tail(text, cur)
			seedLen = len(cur)
			curTok = 0
			for _, t := range cur {
				curTok += EstimateTokens(text[t.start:t.end])
			}
		}
		cur = append(cur, s)
		curTok += st
	}

	// A trailing buffer that is pure overlap was already emitted.
	if len(cur) > seedLen {
		flush()
	}
	return chunks
}

// tokenTail walks backward over the closed chunk collecting sentences for
// the next chunk's seed: at most 5 sentences, never more than twice the
// overlap budget, stopping once the budget itself is met.
func (c *Chunker) tokenTail(text string, prev []span) []span {
	var tail []span
	cum := 0
	for i := len(prev) - 1; i >= 0; i-- {
		st := EstimateTokens(text[prev[i].start:prev[i].end])
		if len(tail) >= 5 || cum+st > c.config.OverlapSize*2 {
			break
		}
		tail = append([]span{prev[i]}, tail...)
		cum += st
		if cum >= c.config.OverlapSize {
			break
		}
	}
	return tail
}

func lastThreeTail(_ string, prev []span) []span {
	n := min(3, len(prev))
	tail := make([]span, n)
	copy(tail, prev[len(prev)-n:])
	return tail
}
