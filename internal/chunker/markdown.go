package chunker

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var atxHeading = regexp.MustCompile(`(?m)^#{1,6}\s`)

// looksLikeMarkdown reports whether the document has at least one ATX
// heading, which is what the markdown path keys on.
func looksLikeMarkdown(text string) bool {
	return atxHeading.MatchString(text)
}

// section is a run of document content under one heading transition.
type section struct {
	// heading is the full heading-stack path joined by " > ",
	// e.g. "Basics > Tissues > Muscle tissue". Empty for content
	// before the first heading.
	heading string
	start   int
	end     int
}

type headingInfo struct {
	level     int
	title     string
	lineStart int // offset of the heading line's first '#'
	textStop  int // offset just past the heading text
}

// chunkMarkdown emits one chunk per section, splitting oversized sections
// sentence-by-sentence with a 3-sentence trailing overlap. Every chunk of
// a section carries the section's heading path.
func (c *Chunker) chunkMarkdown(text, sourceFile string) []Chunk {
	sections := parseSections(text)
	if len(sections) == 0 {
		return c.chunkSentences(text, sourceFile, 0, "")
	}

	var chunks []Chunk
	for _, sec := range sections {
		body, start, end := trimSpan(text, sec.start, sec.end)
		if body == "" {
			continue
		}
		if EstimateTokens(body) <= c.config.TargetChunkSize {
			chunks = append(chunks, Chunk{
				Text:           body,
				SourceFile:     sourceFile,
				StartPos:       start,
				EndPos:         end,
				HeadingContext: sec.heading,
			})
			continue
		}
		chunks = append(chunks, c.splitSection(body, sourceFile, start, sec.heading)...)
	}
	return chunks
}

// parseSections walks the goldmark AST and cuts the document at every
// heading. The heading path is built with a stack: a new heading pops
// every entry whose level is greater than or equal to its own, then
// pushes itself.
func parseSections(text string) []section {
	src := []byte(text)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var heads []headingInfo
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		first := h.Lines().At(0)
		last := h.Lines().At(h.Lines().Len() - 1)

		// The line starts level '#' characters plus one space before
		// the parsed heading text.
		lineStart := max(first.Start-h.Level-1, 0)
		heads = append(heads, headingInfo{
			level:     h.Level,
			title:     strings.TrimSpace(string(src[first.Start:last.Stop])),
			lineStart: lineStart,
			textStop:  last.Stop,
		})
		return ast.WalkContinue, nil
	})

	if len(heads) == 0 {
		return nil
	}

	var sections []section
	if heads[0].lineStart > 0 {
		sections = append(sections, section{heading: "", start: 0, end: heads[0].lineStart})
	}

	var stack []headingInfo
	for i, h := range heads {
		for len(stack) > 0 && stack[len(stack)-1].level >= h.level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, h)

		parts := make([]string, len(stack))
		for j, s := range stack {
			parts[j] = s.title
		}

		end := len(text)
		if i+1 < len(heads) {
			end = heads[i+1].lineStart
		}
		sections = append(sections, section{
			heading: strings.Join(parts, " > "),
			start:   h.textStop,
			end:     end,
		})
	}
	return sections
}

// trimSpan shrinks [start, end) past surrounding whitespace so the
// returned text is exactly text[start:end].
func trimSpan(text string, start, end int) (string, int, int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return text[start:end], start, end
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
