package chunker

import (
	"fmt"
	"sort"
)

// Bounds for chunker configuration, in token-estimate units.
const (
	MinTargetChunkSize = 500
	MaxTargetChunkSize = 1000
	MinOverlapSize     = 50
	MaxOverlapSize     = 100
)

// ConfigError reports an invalid chunker configuration. It is returned
// from New, never from Chunk.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "chunker config: " + e.Reason
}

// Config holds the chunking parameters.
type Config struct {
	// TargetChunkSize is the upper bound on a chunk's token estimate.
	TargetChunkSize int
	// OverlapSize is the token budget carried over between adjacent chunks.
	OverlapSize int
	// MarkdownAware enables heading-based section chunking for documents
	// that look like markdown.
	MarkdownAware bool
}

// DefaultConfig returns the chunking parameters used when the caller
// doesn't override them.
func DefaultConfig() Config {
	return Config{
		TargetChunkSize: 800,
		OverlapSize:     80,
		MarkdownAware:   true,
	}
}

// Chunk is a bounded span of a source document, the unit stored and retrieved.
type Chunk struct {
	Text           string
	SourceFile     string
	ChunkIndex     int
	StartPos       int
	EndPos         int
	HeadingContext string
}

// TokenCount estimates the number of LLM tokens in the chunk text.
func (c Chunk) TokenCount() int {
	return EstimateTokens(c.Text)
}

// EstimateTokens approximates the token count of text as ceil(len/4).
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Chunker splits documents into overlapping chunks sized for embedding.
type Chunker struct {
	config Config
}

// New validates the configuration and returns a Chunker.
func New(config Config) (*Chunker, error) {
	if config.TargetChunkSize < MinTargetChunkSize || config.TargetChunkSize > MaxTargetChunkSize {
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"target chunk size %d outside [%d, %d]",
			config.TargetChunkSize, MinTargetChunkSize, MaxTargetChunkSize)}
	}
	if config.OverlapSize < MinOverlapSize || config.OverlapSize > MaxOverlapSize {
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"overlap size %d outside [%d, %d]",
			config.OverlapSize, MinOverlapSize, MaxOverlapSize)}
	}
	if config.TargetChunkSize <= config.OverlapSize {
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"target chunk size %d must exceed overlap size %d",
			config.TargetChunkSize, config.OverlapSize)}
	}
	return &Chunker{config: config}, nil
}

// Chunk splits a single document into ordered chunks. ChunkIndex is
// assigned per source file, starting at 0. An empty document yields no
// chunks.
func (c *Chunker) Chunk(text, sourceFile string) []Chunk {
	if len(text) == 0 {
		return nil
	}

	var chunks []Chunk
	if c.config.MarkdownAware && looksLikeMarkdown(text) {
		chunks = c.chunkMarkdown(text, sourceFile)
	} else {
		chunks = c.chunkSentences(text, sourceFile, 0, "")
	}

	for i := range chunks {
		chunks[i].ChunkIndex = i
	}
	return chunks
}

// ChunkDocuments chunks every document in the map and returns the
// concatenated results. Files are processed in sorted order so output is
// deterministic; chunk indexes are local to each file.
func (c *Chunker) ChunkDocuments(docs map[string]string) []Chunk {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	var all []Chunk
	for _, name := range names {
		all = append(all, c.Chunk(docs[name], name)...)
	}
	return all
}
