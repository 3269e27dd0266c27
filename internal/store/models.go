package store

import (
	"time"

	"docsense/internal/chunker"
)

// ChunkRecord is a persisted chunk with its embedding. Records are
// immutable once saved; the only way to remove them is Clear.
type ChunkRecord struct {
	ID        int64
	Chunk     chunker.Chunk
	Embedding []float32
	CreatedAt time.Time
}

// Candidate pairs a stored record with its cosine similarity to a query.
// Candidates are produced fresh per search and never persisted.
type Candidate struct {
	Record     ChunkRecord
	Similarity float64
}

// Stats summarizes store contents.
type Stats struct {
	TotalChunks     int
	DistinctSources int
}
