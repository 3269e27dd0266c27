package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"docsense/internal/chunker"
)

// Store provides persistence for chunk records and similarity search
// over their embeddings.
type Store interface {
	// Save appends a single chunk record.
	Save(chunk chunker.Chunk, embedding []float32) error
	// SaveBatch appends chunk records in one transaction. Chunks and
	// embeddings are paired by index.
	SaveBatch(chunks []chunker.Chunk, embeddings [][]float32) error
	// Search returns the top-k records by cosine similarity to the
	// query embedding, descending. A dimension mismatch against any
	// stored record is a hard error.
	Search(queryEmbedding []float32, topK int) ([]Candidate, error)
	// Clear deletes every record. Used to rebuild the index from scratch.
	Clear() error
	// Stats reports chunk and source counts.
	Stats() (Stats, error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(key, value string) error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by a single SQLite table. Search
// is a full linear scan with the similarity computed in-process, which
// is fine at the corpus sizes this targets (hundreds to low thousands
// of chunks).
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and
// initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(chunk chunker.Chunk, embedding []float32) error {
	return s.SaveBatch([]chunker.Chunk{chunk}, [][]float32{embedding})
}

func (s *SQLiteStore) SaveBatch(chunks []chunker.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("mismatched chunks (%d) and embeddings (%d)", len(chunks), len(embeddings))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO chunks (chunk_text, source_file, chunk_index, start_pos, end_pos, embedding, heading_context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for i, c := range chunks {
		blob, err := json.Marshal(embeddings[i])
		if err != nil {
			return fmt.Errorf("serialize embedding for chunk %d of %s: %w", c.ChunkIndex, c.SourceFile, err)
		}
		_, err = stmt.Exec(c.Text, c.SourceFile, c.ChunkIndex, c.StartPos, c.EndPos, string(blob), c.HeadingContext, now)
		if err != nil {
			return fmt.Errorf("insert chunk %d of %s: %w", c.ChunkIndex, c.SourceFile, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Search(queryEmbedding []float32, topK int) ([]Candidate, error) {
	rows, err := s.db.Query(`
		SELECT id, chunk_text, source_file, chunk_index, start_pos, end_pos, embedding, heading_context, created_at
		FROM chunks
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var rec ChunkRecord
		var blob string
		var createdAt int64
		err := rows.Scan(
			&rec.ID,
			&rec.Chunk.Text, &rec.Chunk.SourceFile, &rec.Chunk.ChunkIndex,
			&rec.Chunk.StartPos, &rec.Chunk.EndPos,
			&blob, &rec.Chunk.HeadingContext, &createdAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(blob), &rec.Embedding); err != nil {
			return nil, fmt.Errorf("deserialize embedding for record %d: %w", rec.ID, err)
		}
		rec.CreatedAt = time.UnixMilli(createdAt)

		sim, err := Cosine(queryEmbedding, rec.Embedding)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.ID, err)
		}
		candidates = append(candidates, Candidate{Record: rec, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if topK >= 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM chunks")
	return err
}

func (s *SQLiteStore) Stats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(
		"SELECT COUNT(*), COUNT(DISTINCT source_file) FROM chunks",
	).Scan(&st.TotalChunks, &st.DistinctSources)
	return st, err
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
