// Package engine orchestrates the build and query pipelines: loading
// documents, chunking, embedding, storage, retrieval, and answer
// generation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"docsense/internal/chunker"
	"docsense/internal/embedder"
	"docsense/internal/llm"
	"docsense/internal/loader"
	"docsense/internal/progress"
	"docsense/internal/rag"
	"docsense/internal/relevance"
	"docsense/internal/store"
)

const embedBatchSize = 32

// ErrBuildInProgress is returned when a build is requested while
// another build is still running.
var ErrBuildInProgress = errors.New("a build is already in progress")

// ErrIndexNotEmpty is returned when a build targets a populated index
// without clearing it first.
var ErrIndexNotEmpty = errors.New("index already contains chunks; clear it or rebuild with --force")

// Embedder is the embedding surface the engine needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Chat is the generative surface the engine needs.
type Chat interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
}

// Config holds the engine configuration.
type Config struct {
	DBPath        string
	OllamaURL     string
	EmbedModel    string
	ChatModel     string
	Chunking      chunker.Config
	MinSimilarity float64
	HeadingBoost  float64
	// Force clears a populated index before building instead of
	// rejecting the build.
	Force bool
}

// BuildStats reports build results.
type BuildStats struct {
	DocumentsLoaded int
	ChunksCreated   int
	ChunksSaved     int
}

// Engine is the public API for building and querying a documentation
// index.
type Engine struct {
	store    store.Store
	embedder Embedder
	chat     Chat
	chunker  *chunker.Chunker
	filter   *relevance.Filter
	tracker  *progress.Tracker
	config   Config

	buildMu sync.Mutex
}

// New creates an Engine with the given configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.Chunking == (chunker.Config{}) {
		cfg.Chunking = chunker.DefaultConfig()
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ch, err := chunker.New(cfg.Chunking)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("configure chunker: %w", err)
	}

	return &Engine{
		store:    s,
		embedder: embedder.New(cfg.OllamaURL, cfg.EmbedModel),
		chat:     llm.NewOllamaChat(cfg.OllamaURL, cfg.ChatModel),
		chunker:  ch,
		filter:   relevance.NewFilter(cfg.MinSimilarity),
		tracker:  progress.NewTracker(),
		config:   cfg,
	}, nil
}

// Tracker exposes build progress sessions for polling.
func (e *Engine) Tracker() *progress.Tracker { return e.tracker }

// Build indexes the documents under dir, blocking until the build
// finishes. Only one build may run at a time.
func (e *Engine) Build(ctx context.Context, dir string) (*BuildStats, error) {
	if !e.buildMu.TryLock() {
		return nil, ErrBuildInProgress
	}
	defer e.buildMu.Unlock()

	b := e.tracker.Start()
	stats, err := e.runBuild(ctx, b, dir)
	if err != nil {
		b.Error(err.Error())
		return stats, err
	}
	b.Complete()
	return stats, nil
}

// BuildAsync starts a build in the background and returns its build ID
// for progress polling.
func (e *Engine) BuildAsync(dir string) (string, error) {
	if !e.buildMu.TryLock() {
		return "", ErrBuildInProgress
	}

	b := e.tracker.Start()
	go func() {
		defer e.buildMu.Unlock()
		if _, err := e.runBuild(context.Background(), b, dir); err != nil {
			b.Error(err.Error())
			return
		}
		b.Complete()
	}()
	return b.ID(), nil
}

func (e *Engine) runBuild(ctx context.Context, b *progress.Build, dir string) (*BuildStats, error) {
	if err := e.prepareIndex(); err != nil {
		return nil, err
	}

	stats := &BuildStats{}

	docs, err := loader.LoadDir(dir, func(loaded, total int) {
		b.UpdateDocumentsLoaded(loaded, total)
	})
	if err != nil {
		return stats, fmt.Errorf("load documents: %w", err)
	}
	stats.DocumentsLoaded = len(docs)
	if len(docs) == 0 {
		return stats, fmt.Errorf("no documents found under %s", dir)
	}

	b.StartChunking(len(docs))
	chunks := e.chunker.ChunkDocuments(docs)
	b.UpdateChunking(len(docs), len(docs))
	stats.ChunksCreated = len(chunks)
	if len(chunks) == 0 {
		return stats, fmt.Errorf("no chunks produced from %d documents", len(docs))
	}

	embeddings, err := e.embedChunks(ctx, b, chunks)
	if err != nil {
		return stats, err
	}

	if err := e.saveChunks(ctx, b, chunks, embeddings, stats); err != nil {
		return stats, err
	}

	if err := e.store.SetMeta("embedding_model", e.embedder.Model()); err != nil {
		return stats, fmt.Errorf("set meta: %w", err)
	}

	return stats, nil
}

// prepareIndex enforces the rebuild policy: a populated index is
// rejected unless Force is set, and a change of embedding model always
// clears stale vectors first.
func (e *Engine) prepareIndex() error {
	st, err := e.store.Stats()
	if err != nil {
		return fmt.Errorf("read index stats: %w", err)
	}
	if st.TotalChunks == 0 {
		return nil
	}

	lastModel, err := e.store.GetMeta("embedding_model")
	if err != nil {
		return fmt.Errorf("get meta: %w", err)
	}
	if lastModel != "" && lastModel != e.embedder.Model() {
		fmt.Printf("Embedding model changed from %q to %q — clearing index\n", lastModel, e.embedder.Model())
		return e.store.Clear()
	}

	if !e.config.Force {
		return ErrIndexNotEmpty
	}
	return e.store.Clear()
}

// embedChunks embeds all chunks in fixed-size batches, checking for
// cancellation between batches. Results are re-associated with their
// chunks by position.
func (e *Engine) embedChunks(ctx context.Context, b *progress.Build, chunks []chunker.Chunk) ([][]float32, error) {
	b.StartEmbedding(len(chunks))

	embeddings := make([][]float32, len(chunks))
	for i := 0; i < len(chunks); i += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build cancelled: %w", err)
		}

		end := min(i+embedBatchSize, len(chunks))
		texts := make([]string, end-i)
		for j := i; j < end; j++ {
			texts[j-i] = chunks[j].Text
		}

		vecs, err := e.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", i, end-1, err)
		}
		// The client treats a count mismatch as a warning; here it would
		// persist vectors against the wrong chunks, so the build fails.
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d embeddings for %d texts", i, end-1, len(vecs), len(texts))
		}
		for j, v := range vecs {
			embeddings[i+j] = v
		}

		b.UpdateEmbedding(end, len(chunks))
	}
	return embeddings, nil
}

// saveChunks persists embedded chunks batch by batch. A failure leaves
// earlier batches in place; the build is not atomic.
func (e *Engine) saveChunks(ctx context.Context, b *progress.Build, chunks []chunker.Chunk, embeddings [][]float32, stats *BuildStats) error {
	b.StartSaving(len(chunks))

	for i := 0; i < len(chunks); i += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("build cancelled: %w", err)
		}

		end := min(i+embedBatchSize, len(chunks))
		if err := e.store.SaveBatch(chunks[i:end], embeddings[i:end]); err != nil {
			return fmt.Errorf("save chunks %d-%d: %w", i, end-1, err)
		}
		stats.ChunksSaved = end
		b.UpdateSaving(end, len(chunks))
	}
	return nil
}

// Search embeds the query, retrieves the closest chunks, and filters
// them by relevance with heading-aware reranking.
func (e *Engine) Search(ctx context.Context, query string, topK int) (*relevance.Result, error) {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := e.store.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	res := e.filter.FilterAndRank(candidates, query)
	if e.config.HeadingBoost > 0 {
		res.Relevant = relevance.RerankWithHeadingBoost(res.Relevant, query, e.config.HeadingBoost)
	}
	return &res, nil
}

// Answer is the result of a full retrieval-augmented query.
type Answer struct {
	Response     string
	Sources      []store.Candidate
	QualityScore float64
	Suggestion   string
}

// Query runs retrieval and, when relevant chunks exist, asks the LLM
// for an answer grounded in them. An empty result set is not an error;
// the Answer carries the retrieval suggestion instead.
func (e *Engine) Query(ctx context.Context, question string, topK int, history []llm.Message) (*Answer, error) {
	res, err := e.Search(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	ans := &Answer{
		Sources:      res.Relevant,
		QualityScore: res.QualityScore,
		Suggestion:   res.Suggestion,
	}
	if len(res.Relevant) == 0 {
		return ans, nil
	}

	msgs := rag.BuildMessages(res.Relevant, history, question)
	response, err := e.chat.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	ans.Response = response
	return ans, nil
}

// Stats reports the current index contents alongside the embedding
// model it was built with.
type Stats struct {
	store.Stats
	EmbeddingModel string
}

// Stats returns index statistics.
func (e *Engine) Stats() (*Stats, error) {
	st, err := e.store.Stats()
	if err != nil {
		return nil, fmt.Errorf("read index stats: %w", err)
	}
	model, err := e.store.GetMeta("embedding_model")
	if err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	return &Stats{Stats: st, EmbeddingModel: model}, nil
}

// Clear removes all indexed chunks.
func (e *Engine) Clear() error {
	return e.store.Clear()
}

// IsAvailable reports whether the embedding service is reachable.
func (e *Engine) IsAvailable(ctx context.Context) bool {
	type availChecker interface {
		IsAvailable(ctx context.Context) bool
	}
	if c, ok := e.embedder.(availChecker); ok {
		return c.IsAvailable(ctx)
	}
	return true
}

// Close releases resources.
func (e *Engine) Close() error {
	return e.store.Close()
}
