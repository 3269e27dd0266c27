package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	maxAttempts = 3
	// retryDelay is a fixed pause between attempts. No exponential
	// backoff: the embedding service is local and either comes back
	// quickly or not at all.
	defaultRetryDelay = 2 * time.Second
)

// ErrEmptyResponse is returned when the service answers 2xx but with no
// embeddings. It is surfaced immediately, never retried.
var ErrEmptyResponse = errors.New("embedding service returned no embeddings")

// Client calls an Ollama-compatible /api/embed endpoint and owns the
// retry policy for transient failures.
type Client struct {
	baseURL    string
	model      string
	client     *http.Client
	retryDelay time.Duration
}

// New creates a client targeting the given embedding service and model.
func New(baseURL, model string) *Client {
	return &Client{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		retryDelay: defaultRetryDelay,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type embedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, embedRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds a batch of texts. The result preserves input order;
// a length mismatch against the request is logged but left to the caller.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := c.embed(ctx, embedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		fmt.Fprintf(os.Stderr, "warning: requested %d embeddings, got %d\n", len(texts), len(vecs))
	}
	return vecs, nil
}

// embed posts the request with up to maxAttempts tries, pausing a fixed
// retryDelay between them. The delay is cancellable through ctx so a
// shutdown doesn't hang on a dead service.
func (c *Client) embed(ctx context.Context, req embedRequest) ([][]float32, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx); err != nil {
				return nil, err
			}
		}

		vecs, err := c.post(ctx, body)
		if err == nil {
			return vecs, nil
		}
		if errors.Is(err, ErrEmptyResponse) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, body []byte) ([][]float32, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, ErrEmptyResponse
	}
	return result.Embeddings, nil
}

func (c *Client) wait(ctx context.Context) error {
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsAvailable probes the service's version endpoint. Any failure reads
// as unavailable.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
