package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/engine"
	"docsense/internal/progress"
)

// fakeOllama serves the embed and chat endpoints the engine calls.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
			Input any    `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		n := 1
		if in, ok := req.Input.([]any); ok {
			n = len(in)
		}
		embs := make([][]float32, n)
		for i := range embs {
			embs[i] = []float32{1, 0, 0}
		}
		json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": embs})
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "Grounded answer."},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	ollama := fakeOllama(t)

	eng, err := engine.New(engine.Config{
		DBPath:     filepath.Join(t.TempDir(), "index.db"),
		OllamaURL:  ollama.URL,
		EmbedModel: "test-embed",
		ChatModel:  "test-chat",
	})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	srv := httptest.NewServer(NewServer(eng).Handler())
	t.Cleanup(srv.Close)

	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "guide.md"),
		[]byte("# Guide\n\nMuscle tissue contracts when stimulated."), 0o644))
	return srv, docs
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func waitForBuild(t *testing.T, srv *httptest.Server, id string) progress.Snapshot {
	t.Helper()
	var snap progress.Snapshot
	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/api/progress?id=" + id)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if json.NewDecoder(resp.Body).Decode(&snap) != nil {
			return false
		}
		return snap.Status == progress.StatusCompleted || snap.Status == progress.StatusError
	}, 10*time.Second, 20*time.Millisecond)
	return snap
}

func TestBuildAndQueryOverHTTP(t *testing.T) {
	srv, docs := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/build", map[string]string{"path": docs})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	build := decode[struct {
		BuildID string `json:"buildId"`
	}](t, resp)
	require.NotEmpty(t, build.BuildID)

	snap := waitForBuild(t, srv, build.BuildID)
	require.Equal(t, progress.StatusCompleted, snap.Status)
	assert.Equal(t, 100.0, snap.ProgressPercent)

	statsResp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()
	require.Equal(t, http.StatusOK, statsResp.StatusCode)
	stats := decode[statsResponse](t, statsResp)
	assert.Equal(t, 1, stats.TotalChunks)
	assert.Equal(t, "test-embed", stats.EmbeddingModel)

	queryResp := postJSON(t, srv.URL+"/api/query", map[string]any{"question": "how does muscle tissue work"})
	require.Equal(t, http.StatusOK, queryResp.StatusCode)
	query := decode[queryResponse](t, queryResp)
	assert.Equal(t, "Grounded answer.", query.Answer)
	require.NotEmpty(t, query.Sources)
	assert.Equal(t, "guide.md", query.Sources[0].SourceFile)
}

func TestBuildRejectsPopulatedIndexAsync(t *testing.T) {
	srv, docs := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/build", map[string]string{"path": docs})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	first := decode[struct {
		BuildID string `json:"buildId"`
	}](t, resp)
	require.Equal(t, progress.StatusCompleted, waitForBuild(t, srv, first.BuildID).Status)

	// A rebuild over existing chunks fails inside the build.
	resp = postJSON(t, srv.URL+"/api/build", map[string]string{"path": docs})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	second := decode[struct {
		BuildID string `json:"buildId"`
	}](t, resp)
	snap := waitForBuild(t, srv, second.BuildID)
	assert.Equal(t, progress.StatusError, snap.Status)
	assert.Contains(t, snap.ErrorMessage, "clear")
}

func TestBuildRequiresPath(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/build", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryRequiresQuestion(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/query", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProgressUnknownBuild(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/progress?id=missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Without an id, an idle snapshot comes back before any build.
	resp2, err := http.Get(srv.URL + "/api/progress")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	snap := decode[progress.Snapshot](t, resp2)
	assert.Equal(t, progress.StatusIdle, snap.Status)
}
