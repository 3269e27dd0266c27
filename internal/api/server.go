// Package api exposes the engine over a small HTTP interface: starting
// builds, polling progress, and querying the index.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"docsense/internal/engine"
	"docsense/internal/progress"
)

// Server handles the HTTP API.
type Server struct {
	eng *engine.Engine
}

// NewServer creates a server around the engine.
func NewServer(eng *engine.Engine) *Server {
	return &Server{eng: eng}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/build", s.handleBuild)
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	return mux
}

type buildRequest struct {
	Path string `json:"path"`
}

type buildResponse struct {
	BuildID string `json:"buildId"`
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}

	id, err := s.eng.BuildAsync(req.Path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrBuildInProgress) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusAccepted, buildResponse{BuildID: id})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var snap progress.Snapshot
	if id := r.URL.Query().Get("id"); id != "" {
		b, ok := s.eng.Tracker().Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("no build with id %q", id))
			return
		}
		snap = b.Snapshot()
	} else {
		snap = s.eng.Tracker().CurrentSnapshot()
	}
	writeJSON(w, http.StatusOK, snap)
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"topK"`
}

type querySource struct {
	SourceFile     string  `json:"sourceFile"`
	HeadingContext string  `json:"headingContext,omitempty"`
	Similarity     float64 `json:"similarity"`
	Text           string  `json:"text"`
}

type queryResponse struct {
	Answer       string        `json:"answer,omitempty"`
	Suggestion   string        `json:"suggestion,omitempty"`
	QualityScore float64       `json:"qualityScore"`
	Sources      []querySource `json:"sources"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, errors.New("question is required"))
		return
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}

	ans, err := s.eng.Query(r.Context(), req.Question, req.TopK, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := queryResponse{
		Answer:       ans.Response,
		QualityScore: ans.QualityScore,
		Sources:      make([]querySource, 0, len(ans.Sources)),
	}
	if ans.Response == "" {
		resp.Suggestion = ans.Suggestion
	}
	for _, c := range ans.Sources {
		resp.Sources = append(resp.Sources, querySource{
			SourceFile:     c.Record.Chunk.SourceFile,
			HeadingContext: c.Record.Chunk.HeadingContext,
			Similarity:     c.Similarity,
			Text:           c.Record.Chunk.Text,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	TotalChunks     int    `json:"totalChunks"`
	DistinctSources int    `json:"distinctSources"`
	EmbeddingModel  string `json:"embeddingModel,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.eng.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalChunks:     stats.TotalChunks,
		DistinctSources: stats.DistinctSources,
		EmbeddingModel:  stats.EmbeddingModel,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
