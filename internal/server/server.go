// Package server exposes the query pipeline over an HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"citeseek/internal/index"
	"citeseek/internal/rag"
	"citeseek/internal/store"
)

// Answerer runs the query pipeline.
type Answerer interface {
	Answer(ctx context.Context, query string) (*rag.Response, error)
}

// Reindexer rebuilds the index on demand.
type Reindexer interface {
	Reindex(ctx context.Context) (*index.Stats, error)
	Running() bool
}

// StatsSource reports on the published index.
type StatsSource interface {
	TotalDocuments() (int, error)
	ListDocuments() ([]store.Document, error)
}

// Info describes the static configuration echoed in the stats endpoint.
type Info struct {
	DatabasePath string
	SourcesDir   string
	ChunkSize    int
	ChunkOverlap int
}

// Server wires the pipeline behind the HTTP API.
type Server struct {
	engine  Answerer
	indexer Reindexer
	stats   StatsSource
	info    Info
}

// New creates a server over the given capabilities.
func New(engine Answerer, indexer Reindexer, stats StatsSource, info Info) *Server {
	return &Server{engine: engine, indexer: indexer, stats: stats, info: info}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/documents", s.handleDocuments)
	mux.HandleFunc("/api/reindex", s.handleReindex)
	return mux
}

// ListenAndServe runs the API until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Response   string   `json:"response"`
	Citations  []string `json:"citations"`
	NumSources int      `json:"num_sources"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/query  { "query": "your question" }
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	reqID := uuid.NewString()

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	resp, err := s.engine.Answer(r.Context(), req.Query)
	if err != nil {
		log.Printf("[%s] query failed: %v", reqID, err)
		writeError(w, http.StatusBadGateway, "failed to generate response")
		return
	}
	log.Printf("[%s] answered with %d sources in %s", reqID, resp.SourceCount, time.Since(start).Round(time.Millisecond))

	references := make([]string, len(resp.Citations))
	for i, c := range resp.Citations {
		references[i] = c.Reference
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Response:   resp.Answer,
		Citations:  references,
		NumSources: resp.SourceCount,
	})
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	total, err := s.stats.TotalDocuments()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_documents":   total,
		"database_path":     s.info.DatabasePath,
		"sources_directory": s.info.SourcesDir,
		"chunk_size":        s.info.ChunkSize,
		"chunk_overlap":     s.info.ChunkOverlap,
	})
}

// GET /api/documents
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	docs, err := s.stats.ListDocuments()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	type docEntry struct {
		DocID  string `json:"doc_id"`
		Title  string `json:"title"`
		Author string `json:"author"`
		Year   string `json:"year"`
		Pages  int    `json:"pages"`
	}
	entries := make([]docEntry, len(docs))
	for i, d := range docs {
		entries[i] = docEntry{DocID: d.DocID, Title: d.Title, Author: d.Author, Year: d.Year, Pages: d.Pages}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": entries})
}

// POST /api/reindex
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	reqID := uuid.NewString()
	log.Printf("[%s] reindex requested", reqID)

	stats, err := s.indexer.Reindex(r.Context())
	if err != nil {
		if errors.Is(err, index.ErrReindexInProgress) {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": err.Error()})
			return
		}
		log.Printf("[%s] reindex failed: %v", reqID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"documents_indexed": stats.DocumentsIndexed,
		"documents_skipped": stats.DocumentsSkipped,
		"chunks_indexed":    stats.ChunksIndexed,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
