// Package api exposes the analysis engine over HTTP, including the SSE
// progress stream.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/spacecheck/internal/application"
	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/genie"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/sse"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/storage"
)

// Server is the analysis HTTP server.
type Server struct {
	addr         string
	orchestrator *application.Orchestrator
	analyzer     *application.AnalyzerService
	store        *checklist.Store
	fetcher      application.Fetcher
	repo         *storage.FilesystemRepository
	logger       zerolog.Logger
	server       *http.Server
}

// NewServer creates the HTTP server. repo may be nil to disable report
// persistence.
func NewServer(addr string, orchestrator *application.Orchestrator, analyzer *application.AnalyzerService, store *checklist.Store, fetcher application.Fetcher, repo *storage.FilesystemRepository, logger zerolog.Logger) *Server {
	return &Server{
		addr:         addr,
		orchestrator: orchestrator,
		analyzer:     analyzer,
		store:        store,
		fetcher:      fetcher,
		repo:         repo,
		logger:       logger.With().Str("component", "api").Logger(),
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/space/fetch", s.handleFetchSpace)
	mux.HandleFunc("POST /api/space/parse", s.handleParseSpace)
	mux.HandleFunc("POST /api/analyze/section", s.handleAnalyzeSection)
	mux.HandleFunc("POST /api/analyze/stream", s.handleAnalyzeStream)
	mux.HandleFunc("GET /api/checklist", s.handleChecklist)
	mux.HandleFunc("GET /api/sections", s.handleSections)
	mux.HandleFunc("GET /api/healthz", s.handleHealthz)

	return mux
}

// Start starts the server. WriteTimeout stays zero so long-lived SSE
// streams are not cut off.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
	}

	s.logger.Info().Str("addr", s.addr).Msg("HTTP server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type fetchSpaceRequest struct {
	GenieSpaceID string `json:"genie_space_id"`
}

type parseSpaceRequest struct {
	JSONContent string `json:"json_content"`
}

type spaceResponse struct {
	GenieSpaceID string          `json:"genie_space_id"`
	Sections     []space.Section `json:"sections"`
}

func (s *Server) handleFetchSpace(w http.ResponseWriter, r *http.Request) {
	var req fetchSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GenieSpaceID == "" {
		writeError(w, http.StatusBadRequest, "genie_space_id is required")
		return
	}

	doc, err := s.fetcher.FetchSpace(r.Context(), req.GenieSpaceID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, spaceResponse{GenieSpaceID: req.GenieSpaceID, Sections: doc.Sections()})
}

func (s *Server) handleParseSpace(w http.ResponseWriter, r *http.Request) {
	var req parseSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JSONContent == "" {
		writeError(w, http.StatusBadRequest, "json_content is required")
		return
	}

	doc, spaceID, err := genie.ParseRaw(req.JSONContent)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, spaceResponse{GenieSpaceID: spaceID, Sections: doc.Sections()})
}

type analyzeSectionRequest struct {
	SectionName string         `json:"section_name"`
	SpaceData   map[string]any `json:"space_data"`
}

func (s *Server) handleAnalyzeSection(w http.ResponseWriter, r *http.Request) {
	var req analyzeSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SectionName == "" {
		writeError(w, http.StatusBadRequest, "section_name is required")
		return
	}

	doc := space.NewDocument(req.SpaceData)
	items := s.store.Current().ItemsForSection(req.SectionName)
	result := s.analyzer.AnalyzeSection(r.Context(), doc, doc.Section(req.SectionName), items)
	writeJSON(w, result)
}

type analyzeStreamRequest struct {
	GenieSpaceID string         `json:"genie_space_id"`
	SpaceData    map[string]any `json:"space_data"`
}

// handleAnalyzeStream runs a full analysis and streams progress as SSE.
// The run is cancelled when the client disconnects. The stream ends right
// after the result event.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	var req analyzeStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GenieSpaceID == "" && req.SpaceData == nil {
		writeError(w, http.StatusBadRequest, "genie_space_id or space_data is required")
		return
	}

	ctx := r.Context()
	var events <-chan analysis.Event
	if req.SpaceData != nil {
		events = s.streamDocument(ctx, space.NewDocument(req.SpaceData), req.GenieSpaceID)
	} else {
		events = s.orchestrator.RunStream(ctx, req.GenieSpaceID)
	}

	_ = sse.Stream(w, r, s.persistResults(events))
}

// streamDocument streams a run over an already-parsed document. Pasted
// configs without an id get a synthetic one so the report has a stable key.
func (s *Server) streamDocument(ctx context.Context, doc *space.Document, spaceID string) <-chan analysis.Event {
	if spaceID == "" {
		spaceID = "pasted-" + time.Now().Format("20060102-150405")
	}
	return s.orchestrator.RunDocumentStream(ctx, doc, spaceID)
}

// persistResults saves the final report as it passes through the stream.
func (s *Server) persistResults(in <-chan analysis.Event) <-chan analysis.Event {
	if s.repo == nil {
		return in
	}
	out := make(chan analysis.Event, 8)
	go func() {
		defer close(out)
		for e := range in {
			if e.Status == analysis.StatusResult && e.Data != nil {
				if err := s.repo.SaveReport(e.Data); err != nil {
					s.logger.Warn().Err(err).Msg("report not persisted")
				}
			}
			out <- e
		}
	}()
	return out
}

type checklistResponse struct {
	Version  int64                       `json:"version"`
	Sections map[string][]checklist.Item `json:"sections"`
}

func (s *Server) handleChecklist(w http.ResponseWriter, r *http.Request) {
	spec := s.store.Current()
	sections := make(map[string][]checklist.Item, len(spec.Sections()))
	for _, name := range spec.Sections() {
		sections[name] = spec.ItemsForSection(name)
	}
	writeJSON(w, checklistResponse{Version: spec.Version(), Sections: sections})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{"sections": space.SectionNames})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
