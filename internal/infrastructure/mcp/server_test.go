package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/spacecheck/internal/application"
	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/judgment"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/storage"
)

type mcpFetcher struct {
	doc *space.Document
	err error
}

func (f *mcpFetcher) FetchSpace(ctx context.Context, spaceID string) (*space.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type mcpJudge struct{}

func (j *mcpJudge) Evaluate(ctx context.Context, req judgment.Request) (*judgment.Response, error) {
	evals := make(map[string]judgment.Evaluation, len(req.Items))
	for _, item := range req.Items {
		evals[item.ID] = judgment.Evaluation{Passed: true, Rationale: "ok"}
	}
	return &judgment.Response{Evaluations: evals}, nil
}

func mcpStore(t *testing.T) *checklist.Store {
	t.Helper()
	doc := "## `data_sources`\n### `tables`\n- [ ] **[L]** Tables are focused\n"
	path := filepath.Join(t.TempDir(), "checklist.md")
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	store := checklist.NewStore(path, zerolog.Nop())
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	return store
}

func mcpDocument() *space.Document {
	return space.NewDocument(map[string]any{
		"data_sources": map[string]any{
			"tables": []any{map[string]any{"identifier": "main.sales.orders"}},
		},
	})
}

func newTestServer(t *testing.T, fetcher application.Fetcher, repo *storage.FilesystemRepository) *Server {
	t.Helper()
	store := mcpStore(t)
	analyzer := application.NewAnalyzerService(&mcpJudge{}, zerolog.Nop())
	orch := application.NewOrchestrator(fetcher, analyzer, store, 2, zerolog.Nop())
	return NewServer(orch, analyzer, nil, store, fetcher, repo)
}

func TestHandleAnalyzeStoresReport(t *testing.T) {
	repo := storage.NewFilesystemRepository(t.TempDir())
	s := newTestServer(t, &mcpFetcher{doc: mcpDocument()}, repo)

	res, err := s.handleAnalyze(context.Background(), AnalyzeArgs{GenieSpaceID: "space-1"})
	if err != nil {
		t.Fatalf("handleAnalyze: %v", err)
	}
	out, ok := res.(*analysis.AgentOutput)
	if !ok {
		t.Fatalf("result type = %T", res)
	}
	if out.GenieSpaceID != "space-1" || out.OverallScore != 100 {
		t.Errorf("output = %+v", out)
	}

	stored, err := repo.LoadReport("space-1")
	if err != nil {
		t.Fatalf("report was not stored: %v", err)
	}
	if stored.TraceID != out.TraceID {
		t.Errorf("stored trace = %q, want %q", stored.TraceID, out.TraceID)
	}
}

func TestHandleAnalyzeRequiresSpaceID(t *testing.T) {
	s := newTestServer(t, &mcpFetcher{doc: mcpDocument()}, nil)
	if _, err := s.handleAnalyze(context.Background(), AnalyzeArgs{}); err == nil {
		t.Error("expected error for missing space id")
	}
}

func TestHandleAnalyzeSection(t *testing.T) {
	s := newTestServer(t, &mcpFetcher{doc: mcpDocument()}, nil)

	res, err := s.handleAnalyzeSection(context.Background(), AnalyzeSectionArgs{
		GenieSpaceID: "space-1",
		SectionName:  "data_sources.tables",
	})
	if err != nil {
		t.Fatalf("handleAnalyzeSection: %v", err)
	}
	sec, ok := res.(*analysis.SectionAnalysis)
	if !ok {
		t.Fatalf("result type = %T", res)
	}
	if sec.SectionName != "data_sources.tables" || sec.Score != 100 {
		t.Errorf("section = %+v", sec)
	}
}

func TestHandleAnalyzeSectionFetchFailure(t *testing.T) {
	s := newTestServer(t, &mcpFetcher{err: fmt.Errorf("boom")}, nil)
	_, err := s.handleAnalyzeSection(context.Background(), AnalyzeSectionArgs{
		GenieSpaceID: "space-1",
		SectionName:  "data_sources.tables",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// Client-facing errors stay friendly and never leak transport detail.
	if got := err.Error(); got == "boom" {
		t.Errorf("error leaks internals: %q", got)
	}
}

func TestHandleListSections(t *testing.T) {
	s := newTestServer(t, &mcpFetcher{}, nil)
	res, err := s.handleListSections(context.Background(), struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	sections := res.(map[string][]string)["sections"]
	if len(sections) != len(space.SectionNames) {
		t.Errorf("sections = %v", sections)
	}
}

func TestHandleGetChecklist(t *testing.T) {
	s := newTestServer(t, &mcpFetcher{}, nil)
	res, err := s.handleGetChecklist(context.Background(), struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	body := res.(map[string]any)
	sections := body["sections"].(map[string][]checklist.Item)
	if len(sections["data_sources.tables"]) != 1 {
		t.Errorf("sections = %+v", sections)
	}
}

func TestHandleGetReport(t *testing.T) {
	t.Run("without storage", func(t *testing.T) {
		s := newTestServer(t, &mcpFetcher{}, nil)
		if _, err := s.handleGetReport(context.Background(), GetReportArgs{GenieSpaceID: "x"}); err == nil {
			t.Error("expected error without a repository")
		}
	})

	t.Run("missing report", func(t *testing.T) {
		repo := storage.NewFilesystemRepository(t.TempDir())
		s := newTestServer(t, &mcpFetcher{}, repo)
		if _, err := s.handleGetReport(context.Background(), GetReportArgs{GenieSpaceID: "x"}); err == nil {
			t.Error("expected error for missing report")
		}
	})
}

func TestHandleOptimizeUnconfigured(t *testing.T) {
	s := newTestServer(t, &mcpFetcher{doc: mcpDocument()}, nil)
	if _, err := s.handleOptimize(context.Background(), OptimizeArgs{GenieSpaceID: "x"}); err == nil {
		t.Error("expected error when the optimizer backend is not configured")
	}
}
