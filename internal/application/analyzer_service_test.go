package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/judgment"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

// stubJudge scripts judgment responses for tests.
type stubJudge struct {
	fn       func(ctx context.Context, req judgment.Request) (*judgment.Response, error)
	requests []judgment.Request
}

func (j *stubJudge) Evaluate(ctx context.Context, req judgment.Request) (*judgment.Response, error) {
	j.requests = append(j.requests, req)
	if j.fn == nil {
		return &judgment.Response{Evaluations: map[string]judgment.Evaluation{}}, nil
	}
	return j.fn(ctx, req)
}

func testItems() []checklist.Item {
	return []checklist.Item{
		{
			ID: "max-check", Description: "At most 2 entries", Kind: checklist.KindProgrammatic,
			Severity: checklist.SeverityHigh,
			Params:   map[string]any{"rule": "max_items", "limit": 2},
		},
		{
			ID: "judged-one", Description: "Entries are meaningful", Kind: checklist.KindJudged,
			Severity: checklist.SeverityMedium,
		},
		{
			ID: "min-check", Description: "At least 1 entry", Kind: checklist.KindProgrammatic,
			Severity: checklist.SeverityLow,
			Params:   map[string]any{"rule": "min_items", "limit": 1},
		},
	}
}

func TestAnalyzeSectionMergesInDeclarationOrder(t *testing.T) {
	judge := &stubJudge{fn: func(_ context.Context, req judgment.Request) (*judgment.Response, error) {
		return &judgment.Response{
			Evaluations: map[string]judgment.Evaluation{
				"judged-one": {Passed: true, Rationale: "looks fine"},
			},
			Summary: "section is healthy",
		}, nil
	}}
	svc := NewAnalyzerService(judge, zerolog.Nop())

	sec := space.Section{Name: "data_sources.tables", HasData: true, Data: []any{map[string]any{"a": 1}}}
	result := svc.AnalyzeSection(context.Background(), nil, sec, testItems())

	wantOrder := []string{"max-check", "judged-one", "min-check"}
	if len(result.Checklist) != len(wantOrder) {
		t.Fatalf("got %d results, want %d", len(result.Checklist), len(wantOrder))
	}
	for i, id := range wantOrder {
		if result.Checklist[i].ID != id {
			t.Errorf("result %d = %q, want %q", i, result.Checklist[i].ID, id)
		}
	}
	if result.Score != 100 {
		t.Errorf("score = %v, want 100", result.Score)
	}
	if result.Summary != "section is healthy" {
		t.Errorf("summary = %q, want the judge summary", result.Summary)
	}
	if result.Checklist[1].Details != "looks fine" {
		t.Errorf("judged details = %q", result.Checklist[1].Details)
	}
}

func TestAnalyzeSectionSkipsJudgeWhenSectionHasNoData(t *testing.T) {
	judge := &stubJudge{}
	svc := NewAnalyzerService(judge, zerolog.Nop())

	sec := space.Section{Name: "benchmarks.questions", HasData: false}
	result := svc.AnalyzeSection(context.Background(), nil, sec, testItems())

	if len(judge.requests) != 0 {
		t.Fatalf("judge was called %d times for a section without data", len(judge.requests))
	}

	var judged analysis.ChecklistItemResult
	for _, r := range result.Checklist {
		if r.ID == "judged-one" {
			judged = r
		}
	}
	if judged.Applicable {
		t.Error("judged item on empty section must not be applicable")
	}

	// max_items passes vacuously, min_items fails; judged item excluded.
	if result.Score != 50 {
		t.Errorf("score = %v, want 50", result.Score)
	}
}

func TestAnalyzeSectionDegradesOnJudgeFailure(t *testing.T) {
	judge := &stubJudge{fn: func(context.Context, judgment.Request) (*judgment.Response, error) {
		return nil, errors.New("backend unreachable")
	}}
	svc := NewAnalyzerService(judge, zerolog.Nop())

	sec := space.Section{Name: "data_sources.tables", HasData: true, Data: []any{map[string]any{"a": 1}}}
	result := svc.AnalyzeSection(context.Background(), nil, sec, testItems())

	// Only the two programmatic results survive.
	if len(result.Checklist) != 2 {
		t.Fatalf("got %d results, want 2", len(result.Checklist))
	}
	for _, r := range result.Checklist {
		if r.ID == "judged-one" {
			t.Error("judged item leaked into a degraded result")
		}
	}

	var warnings int
	for _, f := range result.Findings {
		if f.Category == analysis.CategoryWarning {
			warnings++
			if !strings.Contains(f.Description, "backend unreachable") {
				t.Errorf("warning does not carry the cause: %q", f.Description)
			}
		}
	}
	if warnings != 1 {
		t.Errorf("got %d warning findings, want exactly 1", warnings)
	}
	if !strings.Contains(result.Summary, "unavailable") {
		t.Errorf("summary = %q, want degradation noted", result.Summary)
	}
}

func TestAnalyzeSectionFindingsFromFailures(t *testing.T) {
	judge := &stubJudge{fn: func(context.Context, judgment.Request) (*judgment.Response, error) {
		return &judgment.Response{
			Evaluations: map[string]judgment.Evaluation{
				"judged-one": {Passed: false, Rationale: "entries are vague"},
			},
		}, nil
	}}
	svc := NewAnalyzerService(judge, zerolog.Nop())

	// Three entries trip the max_items limit of two.
	sec := space.Section{Name: "data_sources.tables", HasData: true, Data: []any{1, 2, 3}}
	result := svc.AnalyzeSection(context.Background(), nil, sec, testItems())

	byRef := make(map[string]analysis.Finding)
	for _, f := range result.Findings {
		byRef[f.Reference] = f
	}

	prog, ok := byRef["max-check"]
	if !ok {
		t.Fatal("no finding for the failing programmatic item")
	}
	if prog.Severity != "high" {
		t.Errorf("programmatic finding severity = %q, want high", prog.Severity)
	}
	if !strings.Contains(prog.Recommendation, "At most 2 entries") {
		t.Errorf("programmatic recommendation = %q, want templated fix hint", prog.Recommendation)
	}

	judged, ok := byRef["judged-one"]
	if !ok {
		t.Fatal("no finding for the failing judged item")
	}
	if judged.Recommendation != "entries are vague" {
		t.Errorf("judged recommendation = %q, want the rationale", judged.Recommendation)
	}

	// min_items passed, no finding for it.
	if _, ok := byRef["min-check"]; ok {
		t.Error("passing item produced a finding")
	}
}

func TestAnalyzeSectionPassesSurroundingContext(t *testing.T) {
	doc := space.NewDocument(map[string]any{
		"data_sources": map[string]any{
			"tables": []any{
				map[string]any{"identifier": "main.sales.orders"},
				map[string]any{"name": "customers"},
			},
		},
		"instructions": map[string]any{
			"text_instructions": []any{map[string]any{"content": "x"}},
		},
	})

	judge := &stubJudge{}
	svc := NewAnalyzerService(judge, zerolog.Nop())

	sec := doc.Section("instructions.text_instructions")
	items := []checklist.Item{{ID: "j", Description: "judged", Kind: checklist.KindJudged}}
	svc.AnalyzeSection(context.Background(), doc, sec, items)

	if len(judge.requests) != 1 {
		t.Fatalf("judge calls = %d, want 1", len(judge.requests))
	}
	ids, _ := judge.requests[0].Context["table_identifiers"].([]string)
	if len(ids) != 2 || ids[0] != "main.sales.orders" || ids[1] != "customers" {
		t.Errorf("table_identifiers = %v", ids)
	}
}

func TestAnalyzeSectionMissingVerdictFailsItem(t *testing.T) {
	judge := &stubJudge{fn: func(context.Context, judgment.Request) (*judgment.Response, error) {
		return &judgment.Response{Evaluations: map[string]judgment.Evaluation{}}, nil
	}}
	svc := NewAnalyzerService(judge, zerolog.Nop())

	sec := space.Section{Name: "data_sources.tables", HasData: true, Data: []any{1}}
	items := []checklist.Item{{ID: "j", Description: "judged", Kind: checklist.KindJudged}}
	result := svc.AnalyzeSection(context.Background(), nil, sec, items)

	if len(result.Checklist) != 1 {
		t.Fatalf("got %d results", len(result.Checklist))
	}
	r := result.Checklist[0]
	if r.Passed || !r.Applicable {
		t.Errorf("missing verdict: passed=%v applicable=%v, want failed but applicable", r.Passed, r.Applicable)
	}
}
