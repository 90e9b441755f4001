package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/judgment"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

// stubFetcher serves a fixed document.
type stubFetcher struct {
	doc *space.Document
	err error
}

func (f *stubFetcher) FetchSpace(ctx context.Context, spaceID string) (*space.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

// fullChecklist declares one judged item for every recognized section.
func fullChecklist(t *testing.T) *checklist.Store {
	t.Helper()
	doc := "## `config`\n### `sample_questions`\n- [ ] **[L]** Questions are useful\n" +
		"## `data_sources`\n### `tables`\n- [ ] **[L]** Tables are focused\n" +
		"### `metric_views`\n- [ ] **[L]** Metric views are governed\n" +
		"## `instructions`\n### `text_instructions`\n- [ ] **[L]** Instructions are concrete\n" +
		"### `example_question_sqls`\n- [ ] **[L]** Examples cover hard questions\n" +
		"### `sql_functions`\n- [ ] **[L]** Functions encapsulate logic\n" +
		"### `join_specs`\n- [ ] **[L]** Joins cover relationships\n" +
		"### `sql_snippets`\n#### `filters`\n- [ ] **[L]** Filters encode definitions\n" +
		"#### `expressions`\n- [ ] **[L]** Expressions are named\n" +
		"#### `measures`\n- [ ] **[L]** Measures define KPIs\n" +
		"## `benchmarks`\n### `questions`\n- [ ] **[L]** Benchmarks are verified\n"

	path := filepath.Join(t.TempDir(), "checklist.md")
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	store := checklist.NewStore(path, zerolog.Nop())
	if err := store.Load(); err != nil {
		t.Fatalf("load checklist: %v", err)
	}
	return store
}

// fullDocument carries data in every recognized section.
func fullDocument() *space.Document {
	raw := map[string]any{}
	for _, name := range space.SectionNames {
		parts := splitPath(name)
		current := raw
		for i, p := range parts {
			if i == len(parts)-1 {
				current[p] = []any{map[string]any{"value": name}}
				break
			}
			next, ok := current[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				current[p] = next
			}
			current = next
		}
	}
	return space.NewDocument(raw)
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return parts
}

func passingJudge() *stubJudge {
	return &stubJudge{fn: func(_ context.Context, req judgment.Request) (*judgment.Response, error) {
		evals := make(map[string]judgment.Evaluation, len(req.Items))
		for _, item := range req.Items {
			evals[item.ID] = judgment.Evaluation{Passed: true, Rationale: "ok"}
		}
		return &judgment.Response{Evaluations: evals}, nil
	}}
}

func TestRunPreservesSectionOrderUnderConcurrency(t *testing.T) {
	store := fullChecklist(t)
	analyzer := NewAnalyzerService(passingJudge(), zerolog.Nop())
	fetcher := &stubFetcher{doc: fullDocument()}
	orch := NewOrchestrator(fetcher, analyzer, store, 4, zerolog.Nop())

	out, err := orch.Run(context.Background(), "space-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.GenieSpaceID != "space-1" {
		t.Errorf("space id = %q", out.GenieSpaceID)
	}
	if out.TraceID == "" {
		t.Error("trace id is empty")
	}
	if len(out.Analyses) != len(space.SectionNames) {
		t.Fatalf("analyses = %d, want %d", len(out.Analyses), len(space.SectionNames))
	}
	for i, a := range out.Analyses {
		if a == nil {
			t.Fatalf("slot %d is nil", i)
		}
		if a.SectionName != space.SectionNames[i] {
			t.Errorf("slot %d = %q, want %q", i, a.SectionName, space.SectionNames[i])
		}
	}
	if out.OverallScore != 100 {
		t.Errorf("overall score = %v, want 100", out.OverallScore)
	}
}

func TestRunIsReproducible(t *testing.T) {
	store := fullChecklist(t)
	analyzer := NewAnalyzerService(passingJudge(), zerolog.Nop())
	fetcher := &stubFetcher{doc: fullDocument()}
	orch := NewOrchestrator(fetcher, analyzer, store, 3, zerolog.Nop())

	first, err := orch.Run(context.Background(), "space-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := orch.Run(context.Background(), "space-1")
	if err != nil {
		t.Fatal(err)
	}

	if first.OverallScore != second.OverallScore {
		t.Errorf("overall scores differ: %v != %v", first.OverallScore, second.OverallScore)
	}
	for i := range first.Analyses {
		a, b := first.Analyses[i], second.Analyses[i]
		if a.Score != b.Score || !reflect.DeepEqual(a.Checklist, b.Checklist) {
			t.Errorf("section %s differs between runs", a.SectionName)
		}
	}
}

func TestRunStreamEventSequence(t *testing.T) {
	store := fullChecklist(t)
	analyzer := NewAnalyzerService(passingJudge(), zerolog.Nop())
	fetcher := &stubFetcher{doc: fullDocument()}
	orch := NewOrchestrator(fetcher, analyzer, store, 3, zerolog.Nop())

	var events []analysis.Event
	for e := range orch.RunStream(context.Background(), "space-1") {
		events = append(events, e)
	}

	total := len(space.SectionNames)
	if len(events) != 1+total+2 {
		t.Fatalf("got %d events, want %d", len(events), 1+total+2)
	}
	if events[0].Status != analysis.StatusFetching {
		t.Errorf("first event = %q, want fetching", events[0].Status)
	}

	seen := make(map[int]bool)
	for i := 1; i <= total; i++ {
		e := events[i]
		if e.Status != analysis.StatusAnalyzing {
			t.Fatalf("event %d = %q, want analyzing", i, e.Status)
		}
		if e.Total != total {
			t.Errorf("event %d total = %d, want %d", i, e.Total, total)
		}
		if e.Current != i {
			t.Errorf("event %d current = %d, want monotonic %d", i, e.Current, i)
		}
		if seen[e.Current] {
			t.Errorf("duplicate current value %d", e.Current)
		}
		seen[e.Current] = true
		if e.Section == "" {
			t.Errorf("event %d has no section", i)
		}
	}

	complete := events[len(events)-2]
	if complete.Status != analysis.StatusComplete || complete.Current != total {
		t.Errorf("penultimate event = %+v, want complete at %d", complete, total)
	}
	result := events[len(events)-1]
	if result.Status != analysis.StatusResult || result.Data == nil {
		t.Errorf("final event = %+v, want result with data", result)
	}
}

func TestRunStreamProgressOrderUnderLoad(t *testing.T) {
	store := fullChecklist(t)
	analyzer := NewAnalyzerService(passingJudge(), zerolog.Nop())
	fetcher := &stubFetcher{doc: fullDocument()}
	orch := NewOrchestrator(fetcher, analyzer, store, 8, zerolog.Nop())

	// Sections finish nearly simultaneously at high concurrency; Current
	// must still arrive strictly increasing on every run.
	for run := 0; run < 1000; run++ {
		prev := 0
		for e := range orch.RunStream(context.Background(), "space-1") {
			if e.Status != analysis.StatusAnalyzing {
				continue
			}
			if e.Current != prev+1 {
				t.Fatalf("run %d: analyzing current went %d after %d", run, e.Current, prev)
			}
			prev = e.Current
		}
		if prev != len(space.SectionNames) {
			t.Fatalf("run %d: last current = %d, want %d", run, prev, len(space.SectionNames))
		}
	}
}

func TestRunDocumentStreamEmitsFullSequence(t *testing.T) {
	store := fullChecklist(t)
	analyzer := NewAnalyzerService(passingJudge(), zerolog.Nop())
	// No fetcher involved: the document is already parsed.
	orch := NewOrchestrator(&stubFetcher{}, analyzer, store, 3, zerolog.Nop())

	var events []analysis.Event
	for e := range orch.RunDocumentStream(context.Background(), fullDocument(), "pasted-1") {
		events = append(events, e)
	}

	total := len(space.SectionNames)
	if len(events) != 1+total+2 {
		t.Fatalf("got %d events, want %d", len(events), 1+total+2)
	}
	if events[0].Status != analysis.StatusFetching {
		t.Errorf("first event = %q, want fetching", events[0].Status)
	}
	for i := 1; i <= total; i++ {
		if events[i].Status != analysis.StatusAnalyzing || events[i].Current != i {
			t.Fatalf("event %d = %+v, want analyzing at %d", i, events[i], i)
		}
	}
	result := events[len(events)-1]
	if result.Status != analysis.StatusResult || result.Data == nil {
		t.Fatalf("final event = %+v, want result with data", result)
	}
	if result.Data.GenieSpaceID != "pasted-1" {
		t.Errorf("space id = %q", result.Data.GenieSpaceID)
	}
}

func TestRunStreamFetchFailureClosesWithoutResult(t *testing.T) {
	store := fullChecklist(t)
	analyzer := NewAnalyzerService(passingJudge(), zerolog.Nop())
	fetcher := &stubFetcher{err: &analysis.FetchError{SpaceID: "nope", Err: errors.New("403")}}
	orch := NewOrchestrator(fetcher, analyzer, store, 3, zerolog.Nop())

	var events []analysis.Event
	for e := range orch.RunStream(context.Background(), "nope") {
		events = append(events, e)
	}

	if len(events) != 1 || events[0].Status != analysis.StatusFetching {
		t.Fatalf("events = %+v, want only the fetching event", events)
	}
}

func TestRunCancellationReturnsPartialOutput(t *testing.T) {
	store := fullChecklist(t)

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	calls := 0
	judge := &stubJudge{fn: func(_ context.Context, req judgment.Request) (*judgment.Response, error) {
		mu.Lock()
		calls++
		if calls == 4 {
			cancel()
		}
		mu.Unlock()
		evals := make(map[string]judgment.Evaluation, len(req.Items))
		for _, item := range req.Items {
			evals[item.ID] = judgment.Evaluation{Passed: true}
		}
		return &judgment.Response{Evaluations: evals}, nil
	}}

	analyzer := NewAnalyzerService(judge, zerolog.Nop())
	fetcher := &stubFetcher{doc: fullDocument()}
	// Concurrency 1 makes section completion sequential and deterministic.
	orch := NewOrchestrator(fetcher, analyzer, store, 1, zerolog.Nop())

	out, err := orch.Run(ctx, "space-1")
	if err != nil {
		t.Fatalf("cancelled run must not error, got %v", err)
	}

	completed := out.Completed()
	if len(completed) != 3 {
		t.Fatalf("completed = %d sections, want 3", len(completed))
	}
	for i, a := range completed {
		if a.SectionName != space.SectionNames[i] {
			t.Errorf("completed[%d] = %q, want %q", i, a.SectionName, space.SectionNames[i])
		}
	}
	for i := 4; i < len(out.Analyses); i++ {
		if out.Analyses[i] != nil {
			t.Errorf("slot %d populated after cancellation", i)
		}
	}
}

func TestRunStreamStopsEmittingAfterCancellation(t *testing.T) {
	store := fullChecklist(t)

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	calls := 0
	judge := &stubJudge{fn: func(_ context.Context, req judgment.Request) (*judgment.Response, error) {
		mu.Lock()
		calls++
		if calls == 4 {
			cancel()
		}
		mu.Unlock()
		return &judgment.Response{Evaluations: map[string]judgment.Evaluation{}}, nil
	}}

	analyzer := NewAnalyzerService(judge, zerolog.Nop())
	fetcher := &stubFetcher{doc: fullDocument()}
	orch := NewOrchestrator(fetcher, analyzer, store, 1, zerolog.Nop())

	for e := range orch.RunStream(ctx, "space-1") {
		if e.Status == analysis.StatusComplete || e.Status == analysis.StatusResult {
			t.Errorf("terminal event %q emitted after cancellation", e.Status)
		}
	}
}

func TestNewOrchestratorDefaultsConcurrency(t *testing.T) {
	orch := NewOrchestrator(nil, nil, nil, 0, zerolog.Nop())
	if orch.concurrency != DefaultConcurrency {
		t.Errorf("concurrency = %d, want %d", orch.concurrency, DefaultConcurrency)
	}
	if fmt.Sprintf("%d", DefaultConcurrency) != "3" {
		t.Errorf("DefaultConcurrency = %d, want 3", DefaultConcurrency)
	}
}
