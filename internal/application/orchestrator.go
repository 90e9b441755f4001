package application

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

// DefaultConcurrency bounds how many sections are analyzed at once.
const DefaultConcurrency = 3

// Fetcher retrieves a space configuration by id.
type Fetcher interface {
	FetchSpace(ctx context.Context, spaceID string) (*space.Document, error)
}

// Orchestrator runs a full analysis: fetch the configuration, fan the
// sections out to the analyzer under a concurrency bound, and assemble the
// aggregate output while emitting progress events.
type Orchestrator struct {
	fetcher     Fetcher
	analyzer    *AnalyzerService
	store       *checklist.Store
	concurrency int
	logger      zerolog.Logger
}

// NewOrchestrator creates an orchestrator. A non-positive concurrency falls
// back to DefaultConcurrency.
func NewOrchestrator(fetcher Fetcher, analyzer *AnalyzerService, store *checklist.Store, concurrency int, logger zerolog.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		fetcher:     fetcher,
		analyzer:    analyzer,
		store:       store,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Run fetches the space and analyzes every section the checklist declares
// items for. On cancellation it returns the partial output with a nil
// error; sections that never completed stay nil in Analyses.
func (o *Orchestrator) Run(ctx context.Context, spaceID string) (*analysis.AgentOutput, error) {
	doc, err := o.fetcher.FetchSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return o.RunDocument(ctx, doc, spaceID)
}

// RunDocument analyzes an already-parsed document, e.g. pasted JSON.
func (o *Orchestrator) RunDocument(ctx context.Context, doc *space.Document, spaceID string) (*analysis.AgentOutput, error) {
	return o.analyzeAll(ctx, doc, spaceID, nil, nil)
}

// RunStream runs a full analysis and streams progress events. The channel
// carries one fetching event, one analyzing event per completed section
// with a monotonic duplicate-free counter, one complete event and one
// result event, then closes. A fetch failure closes the channel without a
// result event; cancellation stops events immediately.
func (o *Orchestrator) RunStream(ctx context.Context, spaceID string) <-chan analysis.Event {
	events := make(chan analysis.Event, 8)
	go func() {
		defer close(events)
		emit := func(e analysis.Event) {
			select {
			case <-ctx.Done():
			case events <- e:
			}
		}

		fsm, err := NewRunStateMachine(uuid.NewString())
		if err != nil {
			o.logger.Error().Err(err).Msg("run state machine unavailable")
			return
		}

		emit(analysis.Event{Status: analysis.StatusFetching})
		doc, err := o.fetcher.FetchSpace(ctx, spaceID)
		if err != nil {
			o.logger.Error().Err(err).Str("space_id", spaceID).Msg("fetch failed")
			return
		}

		if _, err := o.analyzeAll(ctx, doc, spaceID, emit, fsm); err != nil {
			o.logger.Error().Err(err).Str("space_id", spaceID).Msg("analysis failed")
		}
	}()
	return events
}

// RunDocumentStream analyzes an already-parsed document and streams the same
// event sequence as RunStream: fetching once, analyzing per completed
// section, complete, result.
func (o *Orchestrator) RunDocumentStream(ctx context.Context, doc *space.Document, spaceID string) <-chan analysis.Event {
	events := make(chan analysis.Event, 8)
	go func() {
		defer close(events)
		emit := func(e analysis.Event) {
			select {
			case <-ctx.Done():
			case events <- e:
			}
		}

		emit(analysis.Event{Status: analysis.StatusFetching})
		if _, err := o.analyzeAll(ctx, doc, spaceID, emit, nil); err != nil {
			o.logger.Error().Err(err).Str("space_id", spaceID).Msg("analysis failed")
		}
	}()
	return events
}

// analyzeAll is the shared core behind Run, RunDocument and RunStream.
// emit and fsm may be nil.
func (o *Orchestrator) analyzeAll(ctx context.Context, doc *space.Document, spaceID string, emit func(analysis.Event), fsm *RunStateMachine) (*analysis.AgentOutput, error) {
	if emit == nil {
		emit = func(analysis.Event) {}
	}
	if fsm == nil {
		var err error
		if fsm, err = NewRunStateMachine(uuid.NewString()); err != nil {
			return nil, err
		}
	}
	if fsm.Current() == RunStateIdle {
		_ = fsm.Transition(RunEventFetch)
	}

	spec := o.store.Current()
	sections := activeSections(doc, spec)
	total := len(sections)
	if total == 0 {
		_ = fsm.Transition(RunEventFail)
		return nil, &analysis.FetchError{
			SpaceID: spaceID,
			Err:     errors.New("checklist declares no items for any recognized section"),
		}
	}

	_ = fsm.Transition(RunEventAnalyze)
	o.logger.Info().
		Str("space_id", spaceID).
		Int("sections", total).
		Int64("checklist_version", spec.Version()).
		Msg("analysis started")

	slots := make([]*analysis.SectionAnalysis, total)
	sem := make(chan struct{}, o.concurrency)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)

	for i, sec := range sections {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(i int, sec space.Section) {
				defer wg.Done()
				defer func() { <-sem }()

				result := o.analyzer.AnalyzeSection(ctx, doc, sec, spec.ItemsForSection(sec.Name))
				if ctx.Err() != nil {
					return
				}

				// The emit stays under mu so Current values reach the
				// channel in increment order.
				mu.Lock()
				slots[i] = result
				completed++
				emit(analysis.Event{
					Status:  analysis.StatusAnalyzing,
					Current: completed,
					Total:   total,
					Section: sec.Name,
				})
				mu.Unlock()
			}(i, sec)
		}
		if ctx.Err() != nil {
			break
		}
	}
	wg.Wait()

	out := &analysis.AgentOutput{
		GenieSpaceID: spaceID,
		Analyses:     slots,
		OverallScore: analysis.OverallScore(slots),
		TraceID:      uuid.NewString(),
	}

	if ctx.Err() != nil {
		_ = fsm.Transition(RunEventCancel)
		o.logger.Info().
			Str("space_id", spaceID).
			Int("completed", len(out.Completed())).
			Int("total", total).
			Msg("analysis cancelled")
		return out, nil
	}

	_ = fsm.Transition(RunEventComplete)
	emit(analysis.Event{Status: analysis.StatusComplete, Current: total, Total: total})
	emit(analysis.Event{Status: analysis.StatusResult, Data: out})

	o.logger.Info().
		Str("space_id", spaceID).
		Float64("overall_score", out.OverallScore).
		Str("trace_id", out.TraceID).
		Msg("analysis complete")
	return out, nil
}

// activeSections returns the document sections, in canonical walkthrough
// order, for which the current checklist declares at least one item.
func activeSections(doc *space.Document, spec *checklist.Spec) []space.Section {
	declared := make(map[string]bool)
	for _, name := range spec.Sections() {
		declared[name] = true
	}
	var sections []space.Section
	for _, name := range space.SectionNames {
		if declared[name] {
			sections = append(sections, doc.Section(name))
		}
	}
	return sections
}
