// Package application wires the domain model together: per-section
// analysis, run orchestration with bounded concurrency, progress streaming
// and optimization suggestions.
package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checks"
	"github.com/felixgeelhaar/spacecheck/internal/domain/judgment"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

// AnalyzerService evaluates one section at a time: programmatic checks run
// in-process, judged checks go out in a single batched judgment call, and
// the merged results are scored. A failed judgment call degrades the
// section instead of failing it.
type AnalyzerService struct {
	judge  judgment.Judge
	logger zerolog.Logger
}

// NewAnalyzerService creates an analyzer backed by the given judge.
func NewAnalyzerService(judge judgment.Judge, logger zerolog.Logger) *AnalyzerService {
	return &AnalyzerService{
		judge:  judge,
		logger: logger.With().Str("component", "analyzer").Logger(),
	}
}

// AnalyzeSection evaluates all checklist items declared for the section and
// returns its complete analysis. It never returns an error: judgment
// failures surface as a warning finding over the programmatic results, and
// judged items on a section without data are marked not applicable.
func (s *AnalyzerService) AnalyzeSection(ctx context.Context, doc *space.Document, sec space.Section, items []checklist.Item) *analysis.SectionAnalysis {
	programmatic, judged := checklist.Partition(items)

	results := make(map[string]analysis.ChecklistItemResult, len(items))
	for _, item := range programmatic {
		results[item.ID] = checks.Run(item, sec)
	}

	var (
		judgeSummary  string
		judgeFindings []analysis.Finding
		judgeErr      error
	)

	switch {
	case len(judged) == 0:
		// Nothing to judge.
	case !sec.HasData:
		for _, item := range judged {
			results[item.ID] = analysis.ChecklistItemResult{
				ID:          item.ID,
				Description: item.Description,
				Applicable:  false,
				Details:     "not applicable: section has no data",
			}
		}
	default:
		resp, err := s.judge.Evaluate(ctx, judgment.Request{
			SectionName: sec.Name,
			SectionData: sec.Data,
			Items:       judged,
			Context:     surroundingContext(doc, sec),
		})
		if err != nil {
			judgeErr = err
			s.logger.Warn().Err(err).Str("section", sec.Name).Msg("judgment degraded")
		} else {
			judgeSummary = resp.Summary
			judgeFindings = resp.Findings
			for _, item := range judged {
				eval, ok := resp.Evaluations[item.ID]
				if !ok {
					results[item.ID] = analysis.ChecklistItemResult{
						ID:          item.ID,
						Description: item.Description,
						Applicable:  true,
						Details:     "judgment returned no verdict for this item",
					}
					continue
				}
				results[item.ID] = analysis.ChecklistItemResult{
					ID:          item.ID,
					Description: item.Description,
					Passed:      eval.Passed,
					Applicable:  true,
					Details:     eval.Rationale,
				}
			}
		}
	}

	// Merge in declaration order. On a degraded judgment call the judged
	// items have no result and are left out entirely.
	merged := make([]analysis.ChecklistItemResult, 0, len(items))
	byID := make(map[string]checklist.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
		if r, ok := results[item.ID]; ok {
			merged = append(merged, r)
		}
	}

	findings := buildFindings(merged, byID, judgeFindings)
	if judgeErr != nil {
		findings = append(findings, analysis.Finding{
			Category:       analysis.CategoryWarning,
			Severity:       string(checklist.SeverityMedium),
			Description:    fmt.Sprintf("Judged checks for %s could not be evaluated: %v", sec.Name, judgeErr),
			Recommendation: "Re-run the analysis once the judgment backend is reachable.",
			Reference:      sec.Name,
		})
	}

	return &analysis.SectionAnalysis{
		SectionName: sec.Name,
		Checklist:   merged,
		Findings:    findings,
		Score:       analysis.SectionScore(merged),
		Summary:     buildSummary(sec.Name, merged, judgeSummary, judgeErr),
	}
}

// buildFindings turns each applicable failing item into exactly one finding.
// Judged failures prefer the findings the judge already produced for that
// item; everything else gets a deterministic remediation note.
func buildFindings(results []analysis.ChecklistItemResult, items map[string]checklist.Item, judgeFindings []analysis.Finding) []analysis.Finding {
	covered := make(map[string]bool, len(judgeFindings))
	var findings []analysis.Finding
	for _, f := range judgeFindings {
		findings = append(findings, f)
		covered[f.Reference] = true
	}

	for _, r := range results {
		if r.Passed || !r.Applicable || covered[r.ID] {
			continue
		}
		item := items[r.ID]
		severity := item.Severity
		if severity == "" {
			severity = checklist.SeverityMedium
		}
		recommendation := r.Details
		if item.Kind == checklist.KindProgrammatic {
			recommendation = fmt.Sprintf("Update the section so that the check holds: %s", item.Description)
		}
		findings = append(findings, analysis.Finding{
			Category:       analysis.CategoryBestPractice,
			Severity:       string(severity),
			Description:    fmt.Sprintf("%s: %s", r.Description, r.Details),
			Recommendation: recommendation,
			Reference:      r.ID,
		})
	}
	return findings
}

func buildSummary(section string, results []analysis.ChecklistItemResult, judgeSummary string, judgeErr error) string {
	passed, applicable := 0, 0
	for _, r := range results {
		if !r.Applicable {
			continue
		}
		applicable++
		if r.Passed {
			passed++
		}
	}
	base := fmt.Sprintf("%d of %d applicable checks passed for %s.", passed, applicable, section)
	if judgeErr != nil {
		return base + " Judged checks were unavailable."
	}
	if judgeSummary != "" {
		return judgeSummary
	}
	return base
}

// surroundingContext collects cross-section hints for the judge. Instruction
// sections reference tables by name, so the judge gets the identifiers the
// data_sources section actually declares.
func surroundingContext(doc *space.Document, sec space.Section) map[string]any {
	if doc == nil || sec.Name == "data_sources.tables" {
		return nil
	}
	tables := doc.Section("data_sources.tables")
	if !tables.HasData {
		return nil
	}
	var identifiers []string
	for _, entry := range tables.Entries() {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"identifier", "full_name", "name"} {
			if v, ok := obj[key].(string); ok && v != "" {
				identifiers = append(identifiers, v)
				break
			}
		}
	}
	if len(identifiers) == 0 {
		return nil
	}
	return map[string]any{"table_identifiers": identifiers}
}
