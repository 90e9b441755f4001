package analysis

// SectionScore computes the 0-100 compliance score for one section:
// 100 * passed / applicable. A section with no applicable checks is
// vacuously compliant and scores 100 — documented policy, not a fallback.
func SectionScore(results []ChecklistItemResult) float64 {
	passed, total := tally(results)
	if total == 0 {
		return 100
	}
	return 100 * float64(passed) / float64(total)
}

// OverallScore computes the checklist-item-weighted overall score:
// 100 * sum(passed) / sum(applicable) across all populated analyses, so a
// section with more checks proportionally influences the overall number and
// small sections cannot distort it.
func OverallScore(analyses []*SectionAnalysis) float64 {
	passed, total := 0, 0
	for _, a := range analyses {
		if a == nil {
			continue
		}
		p, t := tally(a.Checklist)
		passed += p
		total += t
	}
	if total == 0 {
		return 100
	}
	return 100 * float64(passed) / float64(total)
}

func tally(results []ChecklistItemResult) (passed, total int) {
	for _, r := range results {
		if !r.Applicable {
			continue
		}
		total++
		if r.Passed {
			passed++
		}
	}
	return passed, total
}
