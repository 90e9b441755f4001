package analysis

import (
	"fmt"
	"time"
)

// SpecLoadError reports that the checklist source could not be loaded at
// all. Fatal to engine startup.
type SpecLoadError struct {
	Source string
	Err    error
}

func (e *SpecLoadError) Error() string {
	return fmt.Sprintf("checklist spec load failed (%s): %v", e.Source, e.Err)
}

func (e *SpecLoadError) Unwrap() error { return e.Err }

// FetchError reports that a space configuration could not be fetched or
// ingested. Surfaced to the caller; no partial output is produced.
type FetchError struct {
	SpaceID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("unable to get space [%s]: %v", e.SpaceID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SectionAnalysisError reports a failure while analyzing one section. It is
// absorbed per-section and degrades into a warning finding; it never aborts
// the run.
type SectionAnalysisError struct {
	Section string
	Err     error
}

func (e *SectionAnalysisError) Error() string {
	return fmt.Sprintf("analysis of section %s failed: %v", e.Section, e.Err)
}

func (e *SectionAnalysisError) Unwrap() error { return e.Err }

// JudgmentTimeoutError reports that a judgment call exceeded its bounded
// wait. Handled identically to SectionAnalysisError.
type JudgmentTimeoutError struct {
	Section string
	Timeout time.Duration
}

func (e *JudgmentTimeoutError) Error() string {
	return fmt.Sprintf("judgment call for section %s timed out after %s", e.Section, e.Timeout)
}
