package model

// SweepError identifies one record a sweep could not fully process.
type SweepError struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// SweepSummary aggregates one sweep invocation. A record counts as
// Processed when its verdict was applied (or found already applied),
// even if a subsequent charge attempt failed; the failure then also
// appears in Errors for operator follow-up.
type SweepSummary struct {
	Processed int          `json:"processed"`
	Charged   int          `json:"charged"`
	Skipped   int          `json:"skipped"`
	Errors    []SweepError `json:"errors"`
}

func (s *SweepSummary) AddError(id, reason string) {
	s.Errors = append(s.Errors, SweepError{ID: id, Reason: reason})
}
