package internal

import "time"

// UnitOutcome is the per-accession result of one batch run, shared between
// the pipeline and the run-history store.
type UnitOutcome struct {
	Accession string        `json:"accession"`
	Succeeded bool          `json:"succeeded"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}
