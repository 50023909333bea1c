// Package status projects an artifact-presence set onto the fixed set of
// pipeline states. Resolution is a pure function: later-stage artifacts are
// authoritative over earlier-stage ones, because a later stage's success
// implies the earlier stage already succeeded.
package status

import "github.com/valpere/sraflow/internal/artifact"

// State is a work unit's derived pipeline state. It is computed from the
// filesystem, never stored.
type State string

const (
	StateNew              State = "new"
	StateRawDownloaded    State = "raw_downloaded"
	StateReadsReadyPaired State = "reads_ready_paired"
	StateReadsReadySingle State = "reads_ready_single"
	StateComplete         State = "complete"
	StateIndeterminate    State = "indeterminate"
)

// Resolve maps a probe result to exactly one State, using fixed precedence:
// trimmed outputs, then canonical raw reads (pair before single), then raw
// archive, then new/indeterminate depending on directory presence.
func Resolve(pr artifact.ProbeResult) State {
	if pr.HasTrimmed() {
		return StateComplete
	}
	if rs := pr.SelectReads(); rs != nil {
		if rs.Layout == artifact.LayoutPaired {
			return StateReadsReadyPaired
		}
		return StateReadsReadySingle
	}
	if pr.ArchivePath != "" {
		return StateRawDownloaded
	}
	if !pr.DirExists {
		return StateNew
	}
	return StateIndeterminate
}
