package status

import (
	"testing"

	"github.com/valpere/sraflow/internal/artifact"
)

// presence flags for building every combination of artifact categories.
const (
	hasTrimmedPair = 1 << iota
	hasTrimmedSingle
	hasRawPair
	hasRawSingle
	hasArchive
	hasDir
	presenceLimit
)

func buildProbe(mask int) artifact.ProbeResult {
	pr := artifact.ProbeResult{
		RawSingle: map[string]string{},
		RawMate1:  map[string]string{},
		RawMate2:  map[string]string{},
	}
	if mask&hasTrimmedPair != 0 {
		pr.TrimmedMate1 = "u/ACC_1_trimmed.fastq.gz"
		pr.TrimmedMate2 = "u/ACC_2_trimmed.fastq.gz"
	}
	if mask&hasTrimmedSingle != 0 {
		pr.TrimmedSingle = "u/ACC_trimmed.fastq.gz"
	}
	if mask&hasRawPair != 0 {
		pr.RawMate1[".fastq"] = "u/ACC_1.fastq"
		pr.RawMate2[".fastq"] = "u/ACC_2.fastq"
	}
	if mask&hasRawSingle != 0 {
		pr.RawSingle[".fq"] = "u/ACC.fq"
	}
	if mask&hasArchive != 0 {
		pr.ArchivePath = "u/ACC.sra"
	}
	if mask != 0 {
		// Any artifact implies the directory exists.
		pr.DirExists = true
	}
	if mask&hasDir != 0 {
		pr.DirExists = true
	}
	return pr
}

// TestResolve_Totality drives Resolve over every combination of artifact
// categories and checks that exactly one state comes back and that the
// precedence order holds.
func TestResolve_Totality(t *testing.T) {
	for mask := 0; mask < presenceLimit; mask++ {
		pr := buildProbe(mask)
		got := Resolve(pr)

		var want State
		switch {
		case mask&(hasTrimmedPair|hasTrimmedSingle) != 0:
			want = StateComplete
		case mask&hasRawPair != 0:
			want = StateReadsReadyPaired
		case mask&hasRawSingle != 0:
			want = StateReadsReadySingle
		case mask&hasArchive != 0:
			want = StateRawDownloaded
		case mask&hasDir == 0:
			want = StateNew
		default:
			want = StateIndeterminate
		}

		if got != want {
			t.Errorf("mask %06b: Resolve = %s, want %s", mask, got, want)
		}
	}
}

func TestResolve_LaterStageWins(t *testing.T) {
	// A unit holding both a raw archive and a complete trimmed pair is
	// complete; re-trimming after an interrupted cleanup would be redundant.
	pr := buildProbe(hasTrimmedPair | hasRawPair | hasArchive)
	if got := Resolve(pr); got != StateComplete {
		t.Errorf("Resolve = %s, want %s", got, StateComplete)
	}
}

func TestResolve_HalfTrimmedPairIsNotComplete(t *testing.T) {
	pr := buildProbe(hasRawPair)
	pr.TrimmedMate1 = "u/ACC_1_trimmed.fastq.gz"
	if got := Resolve(pr); got != StateReadsReadyPaired {
		t.Errorf("Resolve = %s, want %s", got, StateReadsReadyPaired)
	}
}

func TestResolve_StrayFileOnly(t *testing.T) {
	pr := buildProbe(hasDir)
	pr.Unrecognized = []string{"u/notes.txt"}
	if got := Resolve(pr); got != StateIndeterminate {
		t.Errorf("Resolve = %s, want %s", got, StateIndeterminate)
	}
}
