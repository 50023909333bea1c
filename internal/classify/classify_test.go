package classify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFASTQ writes n records whose sequences all have length seqLen.
func writeFASTQ(t *testing.T, path string, n, seqLen int) {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("@read\n")
		b.WriteString(strings.Repeat("A", seqLen) + "\n")
		b.WriteString("+\n")
		b.WriteString(strings.Repeat("I", seqLen) + "\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReads_LengthBoundary(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "SRR1.fastq")
	writeFASTQ(t, short, 25, 500)
	if res := Reads(short); res.Length != LengthShort {
		t.Errorf("mean 500 must classify short, got mean=%v length=%v", res.MeanLength, res.Length)
	}

	long := filepath.Join(dir, "SRR2.fastq")
	writeFASTQ(t, long, 25, 501)
	if res := Reads(long); res.Length != LengthLong {
		t.Errorf("mean 501 must classify long, got mean=%v length=%v", res.MeanLength, res.Length)
	}
}

func TestReads_SampleIsBounded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SRR1.fastq")
	// 200 records; only the first 25 may be sampled.
	writeFASTQ(t, path, 200, 100)

	res := Reads(path)
	if res.Sampled != 25 {
		t.Errorf("Sampled = %d, want 25", res.Sampled)
	}
}

func TestReads_PairingDetection(t *testing.T) {
	dir := t.TempDir()
	m1 := filepath.Join(dir, "SRR1_1.fastq")
	m2 := filepath.Join(dir, "SRR1_2.fastq")
	writeFASTQ(t, m1, 5, 100)
	writeFASTQ(t, m2, 5, 100)

	res := Reads(m1)
	if res.Pairing != PairingPaired {
		t.Errorf("with sibling present, Pairing = %v, want paired", res.Pairing)
	}
	if res.Warning != "" {
		t.Errorf("unexpected warning: %s", res.Warning)
	}

	// Mate 2 resolves back to mate 1 as well.
	if res := Reads(m2); res.Pairing != PairingPaired {
		t.Errorf("mate 2 should also detect pairing, got %v", res.Pairing)
	}
}

func TestReads_MissingSiblingIsSingleWithWarning(t *testing.T) {
	dir := t.TempDir()
	m1 := filepath.Join(dir, "SRR1_1.fastq")
	writeFASTQ(t, m1, 5, 100)

	res := Reads(m1)
	if res.Pairing != PairingSingle {
		t.Errorf("without sibling, Pairing = %v, want single", res.Pairing)
	}
	if res.Warning == "" {
		t.Error("missing sibling should produce a warning")
	}
}

func TestReads_NoMateToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SRR1.fastq")
	writeFASTQ(t, path, 5, 100)

	res := Reads(path)
	if res.Pairing != PairingSingle || res.Warning != "" {
		t.Errorf("plain name should be single with no warning, got %+v", res)
	}
}

func TestReads_DefaultsOnUnusableInput(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.fastq")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	res := Reads(empty)
	if res.Length != LengthShort || res.Pairing != PairingSingle || res.Warning == "" {
		t.Errorf("empty file should default to single short with warning, got %+v", res)
	}

	// Truncated record (fewer than four lines) counts as no record.
	trunc := filepath.Join(dir, "trunc.fastq")
	if err := os.WriteFile(trunc, []byte("@read\nACGT\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res = Reads(trunc)
	if res.Sampled != 0 || res.Warning == "" {
		t.Errorf("truncated record should default with warning, got %+v", res)
	}

	// Missing file never fails hard.
	res = Reads(filepath.Join(dir, "nope.fastq"))
	if res.Length != LengthShort || res.Warning == "" {
		t.Errorf("missing file should default with warning, got %+v", res)
	}
}

func TestMatePath(t *testing.T) {
	tests := []struct {
		in       string
		sibling  string
		hasToken bool
	}{
		{"a/SRR1_1.fastq", "a/SRR1_2.fastq", true},
		{"a/SRR1_2.fq", "a/SRR1_1.fq", true},
		{"a/SRR1.fastq", "", false},
	}
	for _, tt := range tests {
		sibling, ok := MatePath(tt.in)
		if sibling != tt.sibling || ok != tt.hasToken {
			t.Errorf("MatePath(%q) = %q,%v want %q,%v", tt.in, sibling, ok, tt.sibling, tt.hasToken)
		}
	}
}
