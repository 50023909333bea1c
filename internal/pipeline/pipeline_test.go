package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/sraflow/internal"
	"github.com/valpere/sraflow/internal/artifact"
	"github.com/valpere/sraflow/internal/config"
	"github.com/valpere/sraflow/internal/logging"
	"github.com/valpere/sraflow/internal/status"
	"github.com/valpere/sraflow/internal/tool"
)

// fakeTools simulates the external binaries by writing the artifacts they
// would produce. Call counts back the idempotence assertions.
type fakeTools struct {
	t *testing.T

	paired  bool // conversion emits a mate pair instead of a single file
	longLen int  // sequence length for emitted reads (default 100)

	prefetchErr   map[string]error // per-accession injected failures
	prefetchNoOut bool             // succeed without writing the archive
	prefetchStray bool             // write a stray file instead of the archive

	calls map[string]int
}

func newFakeTools(t *testing.T) *fakeTools {
	return &fakeTools{t: t, prefetchErr: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeTools) total() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func fastqRecords(n, seqLen int) []byte {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("@r\n" + strings.Repeat("A", seqLen) + "\n+\n" + strings.Repeat("I", seqLen) + "\n")
	}
	return []byte(b.String())
}

func (f *fakeTools) write(path string, data []byte) {
	f.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fakeTools) Prefetch(_ context.Context, id, unitDir string) error {
	f.calls["prefetch"]++
	if err := f.prefetchErr[id]; err != nil {
		return err
	}
	if f.prefetchStray {
		f.write(filepath.Join(unitDir, "leftover.bin"), []byte("junk"))
		return nil
	}
	if !f.prefetchNoOut {
		f.write(filepath.Join(unitDir, id, id+".sra"), []byte("archive"))
	}
	return nil
}

func (f *fakeTools) FasterqDump(_ context.Context, id, sraPath, unitDir string) error {
	f.calls["fasterq-dump"]++
	if _, err := os.Stat(sraPath); err != nil {
		return &tool.ConversionError{Accession: id, Detail: "archive vanished"}
	}
	seqLen := f.longLen
	if seqLen == 0 {
		seqLen = 100
	}
	if f.paired {
		f.write(filepath.Join(unitDir, id+"_1.fastq"), fastqRecords(10, seqLen))
		f.write(filepath.Join(unitDir, id+"_2.fastq"), fastqRecords(10, seqLen))
	} else {
		f.write(filepath.Join(unitDir, id+".fastq"), fastqRecords(10, seqLen))
	}
	return nil
}

func (f *fakeTools) TrimPaired(_ context.Context, id, mate1, mate2, unitDir string) error {
	f.calls["fastp-paired"]++
	f.write(artifact.TrimmedPath(unitDir, id, 1), []byte("gz"))
	f.write(artifact.TrimmedPath(unitDir, id, 2), []byte("gz"))
	html, json := artifact.ReportPaths(unitDir, id, "fastp")
	f.write(html, []byte("<html>"))
	f.write(json, []byte("{}"))
	return nil
}

func (f *fakeTools) TrimSingle(_ context.Context, id, input, unitDir string) error {
	f.calls["fastp-single"]++
	f.write(artifact.TrimmedPath(unitDir, id, 0), []byte("gz"))
	html, json := artifact.ReportPaths(unitDir, id, "fastp")
	f.write(html, []byte("<html>"))
	f.write(json, []byte("{}"))
	return nil
}

func (f *fakeTools) TrimLong(_ context.Context, id, input, unitDir string) error {
	f.calls["fastplong"]++
	f.write(artifact.TrimmedPath(unitDir, id, 0), []byte("gz"))
	html, json := artifact.ReportPaths(unitDir, id, "fastplong")
	f.write(html, []byte("<html>"))
	f.write(json, []byte("{}"))
	return nil
}

func newTestPipeline(t *testing.T, cfg config.Config, tools Runner) *Pipeline {
	t.Helper()
	log, err := logging.New(logging.Options{Color: "never"})
	if err != nil {
		t.Fatal(err)
	}
	return New(&cfg, tools, log)
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func TestRun_EndToEndPaired(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	tools.paired = true
	p := newTestPipeline(t, cfg, tools)

	sum := p.Run(context.Background(), []string{"SRR000001"})
	if sum.Succeeded != 1 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}

	dir := filepath.Join(cfg.OutputDir, "SRR000001")
	for _, want := range []string{
		"SRR000001_1_trimmed.fastq.gz",
		"SRR000001_2_trimmed.fastq.gz",
		"SRR000001_fastp.html",
		"SRR000001_fastp.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("missing final artifact %s", want)
		}
	}
	// Default retention removes the archive and the raw reads.
	for _, gone := range []string{
		"SRR000001.sra",
		filepath.Join("SRR000001", "SRR000001.sra"),
		"SRR000001_1.fastq",
		"SRR000001_2.fastq",
	} {
		if _, err := os.Stat(filepath.Join(dir, gone)); err == nil {
			t.Errorf("intermediate %s should have been removed", gone)
		}
	}

	if st, _ := ResolveState(cfg.OutputDir, "SRR000001"); st != status.StateComplete {
		t.Errorf("final state = %s, want complete", st)
	}
}

func TestRun_Idempotence(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	tools.paired = true
	p := newTestPipeline(t, cfg, tools)

	if sum := p.Run(context.Background(), []string{"SRR000001"}); sum.Succeeded != 1 {
		t.Fatalf("first run failed: %+v", sum)
	}
	before := tools.total()

	if sum := p.Run(context.Background(), []string{"SRR000001"}); sum.Succeeded != 1 {
		t.Fatalf("second run failed: %+v", sum)
	}
	if after := tools.total(); after != before {
		t.Errorf("second run made %d tool invocation(s), want 0", after-before)
	}
}

func TestRun_PartialBatch(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	tools.paired = true
	tools.prefetchErr["SRR000002"] = &tool.AcquisitionError{Accession: "SRR000002", Detail: "transfer timed out"}
	p := newTestPipeline(t, cfg, tools)

	sum := p.Run(context.Background(), []string{"SRR000001", "SRR000002", "SRR000003"})
	if sum.Succeeded != 2 || sum.Failed != 1 || sum.Total != 3 {
		t.Fatalf("summary = %+v", sum)
	}

	for _, id := range []string{"SRR000001", "SRR000003"} {
		if st, _ := ResolveState(cfg.OutputDir, id); st != status.StateComplete {
			t.Errorf("%s state = %s, want complete despite SRR000002 failing", id, st)
		}
	}
	var failed *internal.UnitOutcome
	for i := range sum.Units {
		if sum.Units[i].Accession == "SRR000002" {
			failed = &sum.Units[i]
		}
	}
	if failed == nil || failed.Succeeded || !strings.Contains(failed.Error, "transfer timed out") {
		t.Errorf("SRR000002 outcome = %+v", failed)
	}
}

func TestRun_ResumeFromRawDownloaded(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	p := newTestPipeline(t, cfg, tools)

	// Pre-place the archive under the nested spelling, as prefetch does.
	tools.write(filepath.Join(cfg.OutputDir, "SRR000009", "SRR000009", "SRR000009.sra"), []byte("archive"))

	sum := p.Run(context.Background(), []string{"SRR000009"})
	if sum.Succeeded != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if tools.calls["prefetch"] != 0 {
		t.Errorf("resume must not re-download, prefetch called %d time(s)", tools.calls["prefetch"])
	}
	if tools.calls["fasterq-dump"] != 1 || tools.calls["fastp-single"] != 1 {
		t.Errorf("unexpected calls: %v", tools.calls)
	}
}

func TestRun_ResumeFromReadsReady(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	p := newTestPipeline(t, cfg, tools)

	dir := filepath.Join(cfg.OutputDir, "SRR000010")
	tools.write(filepath.Join(dir, "SRR000010_1.fastq"), fastqRecords(10, 100))
	tools.write(filepath.Join(dir, "SRR000010_2.fastq"), fastqRecords(10, 100))

	sum := p.Run(context.Background(), []string{"SRR000010"})
	if sum.Succeeded != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if tools.calls["prefetch"] != 0 || tools.calls["fasterq-dump"] != 0 {
		t.Errorf("reads-ready resume must trim only: %v", tools.calls)
	}
	if tools.calls["fastp-paired"] != 1 {
		t.Errorf("expected one paired trim: %v", tools.calls)
	}
}

func TestRun_LongReadRouting(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	tools.longLen = 600 // mean length over the 500 threshold
	p := newTestPipeline(t, cfg, tools)

	if sum := p.Run(context.Background(), []string{"SRR000011"}); sum.Succeeded != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if tools.calls["fastplong"] != 1 || tools.calls["fastp-single"] != 0 {
		t.Errorf("long reads must route to fastplong: %v", tools.calls)
	}
}

func TestRun_ForceLongReads(t *testing.T) {
	cfg := testConfig(t)
	cfg.ForceLongReads = true
	tools := newFakeTools(t) // short content; override must win
	p := newTestPipeline(t, cfg, tools)

	if sum := p.Run(context.Background(), []string{"SRR000012"}); sum.Succeeded != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if tools.calls["fastplong"] != 1 {
		t.Errorf("force-long-reads must bypass classification: %v", tools.calls)
	}
}

func TestRun_AcquisitionOnlySingleEnd(t *testing.T) {
	cfg := testConfig(t)
	cfg.AcquisitionOnly = true
	tools := newFakeTools(t)
	p := newTestPipeline(t, cfg, tools)

	if sum := p.Run(context.Background(), []string{"SRR000013"}); sum.Succeeded != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if tools.calls["fastp-single"] != 0 || tools.calls["fastplong"] != 0 {
		t.Errorf("single-end unit must not be trimmed in acquisition-only mode: %v", tools.calls)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "SRR000013", "SRR000013.fastq")); err != nil {
		t.Error("converted reads should remain on disk")
	}
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "single_end_samples.log"))
	if err != nil || !strings.Contains(string(data), "SRR000013") {
		t.Errorf("single-end log missing accession: %q, %v", data, err)
	}
}

func TestRun_RecoveryFromStrayDirectory(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	tools.paired = true
	p := newTestPipeline(t, cfg, tools)

	// A directory holding only an unrelated file resolves to indeterminate.
	tools.write(filepath.Join(cfg.OutputDir, "SRR000014", "random-notes.txt"), []byte("?"))

	sum := p.Run(context.Background(), []string{"SRR000014"})
	if sum.Succeeded != 1 {
		t.Fatalf("recovery should succeed when acquisition works: %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "SRR000014", "random-notes.txt")); err == nil {
		t.Error("stray file should have been wiped during recovery")
	}
	if st, _ := ResolveState(cfg.OutputDir, "SRR000014"); st != status.StateComplete {
		t.Errorf("state = %s, want complete", st)
	}
}

func TestRun_RecoveryTerminates(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	tools.prefetchStray = true // download recreates junk instead of an archive
	p := newTestPipeline(t, cfg, tools)

	tools.write(filepath.Join(cfg.OutputDir, "SRR000015", "random-notes.txt"), []byte("?"))

	sum := p.Run(context.Background(), []string{"SRR000015"})
	if sum.Failed != 1 {
		t.Fatalf("unit must end failed, not loop: %+v", sum)
	}
	if tools.calls["prefetch"] != 1 {
		t.Errorf("recovery is bounded to one attempt, prefetch called %d time(s)", tools.calls["prefetch"])
	}
}

func TestRun_MissingOutputIsAnError(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	tools.prefetchNoOut = true
	p := newTestPipeline(t, cfg, tools)

	sum := p.Run(context.Background(), []string{"SRR000016"})
	if sum.Failed != 1 {
		t.Fatalf("silent no-output must fail the unit: %+v", sum)
	}
	if !strings.Contains(sum.Units[0].Error, "no archive was produced") {
		t.Errorf("unexpected failure reason: %s", sum.Units[0].Error)
	}
}

func TestRun_InvalidAccessionFailsUnitOnly(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	tools.paired = true
	p := newTestPipeline(t, cfg, tools)

	sum := p.Run(context.Background(), []string{"not-an-id", "SRR000017"})
	if sum.Succeeded != 1 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRun_OverwriteRedoesCompleteUnit(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools(t)
	tools.paired = true
	p := newTestPipeline(t, cfg, tools)

	if sum := p.Run(context.Background(), []string{"SRR000018"}); sum.Succeeded != 1 {
		t.Fatalf("first run failed")
	}
	before := tools.calls["prefetch"]

	cfgOverwrite := cfg
	cfgOverwrite.Overwrite = true
	p2 := newTestPipeline(t, cfgOverwrite, tools)
	if sum := p2.Run(context.Background(), []string{"SRR000018"}); sum.Succeeded != 1 {
		t.Fatalf("overwrite run failed")
	}
	if tools.calls["prefetch"] != before+1 {
		t.Errorf("overwrite should reprocess from scratch: %v", tools.calls)
	}
}
