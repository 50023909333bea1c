// Package tool wraps the external binaries the pipeline drives: prefetch,
// fasterq-dump, fastp, and fastplong. Each wrapper builds its argument list
// deterministically from configuration, runs the tool to completion, and
// translates a non-zero exit into a stage-specific error carrying the tool's
// stderr verbatim.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/valpere/sraflow/internal/artifact"
	"github.com/valpere/sraflow/internal/config"
)

// Binary names looked up on PATH.
const (
	BinPrefetch    = "prefetch"
	BinFasterqDump = "fasterq-dump"
	BinFastp       = "fastp"
	BinFastplong   = "fastplong"
	BinPigz        = "pigz"
)

// Set runs the real binaries. It satisfies the pipeline's Runner interface.
type Set struct {
	cfg *config.Config
}

// NewSet returns a Set bound to cfg.
func NewSet(cfg *config.Config) *Set {
	return &Set{cfg: cfg}
}

// run executes a tool to completion, capturing stderr for error translation.
// There is no mid-invocation cancellation contract: ctx only prevents starts,
// it does not provide partial results.
func run(ctx context.Context, name string, args []string) (stderr string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stderr = &buf
	err = cmd.Run()
	return strings.TrimSpace(buf.String()), err
}

// detail merges an exec error with captured stderr into one diagnostic line.
func detail(err error, stderr string) string {
	if stderr == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v: %s", err, stderr)
}

// Prefetch downloads the raw archive for accession into unitDir.
func (s *Set) Prefetch(ctx context.Context, accession, unitDir string) error {
	args := prefetchArgs(s.cfg, accession, unitDir)
	if stderr, err := run(ctx, BinPrefetch, args); err != nil {
		return &AcquisitionError{Accession: accession, Detail: detail(err, stderr)}
	}
	return nil
}

func prefetchArgs(cfg *config.Config, accession, unitDir string) []string {
	return []string{
		"--max-size", cfg.MaxSize,
		"--output-directory", unitDir,
		accession,
	}
}

// FasterqDump converts the raw archive at sraPath into read files in unitDir.
func (s *Set) FasterqDump(ctx context.Context, accession, sraPath, unitDir string) error {
	args := fasterqDumpArgs(s.cfg, sraPath, unitDir)
	if stderr, err := run(ctx, BinFasterqDump, args); err != nil {
		return &ConversionError{Accession: accession, Detail: detail(err, stderr)}
	}
	return nil
}

func fasterqDumpArgs(cfg *config.Config, sraPath, unitDir string) []string {
	return []string{
		"--outdir", unitDir,
		"--temp", filepath.Join(unitDir, artifact.ScratchDir),
		"--format", "fastq",
		"--threads", strconv.Itoa(cfg.Threads),
		"--split-files",
		"--skip-technical",
		sraPath,
	}
}

// TrimPaired trims a short-read mate pair with fastp.
func (s *Set) TrimPaired(ctx context.Context, accession string, mate1, mate2, unitDir string) error {
	args := fastpArgs(s.cfg, accession, unitDir, mate1, mate2)
	if stderr, err := run(ctx, BinFastp, args); err != nil {
		return &TrimmingError{Accession: accession, Tool: BinFastp, Detail: detail(err, stderr)}
	}
	return nil
}

// TrimSingle trims a single short-read file with fastp.
func (s *Set) TrimSingle(ctx context.Context, accession, input, unitDir string) error {
	args := fastpArgs(s.cfg, accession, unitDir, input, "")
	if stderr, err := run(ctx, BinFastp, args); err != nil {
		return &TrimmingError{Accession: accession, Tool: BinFastp, Detail: detail(err, stderr)}
	}
	return nil
}

// fastpArgs builds the fastp argument list. mate2 is empty for single-end
// input; paired input additionally enables adapter detection for PE data.
func fastpArgs(cfg *config.Config, accession, unitDir, mate1, mate2 string) []string {
	html, json := artifact.ReportPaths(unitDir, accession, "fastp")

	var args []string
	if mate2 != "" {
		args = append(args,
			"-i", mate1,
			"-I", mate2,
			"-o", artifact.TrimmedPath(unitDir, accession, 1),
			"-O", artifact.TrimmedPath(unitDir, accession, 2),
			"--detect_adapter_for_pe",
		)
	} else {
		args = append(args,
			"-i", mate1,
			"-o", artifact.TrimmedPath(unitDir, accession, 0),
		)
	}

	p := cfg.Short
	args = append(args,
		"-h", html,
		"-j", json,
		"-w", strconv.Itoa(cfg.Threads),
		"--qualified_quality_phred", strconv.Itoa(p.QualityPhred),
		"--length_required", strconv.Itoa(p.MinLength),
		"--cut_front",
		"--cut_tail",
		"--cut_window_size", strconv.Itoa(p.CutWindowSize),
		"--cut_mean_quality", strconv.Itoa(p.CutMeanQuality),
	)

	if p.DisableAdapterTrimming {
		args = append(args, "--disable_adapter_trimming")
	}
	if p.DisableQualityFiltering {
		args = append(args, "--disable_quality_filtering")
	}
	if p.DisableLengthFiltering {
		args = append(args, "--disable_length_filtering")
	}
	return args
}

// TrimLong trims a long-read file with fastplong. The binary is looked up
// lazily because it is only required once long-read routing is chosen.
func (s *Set) TrimLong(ctx context.Context, accession, input, unitDir string) error {
	if _, err := exec.LookPath(BinFastplong); err != nil {
		return &TrimmingError{Accession: accession, Tool: BinFastplong, Detail: "not found on PATH"}
	}
	args := fastplongArgs(s.cfg, accession, unitDir, input)
	if stderr, err := run(ctx, BinFastplong, args); err != nil {
		return &TrimmingError{Accession: accession, Tool: BinFastplong, Detail: detail(err, stderr)}
	}
	return nil
}

func fastplongArgs(cfg *config.Config, accession, unitDir, input string) []string {
	html, json := artifact.ReportPaths(unitDir, accession, "fastplong")
	p := cfg.Long

	args := []string{
		"-i", input,
		"-o", artifact.TrimmedPath(unitDir, accession, 0),
		"-h", html,
		"-j", json,
		"-w", strconv.Itoa(cfg.Threads),
		"--qualified_quality_phred", strconv.Itoa(p.MinQuality),
		"--length_required", strconv.Itoa(p.MinLength),
	}
	if p.DisableAdapterTrimming {
		args = append(args, "--disable_adapter_trimming")
	}
	if p.DisableQualityFiltering {
		args = append(args, "--disable_quality_filtering")
	}
	return args
}
