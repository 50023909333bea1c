package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/sraflow/internal/artifact"
	"github.com/valpere/sraflow/internal/classify"
	"github.com/valpere/sraflow/internal/status"
	"github.com/valpere/sraflow/internal/tool"
)

// Every stage has the same shape: skip when its outputs already exist (the
// idempotence that makes resumption cheap), validate inputs, invoke the tool,
// verify outputs appeared, then clean up superseded intermediates. Output
// verification is not optional — the converters have been observed to exit
// zero without writing anything.

// acquire downloads the raw archive for id.
func (p *Pipeline) acquire(ctx context.Context, id string) error {
	unitDir := artifact.UnitDir(p.cfg.OutputDir, id)

	pr := artifact.Probe(p.cfg.OutputDir, id)
	if pr.ArchivePath != "" && !p.cfg.Overwrite {
		p.log.Info("%s: raw archive present, skipping download", id)
		return nil
	}

	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		return &tool.AcquisitionError{Accession: id, Detail: err.Error()}
	}

	p.log.Info("%s: downloading (max %s)", id, p.cfg.MaxSize)
	if err := p.tools.Prefetch(ctx, id, unitDir); err != nil {
		return err
	}

	if pr = artifact.Probe(p.cfg.OutputDir, id); pr.ArchivePath == "" {
		return &tool.AcquisitionError{Accession: id, Detail: "downloader reported success but no archive was produced"}
	}
	return nil
}

// convert turns the raw archive into read files and reports the resulting
// canonical read set.
func (p *Pipeline) convert(ctx context.Context, id string) (*artifact.ReadSet, error) {
	unitDir := artifact.UnitDir(p.cfg.OutputDir, id)

	pr := artifact.Probe(p.cfg.OutputDir, id)
	if rs := pr.SelectReads(); rs != nil && !p.cfg.Overwrite {
		p.log.Info("%s: read files present, skipping conversion", id)
		return rs, nil
	}

	sra := pr.ArchivePath
	if sra == "" {
		return nil, &tool.ConversionError{Accession: id, Detail: "no raw archive to convert"}
	}
	if fi, err := os.Stat(sra); err != nil || fi.Size() == 0 {
		return nil, &tool.ConversionError{Accession: id, Detail: fmt.Sprintf("raw archive %s is missing or empty", filepath.Base(sra))}
	}

	p.log.Info("%s: converting archive to reads", id)
	if err := p.tools.FasterqDump(ctx, id, sra, unitDir); err != nil {
		return nil, err
	}

	pr = artifact.Probe(p.cfg.OutputDir, id)
	rs := pr.SelectReads()
	if rs == nil {
		return nil, &tool.ConversionError{Accession: id, Detail: "converter reported success but no read files were produced"}
	}

	p.cleanupArchive(id, pr)
	p.removeScratch(pr)
	return rs, nil
}

// trim routes the read set to the right trimmer and produces the compressed
// final outputs plus a report.
func (p *Pipeline) trim(ctx context.Context, id string, rs *artifact.ReadSet) error {
	unitDir := artifact.UnitDir(p.cfg.OutputDir, id)

	// Defensive re-entrancy check: never feed an already-trimmed output
	// back into a trimmer.
	var inputs []string
	for _, f := range rs.Files() {
		if strings.Contains(filepath.Base(f), "_trimmed") {
			p.log.Warn("%s: dropping already-trimmed input %s", id, filepath.Base(f))
			continue
		}
		inputs = append(inputs, f)
	}
	if len(inputs) == 0 {
		return &tool.TrimmingError{Accession: id, Tool: tool.BinFastp, Detail: "no untrimmed input files"}
	}

	long := p.cfg.ForceLongReads
	if !long && len(inputs) == 1 {
		res := classify.Reads(inputs[0])
		if res.Warning != "" {
			p.log.Warn("%s: %s", id, res.Warning)
		}
		p.log.Debug("%s: sampled %d record(s), mean length %.1f", id, res.Sampled, res.MeanLength)
		long = res.Length == classify.LengthLong
	}
	if long && len(inputs) > 1 {
		p.log.Warn("%s: long-read routing with a mate pair, trimming mate 1 only", id)
		inputs = inputs[:1]
	}

	var expected []string
	if len(inputs) == 2 {
		expected = []string{
			artifact.TrimmedPath(unitDir, id, 1),
			artifact.TrimmedPath(unitDir, id, 2),
		}
	} else {
		expected = []string{artifact.TrimmedPath(unitDir, id, 0)}
	}

	if allExist(expected) && !p.cfg.Overwrite {
		p.log.Info("%s: trimmed outputs present, skipping", id)
		return nil
	}

	trimmer := tool.BinFastp
	if long {
		trimmer = tool.BinFastplong
	}
	for _, in := range inputs {
		if fi, err := os.Stat(in); err != nil || fi.Size() == 0 {
			return &tool.TrimmingError{Accession: id, Tool: trimmer, Detail: fmt.Sprintf("input %s is missing or empty", filepath.Base(in))}
		}
	}

	var err error
	switch {
	case long:
		p.log.Info("%s: trimming long reads", id)
		err = p.tools.TrimLong(ctx, id, inputs[0], unitDir)
	case len(inputs) == 2:
		p.log.Info("%s: trimming paired-end reads", id)
		err = p.tools.TrimPaired(ctx, id, inputs[0], inputs[1], unitDir)
	default:
		p.log.Info("%s: trimming single-end reads", id)
		err = p.tools.TrimSingle(ctx, id, inputs[0], unitDir)
	}
	if err != nil {
		return err
	}

	if !allExist(expected) {
		return &tool.TrimmingError{Accession: id, Tool: trimmer, Detail: "trimmer reported success but outputs are missing"}
	}

	pr := artifact.Probe(p.cfg.OutputDir, id)
	if !p.cfg.KeepReads {
		p.cleanupReads(id, pr)
	}
	p.removeScratch(pr)
	return nil
}

// cleanupArchive removes the raw archive (and its nested directory when
// empty) after a successful conversion, unless retention asks to keep it.
// Deletion failures are warnings, never stage failures.
func (p *Pipeline) cleanupArchive(id string, pr artifact.ProbeResult) {
	if p.cfg.KeepArchive || pr.ArchivePath == "" {
		return
	}
	if err := os.Remove(pr.ArchivePath); err != nil {
		p.log.Warn("%s: cannot remove raw archive: %v", id, err)
		return
	}
	// The nested accession directory becomes removable once the archive
	// inside it is gone.
	parent := filepath.Dir(pr.ArchivePath)
	if filepath.Base(parent) == id {
		_ = os.Remove(parent)
	}
}

// cleanupReads removes every raw read file, including leftover extension
// synonyms, after a successful trim.
func (p *Pipeline) cleanupReads(id string, pr artifact.ProbeResult) {
	for _, m := range []map[string]string{pr.RawSingle, pr.RawMate1, pr.RawMate2} {
		for _, path := range m {
			if err := os.Remove(path); err != nil {
				p.log.Warn("%s: cannot remove intermediate %s: %v", id, filepath.Base(path), err)
			}
		}
	}
}

// removeScratch opportunistically removes scratch entries; a non-empty
// scratch directory is left alone.
func (p *Pipeline) removeScratch(pr artifact.ProbeResult) {
	for _, path := range pr.Scratch {
		_ = os.Remove(path)
	}
}

func allExist(paths []string) bool {
	for _, path := range paths {
		if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
			return false
		}
	}
	return true
}

// ResolveState is a convenience for the status command: probe one accession
// and resolve its pipeline state.
func ResolveState(outputRoot, id string) (status.State, artifact.ProbeResult) {
	pr := artifact.Probe(outputRoot, id)
	return status.Resolve(pr), pr
}
