// Package pipeline orchestrates the per-accession processing chain:
// acquire → convert → trim. A unit's remaining work is always derived from
// the artifacts found in its directory, so an interrupted run resumes by
// simply running again.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valpere/sraflow/internal"
	"github.com/valpere/sraflow/internal/accession"
	"github.com/valpere/sraflow/internal/artifact"
	"github.com/valpere/sraflow/internal/config"
	"github.com/valpere/sraflow/internal/logging"
	"github.com/valpere/sraflow/internal/status"
)

// Runner abstracts the external tool invocations so the orchestration logic
// is testable without the binaries installed. tool.Set is the production
// implementation.
type Runner interface {
	Prefetch(ctx context.Context, accession, unitDir string) error
	FasterqDump(ctx context.Context, accession, sraPath, unitDir string) error
	TrimPaired(ctx context.Context, accession, mate1, mate2, unitDir string) error
	TrimSingle(ctx context.Context, accession, input, unitDir string) error
	TrimLong(ctx context.Context, accession, input, unitDir string) error
}

// Summary aggregates a batch run. Partial success is the normal outcome, not
// a special case.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Units     []internal.UnitOutcome
}

// Pipeline processes accessions sequentially; each unit owns its directory
// and no state is shared between units beyond the filesystem.
type Pipeline struct {
	cfg   *config.Config
	tools Runner
	log   *logging.Logger
}

// New builds a Pipeline. cfg must already be validated.
func New(cfg *config.Config, tools Runner, log *logging.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, tools: tools, log: log}
}

// Run processes every accession independently: a failure is recorded and the
// batch continues with the next unit. Cancellation is honored between units
// and between stages, never mid-invocation.
func (p *Pipeline) Run(ctx context.Context, accessions []string) Summary {
	sum := Summary{Total: len(accessions)}

	for i, id := range accessions {
		if ctx.Err() != nil {
			p.log.Warn("interrupted, %d unit(s) not started", len(accessions)-i)
			break
		}

		p.log.Info("[%d/%d] %s", i+1, len(accessions), id)
		start := time.Now()
		err := p.processUnit(ctx, id)
		outcome := internal.UnitOutcome{
			Accession: id,
			Succeeded: err == nil,
			Duration:  time.Since(start),
		}

		if err != nil {
			outcome.Error = err.Error()
			sum.Failed++
			p.log.Error("%s: %v", id, err)
		} else {
			sum.Succeeded++
			p.log.Success("%s done in %ds", id, int(outcome.Duration.Seconds()))
		}
		sum.Units = append(sum.Units, outcome)
	}

	p.log.Info("batch finished: %d/%d succeeded", sum.Succeeded, sum.Total)
	return sum
}

// processUnit resolves the unit's state and advances it to completion. An
// indeterminate directory is wiped and reprocessed from scratch exactly once;
// the loop is iterative with a hard bound so recovery always terminates.
func (p *Pipeline) processUnit(ctx context.Context, id string) error {
	if err := accession.Validate(id); err != nil {
		return err
	}

	unitDir := artifact.UnitDir(p.cfg.OutputDir, id)
	recovered := false
	overwritten := false

	for {
		pr := artifact.Probe(p.cfg.OutputDir, id)
		st := status.Resolve(pr)
		p.log.Debug("%s: resolved state %s", id, st)

		switch st {
		case status.StateIndeterminate:
			if recovered {
				return &OrchestrationError{Accession: id}
			}
			recovered = true
			p.log.Warn("%s: unrecognized directory contents, removing %s and restarting", id, unitDir)
			if err := os.RemoveAll(unitDir); err != nil {
				return fmt.Errorf("recovery cleanup for %s: %w", id, err)
			}
			continue

		case status.StateComplete:
			if !p.cfg.Overwrite || overwritten {
				p.log.Info("%s: already complete, skipping", id)
				return nil
			}
			// Final outputs are products of the whole chain; overwrite
			// means redoing the unit from scratch.
			overwritten = true
			p.log.Warn("%s: overwrite requested, removing %s", id, unitDir)
			if err := os.RemoveAll(unitDir); err != nil {
				return fmt.Errorf("overwrite cleanup for %s: %w", id, err)
			}
			continue

		default:
			return p.advance(ctx, id, st, pr)
		}
	}
}

// advance runs the stages a unit still needs, given its resolved state.
func (p *Pipeline) advance(ctx context.Context, id string, st status.State, pr artifact.ProbeResult) error {
	if st == status.StateNew {
		if err := p.acquire(ctx, id); err != nil {
			return err
		}
		st = status.StateRawDownloaded
	}

	if st == status.StateRawDownloaded {
		if err := ctx.Err(); err != nil {
			return err
		}
		rs, err := p.convert(ctx, id)
		if err != nil {
			return err
		}
		if p.cfg.AcquisitionOnly && rs.Layout == artifact.LayoutSingle {
			p.log.Info("%s: single-end data in acquisition-only mode, skipping trim", id)
			p.noteSingleEnd(id)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return p.trim(ctx, id, rs)
	}

	// reads_ready_paired / reads_ready_single: trim what is on disk.
	rs := pr.SelectReads()
	if rs == nil {
		// Cannot happen for the reads_ready states; guard anyway.
		return fmt.Errorf("no read set found for %s in state %s", id, st)
	}
	return p.trim(ctx, id, rs)
}

// noteSingleEnd appends the accession to the single-end log in the output
// root so acquisition-only batches can be post-processed later.
func (p *Pipeline) noteSingleEnd(id string) {
	path := filepath.Join(p.cfg.OutputDir, "single_end_samples.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		p.log.Warn("%s: cannot record single-end sample: %v", id, err)
		return
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, id); err != nil {
		p.log.Warn("%s: cannot record single-end sample: %v", id, err)
	}
}
