package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jschless/armymarkdown/internal/compiler"
	"github.com/jschless/armymarkdown/internal/latex"
	"github.com/jschless/armymarkdown/internal/parser"
	"github.com/jschless/armymarkdown/internal/validate"
)

// Worker compiles one job at a time. Workers share nothing but the stats sink.
type Worker struct {
	log   *slog.Logger
	gen   latex.Generator
	stats *CompileStats
}

func NewWorker(log *slog.Logger, class string, stats *CompileStats) *Worker {
	return &Worker{
		log:   log,
		gen:   latex.Generator{Class: class},
		stats: stats,
	}
}

// outcome is what one pass over a job produced. err is nil on success.
type outcome struct {
	phase    string
	kind     compiler.Kind
	err      error
	issues   []validate.Issue
	markup   string
	warnings []validate.Issue
}

// Process runs parse, validate and generate for a job. The outcome is
// recorded in the stats before the job turns terminal, so anyone woken by
// Done sees it counted.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()
	out := w.compile(ctx, job, log)
	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.Record(elapsed, out.err)
	}

	if out.err != nil {
		job.Fail(out.phase, string(out.kind), out.err, out.issues)
		return
	}
	job.SetResult(out.markup, out.warnings)
	log.Info("compiled", "bytes", len(out.markup), "warnings", len(out.warnings),
		"duration_ms", elapsed.Milliseconds())
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) compile(ctx context.Context, job *Job, log *slog.Logger) outcome {
	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		return outcome{phase: "parsing", kind: compiler.KindOther, err: err}
	}
	doc, err := p.Parse(bytes.NewReader(job.Source()), job.Filename)
	if err != nil {
		log.Info("parse failed", "error", err)
		return outcome{phase: "parsing", kind: compiler.KindOf(err), err: err}
	}
	if err := ctx.Err(); err != nil {
		return outcome{phase: "parsing", kind: compiler.KindOther, err: err}
	}

	// Phase 2: Validate
	job.SetStatus(StatusValidating, "validating")
	report := validate.Validate(doc)
	if err := report.Err(); err != nil {
		var ve *validate.ValidationError
		errors.As(err, &ve)
		log.Info("validation failed", "errors", len(ve.Issues))
		return outcome{phase: "validating", kind: compiler.KindValidation, err: err, issues: ve.Issues}
	}
	if err := ctx.Err(); err != nil {
		return outcome{phase: "validating", kind: compiler.KindOther, err: err}
	}

	// Phase 3: Generate
	job.SetStatus(StatusGenerating, "generating")
	return outcome{markup: w.gen.Render(doc), warnings: report.Warnings()}
}

// Wait blocks until job finishes or ctx is done.
func Wait(ctx context.Context, job *Job) error {
	select {
	case <-job.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for job %s: %w", job.ID, ctx.Err())
	}
}
