// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs batches of file conversions against an external
// single-file converter. A batch is resolved into candidate paths, each
// candidate is checked and turned into a job, and jobs run one at a time in
// discovery order. Every candidate yields exactly one outcome.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pdiddy/mediakit/internal/format"
	"github.com/pdiddy/mediakit/pkg/types"
)

// ProgressFunc receives percent-complete values in [0, 100].
type ProgressFunc func(percent float64)

// Converter performs one conversion. Implementations report size statistics
// when they can and return nil stats otherwise.
type Converter interface {
	Convert(ctx context.Context, job types.ConversionJob, progress ProgressFunc) (*types.SizeStats, error)
}

// ProgressSink renders the progress of one running job.
type ProgressSink interface {
	Update(percent float64)
	Finish()
}

// ProgressReporter creates a sink per job.
type ProgressReporter interface {
	Start(job types.ConversionJob) ProgressSink
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Outcomes  []types.JobOutcome
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of candidates processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any job failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) record(o types.JobOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Kind {
	case types.OutcomeConverted:
		r.Converted++
	case types.OutcomeSkipped:
		r.Skipped++
	case types.OutcomeFailed:
		r.Failed++
	}
}

// Driver wires the resolver, planner, and runner for one target format.
type Driver struct {
	Format    format.Format
	Converter Converter
	Fs        afero.Fs

	// Root is the working directory glob patterns and relative scan
	// directories are resolved against.
	Root string

	// Progress may be nil.
	Progress ProgressReporter

	// Out receives the per-file status lines and the batch summary.
	Out io.Writer
	Log zerolog.Logger
}

// Run validates the request, resolves its inputs, and converts every
// eligible candidate. The returned error is non-nil only for problems that
// stop the batch before any job starts; per-file failures are reported in
// the result.
func (d *Driver) Run(ctx context.Context, req types.BatchRequest) (BatchResult, error) {
	if err := d.Format.ValidateQuality(req.Params.Quality); err != nil {
		return BatchResult{}, err
	}

	resolver := Resolver{Fs: d.Fs, Root: d.Root, Log: d.Log}
	candidates, err := resolver.Resolve(req, d.Format)
	if err != nil {
		return BatchResult{}, err
	}

	return d.runner().Run(ctx, req, candidates), nil
}

func (d *Driver) runner() *Runner {
	return &Runner{
		Format:    d.Format,
		Converter: d.Converter,
		Fs:        d.Fs,
		Progress:  d.Progress,
		Out:       d.Out,
		Log:       d.Log,
	}
}

// Runner plans and executes candidates sequentially.
type Runner struct {
	Format    format.Format
	Converter Converter
	Fs        afero.Fs
	Progress  ProgressReporter
	Out       io.Writer
	Log       zerolog.Logger
}

// Run processes candidates in order and prints a summary. Candidate i,
// including the removal of its source, finishes before candidate i+1 is
// checked, so a source removed by an earlier job is skipped as not found.
func (r *Runner) Run(ctx context.Context, req types.BatchRequest, candidates []string) BatchResult {
	var result BatchResult
	for i, c := range candidates {
		item := PlanItem(r.Fs, c, r.Format, req)
		var outcome types.JobOutcome
		if item.Job == nil {
			outcome = types.Skipped(item.Candidate, item.SkipReason)
		} else {
			log := r.Log.With().Int("job", i+1).Str("source", item.Job.SourcePath).Logger()
			outcome = r.runJob(ctx, *item.Job, req.OutputDir, log)
			if outcome.Kind == types.OutcomeConverted && !req.KeepOriginal {
				r.removeSource(item.Job.SourcePath, log)
			}
		}
		r.report(outcome)
		result.record(outcome)
	}
	fmt.Fprintf(r.Out, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

func (r *Runner) runJob(ctx context.Context, job types.ConversionJob, outputDir string, log zerolog.Logger) types.JobOutcome {
	if outputDir != "" {
		if err := r.Fs.MkdirAll(outputDir, 0o755); err != nil {
			return types.Failed(job.SourcePath, job.OutputPath, fmt.Errorf("creating output directory: %w", err))
		}
	}

	log.Debug().Str("output", job.OutputPath).Int("quality", job.Params.Quality).Msg("converting")

	var progress ProgressFunc
	var sink ProgressSink
	if r.Progress != nil {
		sink = r.Progress.Start(job)
		progress = sink.Update
	}
	stats, err := r.Converter.Convert(ctx, job, progress)
	if sink != nil {
		sink.Finish()
	}

	if err != nil {
		log.Error().Err(err).Msg("conversion failed")
		return types.Failed(job.SourcePath, job.OutputPath, err)
	}
	return types.Converted(job.SourcePath, job.OutputPath, stats)
}

// removeSource deletes a converted source. Failure is a warning only.
func (r *Runner) removeSource(path string, log zerolog.Logger) {
	if err := r.Fs.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not remove source")
		fmt.Fprintf(r.Out, "  warning: could not remove %s: %v\n", path, err)
		return
	}
	log.Debug().Msg("source removed")
}

func (r *Runner) report(o types.JobOutcome) {
	switch o.Kind {
	case types.OutcomeConverted:
		if o.Stats != nil {
			fmt.Fprintf(r.Out, "converted: %s -> %s (%s)\n", o.SourcePath, o.OutputPath, o.Stats)
		} else {
			fmt.Fprintf(r.Out, "converted: %s -> %s\n", o.SourcePath, o.OutputPath)
		}
	case types.OutcomeSkipped:
		fmt.Fprintf(r.Out, "skipped: %s (%s)\n", o.SourcePath, o.Reason)
	case types.OutcomeFailed:
		fmt.Fprintf(r.Out, "failed:  %s (%v)\n", o.SourcePath, o.Err)
	}
}
