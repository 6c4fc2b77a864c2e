package runner

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/corvidlabs/mkdlint/pkg/lint"
)

// Runner orchestrates multi-file linting using a lint.Pipeline.
type Runner struct {
	// Pipeline handles per-file processing with safety guarantees.
	Pipeline *lint.Pipeline
}

// New creates a new Runner with the given pipeline.
func New(pipeline *lint.Pipeline) *Runner {
	return &Runner{Pipeline: pipeline}
}

// Run discovers files under opts.Paths and processes them concurrently.
// It returns a deterministic collection of FileOutcome values and aggregate stats.
//
// The runner:
//   - Discovers files matching the options criteria
//   - Processes files concurrently using a bounded errgroup
//   - Aggregates results into a single Result with statistics
//   - Respects context cancellation
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	// Discover files.
	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Files: make([]FileOutcome, 0, len(files)),
		Stats: newStats(),
	}
	result.Stats.FilesDiscovered = len(files)

	if len(files) == 0 {
		return result, nil
	}

	// Determine job count.
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	// Don't use more workers than files.
	if jobs > len(files) {
		jobs = len(files)
	}

	// Get pipeline options from config.
	pipelineOpts := lint.PipelineOptionsFromConfig(opts.Config)

	// Each document is independent (spec.md §5): no mutable state is shared
	// across invocations, so a bounded errgroup fans files out across
	// workers and cancels the remaining work on the first hard failure.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(jobs)

	outcomes := make([]FileOutcome, len(files))

	for idx, path := range files {
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			outcome := FileOutcome{Path: path}

			pr, perr := r.Pipeline.ProcessFile(groupCtx, path, opts.Config, pipelineOpts)
			if perr != nil {
				outcome.Error = perr
			} else {
				outcome.Result = pr
			}

			outcomes[idx] = outcome
			return nil
		})
	}

	waitErr := group.Wait()

	// Build result in discovery order; per-file errors live on FileOutcome
	// and do not abort the run, so accumulate everything we have even if
	// the group stopped early due to context cancellation.
	for _, outcome := range outcomes {
		if outcome.Path != "" {
			result.accumulate(outcome)
		}
	}

	if waitErr != nil {
		return result, fmt.Errorf("run cancelled: %w", waitErr)
	}

	return result, nil
}
