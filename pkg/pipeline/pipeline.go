package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vadviktor/icebreaker/pkg/bundler"
	"github.com/vadviktor/icebreaker/pkg/logging"
	"github.com/vadviktor/icebreaker/pkg/staticsync"
	"github.com/vadviktor/icebreaker/pkg/toolchain"
)

// Step names as they appear in results and reports
const (
	StepTypecheck = "typecheck"
	StepBundle    = "bundle"
	StepSync      = "sync"
)

// StepError reports a failed pipeline step and the exit code the process
// should terminate with. For external tool steps the code mirrors the
// subprocess exit status.
type StepError struct {
	Step string
	Code int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepResult records the outcome of a single step
type StepResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Result records the outcome of one pipeline run
type Result struct {
	RunID    string
	Steps    []StepResult
	Duration time.Duration
}

// Failed returns the first failed step, or nil if every step succeeded
func (r *Result) Failed() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Err != nil {
			return &r.Steps[i]
		}
	}
	return nil
}

// Options tunes a single pipeline run
type Options struct {
	// SkipTypecheck skips the tsc step; used by watch mode when only
	// style or markup files changed
	SkipTypecheck bool
}

// Pipeline runs the client build: type-check, bundle, then mirror the dist
// output into the server's static directory
type Pipeline struct {
	runner    toolchain.Runner
	bundler   bundler.Bundler
	clientDir string
	distDir   string
	staticDir string
}

// New creates a pipeline. distDir and staticDir are resolved relative to
// clientDir unless absolute.
func New(runner toolchain.Runner, b bundler.Bundler, clientDir, distDir, staticDir string) *Pipeline {
	return &Pipeline{
		runner:    runner,
		bundler:   b,
		clientDir: clientDir,
		distDir:   distDir,
		staticDir: staticDir,
	}
}

// DistPath returns the resolved bundler output directory
func (p *Pipeline) DistPath() string {
	return resolve(p.clientDir, p.distDir)
}

// StaticPath returns the resolved destination static directory
func (p *Pipeline) StaticPath() string {
	return resolve(p.clientDir, p.staticDir)
}

// Run executes the build sequence. Any step failure aborts the run
// immediately; later steps are not attempted and the destination directory is
// left untouched. The returned Result always covers the steps that ran.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{RunID: uuid.New().String()}
	ctx = logging.WithRunID(ctx, result.RunID)
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	if opts.SkipTypecheck {
		logging.DebugContext(ctx, "skipping typecheck")
	} else {
		if err := p.runStep(ctx, result, StepTypecheck, p.typecheck); err != nil {
			return result, err
		}
	}

	if err := p.runStep(ctx, result, StepBundle, p.bundler.Bundle); err != nil {
		return result, err
	}

	if err := p.runStep(ctx, result, StepSync, p.sync); err != nil {
		return result, err
	}

	logging.InfoContext(ctx, "build complete",
		"static", p.StaticPath(),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (p *Pipeline) runStep(ctx context.Context, result *Result, name string, fn func(context.Context) error) error {
	logging.InfoContext(ctx, "running step", "step", name)
	stepStart := time.Now()

	err := fn(ctx)

	result.Steps = append(result.Steps, StepResult{
		Name:     name,
		Duration: time.Since(stepStart),
		Err:      err,
	})

	if err != nil {
		logging.ErrorContext(ctx, "step failed", "step", name, "error", err)
		return &StepError{Step: name, Code: toolchain.ExitCode(err), Err: err}
	}

	logging.DebugContext(ctx, "step finished",
		"step", name,
		"durationMs", time.Since(stepStart).Milliseconds(),
	)
	return nil
}

// typecheck runs the project type-checker in build mode
func (p *Pipeline) typecheck(ctx context.Context) error {
	return p.runner.Run(ctx, toolchain.Command{
		Dir:  p.clientDir,
		Name: "npx",
		Args: []string{"tsc", "-b"},
	})
}

// sync replaces the static directory with the fresh dist output
func (p *Pipeline) sync(ctx context.Context) error {
	return staticsync.Mirror(p.DistPath(), p.StaticPath())
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
