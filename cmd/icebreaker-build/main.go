package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/vadviktor/icebreaker/pkg/bundler"
	"github.com/vadviktor/icebreaker/pkg/config"
	"github.com/vadviktor/icebreaker/pkg/logging"
	"github.com/vadviktor/icebreaker/pkg/output"
	"github.com/vadviktor/icebreaker/pkg/pipeline"
	"github.com/vadviktor/icebreaker/pkg/preview"
	"github.com/vadviktor/icebreaker/pkg/toolchain"
	"github.com/vadviktor/icebreaker/pkg/watcher"
)

func main() {
	f := pflag.NewFlagSet("icebreaker-build", pflag.ExitOnError)
	f.String("client", ".", "Path to the client directory")
	f.String("dist", "dist", "Bundler output directory, relative to the client directory")
	f.String("static", "../server/static", "Destination static directory, relative to the client directory")
	f.String("bundler", "npx", "Bundle step implementation: npx (vite) or esbuild (in-process)")
	f.String("entry", "src/main.ts", "Client entry point (esbuild bundler only)")
	f.Bool("watch", false, "Rebuild when client sources change")
	f.Bool("preview", false, "Serve the static directory with live reload")
	f.Int("port", 4173, "Port for the preview server (only used with --preview)")
	f.Bool("json", false, "Log in JSON format")
	f.String("verbosity", "", "Log verbosity: trace, debug, warn or error")
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := logging.LevelFromVerbosity(cfg.Verbosity)
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}

	runner := toolchain.NewRunner()
	p := pipeline.New(runner, selectBundler(cfg, runner), cfg.ClientDir, cfg.DistDir, cfg.StaticDir)

	if !cfg.Watch && !cfg.Preview {
		// The plain invocation: build once, report, propagate the exit code
		result, err := p.Run(context.Background(), pipeline.Options{})
		output.PrintBuildReport(result, p.StaticPath())
		if err != nil {
			os.Exit(exitCode(err))
		}
		return
	}

	runDev(cfg, p)
}

// runDev handles the --watch / --preview developer modes
func runDev(cfg *config.Config, p *pipeline.Pipeline) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *preview.Server
	if cfg.Preview {
		server = preview.NewServer(p.StaticPath())
		defer server.Close()

		go func() {
			if err := server.Start(cfg.Port); err != nil {
				logging.Fatal("preview server failed", "error", err)
			}
		}()
	}

	// Initial build; in dev modes a failure is reported, not fatal
	runAndPublish(ctx, p, server, pipeline.Options{})

	if !cfg.Watch {
		<-ctx.Done()
		return
	}

	fw, err := watcher.NewFileWatcher(cfg.ClientDir)
	if err != nil {
		logging.Fatal("failed to create watcher", "error", err)
	}
	if err := fw.Start(ctx); err != nil {
		logging.Fatal("failed to start watcher", "error", err)
	}
	defer fw.Stop()

	debouncer := watcher.NewDebouncer(fw.Events(), 200*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		plan := watcher.AnalyzeChanges(event)
		logging.Info("client changed, rebuilding",
			"files", len(plan.ChangedFiles),
			"typecheck", plan.NeedTypecheck,
		)
		runAndPublish(ctx, p, server, pipeline.Options{SkipTypecheck: !plan.NeedTypecheck})
	}
}

func runAndPublish(ctx context.Context, p *pipeline.Pipeline, server *preview.Server, opts pipeline.Options) {
	if server != nil {
		_ = server.PublishBuildStatus("building", "build started", "", 0)
	}

	result, err := p.Run(ctx, opts)
	output.PrintBuildReport(result, p.StaticPath())

	if server == nil {
		return
	}

	server.SetLastResult(result)
	if err != nil {
		_ = server.PublishBuildStatus("failed", err.Error(), result.RunID, exitCode(err))
		return
	}
	_ = server.PublishBuildStatus("succeeded", "build complete", result.RunID, 0)
	_ = server.PublishReload(result.RunID, result.Duration)
}

// exitCode maps a pipeline error to the process exit status, mirroring the
// failing subprocess where one exists
func exitCode(err error) int {
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		return stepErr.Code
	}
	return 1
}

func selectBundler(cfg *config.Config, runner toolchain.Runner) bundler.Bundler {
	if cfg.Bundler == "esbuild" {
		return bundler.NewEsbuildBundler(cfg.ClientDir, cfg.Entry, cfg.DistDir)
	}
	return bundler.NewNPXBundler(runner, cfg.ClientDir)
}
