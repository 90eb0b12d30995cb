package bundler

import (
	"context"

	"github.com/vadviktor/icebreaker/pkg/toolchain"
)

// Bundler produces the production asset bundle in the client's dist directory
type Bundler interface {
	// Bundle runs the production build and populates the dist directory
	Bundle(ctx context.Context) error
	// Name identifies the bundler in logs and reports
	Name() string
}

// NPXBundler invokes the project's own bundler through npx (vite production build)
type NPXBundler struct {
	runner    toolchain.Runner
	clientDir string
}

// NewNPXBundler creates a bundler that shells out to `npx vite build`
func NewNPXBundler(runner toolchain.Runner, clientDir string) *NPXBundler {
	return &NPXBundler{runner: runner, clientDir: clientDir}
}

func (b *NPXBundler) Name() string { return "vite" }

func (b *NPXBundler) Bundle(ctx context.Context) error {
	return b.runner.Run(ctx, toolchain.Command{
		Dir:  b.clientDir,
		Name: "npx",
		Args: []string{"vite", "build"},
	})
}
