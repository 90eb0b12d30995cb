package bundler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/vadviktor/icebreaker/pkg/logging"
)

// EsbuildBundler bundles the client entry point in-process with the esbuild API.
// It does not need node on PATH, but it also does not run vite plugins; the
// type-check step still goes through tsc.
type EsbuildBundler struct {
	clientDir string
	entry     string
	distDir   string
}

// NewEsbuildBundler creates an in-process bundler for the given client entry point
func NewEsbuildBundler(clientDir, entry, distDir string) *EsbuildBundler {
	return &EsbuildBundler{clientDir: clientDir, entry: entry, distDir: distDir}
}

func (b *EsbuildBundler) Name() string { return "esbuild" }

func (b *EsbuildBundler) Bundle(ctx context.Context) error {
	entry := filepath.Join(b.clientDir, b.entry)
	outfile := filepath.Join(b.clientDir, b.distDir, outfileFor(b.entry))

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{entry},
		Outfile:           outfile,
		Bundle:            true,
		Write:             true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		Sourcemap:         api.SourceMapLinked,
		MinifySyntax:      true,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
	})

	for _, warning := range result.Warnings {
		logging.Warn("esbuild warning", "text", warning.Text, "file", location(warning))
	}

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			logging.Error("esbuild error", "text", msg.Text, "file", location(msg))
		}
		return fmt.Errorf("esbuild failed with %d error(s)", len(result.Errors))
	}

	return nil
}

// outfileFor maps the entry point to its bundle name, e.g. src/main.ts -> main.js
func outfileFor(entry string) string {
	base := filepath.Base(entry)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".js"
}

func location(msg api.Message) string {
	if msg.Location == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d", msg.Location.File, msg.Location.Line)
}
