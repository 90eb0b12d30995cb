package output

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/vadviktor/icebreaker/pkg/pipeline"
)

// PrintBuildReport prints a nicely formatted build report with colors
func PrintBuildReport(result *pipeline.Result, staticDir string) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	bold.Println("icebreaker - Client Build Report")
	bold.Println("================================")

	for _, step := range result.Steps {
		if step.Err != nil {
			red.Printf("  ✗ %-10s %s\n", step.Name, formatDuration(step.Duration))
			red.Printf("    %v\n", step.Err)
		} else {
			green.Printf("  ✓ %-10s %s\n", step.Name, formatDuration(step.Duration))
		}
	}
	fmt.Println()

	if failed := result.Failed(); failed != nil {
		red.Printf("Build failed at step %s after %s\n", failed.Name, formatDuration(result.Duration))
		return
	}

	green.Printf("Build complete in %s\n", formatDuration(result.Duration))
	cyan.Printf("Static assets: %s\n", staticDir)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
