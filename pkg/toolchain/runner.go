package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes a single external tool invocation
type Command struct {
	Dir  string
	Name string
	Args []string
}

// String returns the invocation as it would appear on a shell command line
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner handles the execution of external toolchain commands
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// DefaultRunner is the default implementation of Runner that runs actual commands,
// streaming tool output to the configured writers
type DefaultRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a new default runner writing tool output to the process streams
func NewRunner() Runner {
	return &DefaultRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes the command and blocks until it terminates.
// It respects the provided context for cancellation.
func (r *DefaultRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	if err := c.Run(); err != nil {
		return fmt.Errorf("command failed: %s: %w", cmd, err)
	}

	return nil
}

// ExitCode extracts the subprocess exit status from a Run error.
// nil maps to 0; errors that carry no exit status (command not found,
// context cancellation, filesystem failures) map to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
