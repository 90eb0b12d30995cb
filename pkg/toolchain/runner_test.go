package toolchain

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"testing"
)

func TestCommandString(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "No Args",
			cmd:  Command{Name: "npx"},
			want: "npx",
		},
		{
			name: "With Args",
			cmd:  Command{Name: "npx", Args: []string{"tsc", "-b"}},
			want: "npx tsc -b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRunCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	var stdout, stderr bytes.Buffer
	r := &DefaultRunner{Stdout: &stdout, Stderr: &stderr}

	err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo hello"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stdout.String() != "hello\n" {
		t.Errorf("Expected 'hello\\n' on stdout, got %q", stdout.String())
	}
}

func TestRunPropagatesExitStatus(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	r := &DefaultRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	if err == nil {
		t.Fatal("Expected error for failing command, got nil")
	}

	if code := ExitCode(err); code != 3 {
		t.Errorf("Expected exit code 3, got %d", code)
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("Expected exit code 0 for nil error")
	}

	// Errors without an exit status map to 1
	if ExitCode(errors.New("boom")) != 1 {
		t.Error("Expected exit code 1 for plain error")
	}
}
