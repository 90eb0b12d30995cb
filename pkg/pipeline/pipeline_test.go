package pipeline

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/vadviktor/icebreaker/pkg/toolchain"
)

// fakeBundler writes a canned dist tree when invoked
type fakeBundler struct {
	distPath string
	files    map[string]string
	err      error
	invoked  bool
}

func (f *fakeBundler) Name() string { return "fake" }

func (f *fakeBundler) Bundle(ctx context.Context) error {
	f.invoked = true
	if f.err != nil {
		return f.err
	}
	for rel, content := range f.files {
		path := filepath.Join(f.distPath, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newTestPipeline(t *testing.T, runner toolchain.Runner, b *fakeBundler) (*Pipeline, string) {
	t.Helper()
	client := t.TempDir()
	static := filepath.Join(t.TempDir(), "static")
	b.distPath = filepath.Join(client, "dist")
	return New(runner, b, client, "dist", static), static
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	mock := &toolchain.MockRunner{}
	b := &fakeBundler{files: map[string]string{
		"index.html":    "<html></html>",
		"assets/app.js": "app",
	}}
	p, static := newTestPipeline(t, mock, b)

	result, err := p.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(mock.Calls) != 1 || mock.Calls[0].String() != "npx tsc -b" {
		t.Errorf("Expected single 'npx tsc -b' invocation, got %v", mock.Calls)
	}
	if !b.invoked {
		t.Error("Expected bundler to be invoked")
	}

	wantSteps := []string{StepTypecheck, StepBundle, StepSync}
	if len(result.Steps) != len(wantSteps) {
		t.Fatalf("Expected %d steps, got %d", len(wantSteps), len(result.Steps))
	}
	for i, name := range wantSteps {
		if result.Steps[i].Name != name {
			t.Errorf("Step %d: expected %s, got %s", i, name, result.Steps[i].Name)
		}
	}

	content, err := os.ReadFile(filepath.Join(static, "index.html"))
	if err != nil {
		t.Fatalf("Expected index.html in static dir: %v", err)
	}
	if string(content) != "<html></html>" {
		t.Errorf("Unexpected static content: %q", content)
	}
}

func TestRunAbortsWhenTypecheckFails(t *testing.T) {
	mock := &toolchain.MockRunner{
		Fail: map[string]error{"npx": exitError(t, 2)},
	}
	b := &fakeBundler{}
	p, static := newTestPipeline(t, mock, b)

	result, err := p.Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("Expected error when typecheck fails")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Expected StepError, got %T", err)
	}
	if stepErr.Step != StepTypecheck {
		t.Errorf("Expected failing step %s, got %s", StepTypecheck, stepErr.Step)
	}
	if stepErr.Code != 2 {
		t.Errorf("Expected exit code 2, got %d", stepErr.Code)
	}

	if b.invoked {
		t.Error("Bundler must not run after typecheck failure")
	}
	if _, statErr := os.Stat(static); !os.IsNotExist(statErr) {
		t.Error("Static directory must be left untouched on failure")
	}
	if failed := result.Failed(); failed == nil || failed.Name != StepTypecheck {
		t.Error("Expected result to record the typecheck failure")
	}
}

func TestRunAbortsWhenBundleFails(t *testing.T) {
	mock := &toolchain.MockRunner{}
	b := &fakeBundler{err: errors.New("bundle exploded")}
	p, static := newTestPipeline(t, mock, b)

	_, err := p.Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("Expected error when bundling fails")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Expected StepError, got %T", err)
	}
	if stepErr.Step != StepBundle {
		t.Errorf("Expected failing step %s, got %s", StepBundle, stepErr.Step)
	}

	if _, statErr := os.Stat(static); !os.IsNotExist(statErr) {
		t.Error("Static directory must be left untouched on failure")
	}
}

func TestRunSyncFailsWithoutDist(t *testing.T) {
	// Bundler that claims success but writes nothing
	mock := &toolchain.MockRunner{}
	b := &fakeBundler{}
	p, _ := newTestPipeline(t, mock, b)

	_, err := p.Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("Expected error when dist directory is missing")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Expected StepError, got %T", err)
	}
	if stepErr.Step != StepSync {
		t.Errorf("Expected failing step %s, got %s", StepSync, stepErr.Step)
	}
}

func TestRunSkipTypecheck(t *testing.T) {
	mock := &toolchain.MockRunner{}
	b := &fakeBundler{files: map[string]string{"index.html": "x"}}
	p, _ := newTestPipeline(t, mock, b)

	result, err := p.Run(context.Background(), Options{SkipTypecheck: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(mock.Calls) != 0 {
		t.Errorf("Expected no tool invocations, got %v", mock.Calls)
	}
	if len(result.Steps) != 2 {
		t.Errorf("Expected 2 steps, got %d", len(result.Steps))
	}
}

func TestRunIsIdempotent(t *testing.T) {
	mock := &toolchain.MockRunner{}
	b := &fakeBundler{files: map[string]string{"index.html": "same", "assets/a.js": "a"}}
	p, static := newTestPipeline(t, mock, b)

	for i := 0; i < 2; i++ {
		if _, err := p.Run(context.Background(), Options{}); err != nil {
			t.Fatalf("Run %d failed: %v", i+1, err)
		}
	}

	content, err := os.ReadFile(filepath.Join(static, "index.html"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(content) != "same" {
		t.Errorf("Expected identical static content after repeated runs, got %q", content)
	}
}

// exitError produces a real *exec.ExitError carrying the given exit code
func exitError(t *testing.T, code int) error {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	err := exec.Command("sh", "-c", "exit "+strconv.Itoa(code)).Run()
	if err == nil {
		t.Fatal("Expected command to fail")
	}
	return err
}
