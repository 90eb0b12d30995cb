package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no icebreaker.toml is picked up
	chdirTemp(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ClientDir != "." {
		t.Errorf("Expected client dir '.', got %q", cfg.ClientDir)
	}
	if cfg.DistDir != "dist" {
		t.Errorf("Expected dist dir 'dist', got %q", cfg.DistDir)
	}
	if cfg.StaticDir != "../server/static" {
		t.Errorf("Expected static dir '../server/static', got %q", cfg.StaticDir)
	}
	if cfg.Bundler != "npx" {
		t.Errorf("Expected bundler 'npx', got %q", cfg.Bundler)
	}
	if cfg.Port != 4173 {
		t.Errorf("Expected port 4173, got %d", cfg.Port)
	}
	if cfg.Watch || cfg.Preview {
		t.Error("Expected watch and preview to default to false")
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	chdirTemp(t)

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("client", ".", "")
	f.String("bundler", "npx", "")
	f.Int("port", 4173, "")
	f.Bool("watch", false, "")
	if err := f.Parse([]string{"--client", "web", "--bundler", "esbuild", "--port", "9999", "--watch"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ClientDir != "web" {
		t.Errorf("Expected client dir 'web', got %q", cfg.ClientDir)
	}
	if cfg.Bundler != "esbuild" {
		t.Errorf("Expected bundler 'esbuild', got %q", cfg.Bundler)
	}
	if cfg.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.Port)
	}
	if !cfg.Watch {
		t.Error("Expected watch to be true")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	toml := []byte("port = 5000\nbundler = \"esbuild\"\n")
	if err := os.WriteFile(filepath.Join(dir, "icebreaker.toml"), toml, 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("ICEBREAKER_PORT", "6000")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Env wins over file, file wins over default
	if cfg.Port != 6000 {
		t.Errorf("Expected port 6000 from env, got %d", cfg.Port)
	}
	if cfg.Bundler != "esbuild" {
		t.Errorf("Expected bundler 'esbuild' from file, got %q", cfg.Bundler)
	}
}

func TestLoadRejectsUnknownBundler(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ICEBREAKER_BUNDLER", "webpack")

	if _, err := Load(nil); err == nil {
		t.Fatal("Expected error for unknown bundler, got nil")
	}
}

// chdirTemp switches the working directory to a fresh temp dir for the test
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}
