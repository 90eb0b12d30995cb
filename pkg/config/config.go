package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the build orchestrator
type Config struct {
	ClientDir string `koanf:"client"`
	DistDir   string `koanf:"dist"`
	StaticDir string `koanf:"static"`
	Bundler   string `koanf:"bundler"`
	Entry     string `koanf:"entry"`
	Watch     bool   `koanf:"watch"`
	Preview   bool   `koanf:"preview"`
	Port      int    `koanf:"port"`
	JSONLogs  bool   `koanf:"json"`
	Verbosity string `koanf:"verbosity"`
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"client":    ".",
		"dist":      "dist",
		"static":    "../server/static",
		"bundler":   "npx",
		"entry":     "src/main.ts",
		"watch":     false,
		"preview":   false,
		"port":      4173,
		"json":      false,
		"verbosity": "",
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - icebreaker.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider("icebreaker.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: ICEBREAKER_ (e.g., ICEBREAKER_PORT=9090)
	if err := k.Load(env.Provider("ICEBREAKER_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "ICEBREAKER_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Bundler != "npx" && cfg.Bundler != "esbuild" {
		return nil, fmt.Errorf("unknown bundler %q (expected npx or esbuild)", cfg.Bundler)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
