package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/hailam/chessplay-minimax/internal/engine"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Depth != 2 || cfg.Search.MaxMoves != 16 || cfg.Search.Workers != 1 {
		t.Errorf("Unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Eval.Kind != "material" || cfg.Log.Level != "info" || cfg.Render.Size != 480 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.Storage.Enabled || cfg.Cache.Persist {
		t.Error("Persistence should be off by default")
	}
	if cfg.Search.Perspective != engine.PerspectiveMaximizer.String() {
		t.Errorf("Expected maximizer perspective by default, got %s", cfg.Search.Perspective)
	}
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chessplay.yaml")
	data := []byte(`
search:
  depth: 3
  workers: 4
  perspective: side_to_move
eval:
  kind: network
storage:
  enabled: true
cache:
  persist: true
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHESSPLAY_SEARCH_DEPTH", "4")
	t.Setenv("CHESSPLAY_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Depth != 4 {
		t.Errorf("Environment should override file depth, got %d", cfg.Search.Depth)
	}
	if cfg.Search.Workers != 4 || cfg.Eval.Kind != "network" || !cfg.Cache.Persist {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected debug level from env, got %s", cfg.Log.Level)
	}
	if len(cfg.EngineOptions(nil)) == 0 {
		t.Error("Expected engine options")
	}

	var opts engine.Options
	for _, o := range cfg.EngineOptions(nil) {
		o(&opts)
	}
	if opts.Perspective != engine.PerspectiveSideToMove || opts.Workers != 4 {
		t.Errorf("Engine options not mapped: %+v", opts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero depth", func(c *Config) { c.Search.Depth = 0 }},
		{"zero window", func(c *Config) { c.Search.MaxMoves = 0 }},
		{"bad perspective", func(c *Config) { c.Search.Perspective = "both" }},
		{"bad evaluator", func(c *Config) { c.Eval.Kind = "oracle" }},
		{"negative capacity", func(c *Config) { c.Cache.TableCapacity = -1 }},
		{"persist without storage", func(c *Config) { c.Cache.Persist = true }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"tiny render", func(c *Config) { c.Render.Size = 8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for a missing config file")
	}
}

func TestNewLogger(t *testing.T) {
	log, err := LogConfig{Level: "warn", Development: true}.NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	if log.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("Debug should be disabled at warn level")
	}
}
