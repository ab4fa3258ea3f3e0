// Package config loads runtime settings from an optional file, the
// environment (CHESSPLAY_ prefix) and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hailam/chessplay-minimax/internal/engine"
	"github.com/hailam/chessplay-minimax/internal/eval"
	"github.com/hailam/chessplay-minimax/internal/history"
)

const EnvPrefix = "CHESSPLAY"

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Search  SearchConfig  `mapstructure:"search"`
	Eval    EvalConfig    `mapstructure:"eval"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Render  RenderConfig  `mapstructure:"render"`
}

type SearchConfig struct {
	Depth       int    `mapstructure:"depth"`
	MaxMoves    int    `mapstructure:"max_moves"`
	Workers     int    `mapstructure:"workers"`
	Perspective string `mapstructure:"perspective"`
	MaxPlies    int    `mapstructure:"max_plies"` // 0 = play until the game ends
}

type EvalConfig struct {
	Kind    string `mapstructure:"kind"`
	Weights string `mapstructure:"weights"`
}

// CacheConfig capacities of 0 mean unbounded.
type CacheConfig struct {
	TableCapacity int  `mapstructure:"table_capacity"`
	MoveCapacity  int  `mapstructure:"move_capacity"`
	Persist       bool `mapstructure:"persist"`
}

type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"` // empty = platform data dir
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type RenderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
	Size    int    `mapstructure:"size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.depth", 2)
	v.SetDefault("search.max_moves", history.DefaultMaxMoves)
	v.SetDefault("search.workers", 1)
	v.SetDefault("search.perspective", engine.PerspectiveMaximizer.String())
	v.SetDefault("search.max_plies", 0)

	v.SetDefault("eval.kind", eval.KindMaterial)
	v.SetDefault("eval.weights", "")

	v.SetDefault("cache.table_capacity", 0)
	v.SetDefault("cache.move_capacity", 0)
	v.SetDefault("cache.persist", false)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.dir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("render.enabled", false)
	v.SetDefault("render.dir", "")
	v.SetDefault("render.size", 480)
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables apply. Environment variables use
// the key path in upper case, e.g. CHESSPLAY_SEARCH_DEPTH.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	var errs []error
	if c.Search.Depth < 1 {
		errs = append(errs, fmt.Errorf("%w: search.depth must be at least 1, got %d", ErrInvalid, c.Search.Depth))
	}
	if c.Search.MaxMoves < 1 {
		errs = append(errs, fmt.Errorf("%w: search.max_moves must be at least 1, got %d", ErrInvalid, c.Search.MaxMoves))
	}
	if c.Search.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: search.workers must be at least 1, got %d", ErrInvalid, c.Search.Workers))
	}
	if c.Search.MaxPlies < 0 {
		errs = append(errs, fmt.Errorf("%w: search.max_plies must not be negative", ErrInvalid))
	}
	if _, err := engine.ParsePerspective(c.Search.Perspective); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	switch strings.ToLower(c.Eval.Kind) {
	case eval.KindMaterial, eval.KindNetwork:
	default:
		errs = append(errs, fmt.Errorf("%w: eval.kind %q", ErrInvalid, c.Eval.Kind))
	}
	if c.Cache.TableCapacity < 0 || c.Cache.MoveCapacity < 0 {
		errs = append(errs, fmt.Errorf("%w: cache capacities must not be negative", ErrInvalid))
	}
	if c.Cache.Persist && !c.Storage.Enabled {
		errs = append(errs, fmt.Errorf("%w: cache.persist requires storage.enabled", ErrInvalid))
	}
	if c.Cache.Persist && (c.Cache.TableCapacity > 0 || c.Cache.MoveCapacity > 0) {
		errs = append(errs, fmt.Errorf("%w: cache.persist requires unbounded caches", ErrInvalid))
	}
	if c.Render.Size < 64 {
		errs = append(errs, fmt.Errorf("%w: render.size must be at least 64, got %d", ErrInvalid, c.Render.Size))
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %v", ErrInvalid, err))
	}
	return errors.Join(errs...)
}

// EngineOptions maps the search and cache settings onto engine options.
func (c *Config) EngineOptions(log *zap.SugaredLogger) []engine.Option {
	p, _ := engine.ParsePerspective(c.Search.Perspective)
	return []engine.Option{
		engine.WithLogger(log),
		engine.WithMaxMoves(c.Search.MaxMoves),
		engine.WithWorkers(c.Search.Workers),
		engine.WithPerspective(p),
		engine.WithTableCapacity(c.Cache.TableCapacity),
		engine.WithMoveCacheCapacity(c.Cache.MoveCapacity),
	}
}

// NewLogger builds the process logger.
func (c LogConfig) NewLogger() (*zap.SugaredLogger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
