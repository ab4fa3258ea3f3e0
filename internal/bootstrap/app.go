// Package bootstrap wires configuration into a ready engine with its
// optional storage and renderer.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/config"
	"github.com/hailam/chessplay-minimax/internal/engine"
	"github.com/hailam/chessplay-minimax/internal/eval"
	"github.com/hailam/chessplay-minimax/internal/render"
	"github.com/hailam/chessplay-minimax/internal/storage"
)

type App struct {
	Config   *config.Config
	Log      *zap.SugaredLogger
	Engine   *engine.Engine[*chess.Move]
	Store    *storage.Storage // nil unless storage.enabled
	Renderer *render.Renderer // nil unless render.enabled

	// identifies the scoring setup behind persisted table entries
	fingerprint string
}

// Setup loads cfgPath (may be empty) and builds the application.
func Setup(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}
	app, err := New(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return app, nil
}

// New builds the application from an already validated config. When
// cache persistence is on, the engine starts from the stored snapshot.
func New(cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	ev, err := eval.New(cfg.Eval.Kind, cfg.Eval.Weights, cfg.Search.MaxMoves)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New[*chess.Move](ev, cfg.EngineOptions(log)...)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:      cfg,
		Log:         log,
		Engine:      eng,
		fingerprint: Fingerprint(cfg, ev),
	}

	if cfg.Render.Enabled {
		if app.Renderer, err = render.NewRenderer(cfg.Render.Size); err != nil {
			eng.Close()
			return nil, err
		}
	}

	if !cfg.Storage.Enabled {
		return app, nil
	}
	if app.Store, err = storage.Open(cfg.Storage.Dir, log); err != nil {
		eng.Close()
		return nil, err
	}
	if cfg.Cache.Persist {
		snap, err := storage.LoadSnapshot[*chess.Move](app.Store, board.MoveCodec{}, app.fingerprint)
		switch {
		case errors.Is(err, storage.ErrStaleSnapshot):
			log.Warnw("restoring move lists only", zap.Error(err))
			eng.Restore(snap)
		case err != nil:
			log.Warnw("snapshot not restored", zap.Error(err))
		default:
			eng.Restore(snap)
		}
	}
	return app, nil
}

// Fingerprint identifies everything that shapes a table score: the
// evaluator, the history length it sees and the leaf perspective.
func Fingerprint(cfg *config.Config, ev eval.Evaluator) string {
	return fmt.Sprintf("%s|frames=%d|perspective=%s",
		eval.Fingerprint(ev), cfg.Search.MaxMoves, cfg.Search.Perspective)
}

// SaveImage renders f as a PNG named name under render.dir, or the
// platform snapshot directory when that is empty.
func (a *App) SaveImage(name string, f *board.Planes) (string, error) {
	if a.Renderer == nil {
		return "", errors.New("bootstrap: rendering disabled")
	}
	dir := a.Config.Render.Dir
	if dir == "" {
		var err error
		if dir, err = storage.GetSnapshotDir(); err != nil {
			return "", err
		}
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := a.Renderer.SavePNG(path, f); err != nil {
		return "", err
	}
	return path, nil
}

// Close persists the caches when configured and releases resources.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		if a.Config.Cache.Persist {
			snap, err := a.Engine.Snapshot()
			if err == nil {
				err = storage.SaveSnapshot(a.Store, snap, board.MoveCodec{}, a.fingerprint)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("bootstrap: persist caches: %w", err))
			} else {
				a.Log.Infow("caches persisted", "table", len(snap.Table), "moves", len(snap.Moves))
			}
		}
		errs = append(errs, a.Store.Close())
	}
	a.Engine.Close()
	_ = a.Log.Sync()
	return errors.Join(errs...)
}
