package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/config"
	"github.com/hailam/chessplay-minimax/internal/eval"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNewDefaults(t *testing.T) {
	app, err := New(testConfig(t), zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if app.Store != nil || app.Renderer != nil {
		t.Error("Storage and rendering should be off by default")
	}
	if _, err := app.SaveImage("x.png", board.NewBoard().Encode()); err == nil {
		t.Error("SaveImage should fail when rendering is disabled")
	}
}

func TestCachesPersistAcrossRuns(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Enabled = true
	cfg.Storage.Dir = t.TempDir()
	cfg.Cache.Persist = true
	log := zaptest.NewLogger(t).Sugar()

	app, err := New(cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	b := board.NewBoard()
	if _, ok, err := app.Engine.BestMove(context.Background(), b, 2, app.Engine.NewHistory().Append(b.Encode())); err != nil || !ok {
		t.Fatalf("BestMove: ok=%v err=%v", ok, err)
	}
	want := app.Engine.Stats()
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	app, err = New(cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	got := app.Engine.Stats()
	if got.TableEntries != want.TableEntries || got.MoveCacheEntries != want.MoveCacheEntries {
		t.Errorf("Restored %d/%d entries, want %d/%d",
			got.TableEntries, got.MoveCacheEntries, want.TableEntries, want.MoveCacheEntries)
	}
}

func TestSaveImage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.Enabled = true
	cfg.Render.Dir = filepath.Join(t.TempDir(), "boards")
	cfg.Render.Size = 128

	app, err := New(cfg, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	path, err := app.SaveImage("start.png", board.NewBoard().Encode())
	if err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Expected a PNG at %s: %v", path, err)
	}
}

func TestNewBadEvaluator(t *testing.T) {
	cfg := testConfig(t)
	cfg.Eval.Kind = "oracle"
	if _, err := New(cfg, zaptest.NewLogger(t).Sugar()); err == nil {
		t.Error("Expected an error for an unknown evaluator")
	}
}

func TestEvaluatorChangeSkipsTable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Enabled = true
	cfg.Storage.Dir = t.TempDir()
	cfg.Cache.Persist = true
	log := zaptest.NewLogger(t).Sugar()

	app, err := New(cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	b := board.NewBoard()
	if _, _, err := app.Engine.BestMove(context.Background(), b, 2, app.Engine.NewHistory()); err != nil {
		t.Fatal(err)
	}
	moves := app.Engine.Stats().MoveCacheEntries
	if err := app.Close(); err != nil {
		t.Fatal(err)
	}

	cfg.Eval.Kind = eval.KindNetwork
	app, err = New(cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	st := app.Engine.Stats()
	if st.TableEntries != 0 {
		t.Errorf("Table from the material evaluator was restored: %d entries", st.TableEntries)
	}
	if st.MoveCacheEntries != moves {
		t.Errorf("Expected %d move lists restored, got %d", moves, st.MoveCacheEntries)
	}

	if _, _, err := app.Engine.BestMove(context.Background(), b, 2, app.Engine.NewHistory()); err != nil {
		t.Fatal(err)
	}
	if app.Engine.Stats().Evaluations == 0 {
		t.Error("Network engine should evaluate leaves itself")
	}
}

func TestFingerprintTracksSettings(t *testing.T) {
	cfg := testConfig(t)
	ev := eval.NewMaterial()
	base := Fingerprint(cfg, ev)

	cfg.Search.Perspective = "side_to_move"
	if Fingerprint(cfg, ev) == base {
		t.Error("Perspective should change the fingerprint")
	}
	cfg = testConfig(t)
	cfg.Search.MaxMoves = 8
	if Fingerprint(cfg, ev) == base {
		t.Error("History length should change the fingerprint")
	}
}
