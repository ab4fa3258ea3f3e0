package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/bootstrap"
	"github.com/hailam/chessplay-minimax/internal/engine"
	"github.com/hailam/chessplay-minimax/internal/selfplay"
)

var (
	configPath = flag.String("config", "", "path to a config file (yaml, toml or json)")
	startFEN   = flag.String("fen", board.StartFEN, "starting position")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	app, err := bootstrap.Setup(*configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Log.Errorw("shutdown", zap.Error(err))
		}
	}()

	b, err := board.ParseFEN(*startFEN)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app.Engine.SetProgress(func(p engine.Progress) {
		app.Log.Debugw("root move scored",
			"move", p.Move,
			"score", p.Score,
			"done", fmt.Sprintf("%d/%d", p.Done, p.Total),
		)
	})

	cfg := app.Config
	rec, playErr := selfplay.Play(ctx, app.Engine, b, selfplay.Options{
		Depth:     cfg.Search.Depth,
		MaxPlies:  cfg.Search.MaxPlies,
		Evaluator: cfg.Eval.Kind,
		Out:       os.Stdout,
		OnMove: func(ply int, _ *board.Board) {
			st := app.Engine.Stats()
			app.Log.Infow("move played",
				"ply", ply,
				"nodes", humanize.Comma(int64(st.Nodes)),
				"table", humanize.Comma(int64(st.TableEntries)),
			)
		},
	})

	if app.Renderer != nil {
		name := fmt.Sprintf("game-%s.png", time.Now().Format("20060102-150405"))
		if path, err := app.SaveImage(name, b.Encode()); err != nil {
			app.Log.Warnw("board image not saved", zap.Error(err))
		} else {
			app.Log.Infow("board image saved", "path", path)
		}
	}
	if app.Store != nil {
		if err := app.Store.RecordGame(rec); err != nil {
			app.Log.Warnw("game not recorded", zap.Error(err))
		} else if stats, err := app.Store.LoadStats(); err == nil {
			app.Log.Infow("lifetime stats",
				"games", stats.GamesPlayed,
				"white_score", fmt.Sprintf("%.1f%%", stats.WhiteScore()),
			)
		}
	}

	app.Log.Infow("game over",
		"result", rec.Result,
		"method", rec.Method,
		"plies", len(rec.Moves),
		"took", rec.Duration().Round(time.Millisecond),
	)
	return playErr
}
