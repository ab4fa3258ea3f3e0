package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/hailam/chessplay-minimax/internal/bootstrap"
	"github.com/hailam/chessplay-minimax/internal/uci"
)

var (
	configPath = flag.String("config", "", "path to a config file (yaml, toml or json)")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	app, err := bootstrap.Setup(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Log.Errorw("shutdown", "error", err)
		}
	}()

	app.Log.Infow("uci engine ready",
		"depth", app.Config.Search.Depth,
		"eval", app.Config.Eval.Kind,
		"workers", app.Config.Search.Workers,
	)
	uci.New(app.Engine, app.Config.Search.Depth, os.Stdin, os.Stdout, app.Log).Run()
}
