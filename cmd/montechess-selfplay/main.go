// montechess-selfplay plays the rollout searcher against itself. It
// needs no engine binary, which makes it handy for exercising the rules
// core and the state feed on their own.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"montechess/internal/engine"
	"montechess/internal/game"
	"montechess/internal/server"
	"montechess/internal/storage"
)

func main() {
	gamesFlag := flag.Int("games", 1, "games to play, 0 for endless")
	rolloutTime := flag.Duration("rollout-time", time.Second, "rollout search budget per move")
	rolloutPlies := flag.Int("rollout-plies", engine.DefaultPlies, "half-moves per rollout")
	seed := flag.Int64("seed", 0, "rollout RNG seed, 0 for time-based")
	dataDir := flag.String("data-dir", "off", `match database directory, "off" to disable, empty for the default`)
	listen := flag.String("listen", "", "HTTP listen address for the state feed, empty to disable")
	debug := flag.Bool("debug", false, "verbose development logging")
	flag.Parse()

	build := zap.NewProduction
	if *debug {
		build = zap.NewDevelopment
	}
	logger, err := build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	session := game.NewSession()
	limits := engine.Limits{MoveTime: *rolloutTime, Plies: *rolloutPlies}

	var rec game.Recorder
	var matches server.MatchSource
	if *dataDir != "off" {
		store, err := storage.Open(*dataDir)
		if err != nil {
			logger.Fatal("opening match store failed", zap.Error(err))
		}
		defer store.Close()
		rec = store
		matches = store
	}

	// Distinct seeds keep the two sides from mirroring each other.
	white := game.NewSearchPlayer("montecarlo-white", engine.NewSearcher(*seed), limits)
	black := game.NewSearchPlayer("montecarlo-black", engine.NewSearcher(*seed+1), limits)

	runner := game.NewRunner(session, white, black, rec, logger.Named("runner"))

	if *listen != "" {
		srv, err := server.New(*listen, session, matches, logger.Named("server"))
		if err != nil {
			logger.Fatal("server init failed", zap.Error(err))
		}
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("server failed", zap.Error(err))
				stop()
			}
		}()
	}

	logger.Info("selfplay starting",
		zap.Int("games", *gamesFlag),
		zap.Duration("rollout_time", *rolloutTime),
		zap.Int64("seed", *seed),
	)
	if err := runner.Run(ctx, *gamesFlag); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("match runner failed", zap.Error(err))
	}
	logger.Info("selfplay finished")
}
