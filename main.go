// montechess pits a UCI engine against the random-rollout searcher,
// records the results, and serves the running match to renderers.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"montechess/internal/engine"
	"montechess/internal/game"
	"montechess/internal/server"
	"montechess/internal/storage"
	"montechess/internal/uci"
)

// config collects every tunable of the match binary; parsed once in
// main and passed down, never global.
type config struct {
	enginePath   string
	movetime     time.Duration
	rolloutTime  time.Duration
	rolloutPlies int
	games        int
	skill        int
	seed         int64
	dataDir      string
	listen       string
	debug        bool
}

func parseConfig() config {
	var cfg config
	flag.StringVar(&cfg.enginePath, "engine", getenv("MONTECHESS_ENGINE", "stockfish"), "path to the UCI engine binary")
	flag.DurationVar(&cfg.movetime, "movetime", getend("MONTECHESS_MOVETIME", time.Second), "engine thinking time per move")
	flag.DurationVar(&cfg.rolloutTime, "rollout-time", getend("MONTECHESS_ROLLOUT_TIME", engine.DefaultMoveTime), "rollout search budget per move")
	flag.IntVar(&cfg.rolloutPlies, "rollout-plies", geteni("MONTECHESS_ROLLOUT_PLIES", engine.DefaultPlies), "half-moves per rollout")
	flag.IntVar(&cfg.games, "games", geteni("MONTECHESS_GAMES", 0), "games to play, 0 for endless")
	flag.IntVar(&cfg.skill, "skill", geteni("MONTECHESS_SKILL", -1), "engine Skill Level option, -1 leaves the engine default")
	flag.Int64Var(&cfg.seed, "seed", 0, "rollout RNG seed, 0 for time-based")
	flag.StringVar(&cfg.dataDir, "data-dir", getenv("MONTECHESS_DATA_DIR", ""), `match database directory, "off" to disable, empty for the default`)
	flag.StringVar(&cfg.listen, "listen", getenv("MONTECHESS_LISTEN", ""), "HTTP listen address for the state feed, empty to disable")
	flag.BoolVar(&cfg.debug, "debug", getenb("MONTECHESS_DEBUG", false), "verbose development logging")
	flag.Parse()
	if cfg.seed == 0 {
		cfg.seed = time.Now().UnixNano()
	}
	return cfg
}

func main() {
	cfg := parseConfig()

	logger := newLogger(cfg.debug)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := game.NewSession()

	var rec game.Recorder
	var matches server.MatchSource
	if cfg.dataDir != "off" {
		store, err := storage.Open(cfg.dataDir)
		if err != nil {
			logger.Fatal("opening match store failed", zap.Error(err))
		}
		defer store.Close()
		rec = store
		matches = store
	}

	client, err := uci.New(cfg.enginePath, logger.Named("uci"))
	if err != nil {
		logger.Fatal("starting engine failed", zap.String("engine", cfg.enginePath), zap.Error(err))
	}
	defer client.Quit()
	if err := client.Start(ctx); err != nil {
		logger.Fatal("engine handshake failed", zap.Error(err))
	}
	if cfg.skill >= 0 {
		if err := client.SetOption("Skill Level", strconv.Itoa(cfg.skill)); err != nil {
			logger.Fatal("setting engine option failed", zap.Error(err))
		}
	}
	if err := client.NewGame(ctx); err != nil {
		logger.Fatal("resetting engine failed", zap.Error(err))
	}

	white := game.NewEnginePlayer("stockfish", client, cfg.movetime)
	black := game.NewSearchPlayer("montecarlo", engine.NewSearcher(cfg.seed), engine.Limits{
		MoveTime: cfg.rolloutTime,
		Plies:    cfg.rolloutPlies,
	})

	runner := game.NewRunner(session, white, black, rec, logger.Named("runner"))

	if cfg.listen != "" {
		srv, err := server.New(cfg.listen, session, matches, logger.Named("server"))
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

	if err := runner.Run(ctx, cfg.games); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("match runner failed", zap.Error(err))
	}
	logger.Info("shutting down")
}

func newLogger(debug bool) *zap.Logger {
	build := zap.NewProduction
	if debug {
		build = zap.NewDevelopment
	}
	logger, err := build()
	if err != nil {
		panic(err)
	}
	return logger
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func geteni(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getend(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
