package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/kiliankoe/storychain/internal/api"
	"github.com/kiliankoe/storychain/internal/config"
	"github.com/kiliankoe/storychain/internal/game"
	"github.com/kiliankoe/storychain/internal/metrics"
	"github.com/kiliankoe/storychain/internal/service"
	"github.com/kiliankoe/storychain/internal/store"
	"github.com/kiliankoe/storychain/internal/ws"
	staticserver "github.com/kiliankoe/storychain/static"
)

var version = "dev" // Set at build time via -ldflags

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`storychain - collaborative storytelling, one sentence per turn

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables (also read from ./.env):
  PORT                     Port to listen on (default: 8080)
  STORE                    memory, redis, sqlite, postgres or mysql (default: memory)
  REDIS_URL                redis://host:6379/0 for the redis store
  REDIS_TTL                Expire idle games after this duration (default: never)
  DATABASE_PATH            SQLite file (default: ./storychain.db)
  DATABASE_URL             Postgres URL or MySQL DSN
  STORE_RETRY_MAX          Attempts per contended update (default: 8)
  STORE_RETRY_MAX_ELAPSED  Time budget per contended update (default: 2s)
  IDENTITY_MODE            id (playerId keyed) or name (case-insensitive names) (default: id)
  GAME_ID_STYLE            uuid or code (short join codes) (default: uuid)
  DEV_MODE                 Include error details in 500 responses (default: false)
  LOG_FORMAT               console or json (default: console)
  LOG_LEVEL                zerolog level (default: info)
  EXPORT_ENABLED           Append completed stories to a file (default: false)
  EXPORT_FILE              Export path (default: ./storychain-stories.txt)
  METRICS_ENABLED          Serve /metrics (default: true)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("storychain %s\n", version)
		return
	}

	cfg := config.Load()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	setupLogging(cfg)

	if err := run(cfg); err != nil {
		zerologlog.Fatal().Err(err).Msg("server stopped")
	}
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "json" {
		zerologlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec *metrics.Recorder
	if cfg.MetricsEnabled {
		rec = metrics.NewRecorder()
	}

	st, err := openStore(ctx, cfg, rec)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			zerologlog.Error().Err(err).Msg("closing store")
		}
	}()

	resolver, err := game.NewResolver(cfg.IdentityMode)
	if err != nil {
		return err
	}
	opts := service.Options{
		Metrics:   rec,
		NewGameID: game.IDGenerator(cfg.GameIDStyle),
	}
	if cfg.ExportEnabled {
		opts.ExportFile = cfg.ExportFile
	}
	svc := service.New(st, game.NewMachine(resolver), opts)

	r := api.NewRouter(api.NewHandler(svc, cfg.DevMode), api.RouterOptions{DevMode: cfg.DevMode, Metrics: rec})
	io := ws.New(svc).Mount(r)
	defer io.Close()

	// Serve the embedded page for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zerologlog.Info().
			Str("port", cfg.Port).
			Str("store", cfg.Store).
			Str("identity", resolver.Mode()).
			Str("version", version).
			Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zerologlog.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, rec *metrics.Recorder) (store.Store, error) {
	retry := store.RetryPolicy{
		MaxAttempts: cfg.RetryMax,
		MaxElapsed:  cfg.RetryMaxElapsed,
		OnRetry:     rec.RecordStoreRetry,
	}
	switch cfg.Store {
	case "memory", "":
		return store.NewMemory(), nil
	case "redis":
		return store.OpenRedis(ctx, cfg.RedisURL, store.RedisOptions{TTL: cfg.RedisTTL, Retry: retry})
	default:
		dialect, err := store.NewDialect(cfg.Store)
		if err != nil {
			return nil, err
		}
		return store.OpenSQL(ctx, dialect, store.DialectConfig{Path: cfg.DatabasePath, URL: cfg.DatabaseURL}, retry)
	}
}
