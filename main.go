// main.go
//
// Entry point for the wordmaster server.
// Startup order: config → logging → tracing → word lists → persistence →
// dictionary/validator → HTTP. SIGINT/SIGTERM drain in-flight requests and
// background engine work before exit.

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordmaster/internal/config"
	"github.com/robalobadob/wordmaster/internal/dictionary"
	"github.com/robalobadob/wordmaster/internal/httpserver"
	"github.com/robalobadob/wordmaster/internal/store"
	"github.com/robalobadob/wordmaster/internal/telemetry"
	"github.com/robalobadob/wordmaster/internal/validator"
	"github.com/robalobadob/wordmaster/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "wordmaster", cfg.OTelEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	list, err := words.Load(cfg.AnswersFile, cfg.AllowedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}
	answers, allowed := list.Stats()
	log.Info().Int("answers", answers).Int("allowed", allowed).Msg("word lists loaded")

	st, db := openStore(cfg, list)
	if db != nil {
		defer db.Close()
	}

	deps := httpserver.Deps{Config: cfg, Store: st, List: list}
	vopts := validator.Options{List: list, Store: st, Timeout: cfg.DictionaryTimeout}
	if cfg.DictionaryEnabled {
		dict := dictionary.New(cfg.DictionaryURL, cfg.DictionaryTimeout)
		vopts.Checker = dict
		deps.Definer = dict
	}
	deps.Validator = validator.New(vopts)

	srv := httpserver.New(deps)
	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("db", cfg.DBDriver).Msg("starting wordmaster")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	srv.Wait()
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openStore picks the persistence adapter. With a database the SQL store is
// wrapped so an unreachable database degrades to process memory; without one
// the memory store is used directly.
func openStore(cfg config.Config, list *words.List) (store.Store, *sql.DB) {
	local := store.NewMemoryStore(list, cfg.DailySalt)
	if cfg.DBDriver == "none" {
		log.Warn().Msg("no database configured, progress is kept in memory only")
		return local, nil
	}

	db, err := openDB(cfg.DBDriver, cfg.DatabasePath)
	if err != nil {
		log.Error().Err(err).Msg("open database, falling back to memory")
		return local, nil
	}
	if err := store.Migrate(db); err != nil {
		log.Error().Err(err).Msg("migrate database, falling back to memory")
		_ = db.Close()
		return local, nil
	}

	var opts []store.SQLOption
	if cfg.DBDriver == "sqlite3" {
		opts = append(opts, store.WithBusyCheck(isMattnBusy))
	}
	remote := store.NewSQLStore(db, list, cfg.DailySalt, opts...)
	return store.NewFallback(remote, local), db
}
