package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/thichuong/GameCoTuong/internal/engine"
	"github.com/thichuong/GameCoTuong/internal/server/game"
	httpserver "github.com/thichuong/GameCoTuong/internal/server/http"
	"github.com/thichuong/GameCoTuong/internal/server/ws"
	"github.com/thichuong/GameCoTuong/internal/storage"
)

func main() {
	addr := flag.String("addr", ":2888", "listen address")
	webDir := flag.String("web", "./web", "directory with index.html / js / svg")
	archiveDir := flag.String("archive", "", "badger directory for finished matches, empty disables the archive")
	configPath := flag.String("engine-config", "", "JSON tuning file for the engine")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	if !*debug {
		log = log.Level(zerolog.InfoLevel)
	}

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = engine.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("engine config")
		}
		log.Info().Str("path", *configPath).Msg("engine tuning loaded")
	}

	var store *storage.Store
	if *archiveDir != "" {
		var err error
		store, err = storage.Open(*archiveDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", *archiveDir).Msg("open match archive")
		}
		defer store.Close()
		log.Info().Str("dir", *archiveDir).Msg("match archive open")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := game.NewManager(store, log)
	go manager.RunReaper(ctx)

	api := httpserver.NewHandler(cfg, store, log)
	mux := httpserver.NewMux(api, ws.NewHandler(manager, log), *webDir)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", *addr).Str("web", *webDir).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server")
	}
	log.Info().Msg("server stopped")
}
