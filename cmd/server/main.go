package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/figstack/go-figma-gateway/figma"
	"github.com/figstack/go-figma-gateway/internal/config"
	"github.com/figstack/go-figma-gateway/server"
	"github.com/figstack/go-figma-gateway/server/authstate"
	"github.com/figstack/go-figma-gateway/sessions"
	"github.com/figstack/go-figma-gateway/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	configureLogging(cfg)
	displayAppname(cfg.AppName)

	ctx := context.Background()
	store, err := sqlite.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("sqlite.Open: %w", err)
	}
	defer store.Close()

	provider := figma.NewClient(figma.Options{
		ClientID:     cfg.FigmaClientID,
		ClientSecret: cfg.FigmaClientSecret,
		AuthURL:      cfg.FigmaAuthURL,
		TokenURL:     cfg.FigmaTokenURL,
		RefreshURL:   cfg.FigmaRefreshURL,
		APIBaseURL:   cfg.FigmaAPIBaseURL,
		Scopes:       cfg.FigmaScopes,
		Timeout:      cfg.ProviderTimeout,
		Logger:       log.With().Str("component", "figma").Logger(),
	})

	srv, err := server.New(
		cfg,
		provider,
		server.Repos{
			Users:      store.Users(),
			Identities: store.Identities(),
			Tokens:     store.Tokens(),
			Files:      store.Files(),
		},
		sessions.NewManager(cfg.SessionSecret, cfg.AppName, cfg.SessionTTL),
		authstate.NewInMemoryRepo(cfg.AuthStateTTL),
	)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: cfg.Addr(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func configureLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
