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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/storelens/croaudit/internal/audit"
	"github.com/storelens/croaudit/internal/browser"
	"github.com/storelens/croaudit/internal/llm"
	"github.com/storelens/croaudit/internal/server"
)

type cliOptions struct {
	addr          string
	screenshotDir string
}

func parseFlags() cliOptions {
	var opts cliOptions
	flag.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	flag.StringVar(&opts.screenshotDir, "screenshots", "screenshots", "directory screenshots are written to and served from")
	flag.Parse()
	return opts
}

func main() {
	_ = godotenv.Load()
	opts := parseFlags()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Without a configured model key the service still runs; suggestions
	// fall back to the heuristic templates.
	llmClient, err := llm.NewClientWithLogger(log.With().Str("comp", "llm").Logger())
	if err != nil {
		log.Warn().Err(err).Msg("no LLM client configured, using heuristic suggestions")
		llmClient = nil
	} else {
		log.Info().Str("model", llmClient.Name()).Msg("LLM client ready")
	}

	launcher, err := browser.NewLauncher()
	if err != nil {
		log.Fatal().Err(err).Msg("browser init")
	}
	defer launcher.Close()

	store, err := audit.NewScreenshotStore(opts.screenshotDir)
	if err != nil {
		log.Fatal().Err(err).Msg("screenshot store init")
	}

	runner := audit.NewRunner(launcher, store, llmClient, log.With().Str("comp", "audit").Logger())
	srv := server.NewServer(runner, store.Dir(), log.With().Str("comp", "http").Logger())

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", opts.addr).Msg("listening")
		errCh <- srv.Start(opts.addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}
