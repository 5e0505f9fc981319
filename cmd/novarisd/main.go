// Command novarisd runs the Novaris session engine: the tick loop, the AI
// command producer, and the HTTP/websocket surface.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	novaris "github.com/novaris-game/novaris"
	"github.com/novaris-game/novaris/ai"
	"github.com/novaris-game/novaris/server"
)

const aiInterval = 3 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	eng, err := novaris.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create engine")
	}
	if err := eng.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start engine")
	}

	producer := ai.NewProducer(eng.Registry(), eng.Queue(), aiInterval)
	producer.Start()

	srv, err := server.New(eng.Registry(), eng.Queue(), eng.Hub(), server.WithPort(eng.Config().Port))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Serve(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server stopped")
	}

	producer.Stop()
	cancel()
	if err := eng.Shutdown(); err != nil {
		log.Error().Err(err).Msg("engine shutdown failed")
	}
}
