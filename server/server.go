// Package server is the HTTP surface of the engine: command intake for human
// producers, full-state bootstrap reads, and the websocket subscription
// endpoint for delta broadcasts.
package server

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/novaris-game/novaris/aggregate"
	"github.com/novaris-game/novaris/cmdqueue"
	"github.com/novaris-game/novaris/events"
)

const (
	defaultPort     = "4040"
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	app      *fiber.App
	registry *aggregate.Registry
	queue    *cmdqueue.Queue
	hub      *events.Hub
	port     string
}

// Option configures the server.
type Option func(*Server)

// WithPort overrides the listen port.
func WithPort(port string) Option {
	return func(s *Server) {
		s.port = port
	}
}

// New returns an HTTP server wired to the engine's registry, command queue,
// and broadcast hub.
func New(registry *aggregate.Registry, queue *cmdqueue.Queue, hub *events.Hub, opts ...Option) (*Server, error) {
	if registry == nil || queue == nil || hub == nil {
		return nil, eris.New("server requires a registry, a command queue, and a hub")
	}

	app := fiber.New(fiber.Config{
		Network:               "tcp", // listen on both ipv4 & ipv6
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(cors.New())

	s := &Server{
		app:      app,
		registry: registry,
		queue:    queue,
		hub:      hub,
		port:     defaultPort,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()

	return s, nil
}

// Serve serves the application, blocking until the server fails or the
// context is cancelled. Call it in a goroutine to run alongside the engine.
func (s *Server) Serve(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		log.Info().Msgf("Starting HTTP server at port %s", s.port)
		if err := s.app.Listen(":" + s.port); err != nil {
			serverErr <- eris.Wrap(err, "error starting http server")
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		if err := s.shutdown(); err != nil {
			return eris.Wrap(err, "error shutting down server")
		}
	}
	return nil
}

func (s *Server) shutdown() error {
	log.Info().Msg("Shutting down server")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return eris.Wrap(err, "error shutting down server")
	}
	log.Info().Msg("Successfully shut down server")
	return nil
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/sessions/:id/world", s.handleGetWorld)
	s.app.Post("/sessions/:id/commands", s.handlePostCommand)

	// Websocket subscription to the session's delta broadcast group.
	s.app.Use("/sessions/:id/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/sessions/:id/events", websocket.New(func(conn *websocket.Conn) {
		s.hub.HandleConnection(conn.Params("id"), conn)
	}))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if eris.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
