package server

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

// CommandRequest is the body of POST /sessions/:id/commands.
type CommandRequest struct {
	Kind     string          `json:"kind"`
	PlayerID string          `json:"player_id"`
	Payload  json.RawMessage `json:"payload"`
}

// WorldResponse is the full-state bootstrap returned by
// GET /sessions/:id/world. Clients fetch it once, then follow the session's
// delta stream.
type WorldResponse struct {
	World   any    `json:"world"`
	Version uint64 `json:"version"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleGetWorld returns the session's current world, creating and hydrating
// the session on first access.
func (s *Server) handleGetWorld(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	agg := s.registry.GetOrCreate(c.Context(), sessionID, nil)
	// The live world is mutated by the tick loop; serialize an independent
	// copy.
	return c.JSON(WorldResponse{
		World:   agg.World().DeepCopy(),
		Version: agg.Version(),
	})
}

// handlePostCommand validates and enqueues one command. Validation happens
// here, at the producer: the engine core silently no-ops on dangling
// references, so referential integrity is checked against the current world
// before the command is accepted.
func (s *Server) handlePostCommand(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	req := CommandRequest{}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed command body")
	}
	if req.PlayerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "player_id is required")
	}

	agg := s.registry.GetOrCreate(c.Context(), sessionID, nil)

	ev, err := buildCommand(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validateCommand(agg.World().DeepCopy(), ev); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	s.queue.Enqueue(sessionID, ev)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}
