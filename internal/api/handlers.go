package api

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/passbi/ridesim/internal/cache"
	"github.com/passbi/ridesim/internal/config"
	"github.com/passbi/ridesim/internal/core/domain"
	"github.com/passbi/ridesim/internal/core/sim"
	"github.com/passbi/ridesim/internal/models"
)

// Handlers binds the HTTP surface to a world manager.
type Handlers struct {
	Manager *Manager
}

// Health handles the /health endpoint
func (h *Handlers) Health(c *fiber.Ctx) error {
	status := fiber.Map{
		"status": "healthy",
		"time":   time.Now().UTC(),
	}
	if h.Manager.UsesRedis() {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := cache.HealthCheck(ctx); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
		} else {
			status["redis"] = "ok"
		}
	}
	return c.JSON(status)
}

// CreateWorldRequest is the POST /v1/world payload: a graph description
// plus optional knob overrides on top of the server's environment config.
type CreateWorldRequest struct {
	Graph models.GraphInput `json:"graph"`

	RandomSeed      *int64 `json:"random_seed,omitempty"`
	SimulationSpeed *int   `json:"simulation_speed,omitempty"`
	FrameRate       *int   `json:"frame_rate,omitempty"`
	StartGenerators bool   `json:"start_generators"`
	// StartDayTime is the simulated clock's initial day-time, "HH:MM".
	StartDayTime string `json:"start_day_time,omitempty"`
}

// CreateWorld handles POST /v1/world
func (h *Handlers) CreateWorld(c *fiber.Ctx) error {
	var req CreateWorldRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("invalid payload: %v", err)})
	}
	if len(req.Graph.Nodes) == 0 || len(req.Graph.Edges) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "graph must carry nodes and edges"})
	}

	cfg := config.LoadFromEnv()
	if req.RandomSeed != nil {
		cfg.RandomSeed = *req.RandomSeed
		cfg.HasRandomSeed = true
	}
	if req.SimulationSpeed != nil {
		cfg.SimulationSpeed = *req.SimulationSpeed
	}
	if req.FrameRate != nil {
		cfg.FrameRate = *req.FrameRate
	}

	start := time.Date(2000, 1, 1, 8, 0, 0, 0, time.UTC)
	if req.StartDayTime != "" {
		parsed, err := time.Parse("15:04", req.StartDayTime)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("invalid start_day_time: %v", err)})
		}
		start = time.Date(2000, 1, 1, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
	}

	rw, err := h.Manager.CreateWorld(cfg, req.Graph, req.StartGenerators, start)
	if err != nil {
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"world_id": rw.ID})
}

// InjectEventRequest is the POST /v1/world/:id/events payload, the external
// event surface of the main loop's ingest phase.
type InjectEventRequest struct {
	Type string `json:"type"` // new_rider | new_driver | traffic_update | quit

	Start          *int64 `json:"start,omitempty"`
	End            *int64 `json:"end,omitempty"`
	PassengerCount int    `json:"passenger_count,omitempty"`
	Seats          int    `json:"seats,omitempty"`
}

// InjectEvent handles POST /v1/world/:id/events
func (h *Handlers) InjectEvent(c *fiber.Ctx) error {
	rw, ok := h.Manager.Get(c.Params("id"))
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "world not found"})
	}

	var req InjectEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("invalid payload: %v", err)})
	}

	switch req.Type {
	case "new_rider":
		if req.Start == nil || req.End == nil {
			return c.Status(400).JSON(fiber.Map{"error": "new_rider requires start and end"})
		}
		count := req.PassengerCount
		if count < 1 {
			count = 1
		}
		rw.World.Post(sim.NewRiderRequest{
			Start:          domain.NodeID(*req.Start),
			End:            domain.NodeID(*req.End),
			PassengerCount: count,
		})
	case "new_driver":
		if req.Start == nil || req.End == nil {
			return c.Status(400).JSON(fiber.Map{"error": "new_driver requires start and end"})
		}
		seats := req.Seats
		if seats < 1 {
			seats = 4
		}
		rw.World.Post(sim.NewDriverRequest{
			Start: domain.NodeID(*req.Start),
			End:   domain.NodeID(*req.End),
			Seats: seats,
		})
	case "traffic_update":
		if h.Manager.UsesRedis() {
			// Concurrent callers hammering traffic updates against the same
			// world collapse into one resample per mutex window.
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			acquired, err := cache.AcquireLock(ctx, cache.TrafficLockKey(rw.ID), cache.LoadConfigFromEnv().MutexTTL)
			if err == nil && !acquired {
				return c.Status(409).JSON(fiber.Map{"error": "traffic update already in progress"})
			}
		}
		rw.World.Post(sim.TrafficUpdateRequest{})
	case "quit":
		rw.World.Post(sim.QuitRequest{})
	default:
		return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("unknown event type %q", req.Type)})
	}

	return c.Status(202).JSON(fiber.Map{"status": "queued"})
}

// StreamEvents handles GET /v1/world/:id/stream as a Server-Sent-Event
// stream of the world's event bus.
func (h *Handlers) StreamEvents(c *fiber.Ctx) error {
	rw, ok := h.Manager.Get(c.Params("id"))
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "world not found"})
	}

	ch, cancel := rw.Subscribe()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for payload := range ch {
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

// WorldStats handles GET /v1/world/:id/stats
func (h *Handlers) WorldStats(c *fiber.Ctx) error {
	rw, ok := h.Manager.Get(c.Params("id"))
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "world not found"})
	}
	return c.JSON(rw.World.Stats())
}

// Dist handles GET /v1/world/:id/dist?u=&v=, a cached distance-table probe
// for visualization clients. Entries are keyed by the world's traffic
// generation so a table rebuild invalidates them implicitly.
func (h *Handlers) Dist(c *fiber.Ctx) error {
	rw, ok := h.Manager.Get(c.Params("id"))
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "world not found"})
	}

	u, errU := strconv.ParseInt(c.Query("u"), 10, 64)
	v, errV := strconv.ParseInt(c.Query("v"), 10, 64)
	if errU != nil || errV != nil {
		return c.Status(400).JSON(fiber.Map{"error": "u and v must be node ids"})
	}

	generation := rw.generation.Load()
	key := cache.DistKey(rw.ID, generation, u, v)
	if h.Manager.UsesRedis() {
		if dist, hit, err := cache.GetDist(c.Context(), key); err == nil && hit {
			return c.JSON(fiber.Map{"dist": dist, "cached": true})
		}
	}

	dist := rw.World.Graph.Dist(domain.NodeID(u), domain.NodeID(v))
	if h.Manager.UsesRedis() {
		// Cache writes are best effort; the lookup already succeeded.
		_ = cache.SetDist(c.Context(), key, dist, cache.LoadConfigFromEnv().TTL)
	}
	return c.JSON(fiber.Map{"dist": dist, "cached": false})
}
