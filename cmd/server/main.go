package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/passbi/ridesim/internal/api"
	"github.com/passbi/ridesim/internal/cache"
	"github.com/passbi/ridesim/internal/middleware"
)

func main() {
	log.Println("Starting ridesim control server...")

	// Redis enables the event mirror, distance cache, traffic-update lock,
	// and rate limiting. The server degrades to SSE-only without it.
	useRedis := os.Getenv("REDIS_DISABLED") != "true"
	if useRedis {
		if _, err := cache.GetClient(); err != nil {
			log.Printf("Redis unavailable, continuing without it: %v", err)
			useRedis = false
		} else {
			defer cache.Close()
			log.Println("✓ Redis connection established")
		}
	}

	manager := api.NewManager(useRedis)
	handlers := &api.Handlers{Manager: manager}

	app := fiber.New(fiber.Config{
		AppName:      "Ridesim Control",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/health", handlers.Health)

	world := app.Group("/v1/world")
	if useRedis {
		rdb, _ := cache.GetClient()
		world.Use(middleware.RateLimitMiddleware(rdb, middleware.DefaultRateLimits()))
	}
	world.Post("/", handlers.CreateWorld)
	world.Post("/:id/events", handlers.InjectEvent)
	world.Get("/:id/stream", handlers.StreamEvents)
	world.Get("/:id/stats", handlers.WorldStats)
	world.Get("/:id/dist", handlers.Dist)

	// Graceful shutdown on SIGTERM/SIGINT: stop accepting requests, then
	// quit every running world and wait for their loops to drain.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}

	manager.StopAll()
	log.Println("Server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
