package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/passbi/ridesim/internal/config"
	"github.com/passbi/ridesim/internal/core/roadgraph"
	"github.com/passbi/ridesim/internal/core/sim"
	"github.com/passbi/ridesim/internal/models"
)

func main() {
	graphPath := flag.String("graph", "graph.json", "path to the graph description JSON")
	duration := flag.Duration("duration", 10*time.Minute, "wall-clock duration to run")
	seed := flag.Int64("seed", 0, "random seed (0 uses the clock)")
	startDayTime := flag.String("start", "08:00", "simulated day-time at startup, HH:MM")
	flag.Parse()

	cfg := config.LoadFromEnv()
	if *seed != 0 {
		cfg.RandomSeed = *seed
		cfg.HasRandomSeed = true
	}
	masterSeed := cfg.RandomSeed
	if !cfg.HasRandomSeed {
		masterSeed = time.Now().UnixNano()
	}

	input, err := loadGraph(*graphPath)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	nodes, edges := input.Tuples()
	facade, err := roadgraph.NewFacade(nodes, edges, masterSeed)
	if err != nil {
		log.Fatalf("Failed to build road graph: %v", err)
	}
	log.Printf("✓ Road graph loaded: %d nodes, %d edges", len(nodes), len(edges))

	parsed, err := time.Parse("15:04", *startDayTime)
	if err != nil {
		log.Fatalf("Invalid -start value: %v", err)
	}
	start := time.Date(2000, 1, 1, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)

	world := sim.NewWorld(facade, cfg.PSO, masterSeed, start)
	gen := sim.NewGenerator(world, cfg.Generator, masterSeed, cfg.SimulationSpeed)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case <-quit:
			world.Post(sim.QuitRequest{})
		case <-ctx.Done():
		}
	}()

	// Drain the event bus into the run log while the loop executes.
	go func() {
		for e := range world.Events {
			log.Printf("[EVENT] %T at %s", e, e.Time().Format("15:04:05"))
		}
	}()

	gen.Start()
	world.Run(ctx, cfg.FrameInterval(), cfg.SimulationSpeed)
	gen.Stop()
	close(world.Events)

	summary := world.Stats()
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal stats: %v", err)
	}
	fmt.Println(string(out))
}

func loadGraph(path string) (models.GraphInput, error) {
	var input models.GraphInput
	data, err := os.ReadFile(path)
	if err != nil {
		return input, err
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("failed to parse graph description: %w", err)
	}
	return input, nil
}
