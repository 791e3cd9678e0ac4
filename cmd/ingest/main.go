package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/passbi/ridesim/internal/db"
	"github.com/passbi/ridesim/internal/ingest"
	"github.com/passbi/ridesim/internal/models"
)

// The ingestion collaborator: turns an OSM-derived node/edge extract plus a
// city metadata file into the graph description JSON the simulator loads,
// optionally caching the resolved tuples in Postgres (-persist) and
// rebuilding the JSON from that cache later (-rebuild).
func main() {
	nodesPath := flag.String("nodes", "", "node extract CSV (id,x,y)")
	edgesPath := flag.String("edges", "", "edge extract CSV (u,v,distance,base_speed)")
	cityPath := flag.String("city-metadata", "", "city metadata JSON file")
	cityName := flag.String("city", "", "city name to resolve areas against")
	outPath := flag.String("out", "graph.json", "output graph description path")
	persist := flag.Bool("persist", false, "cache the resolved tuples in Postgres")
	rebuild := flag.Bool("rebuild", false, "rebuild the output from the Postgres cache instead of parsing extracts")
	flag.Parse()

	ctx := context.Background()

	var input models.GraphInput
	var err error
	if *rebuild {
		input, err = rebuildFromDB(ctx)
		if err != nil {
			log.Fatalf("Failed to rebuild graph from database: %v", err)
		}
	} else {
		input, err = parseExtracts(*nodesPath, *edgesPath, *cityPath, *cityName)
		if err != nil {
			log.Fatalf("Failed to parse extracts: %v", err)
		}
		if *persist {
			if err := persistToDB(ctx, input); err != nil {
				log.Fatalf("Failed to persist graph: %v", err)
			}
		}
	}

	data, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal graph description: %v", err)
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *outPath, err)
	}
	log.Printf("✓ Wrote %s: %d nodes, %d edges", *outPath, len(input.Nodes), len(input.Edges))
}

func parseExtracts(nodesPath, edgesPath, cityPath, cityName string) (models.GraphInput, error) {
	var input models.GraphInput
	if nodesPath == "" || edgesPath == "" {
		return input, fmt.Errorf("both -nodes and -edges are required")
	}

	nodes, err := ingest.ParseNodes(nodesPath)
	if err != nil {
		return input, fmt.Errorf("failed to parse nodes: %w", err)
	}
	log.Printf("Parsed %d nodes", len(nodes))

	edges, err := ingest.ParseEdges(edgesPath)
	if err != nil {
		return input, fmt.Errorf("failed to parse edges: %w", err)
	}
	log.Printf("Parsed %d directed edges", len(edges))

	if cityPath != "" {
		cities, err := ingest.LoadCityMetadata(cityPath)
		if err != nil {
			return input, fmt.Errorf("failed to load city metadata: %w", err)
		}
		city, err := ingest.FindCity(cities, cityName)
		if err != nil {
			return input, err
		}
		nodes = ingest.ResolveAreas(nodes, city)
		log.Printf("Resolved areas for city %q", city.City)
	}

	input.Nodes = nodes
	input.Edges = edges
	return input, nil
}

func persistToDB(ctx context.Context, input models.GraphInput) error {
	pool, err := db.GetDB()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	store := ingest.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.SaveGraph(ctx, input)
}

func rebuildFromDB(ctx context.Context) (models.GraphInput, error) {
	pool, err := db.GetDB()
	if err != nil {
		return models.GraphInput{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return ingest.NewStore(pool).LoadGraph(ctx)
}
