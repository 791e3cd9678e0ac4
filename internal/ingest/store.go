package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/passbi/ridesim/internal/models"
)

const batchSize = 1000 // batch insert size

// Store persists resolved graph tuples to Postgres so repeated simulation
// runs against the same city skip the OSM extract step. The tables are a
// cache owned by this collaborator; the core only ever sees tuple lists.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a new graph store
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the node and edge tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS node (
			id BIGINT PRIMARY KEY,
			x DOUBLE PRECISION NOT NULL,
			y DOUBLE PRECISION NOT NULL,
			is_center BOOLEAN NOT NULL DEFAULT FALSE,
			is_residential BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE TABLE IF NOT EXISTS edge (
			u BIGINT NOT NULL REFERENCES node(id),
			v BIGINT NOT NULL REFERENCES node(id),
			distance DOUBLE PRECISION NOT NULL,
			base_speed DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (u, v)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveGraph clears and repopulates the node/edge tables from the resolved
// tuple lists.
func (s *Store) SaveGraph(ctx context.Context, input models.GraphInput) error {
	log.Println("Persisting graph...")

	if _, err := s.db.Exec(ctx, "TRUNCATE TABLE edge, node CASCADE"); err != nil {
		return fmt.Errorf("failed to clear graph tables: %w", err)
	}

	nodeCount, err := s.saveNodes(ctx, input.Nodes)
	if err != nil {
		return fmt.Errorf("failed to save nodes: %w", err)
	}
	log.Printf("Persisted %d nodes", nodeCount)

	edgeCount, err := s.saveEdges(ctx, input.Edges)
	if err != nil {
		return fmt.Errorf("failed to save edges: %w", err)
	}
	log.Printf("Persisted %d edges", edgeCount)

	if err := s.analyzeGraph(ctx); err != nil {
		log.Printf("Warning: failed to analyze tables: %v", err)
	}

	return nil
}

func (s *Store) saveNodes(ctx context.Context, nodes []models.NodeRecord) (int, error) {
	batch := &pgx.Batch{}
	count := 0

	for _, n := range nodes {
		batch.Queue(`
			INSERT INTO node (id, x, y, is_center, is_residential)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, n.ID, n.X, n.Y, n.IsCenter, n.IsResidential)
		count++

		if batch.Len() >= batchSize {
			if err := s.executeBatch(ctx, batch); err != nil {
				return 0, err
			}
			batch = &pgx.Batch{}
		}
	}

	if batch.Len() > 0 {
		if err := s.executeBatch(ctx, batch); err != nil {
			return 0, err
		}
	}

	return count, nil
}

func (s *Store) saveEdges(ctx context.Context, edges []models.EdgeRecord) (int, error) {
	batch := &pgx.Batch{}
	count := 0

	for _, e := range edges {
		batch.Queue(`
			INSERT INTO edge (u, v, distance, base_speed)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (u, v) DO NOTHING
		`, e.U, e.V, e.Distance, e.BaseSpeed)
		count++

		if batch.Len() >= batchSize {
			if err := s.executeBatch(ctx, batch); err != nil {
				return 0, err
			}
			batch = &pgx.Batch{}
		}
	}

	if batch.Len() > 0 {
		if err := s.executeBatch(ctx, batch); err != nil {
			return 0, err
		}
	}

	return count, nil
}

// LoadGraph re-reads the persisted tuples; cmd/ingest's -rebuild flag uses
// it when the OSM extract is absent but the cache tables are populated.
func (s *Store) LoadGraph(ctx context.Context) (models.GraphInput, error) {
	var input models.GraphInput

	rows, err := s.db.Query(ctx, `SELECT id, x, y, is_center, is_residential FROM node ORDER BY id`)
	if err != nil {
		return input, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n models.NodeRecord
		if err := rows.Scan(&n.ID, &n.X, &n.Y, &n.IsCenter, &n.IsResidential); err != nil {
			return input, fmt.Errorf("failed to scan node: %w", err)
		}
		input.Nodes = append(input.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return input, err
	}

	edgeRows, err := s.db.Query(ctx, `SELECT u, v, distance, base_speed FROM edge ORDER BY u, v`)
	if err != nil {
		return input, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e models.EdgeRecord
		if err := edgeRows.Scan(&e.U, &e.V, &e.Distance, &e.BaseSpeed); err != nil {
			return input, fmt.Errorf("failed to scan edge: %w", err)
		}
		input.Edges = append(input.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return input, err
	}

	return input, nil
}

// executeBatch executes a batch of queries
func (s *Store) executeBatch(ctx context.Context, batch *pgx.Batch) error {
	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch execution failed at query %d: %w", i, err)
		}
	}

	return nil
}

// analyzeGraph runs ANALYZE on graph tables for query optimization
func (s *Store) analyzeGraph(ctx context.Context) error {
	for _, table := range []string{"node", "edge"} {
		if _, err := s.db.Exec(ctx, fmt.Sprintf("ANALYZE %s", table)); err != nil {
			return err
		}
		log.Printf("Analyzed table: %s", table)
	}
	return nil
}
