// Package ingest is the map ingestion collaborator: it turns an OSM-derived
// node/edge extract plus a city metadata file into the resolved tuple lists
// the core's graph constructor consumes, and can persist or re-read them
// through Postgres. Nothing under internal/core imports this package.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/passbi/ridesim/internal/models"
)

// ParseNodes parses a node extract CSV with columns id,x,y. Area tags are
// resolved afterwards against the city metadata (see ResolveAreas).
func ParseNodes(filePath string) ([]models.NodeRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseNodesFromReader(file)
}

func parseNodesFromReader(reader io.Reader) ([]models.NodeRecord, error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var nodes []models.NodeRecord
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		id, err := strconv.ParseInt(getField(record, colMap, "id"), 10, 64)
		if err != nil {
			log.Printf("Warning: skipping node with invalid id %q", getField(record, colMap, "id"))
			continue
		}
		x, errX := strconv.ParseFloat(getField(record, colMap, "x"), 64)
		y, errY := strconv.ParseFloat(getField(record, colMap, "y"), 64)
		if errX != nil || errY != nil {
			log.Printf("Warning: skipping node %d with invalid coordinates", id)
			continue
		}

		nodes = append(nodes, models.NodeRecord{ID: id, X: x, Y: y})
	}

	return nodes, nil
}

// ParseEdges parses an edge extract CSV with columns u,v,distance,base_speed.
// Each row describes one undirected road; both directions are emitted.
func ParseEdges(filePath string) ([]models.EdgeRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseEdgesFromReader(file)
}

func parseEdgesFromReader(reader io.Reader) ([]models.EdgeRecord, error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var edges []models.EdgeRecord
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		u, errU := strconv.ParseInt(getField(record, colMap, "u"), 10, 64)
		v, errV := strconv.ParseInt(getField(record, colMap, "v"), 10, 64)
		if errU != nil || errV != nil {
			log.Printf("Warning: skipping edge with invalid endpoints %q->%q",
				getField(record, colMap, "u"), getField(record, colMap, "v"))
			continue
		}
		distance, err := strconv.ParseFloat(getField(record, colMap, "distance"), 64)
		if err != nil || distance <= 0 {
			log.Printf("Warning: skipping edge %d->%d with invalid distance", u, v)
			continue
		}
		speed, err := strconv.ParseFloat(getField(record, colMap, "base_speed"), 64)
		if err != nil || speed <= 0 {
			log.Printf("Warning: skipping edge %d->%d with invalid base speed", u, v)
			continue
		}

		edges = append(edges,
			models.EdgeRecord{U: u, V: v, Distance: distance, BaseSpeed: speed},
			models.EdgeRecord{U: v, V: u, Distance: distance, BaseSpeed: speed},
		)
	}

	return edges, nil
}

// LoadCityMetadata reads the city metadata file: a JSON array of city
// entries, each naming central and residential areas.
func LoadCityMetadata(filePath string) ([]models.CityMetadata, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var cities []models.CityMetadata
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("failed to parse city metadata: %w", err)
	}
	return cities, nil
}

// FindCity selects the metadata entry for the named city.
func FindCity(cities []models.CityMetadata, name string) (models.CityMetadata, error) {
	for _, c := range cities {
		if c.City == name {
			return c, nil
		}
	}
	return models.CityMetadata{}, fmt.Errorf("city %q not found in metadata", name)
}

// ResolveAreas stamps each node's is_center/is_residential tags from the
// city's area circles, returning the tagged copy.
func ResolveAreas(nodes []models.NodeRecord, city models.CityMetadata) []models.NodeRecord {
	out := make([]models.NodeRecord, len(nodes))
	for i, n := range nodes {
		for _, area := range city.CentralAreas {
			if area.Contains(n.X, n.Y) {
				n.IsCenter = true
				break
			}
		}
		for _, area := range city.ResidentialAreas {
			if area.Contains(n.X, n.Y) {
				n.IsResidential = true
				break
			}
		}
		out[i] = n
	}
	return out
}

// makeColumnMap creates a map of column name to index
func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, col := range header {
		colMap[col] = i
	}
	return colMap
}

// getField safely retrieves a field from a record
func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
