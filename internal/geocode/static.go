package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Static answers lookups from a fixed table, for offline runs and tests.
// Unknown names return an empty candidate list.
type Static map[string]Coordinate

// Lookup implements Lookup.
func (s Static) Lookup(_ context.Context, name string) ([]Candidate, error) {
	coord, ok := s[name]
	if !ok {
		return nil, nil
	}
	return []Candidate{{
		Lat:         strconv.FormatFloat(coord.Lat, 'f', -1, 64),
		Lon:         strconv.FormatFloat(coord.Lon, 'f', -1, 64),
		DisplayName: name,
	}}, nil
}

// LoadStatic reads a JSON object mapping place names to {"lat", "lon"}.
func LoadStatic(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geocode table: %w", err)
	}
	var table Static
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse geocode table %s: %w", path, err)
	}
	return table, nil
}
