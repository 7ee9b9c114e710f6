// Package report writes the per-run stats artifact: every match summary
// plus the global aggregates, as a single JSON file.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/frc-analytics/zebratrace/internal/models"
)

// Stats is the persisted artifact shape. GlobalSummary is embedded so
// its aggregate fields sit at the top level next to individual_matches,
// which is the layout downstream consumers expect.
type Stats struct {
	RunID             string                `json:"run_id"`
	Team              int                   `json:"team"`
	EventKey          string                `json:"event_key"`
	GeneratedAt       time.Time             `json:"generated_at"`
	IndividualMatches []models.MatchSummary `json:"individual_matches"`
	models.GlobalSummary
}

// New assembles a Stats artifact with a fresh run id.
func New(team int, eventKey string, matches []models.MatchSummary, global models.GlobalSummary) Stats {
	return Stats{
		RunID:             uuid.New().String(),
		Team:              team,
		EventKey:          eventKey,
		GeneratedAt:       time.Now().UTC(),
		IndividualMatches: matches,
		GlobalSummary:     global,
	}
}

// Write persists the artifact to path atomically: the JSON is written to
// a temp file in the same directory and renamed into place, so a failed
// run never leaves a partial artifact behind.
func Write(path string, stats Stats) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp stats file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp stats file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move stats file into place: %w", err)
	}
	return nil
}

// Read loads a previously written artifact.
func Read(path string) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read stats file: %w", err)
	}
	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return Stats{}, fmt.Errorf("failed to decode stats file: %w", err)
	}
	return stats, nil
}
