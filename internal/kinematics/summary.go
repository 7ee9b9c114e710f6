package kinematics

import (
	"errors"
	"fmt"

	"github.com/frc-analytics/zebratrace/internal/models"
)

// ErrEmptySeries is returned when a summary is requested over an empty
// derived series. Matches with fewer than two usable samples end up
// here; the caller excludes them from the run aggregates.
var ErrEmptySeries = errors.New("kinematics: empty derived series")

// SummarizeMatch aggregates one match's speed and acceleration series.
// Both series must be non-empty: max/avg over an empty sequence has no
// defined value, so such matches are rejected instead of producing NaN.
func SummarizeMatch(speeds []models.SpeedSample, accels []models.AccelerationSample, matchKey string, team int) (models.MatchSummary, error) {
	if len(speeds) == 0 {
		return models.MatchSummary{}, fmt.Errorf("match %s: speed series: %w", matchKey, ErrEmptySeries)
	}
	if len(accels) == 0 {
		return models.MatchSummary{}, fmt.Errorf("match %s: acceleration series: %w", matchKey, ErrEmptySeries)
	}

	maxSpeed := speeds[0].Speed
	sumSpeed := 0.0
	for _, s := range speeds {
		if s.Speed > maxSpeed {
			maxSpeed = s.Speed
		}
		sumSpeed += s.Speed
	}

	maxAccel := accels[0].Acceleration
	maxBraking := accels[0].Acceleration
	for _, a := range accels {
		if a.Acceleration > maxAccel {
			maxAccel = a.Acceleration
		}
		if a.Acceleration < maxBraking {
			maxBraking = a.Acceleration
		}
	}

	return models.MatchSummary{
		MatchKey:        matchKey,
		Team:            team,
		MaxSpeed:        maxSpeed,
		AvgSpeed:        sumSpeed / float64(len(speeds)),
		MaxAcceleration: maxAccel,
		MaxBraking:      maxBraking,
	}, nil
}

// SummarizeGlobal aggregates per-match summaries across a whole run.
// Requires at least one summary.
func SummarizeGlobal(summaries []models.MatchSummary) (models.GlobalSummary, error) {
	if len(summaries) == 0 {
		return models.GlobalSummary{}, fmt.Errorf("global summary: %w", ErrEmptySeries)
	}

	g := models.GlobalSummary{
		MaxSpeed:        summaries[0].MaxSpeed,
		MaxAcceleration: summaries[0].MaxAcceleration,
		MaxBraking:      summaries[0].MaxBraking,
	}
	var sumMaxSpeed, sumAvgSpeed, sumMaxAccel, sumMaxBraking float64
	for _, s := range summaries {
		if s.MaxSpeed > g.MaxSpeed {
			g.MaxSpeed = s.MaxSpeed
		}
		if s.MaxAcceleration > g.MaxAcceleration {
			g.MaxAcceleration = s.MaxAcceleration
		}
		if s.MaxBraking < g.MaxBraking {
			g.MaxBraking = s.MaxBraking
		}
		sumMaxSpeed += s.MaxSpeed
		sumAvgSpeed += s.AvgSpeed
		sumMaxAccel += s.MaxAcceleration
		sumMaxBraking += s.MaxBraking
	}

	n := float64(len(summaries))
	g.AvgMaxSpeed = sumMaxSpeed / n
	g.AvgSpeed = sumAvgSpeed / n
	g.AvgMaxAcceleration = sumMaxAccel / n
	g.AvgMaxBraking = sumMaxBraking / n
	return g, nil
}
