package models

import "errors"

// MatchSummary holds the aggregate kinematics of one team in one match.
// MaxBraking is the minimum acceleration observed (most negative value).
type MatchSummary struct {
	MatchKey        string  `json:"match_key"`
	Team            int     `json:"team"`
	MaxSpeed        float64 `json:"max_speed_fps"`
	AvgSpeed        float64 `json:"avg_speed_fps"`
	MaxAcceleration float64 `json:"max_acceleration_fps2"`
	MaxBraking      float64 `json:"max_braking_fps2"`
}

// Validate checks summary field constraints.
func (s MatchSummary) Validate() error {
	if s.MatchKey == "" {
		return errors.New("match key must not be empty")
	}
	if s.Team <= 0 {
		return errors.New("team number must be positive")
	}
	if s.MaxSpeed < 0 {
		return errors.New("max speed must not be negative")
	}
	if s.AvgSpeed < 0 {
		return errors.New("avg speed must not be negative")
	}
	if s.AvgSpeed > s.MaxSpeed {
		return errors.New("avg speed must not exceed max speed")
	}
	if s.MaxBraking > s.MaxAcceleration {
		return errors.New("max braking must not exceed max acceleration")
	}
	return nil
}

// GlobalSummary aggregates MatchSummary fields across all matches of a run.
type GlobalSummary struct {
	MaxSpeed           float64 `json:"max_speed_fps"`
	AvgMaxSpeed        float64 `json:"avg_max_speed_fps"`
	AvgSpeed           float64 `json:"avg_speed_fps"`
	MaxAcceleration    float64 `json:"max_acceleration_fps2"`
	AvgMaxAcceleration float64 `json:"avg_max_acceleration_fps2"`
	MaxBraking         float64 `json:"max_braking_fps2"`
	AvgMaxBraking      float64 `json:"avg_max_braking_fps2"`
}

// Series identifies which derived series a chart point belongs to.
type Series string

const (
	SeriesSpeed        Series = "speed"
	SeriesAcceleration Series = "acceleration"
)

// SeriesPoint is one renderable chart point. The field mapping
// (x = timestamp, y = value, series = name) is the shape the rendering
// layer expects and must not change.
type SeriesPoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Series Series  `json:"series"`
}
