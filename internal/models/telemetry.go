// Package models defines the core domain entities: position telemetry,
// derived kinematic series, and per-match/global summaries.
package models

import (
	"errors"
	"math"
)

// PositionSample is a single timestamped robot position reading.
// Time is seconds since the start of the match; X and Y are field
// coordinates in feet.
type PositionSample struct {
	Time float64 `json:"time"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Valid checks sample field constraints.
func (p PositionSample) Valid() error {
	if math.IsNaN(p.Time) || math.IsInf(p.Time, 0) {
		return errors.New("sample time must be finite")
	}
	if p.Time < 0 {
		return errors.New("sample time must not be negative")
	}
	if math.IsNaN(p.X) || math.IsInf(p.X, 0) {
		return errors.New("sample x must be finite")
	}
	if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		return errors.New("sample y must be finite")
	}
	return nil
}

// DistanceSegment is the Euclidean distance covered between two
// consecutive position samples. Timestamp is the earlier sample's time.
type DistanceSegment struct {
	Timestamp float64 `json:"timestamp"`
	Duration  float64 `json:"duration"`
	Distance  float64 `json:"distance"`
}

// SpeedSample is the speed over one distance segment, in feet per second.
type SpeedSample struct {
	Timestamp float64 `json:"timestamp"`
	Speed     float64 `json:"speed"`
}

// AccelerationSample is the speed change between two consecutive speed
// samples, in feet per second squared. Negative values are braking.
type AccelerationSample struct {
	Timestamp    float64 `json:"timestamp"`
	Duration     float64 `json:"duration"`
	Acceleration float64 `json:"acceleration"`
}

// MatchTelemetry holds the position trace of one team in one match, or
// records that no telemetry exists for that match. Use HasData rather
// than checking Samples for nil: an empty-but-present trace and an
// absent one are different cases.
type MatchTelemetry struct {
	MatchKey string
	Team     int
	present  bool
	Samples  []PositionSample
}

// PresentTelemetry builds a MatchTelemetry that carries samples.
func PresentTelemetry(matchKey string, team int, samples []PositionSample) MatchTelemetry {
	return MatchTelemetry{MatchKey: matchKey, Team: team, present: true, Samples: samples}
}

// AbsentTelemetry records that the match has no telemetry for the team.
func AbsentTelemetry(matchKey string, team int) MatchTelemetry {
	return MatchTelemetry{MatchKey: matchKey, Team: team}
}

// HasData reports whether telemetry exists for the match.
func (t MatchTelemetry) HasData() bool {
	return t.present
}
