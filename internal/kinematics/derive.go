// Package kinematics derives distance, speed, and acceleration series
// from raw position telemetry and aggregates them into match and run
// summaries. Every function is pure: ordered slices in, ordered slices
// out, no shared state.
package kinematics

import (
	"math"

	"github.com/frc-analytics/zebratrace/internal/models"
)

// round1 rounds to one decimal place. Durations use this precision.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// round2 rounds to two decimal places. Speeds and accelerations use
// this precision.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// DeriveDistances converts n position samples into n-1 distance
// segments, one per consecutive pair. Each segment carries the earlier
// sample's timestamp, the Euclidean distance between the pair, and the
// time delta rounded to one decimal. The input must be time-ordered and
// free of null-coordinate samples; the acquisition layer guarantees both.
func DeriveDistances(samples []models.PositionSample) []models.DistanceSegment {
	if len(samples) < 2 {
		return nil
	}
	segments := make([]models.DistanceSegment, 0, len(samples)-1)
	for i := 0; i+1 < len(samples); i++ {
		cur, next := samples[i], samples[i+1]
		segments = append(segments, models.DistanceSegment{
			Timestamp: cur.Time,
			Duration:  round1(next.Time - cur.Time),
			Distance:  math.Hypot(next.X-cur.X, next.Y-cur.Y),
		})
	}
	return segments
}

// DeriveSpeeds converts distance segments into speed samples. A speed is
// emitted for segment i only while segment i+1 exists, mirroring the
// pair availability of the distance stage, so n segments yield at most
// n-1 speeds. Segments with a zero duration are skipped entirely rather
// than producing a non-finite speed.
func DeriveSpeeds(segments []models.DistanceSegment) []models.SpeedSample {
	if len(segments) < 2 {
		return nil
	}
	speeds := make([]models.SpeedSample, 0, len(segments)-1)
	for i := 0; i+1 < len(segments); i++ {
		seg := segments[i]
		if seg.Duration == 0 {
			continue
		}
		speeds = append(speeds, models.SpeedSample{
			Timestamp: seg.Timestamp,
			Speed:     round2(seg.Distance / seg.Duration),
		})
	}
	return speeds
}

// DeriveAccelerations converts n speed samples into n-1 acceleration
// samples via consecutive-pair differencing. Each carries the earlier
// speed's timestamp and the timestamp delta rounded to one decimal.
func DeriveAccelerations(speeds []models.SpeedSample) []models.AccelerationSample {
	if len(speeds) < 2 {
		return nil
	}
	accels := make([]models.AccelerationSample, 0, len(speeds)-1)
	for i := 0; i+1 < len(speeds); i++ {
		cur, next := speeds[i], speeds[i+1]
		accels = append(accels, models.AccelerationSample{
			Timestamp:    cur.Timestamp,
			Duration:     round1(next.Timestamp - cur.Timestamp),
			Acceleration: round2(next.Speed - cur.Speed),
		})
	}
	return accels
}

// Derive runs the full three-stage pipeline over one match's samples.
func Derive(samples []models.PositionSample) ([]models.DistanceSegment, []models.SpeedSample, []models.AccelerationSample) {
	distances := DeriveDistances(samples)
	speeds := DeriveSpeeds(distances)
	accels := DeriveAccelerations(speeds)
	return distances, speeds, accels
}
