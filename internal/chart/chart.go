// Package chart projects derived kinematic series into renderable
// points and draws one dual-series line chart per match.
package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/frc-analytics/zebratrace/internal/models"
)

// ErrNoPoints is returned when there is nothing to draw.
var ErrNoPoints = errors.New("chart: no points to render")

// Project flattens the speed and acceleration series of one match into
// the point shape the renderer consumes: speed points first, then
// acceleration points, each tagged with its series name. The field
// mapping (x = timestamp, y = value) must stay exact.
func Project(speeds []models.SpeedSample, accels []models.AccelerationSample) []models.SeriesPoint {
	points := make([]models.SeriesPoint, 0, len(speeds)+len(accels))
	for _, s := range speeds {
		points = append(points, models.SeriesPoint{X: s.Timestamp, Y: s.Speed, Series: models.SeriesSpeed})
	}
	for _, a := range accels {
		points = append(points, models.SeriesPoint{X: a.Timestamp, Y: a.Acceleration, Series: models.SeriesAcceleration})
	}
	return points
}

// Render draws the projected points as a PNG line chart.
func Render(w io.Writer, title string, points []models.SeriesPoint) error {
	if len(points) == 0 {
		return ErrNoPoints
	}

	var speedX, speedY, accelX, accelY []float64
	for _, p := range points {
		switch p.Series {
		case models.SeriesSpeed:
			speedX = append(speedX, p.X)
			speedY = append(speedY, p.Y)
		case models.SeriesAcceleration:
			accelX = append(accelX, p.X)
			accelY = append(accelY, p.Y)
		}
	}

	var series []gochart.Series
	if len(speedX) > 0 {
		series = append(series, gochart.ContinuousSeries{
			Name:    string(models.SeriesSpeed),
			XValues: speedX,
			YValues: speedY,
			Style: gochart.Style{
				StrokeColor: drawing.ColorBlue,
				StrokeWidth: 1.5,
			},
		})
	}
	if len(accelX) > 0 {
		series = append(series, gochart.ContinuousSeries{
			Name:    string(models.SeriesAcceleration),
			XValues: accelX,
			YValues: accelY,
			Style: gochart.Style{
				StrokeColor: drawing.ColorRed,
				StrokeWidth: 1.5,
			},
		})
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  1280,
		Height: 720,
		XAxis: gochart.XAxis{
			Name: "match time (s)",
		},
		YAxis: gochart.YAxis{
			Name: "ft/s, ft/s²",
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	return graph.Render(gochart.PNG, w)
}

// RenderFile renders one match's chart into dir. The file is named by
// match key and team; TBA match keys already embed the event key.
func RenderFile(dir, matchKey string, team int, points []models.SeriesPoint) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create chart directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_frc%d.png", matchKey, team))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	title := fmt.Sprintf("%s frc%d", matchKey, team)
	if err := Render(f, title, points); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to render chart for %s: %w", matchKey, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close chart file: %w", err)
	}
	return path, nil
}
