// Package tba provides a client for The Blue Alliance API v3, covering
// the two endpoints this tool needs: a team's match keys at an event and
// the Zebra MotionWorks position telemetry of a match.
package tba

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frc-analytics/zebratrace/internal/logger"
	"github.com/frc-analytics/zebratrace/internal/models"
)

// ErrNotFound marks a 404 from the API. For telemetry endpoints this is
// the expected "no data recorded" case, not a failure.
var ErrNotFound = errors.New("tba: not found")

// TelemetryCache lets the client skip the network for telemetry it has
// already seen. Implemented by the storage layer; nil disables caching.
type TelemetryCache interface {
	GetTelemetry(matchKey string, team int) (models.MatchTelemetry, bool, error)
	PutTelemetry(t models.MatchTelemetry) error
}

// ClientConfig tunes HTTP behavior.
type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	Concurrency    int
}

// Client provides access to The Blue Alliance API v3.
type Client struct {
	baseURL     string
	authKey     string
	httpClient  *http.Client
	maxRetries  int
	retryDelay  time.Duration
	concurrency int
	cache       TelemetryCache
}

// NewClient creates a TBA client. cache may be nil.
func NewClient(baseURL, authKey string, cfg ClientConfig, cache TelemetryCache) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Client{
		baseURL:     baseURL,
		authKey:     authKey,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelayBase,
		concurrency: cfg.Concurrency,
		cache:       cache,
	}
}

// zebraWire is the Zebra MotionWorks payload shape. The xs/ys arrays are
// index-aligned with times and contain null where the tracking tag had
// no fix.
type zebraWire struct {
	Key       string    `json:"key"`
	Times     []float64 `json:"times"`
	Alliances struct {
		Red  []zebraTeamWire `json:"red"`
		Blue []zebraTeamWire `json:"blue"`
	} `json:"alliances"`
}

type zebraTeamWire struct {
	TeamKey string     `json:"team_key"`
	Xs      []*float64 `json:"xs"`
	Ys      []*float64 `json:"ys"`
}

// MatchKeys returns the keys of all matches the team plays at the event,
// sorted for deterministic processing order.
func (c *Client) MatchKeys(ctx context.Context, team int, eventKey string) ([]string, error) {
	url := fmt.Sprintf("%s/team/frc%d/event/%s/matches/keys", c.baseURL, team, eventKey)
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match keys: %w", err)
	}
	defer resp.Body.Close()

	var keys []string
	if err := json.NewDecoder(resp.Body).Decode(&keys); err != nil {
		return nil, fmt.Errorf("failed to decode match keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// MatchTelemetry fetches the Zebra telemetry of one match and extracts
// the given team's trace. A 404, a match the team does not appear in, or
// an all-null trace all map to the Absent variant.
func (c *Client) MatchTelemetry(ctx context.Context, matchKey string, team int) (models.MatchTelemetry, error) {
	url := fmt.Sprintf("%s/match/%s/zebra_motionworks", c.baseURL, matchKey)
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.AbsentTelemetry(matchKey, team), nil
		}
		return models.MatchTelemetry{}, fmt.Errorf("failed to fetch telemetry for %s: %w", matchKey, err)
	}
	defer resp.Body.Close()

	var wire zebraWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return models.MatchTelemetry{}, fmt.Errorf("failed to decode telemetry for %s: %w", matchKey, err)
	}
	return mapTelemetry(wire, matchKey, team), nil
}

// FetchEvent retrieves telemetry for every match the team plays at the
// event, fanning the per-match fetches out concurrently and joining on
// completion. Results keep the sorted match-key order regardless of
// fetch completion order. Any fetch failure fails the whole batch.
func (c *Client) FetchEvent(ctx context.Context, team int, eventKey string) ([]models.MatchTelemetry, error) {
	keys, err := c.MatchKeys(ctx, team, eventKey)
	if err != nil {
		return nil, err
	}
	logger.Info("Found %d matches for team %d at %s", len(keys), team, eventKey)

	results := make([]models.MatchTelemetry, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			t, err := c.fetchOne(ctx, key, team)
			if err != nil {
				return err
			}
			results[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchOne consults the cache before going to the network.
func (c *Client) fetchOne(ctx context.Context, matchKey string, team int) (models.MatchTelemetry, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.GetTelemetry(matchKey, team)
		if err != nil {
			logger.Warn("Cache lookup failed for %s: %v", matchKey, err)
		} else if ok {
			logger.Debug("Cache hit for %s", matchKey)
			return cached, nil
		}
	}

	t, err := c.MatchTelemetry(ctx, matchKey, team)
	if err != nil {
		return models.MatchTelemetry{}, err
	}
	if c.cache != nil {
		if err := c.cache.PutTelemetry(t); err != nil {
			logger.Warn("Cache store failed for %s: %v", matchKey, err)
		}
	}
	return t, nil
}

// mapTelemetry extracts one team's position samples from the wire
// payload, dropping samples where either coordinate is null.
func mapTelemetry(wire zebraWire, matchKey string, team int) models.MatchTelemetry {
	teamKey := fmt.Sprintf("frc%d", team)
	trace := findTeamTrace(wire, teamKey)
	if trace == nil {
		return models.AbsentTelemetry(matchKey, team)
	}

	n := len(wire.Times)
	if len(trace.Xs) < n {
		n = len(trace.Xs)
	}
	if len(trace.Ys) < n {
		n = len(trace.Ys)
	}

	samples := make([]models.PositionSample, 0, n)
	for i := 0; i < n; i++ {
		if trace.Xs[i] == nil || trace.Ys[i] == nil {
			continue
		}
		s := models.PositionSample{Time: wire.Times[i], X: *trace.Xs[i], Y: *trace.Ys[i]}
		if err := s.Valid(); err != nil {
			logger.Debug("Dropping invalid sample in %s at index %d: %v", matchKey, i, err)
			continue
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return models.AbsentTelemetry(matchKey, team)
	}
	return models.PresentTelemetry(matchKey, team, samples)
}

func findTeamTrace(wire zebraWire, teamKey string) *zebraTeamWire {
	for i := range wire.Alliances.Red {
		if wire.Alliances.Red[i].TeamKey == teamKey {
			return &wire.Alliances.Red[i]
		}
	}
	for i := range wire.Alliances.Blue {
		if wire.Alliances.Blue[i].TeamKey == teamKey {
			return &wire.Alliances.Blue[i]
		}
	}
	return nil
}

// doRequest performs a GET with auth header and bounded linear-backoff
// retry on transport errors and 5xx responses. A 404 returns ErrNotFound
// without retrying; other non-2xx statuses fail immediately.
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-TBA-Auth-Key", c.authKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if sleepErr := sleepCtx(ctx, c.retryDelay*time.Duration(i+1)); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			if sleepErr := sleepCtx(ctx, c.retryDelay*time.Duration(i+1)); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		case resp.StatusCode >= 300:
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		return resp, nil
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
