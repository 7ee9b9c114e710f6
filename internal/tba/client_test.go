package tba

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frc-analytics/zebratrace/internal/models"
)

const zebraQM1 = `{
	"key": "2024casj_qm1",
	"times": [0.0, 0.1, 0.2, 0.3],
	"alliances": {
		"red": [
			{"team_key": "frc254", "xs": [1.0, null, 2.0, 3.0], "ys": [1.0, 5.0, 2.0, null]},
			{"team_key": "frc1678", "xs": [null, null, null, null], "ys": [null, null, null, null]}
		],
		"blue": [
			{"team_key": "frc971", "xs": [4.0, 4.1, 4.2, 4.3], "ys": [0.0, 0.0, 0.0, 0.0]}
		]
	}
}`

func testClient(t *testing.T, handler http.Handler, cache TelemetryCache) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := ClientConfig{
		Timeout:        5 * time.Second,
		MaxRetries:     3,
		RetryDelayBase: time.Millisecond,
		Concurrency:    2,
	}
	return NewClient(srv.URL, "test-key", cfg, cache)
}

func TestClient_MatchKeys(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/team/frc254/event/2024casj/matches/keys" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-TBA-Auth-Key"); got != "test-key" {
			t.Errorf("auth key header: got %q", got)
		}
		w.Write([]byte(`["2024casj_qm3", "2024casj_qm1", "2024casj_qm2"]`))
	}), nil)

	keys, err := c.MatchKeys(context.Background(), 254, "2024casj")
	if err != nil {
		t.Fatalf("MatchKeys: %v", err)
	}
	want := []string{"2024casj_qm1", "2024casj_qm2", "2024casj_qm3"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i, k := range keys {
		if k != want[i] {
			t.Errorf("key %d: got %s, want %s", i, k, want[i])
		}
	}
}

func TestClient_MatchTelemetry_DropsNullSamples(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(zebraQM1))
	}), nil)

	tel, err := c.MatchTelemetry(context.Background(), "2024casj_qm1", 254)
	if err != nil {
		t.Fatalf("MatchTelemetry: %v", err)
	}
	if !tel.HasData() {
		t.Fatal("expected present telemetry")
	}
	// Indexes 1 and 3 have a null coordinate and must be dropped.
	want := []models.PositionSample{
		{Time: 0, X: 1, Y: 1},
		{Time: 0.2, X: 2, Y: 2},
	}
	if len(tel.Samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(tel.Samples), len(want))
	}
	for i, s := range tel.Samples {
		if s != want[i] {
			t.Errorf("sample %d: got %+v, want %+v", i, s, want[i])
		}
	}
}

func TestClient_MatchTelemetry_AllNullTraceIsAbsent(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(zebraQM1))
	}), nil)

	tel, err := c.MatchTelemetry(context.Background(), "2024casj_qm1", 1678)
	if err != nil {
		t.Fatalf("MatchTelemetry: %v", err)
	}
	if tel.HasData() {
		t.Error("all-null trace should be absent")
	}
}

func TestClient_MatchTelemetry_TeamNotInMatch(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(zebraQM1))
	}), nil)

	tel, err := c.MatchTelemetry(context.Background(), "2024casj_qm1", 9999)
	if err != nil {
		t.Fatalf("MatchTelemetry: %v", err)
	}
	if tel.HasData() {
		t.Error("team absent from match should yield absent telemetry")
	}
}

func TestClient_MatchTelemetry_NotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}), nil)

	tel, err := c.MatchTelemetry(context.Background(), "2024casj_qm9", 254)
	if err != nil {
		t.Fatalf("404 must not be an error, got: %v", err)
	}
	if tel.HasData() {
		t.Error("404 should yield absent telemetry")
	}
	if tel.MatchKey != "2024casj_qm9" {
		t.Errorf("match key not carried: %s", tel.MatchKey)
	}
}

func TestClient_MatchKeys_Unauthorized(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), nil)

	if _, err := c.MatchKeys(context.Background(), 254, "2024casj"); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}), nil)

	if _, err := c.MatchKeys(context.Background(), 254, "2024casj"); err != nil {
		t.Fatalf("MatchKeys after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("got %d calls, want 3", calls.Load())
	}
}

// memCache is an in-memory TelemetryCache for tests.
type memCache struct {
	mu      sync.Mutex
	entries map[string]models.MatchTelemetry
	hits    int
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]models.MatchTelemetry)}
}

func (m *memCache) GetTelemetry(matchKey string, team int) (models.MatchTelemetry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.entries[matchKey]
	if ok {
		m.hits++
	}
	return t, ok, nil
}

func (m *memCache) PutTelemetry(t models.MatchTelemetry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[t.MatchKey] = t
	m.puts++
	return nil
}

func TestClient_FetchEvent(t *testing.T) {
	var telemetryCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/team/frc254/event/2024casj/matches/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["2024casj_qm2", "2024casj_qm1"]`))
	})
	mux.HandleFunc("/match/2024casj_qm1/zebra_motionworks", func(w http.ResponseWriter, r *http.Request) {
		telemetryCalls.Add(1)
		w.Write([]byte(zebraQM1))
	})
	mux.HandleFunc("/match/2024casj_qm2/zebra_motionworks", func(w http.ResponseWriter, r *http.Request) {
		telemetryCalls.Add(1)
		http.NotFound(w, r)
	})

	cache := newMemCache()
	c := testClient(t, mux, cache)

	batch, err := c.FetchEvent(context.Background(), 254, "2024casj")
	if err != nil {
		t.Fatalf("FetchEvent: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("got %d results, want 2", len(batch))
	}
	// Order must follow sorted match keys, not completion order.
	if batch[0].MatchKey != "2024casj_qm1" || batch[1].MatchKey != "2024casj_qm2" {
		t.Errorf("order wrong: %s, %s", batch[0].MatchKey, batch[1].MatchKey)
	}
	if !batch[0].HasData() {
		t.Error("qm1 should have data")
	}
	if batch[1].HasData() {
		t.Error("qm2 should be absent")
	}
	if cache.puts != 2 {
		t.Errorf("got %d cache puts, want 2", cache.puts)
	}

	// Second fetch is served from cache.
	if _, err := c.FetchEvent(context.Background(), 254, "2024casj"); err != nil {
		t.Fatalf("second FetchEvent: %v", err)
	}
	if telemetryCalls.Load() != 2 {
		t.Errorf("got %d telemetry fetches after cached run, want 2", telemetryCalls.Load())
	}
	if cache.hits != 2 {
		t.Errorf("got %d cache hits, want 2", cache.hits)
	}
}

func TestClient_FetchEvent_FailurePropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/team/frc254/event/2024casj/matches/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["2024casj_qm1"]`))
	})
	mux.HandleFunc("/match/2024casj_qm1/zebra_motionworks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	c := testClient(t, mux, nil)

	if _, err := c.FetchEvent(context.Background(), 254, "2024casj"); err == nil {
		t.Fatal("expected batch failure when a fetch fails")
	} else if errors.Is(err, ErrNotFound) {
		t.Fatal("403 must not map to ErrNotFound")
	}
}
