package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/litescript/orbitlapse/internal/dataset"
	"github.com/litescript/orbitlapse/internal/geocode"
	"github.com/litescript/orbitlapse/internal/orbit"
	"github.com/litescript/orbitlapse/internal/sequencer"
)

func TestResolverReportsToCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	failing := true
	lookup := geocode.LookupFunc(func(_ context.Context, name string) ([]geocode.Candidate, error) {
		if name == "Kourou" && failing {
			failing = false
			return nil, errors.New("unreachable")
		}
		if name == "Baikonur" || name == "Kourou" {
			return []geocode.Candidate{{Lat: "45.9", Lon: "63.3"}}, nil
		}
		return nil, nil
	})
	r := geocode.NewResolver(lookup, geocode.WithMetrics(collector))
	ctx := context.Background()

	r.Resolve(ctx, "Baikonur")
	r.Resolve(ctx, "Baikonur")
	r.Resolve(ctx, "Atlantis")
	r.Resolve(ctx, "Kourou")

	tests := []struct {
		outcome geocode.Outcome
		want    float64
	}{
		{geocode.OutcomeFound, 1},
		{geocode.OutcomeNotFound, 1},
		{geocode.OutcomeError, 1},
	}
	for _, tc := range tests {
		if got := testutil.ToFloat64(collector.GeocodeLookups.WithLabelValues(string(tc.outcome))); got != tc.want {
			t.Errorf("lookups{outcome=%s} = %v, want %v", tc.outcome, got, tc.want)
		}
	}
	if got := testutil.ToFloat64(collector.GeocodeCacheHits); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "orbitlapse_geocode_lookup_duration_seconds", map[string]string{
		"outcome": "found",
	}); count != 1 {
		t.Errorf("duration sample_count = %d, want 1", count)
	}
}

func TestSequencerReportsToCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	resolver := geocode.NewResolver(geocode.Static{"Baikonur": {Lat: 45.9, Lon: 63.3}})
	world := orbit.NewWorld(orbit.DefaultConfig())
	s := sequencer.New(resolver, world, sequencer.WithPacing(0), sequencer.WithObserver(collector))

	records := []dataset.LaunchRecord{
		{Name: "a", LaunchSite: "Baikonur", Date: time.Date(1957, 10, 4, 0, 0, 0, 0, time.UTC)},
		{Name: "b", LaunchSite: "Nowhere", Date: time.Date(1957, 11, 3, 0, 0, 0, 0, time.UTC)},
	}
	if _, err := s.Run(context.Background(), records); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := testutil.ToFloat64(collector.SequencerEvents.WithLabelValues("LAUNCHED")); got != 1 {
		t.Errorf("events{LAUNCHED} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.SequencerEvents.WithLabelValues("SKIPPED")); got != 1 {
		t.Errorf("events{SKIPPED} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(collector.SequencerEvents); got != 2 {
		t.Errorf("event series = %d, want 2 (done is not counted)", got)
	}
}

func TestObserveFrame(t *testing.T) {
	collector, err := NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	collector.ObserveFrame(3, 1)
	collector.ObserveFrame(2, 2)

	if got := testutil.ToFloat64(collector.Frames); got != 2 {
		t.Errorf("frames = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Entities.WithLabelValues("launching")); got != 2 {
		t.Errorf("launching = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Entities.WithLabelValues("orbiting")); got != 2 {
		t.Errorf("orbiting = %v, want 2", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.CacheHit()
	c.ObserveLookup(geocode.OutcomeFound, time.Second)
	c.OnEvent(sequencer.Event{Type: sequencer.EventLaunched})
	c.ObserveFrame(1, 1)
}

func TestNewCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}

	first.CacheHit()
	if got := testutil.ToFloat64(second.GeocodeCacheHits); got != 1 {
		t.Errorf("second collector sees %v hits, want shared counter", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	collector.ObserveLookup(geocode.OutcomeFound, 200*time.Millisecond)
	collector.OnEvent(sequencer.Event{Type: sequencer.EventLaunched})
	collector.ObserveFrame(4, 0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"orbitlapse_geocode_lookups_total",
		"orbitlapse_geocode_lookup_duration_seconds",
		"orbitlapse_sequencer_events_total",
		"orbitlapse_entities",
		"orbitlapse_frames_total",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("expected %q in /metrics output", metric)
		}
	}
	if !strings.Contains(body, `orbitlapse_entities{state="launching"} 4`) {
		t.Errorf("/metrics output missing entity gauge: %s", body)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
