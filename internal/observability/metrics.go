// Package observability holds the Prometheus collector and OpenTelemetry
// tracing setup.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/orbitlapse/internal/geocode"
	"github.com/litescript/orbitlapse/internal/sequencer"
)

// Collector bundles the application's Prometheus metrics. It implements
// geocode.Metrics and sequencer.Observer so both can report directly.
type Collector struct {
	gatherer prometheus.Gatherer

	GeocodeLookups   *prometheus.CounterVec
	GeocodeDurations *prometheus.HistogramVec
	GeocodeCacheHits prometheus.Counter

	SequencerEvents *prometheus.CounterVec

	Entities *prometheus.GaugeVec
	Frames   prometheus.Counter
}

// NewCollector registers metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitlapse_geocode_lookups_total",
		Help: "External geocode lookups, labeled by outcome.",
	}, []string{"outcome"}), "orbitlapse_geocode_lookups_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orbitlapse_geocode_lookup_duration_seconds",
		Help:    "External geocode lookup latency in seconds, including rate limit wait.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"outcome"}), "orbitlapse_geocode_lookup_duration_seconds")
	if err != nil {
		return nil, err
	}

	hits, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitlapse_geocode_cache_hits_total",
		Help: "Geocode resolutions answered from cache.",
	}), "orbitlapse_geocode_cache_hits_total")
	if err != nil {
		return nil, err
	}

	events, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitlapse_sequencer_events_total",
		Help: "Records processed by the launch sequencer, labeled by event type.",
	}, []string{"type"}), "orbitlapse_sequencer_events_total")
	if err != nil {
		return nil, err
	}

	entities, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orbitlapse_entities",
		Help: "Current number of entities, labeled by lifecycle state.",
	}, []string{"state"}), "orbitlapse_entities")
	if err != nil {
		return nil, err
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitlapse_frames_total",
		Help: "Frames integrated by the orbit world.",
	}), "orbitlapse_frames_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		GeocodeLookups:   lookups,
		GeocodeDurations: durations,
		GeocodeCacheHits: hits,
		SequencerEvents:  events,
		Entities:         entities,
		Frames:           frames,
	}, nil
}

// CacheHit implements geocode.Metrics.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.GeocodeCacheHits.Inc()
}

// ObserveLookup implements geocode.Metrics.
func (c *Collector) ObserveLookup(outcome geocode.Outcome, d time.Duration) {
	if c == nil {
		return
	}
	c.GeocodeLookups.WithLabelValues(string(outcome)).Inc()
	c.GeocodeDurations.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

// OnEvent implements sequencer.Observer.
func (c *Collector) OnEvent(e sequencer.Event) {
	if c == nil || e.Type == sequencer.EventDone {
		return
	}
	c.SequencerEvents.WithLabelValues(string(e.Type)).Inc()
}

// ObserveFrame counts one integrated frame and records entity counts.
func (c *Collector) ObserveFrame(launching, orbiting int) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.Entities.WithLabelValues("launching").Set(float64(launching))
	c.Entities.WithLabelValues("orbiting").Set(float64(orbiting))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
