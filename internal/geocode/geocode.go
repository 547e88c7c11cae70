// Package geocode resolves launch site names to coordinates through an
// external directory service, caching every answer for the life of the
// process.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/litescript/orbitlapse/internal/logging"
)

const tracerName = "github.com/litescript/orbitlapse/internal/geocode"

// ErrMalformedResponse is returned when the service answers with something
// that cannot be read as a candidate list.
var ErrMalformedResponse = errors.New("malformed geocode response")

// Coordinate is a geographic position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Candidate is one match returned by a Lookup. Lat and Lon are decimal
// strings, as the directory service sends them.
type Candidate struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name,omitempty"`
}

// Lookup queries an external directory for a place name. An empty result
// means no match.
type Lookup interface {
	Lookup(ctx context.Context, name string) ([]Candidate, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, name string) ([]Candidate, error)

// Lookup implements Lookup.
func (f LookupFunc) Lookup(ctx context.Context, name string) ([]Candidate, error) {
	return f(ctx, name)
}

// Outcome labels a resolution for metrics.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
)

// Metrics receives resolver measurements.
type Metrics interface {
	CacheHit()
	ObserveLookup(outcome Outcome, d time.Duration)
}

// Stats counts resolver activity.
type Stats struct {
	Hits     int // answered from cache
	Misses   int // external lookups issued
	NotFound int // lookups that returned no match
	Failures int // lookups that failed; not cached
}

// cacheEntry is a resolved answer; found=false is a cached "no match".
type cacheEntry struct {
	coord Coordinate
	found bool
}

// Resolver resolves names through a Lookup with an unbounded cache.
// Concurrent misses for the same name are not merged; each issues its own
// lookup.
type Resolver struct {
	lookup  Lookup
	log     *logging.Logger
	metrics Metrics
	tracer  trace.Tracer

	mu    sync.Mutex
	cache map[string]cacheEntry
	stats Stats
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l *logging.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a resolver backed by lookup.
func NewResolver(lookup Lookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lookup: lookup,
		log:    logging.Discard(),
		tracer: otel.Tracer(tracerName),
		cache:  make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the coordinate for name. ok is false when the service
// knows no such place; that answer is cached like any other. Lookup errors
// are returned and not cached, so a later call retries.
func (r *Resolver) Resolve(ctx context.Context, name string) (coord Coordinate, ok bool, err error) {
	r.mu.Lock()
	if entry, hit := r.cache[name]; hit {
		r.stats.Hits++
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.CacheHit()
		}
		return entry.coord, entry.found, nil
	}
	r.stats.Misses++
	r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "geocode.lookup", trace.WithAttributes(
		attribute.String("geocode.name", name),
	))
	defer span.End()

	start := time.Now()
	entry, err := r.lookupOnce(ctx, name)
	elapsed := time.Since(start)

	if err != nil {
		r.mu.Lock()
		r.stats.Failures++
		r.mu.Unlock()
		r.observe(OutcomeError, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Warn("lookup %q failed after %v: %v", name, elapsed.Round(time.Millisecond), err)
		return Coordinate{}, false, err
	}

	r.mu.Lock()
	r.cache[name] = entry
	if !entry.found {
		r.stats.NotFound++
	}
	r.mu.Unlock()

	span.SetAttributes(attribute.Bool("geocode.found", entry.found))
	if entry.found {
		r.observe(OutcomeFound, elapsed)
		r.log.Debug("resolved %q to (%.4f, %.4f) in %v", name, entry.coord.Lat, entry.coord.Lon, elapsed.Round(time.Millisecond))
	} else {
		r.observe(OutcomeNotFound, elapsed)
		r.log.Debug("no match for %q", name)
	}
	return entry.coord, entry.found, nil
}

func (r *Resolver) lookupOnce(ctx context.Context, name string) (cacheEntry, error) {
	candidates, err := r.lookup.Lookup(ctx, name)
	if err != nil {
		return cacheEntry{}, err
	}
	if len(candidates) == 0 {
		return cacheEntry{found: false}, nil
	}

	coord, err := candidates[0].Coordinate()
	if err != nil {
		return cacheEntry{}, err
	}
	return cacheEntry{coord: coord, found: true}, nil
}

func (r *Resolver) observe(outcome Outcome, d time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveLookup(outcome, d)
	}
}

// Stats returns a copy of the resolver counters.
func (r *Resolver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Len returns the number of cached names, including cached misses.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Coordinate parses the candidate's lat/lon strings.
func (c Candidate) Coordinate() (Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(c.Lat), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: lat %q", ErrMalformedResponse, c.Lat)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(c.Lon), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: lon %q", ErrMalformedResponse, c.Lon)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}
