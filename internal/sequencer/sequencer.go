// Package sequencer replays launch records in date order, resolving each
// launch site and handing the launch to the orbit world at a fixed pace.
package sequencer

import (
	"context"
	"sort"
	"time"

	"github.com/litescript/orbitlapse/internal/dataset"
	"github.com/litescript/orbitlapse/internal/geocode"
	"github.com/litescript/orbitlapse/internal/logging"
	"github.com/litescript/orbitlapse/internal/orbit"
)

// DefaultPacing is the pause after each successful launch.
const DefaultPacing = 300 * time.Millisecond

// Resolver turns a launch site name into a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, name string) (geocode.Coordinate, bool, error)
}

// Launcher accepts a launch for animation. It must not block.
type Launcher interface {
	Launch(spec orbit.LaunchSpec)
}

// Result counts what happened to each record.
type Result struct {
	Launched int
	Skipped  int // site not found
	Failed   int // resolver error
}

// Total returns the number of records processed.
func (r Result) Total() int {
	return r.Launched + r.Skipped + r.Failed
}

// Sequencer processes records strictly one at a time.
type Sequencer struct {
	resolver  Resolver
	launcher  Launcher
	pacing    time.Duration
	log       *logging.Logger
	observers []Observer

	// wait pauses between launches; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithPacing sets the pause after each launch. Zero disables it.
func WithPacing(d time.Duration) Option {
	return func(s *Sequencer) {
		s.pacing = d
	}
}

// WithLogger sets the sequencer's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Sequencer) {
		s.log = l
	}
}

// WithObserver registers an observer for sequencer events. May be repeated.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) {
		s.observers = append(s.observers, o)
	}
}

// New creates a sequencer.
func New(resolver Resolver, launcher Launcher, opts ...Option) *Sequencer {
	s := &Sequencer{
		resolver: resolver,
		launcher: launcher,
		pacing:   DefaultPacing,
		log:      logging.Discard(),
		wait:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes records in ascending launch date order until all are done
// or ctx is cancelled. The returned error is non-nil only on cancellation.
func (s *Sequencer) Run(ctx context.Context, records []dataset.LaunchRecord) (Result, error) {
	ordered := Order(records)
	total := len(ordered)
	var res Result

	s.log.Info("sequencing %d records, %v between launches", total, s.pacing)

	for i, rec := range ordered {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		coord, ok, err := s.resolver.Resolve(ctx, rec.LaunchSite)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			s.log.Warn("resolve %q for %s: %v", rec.LaunchSite, rec.Name, err)
			s.emit(Event{Type: EventFailed, Index: i, Total: total, Record: rec, Err: err})
			continue
		}

		if !ok {
			res.Skipped++
			s.log.Debug("skip %s: site %q not found", rec.Name, rec.LaunchSite)
			s.emit(Event{Type: EventSkipped, Index: i, Total: total, Record: rec})
			continue
		}

		s.launcher.Launch(BuildSpec(rec, coord))
		res.Launched++
		s.log.Debug("launched %s from %s (%.2f, %.2f)", rec.Name, rec.LaunchSite, coord.Lat, coord.Lon)
		s.emit(Event{Type: EventLaunched, Index: i, Total: total, Record: rec, Coord: coord})

		if s.pacing > 0 {
			if err := s.wait(ctx, s.pacing); err != nil {
				return res, err
			}
		}
	}

	s.log.Info("sequence complete: %d launched, %d skipped, %d failed", res.Launched, res.Skipped, res.Failed)
	s.emit(Event{Type: EventDone, Index: total, Total: total, Result: res})
	return res, nil
}

func (s *Sequencer) emit(e Event) {
	e.Time = time.Now()
	for _, o := range s.observers {
		o.OnEvent(e)
	}
}

// Order returns records sorted ascending by Date. The sort is stable, and
// records without a date go last in their original order.
func Order(records []dataset.LaunchRecord) []dataset.LaunchRecord {
	out := make([]dataset.LaunchRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.Before(b)
		}
	})
	return out
}

// BuildSpec combines a record and its resolved site into a launch.
func BuildSpec(rec dataset.LaunchRecord, coord geocode.Coordinate) orbit.LaunchSpec {
	return orbit.LaunchSpec{
		Name:        rec.Name,
		Site:        rec.LaunchSite,
		Owner:       rec.Owner,
		Date:        rec.Date,
		Lat:         coord.Lat,
		Lon:         coord.Lon,
		Color:       orbit.Color(dataset.ColorForOwner(rec.Owner)),
		Perigee:     rec.Perigee,
		Apogee:      rec.Apogee,
		Inclination: rec.Inclination,
		Period:      rec.Period,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
