package sequencer

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/litescript/orbitlapse/internal/dataset"
	"github.com/litescript/orbitlapse/internal/geocode"
	"github.com/litescript/orbitlapse/internal/orbit"
)

// recordingLauncher keeps every launch in call order.
type recordingLauncher struct {
	mu    sync.Mutex
	specs []orbit.LaunchSpec
}

func (l *recordingLauncher) Launch(spec orbit.LaunchSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = append(l.specs, spec)
}

// stubResolver answers from a table; names in errs fail.
type stubResolver struct {
	coords map[string]geocode.Coordinate
	errs   map[string]error
	calls  []string
}

func (r *stubResolver) Resolve(_ context.Context, name string) (geocode.Coordinate, bool, error) {
	r.calls = append(r.calls, name)
	if err, ok := r.errs[name]; ok {
		return geocode.Coordinate{}, false, err
	}
	c, ok := r.coords[name]
	return c, ok, nil
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOrder(t *testing.T) {
	records := []dataset.LaunchRecord{
		{Name: "C", Date: date("1960-01-01")},
		{Name: "undated-1"},
		{Name: "A", Date: date("1957-10-04")},
		{Name: "B1", Date: date("1958-01-31")},
		{Name: "undated-2"},
		{Name: "B2", Date: date("1958-01-31")},
	}

	got := Order(records)
	want := []string{"A", "B1", "B2", "C", "undated-1", "undated-2"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Order()[%d] = %s, want %s", i, got[i].Name, name)
		}
	}
	if records[0].Name != "C" {
		t.Error("Order must not modify its input")
	}
}

func TestRun_SkipsFailsAndPaces(t *testing.T) {
	resolver := &stubResolver{
		coords: map[string]geocode.Coordinate{
			"Baikonur":       {Lat: 45.9, Lon: 63.3},
			"Cape Canaveral": {Lat: 28.5, Lon: -80.6},
		},
		errs: map[string]error{"Kourou": errors.New("timeout")},
	}
	launcher := &recordingLauncher{}

	var events []Event
	s := New(resolver, launcher, WithObserver(ObserverFunc(func(e Event) {
		events = append(events, e)
	})))
	var waits []time.Duration
	s.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	records := []dataset.LaunchRecord{
		{Name: "Sputnik 1", LaunchSite: "Baikonur", Date: date("1957-10-04")},
		{Name: "Lost", LaunchSite: "Atlantis", Date: date("1957-11-01")},
		{Name: "Explorer 1", LaunchSite: "Cape Canaveral", Date: date("1958-01-31")},
		{Name: "Asterix", LaunchSite: "Kourou", Date: date("1965-11-26")},
	}

	res, err := s.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res != (Result{Launched: 2, Skipped: 1, Failed: 1}) {
		t.Errorf("Result = %+v", res)
	}
	if res.Total() != 4 {
		t.Errorf("Total = %d, want 4", res.Total())
	}

	if len(waits) != 2 {
		t.Errorf("pauses = %d, want one per launch (2)", len(waits))
	}
	for _, w := range waits {
		if w != DefaultPacing {
			t.Errorf("pause = %v, want %v", w, DefaultPacing)
		}
	}

	wantTypes := []EventType{EventLaunched, EventSkipped, EventLaunched, EventFailed, EventDone}
	if len(events) != len(wantTypes) {
		t.Fatalf("events = %d, want %d", len(events), len(wantTypes))
	}
	for i, typ := range wantTypes {
		if events[i].Type != typ {
			t.Errorf("event[%d] = %s, want %s", i, events[i].Type, typ)
		}
	}
	if events[3].Err == nil {
		t.Error("failed event should carry the resolver error")
	}
	if last := events[len(events)-1]; last.Result != res || last.Index != 4 || last.Total != 4 {
		t.Errorf("done event = %+v", last)
	}

	wantCalls := []string{"Baikonur", "Atlantis", "Cape Canaveral", "Kourou"}
	for i, name := range wantCalls {
		if resolver.calls[i] != name {
			t.Errorf("resolve call %d = %s, want %s", i, resolver.calls[i], name)
		}
	}
}

func TestRun_SequentialResolution(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	lookup := geocode.LookupFunc(func(ctx context.Context, name string) ([]geocode.Candidate, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return []geocode.Candidate{{Lat: "1", Lon: "2"}}, nil
	})

	records := make([]dataset.LaunchRecord, 5)
	for i := range records {
		records[i] = dataset.LaunchRecord{LaunchSite: string(rune('A' + i)), Date: date("1970-01-01")}
	}

	s := New(geocode.NewResolver(lookup), &recordingLauncher{}, WithPacing(0))
	if _, err := s.Run(context.Background(), records); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if maxInFlight != 1 {
		t.Errorf("max concurrent resolutions = %d, want 1", maxInFlight)
	}
}

func TestRun_PacingDelaysNextLaunch(t *testing.T) {
	resolver := &stubResolver{coords: map[string]geocode.Coordinate{"X": {}}}
	launcher := &recordingLauncher{}
	s := New(resolver, launcher, WithPacing(30*time.Millisecond))

	records := []dataset.LaunchRecord{
		{LaunchSite: "X", Date: date("1990-01-01")},
		{LaunchSite: "X", Date: date("1990-01-02")},
		{LaunchSite: "X", Date: date("1990-01-03")},
	}

	start := time.Now()
	if _, err := s.Run(context.Background(), records); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("three paced launches took %v, want >= 90ms", elapsed)
	}
}

func TestRun_Cancelled(t *testing.T) {
	resolver := &stubResolver{coords: map[string]geocode.Coordinate{"X": {}}}
	launcher := &recordingLauncher{}

	ctx, cancel := context.WithCancel(context.Background())
	s := New(resolver, launcher, WithPacing(time.Hour),
		WithObserver(ObserverFunc(func(e Event) {
			if e.Type == EventLaunched {
				cancel()
			}
		})))

	records := []dataset.LaunchRecord{
		{LaunchSite: "X", Date: date("1990-01-01")},
		{LaunchSite: "X", Date: date("1990-01-02")},
	}

	res, err := s.Run(ctx, records)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.Launched != 1 || len(launcher.specs) != 1 {
		t.Errorf("launched = %d (%d specs), want 1", res.Launched, len(launcher.specs))
	}
}

func TestBuildSpec(t *testing.T) {
	rec := dataset.LaunchRecord{
		Name:        "Explorer 1",
		LaunchSite:  "Cape Canaveral",
		Date:        date("1958-01-31"),
		Owner:       "USA",
		Perigee:     347,
		Apogee:      2534,
		Inclination: 0.5,
		Period:      114,
	}
	spec := BuildSpec(rec, geocode.Coordinate{Lat: 28.5, Lon: -80.6})

	if spec.Lat != 28.5 || spec.Lon != -80.6 {
		t.Errorf("site = (%v, %v)", spec.Lat, spec.Lon)
	}
	if spec.Color != orbit.Color(dataset.ColorUSA) {
		t.Errorf("Color = %s, want USA colour", spec.Color.Hex())
	}
	if spec.Perigee != 347 || spec.Apogee != 2534 || spec.Period != 114 || spec.Inclination != 0.5 {
		t.Errorf("orbit fields not carried: %+v", spec)
	}
	if spec.Name != "Explorer 1" || spec.Site != "Cape Canaveral" || !spec.Date.Equal(rec.Date) {
		t.Errorf("identity fields not carried: %+v", spec)
	}
}

func TestEndToEnd_TwoLaunches(t *testing.T) {
	rows := []dataset.Row{
		{
			dataset.ColName: "Explorer 1", dataset.ColLaunchSite: "Cape Canaveral", dataset.ColLaunchDate: "1958-01-31",
			dataset.ColPerigee: 347.0, dataset.ColApogee: 2534.0, dataset.ColPeriod: 114.0, dataset.ColOwner: "USA",
		},
		{
			dataset.ColName: "Sputnik 1", dataset.ColLaunchSite: "Baikonur", dataset.ColLaunchDate: "1957-10-04",
			dataset.ColPerigee: 200.0, dataset.ColApogee: 939.0, dataset.ColPeriod: 96.0, dataset.ColOwner: "Russia",
		},
	}
	records := dataset.Normalize(rows)

	resolver := geocode.NewResolver(geocode.Static{
		"Baikonur":       {Lat: 45.9, Lon: 63.3},
		"Cape Canaveral": {Lat: 28.5, Lon: -80.6},
	})
	cfg := orbit.DefaultConfig()
	world := orbit.NewWorld(cfg)

	var launched []string
	s := New(resolver, world, WithPacing(0), WithObserver(ObserverFunc(func(e Event) {
		if e.Type == EventLaunched {
			launched = append(launched, e.Record.LaunchSite)
		}
	})))

	res, err := s.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Launched != 2 {
		t.Fatalf("Launched = %d, want 2", res.Launched)
	}
	if launched[0] != "Baikonur" || launched[1] != "Cape Canaveral" {
		t.Fatalf("launch order = %v, want Baikonur first", launched)
	}

	for i := 0; i < cfg.LaunchSteps; i++ {
		world.Tick()
	}

	entities := world.Entities()
	if len(entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(entities))
	}
	wantAlt := map[string]float64{"Baikonur": 569.5, "Cape Canaveral": 1440.5}
	for _, e := range entities {
		if e.State != orbit.StateOrbiting {
			t.Errorf("%s state = %s, want orbiting", e.Spec.Site, e.State)
			continue
		}
		want := cfg.PlanetRadius * (orbit.EarthRadiusKm + wantAlt[e.Spec.Site]) / orbit.EarthRadiusKm
		if math.Abs(e.Orbit.Radius-want) > 1e-12 {
			t.Errorf("%s radius = %v, want %v", e.Spec.Site, e.Orbit.Radius, want)
		}
	}
	if entities[0].Spec.Site != "Baikonur" {
		t.Errorf("first entity = %s, want Baikonur", entities[0].Spec.Site)
	}
}
