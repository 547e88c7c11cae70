package orbit

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Config holds the orbit model constants.
type Config struct {
	PlanetRadius    float64 // scene units
	CloudRadius     float64 // scene units
	ShellFactor     float64 // launch end radius = base radius * ShellFactor
	LaunchSteps     int     // frames from surface to shell
	TimeCompression float64 // simulated seconds per frame
	SpinRate        float64 // body rotation, radians per frame
}

// DefaultConfig returns the standard globe: radius 2, shell at 1.4x,
// 100-step launches, 10x time compression and 0.001 rad/frame spin.
func DefaultConfig() Config {
	return Config{
		PlanetRadius:    2,
		CloudRadius:     2.1,
		ShellFactor:     1.4,
		LaunchSteps:     100,
		TimeCompression: 10,
		SpinRate:        0.001,
	}
}

// Body is a rotating sphere of the scene (planet, cloud layer).
type Body struct {
	Name   string
	Radius float64
	Spin   float64 // rotation about Y, radians
}

// World owns the planet, the cloud layer and every launched entity.
//
// Launch is safe to call from any goroutine. Every other method must be
// called from the single goroutine that drives Tick.
type World struct {
	cfg Config
	rng *rand.Rand

	mu    sync.Mutex
	inbox []LaunchSpec

	planet *Body
	clouds *Body
	bodies []*Body

	entities  []*Entity
	launching []*Entity
	orbiting  []*Entity

	frame  uint64
	nextID int

	onOrbit func(Entity)
}

// Option configures a World.
type Option func(*World)

// WithRand sets the source for initial orbit phases.
func WithRand(r *rand.Rand) Option {
	return func(w *World) {
		w.rng = r
	}
}

// WithOrbitHook registers fn to run when an entity reaches orbit.
func WithOrbitHook(fn func(Entity)) Option {
	return func(w *World) {
		w.onOrbit = fn
	}
}

// NewWorld creates a world with a planet and cloud layer at rest.
func NewWorld(cfg Config, opts ...Option) *World {
	if cfg.LaunchSteps <= 0 {
		cfg.LaunchSteps = DefaultConfig().LaunchSteps
	}
	if cfg.TimeCompression <= 0 {
		cfg.TimeCompression = DefaultConfig().TimeCompression
	}
	if cfg.CloudRadius <= 0 {
		cfg.CloudRadius = cfg.PlanetRadius * 1.05
	}

	w := &World{
		cfg:    cfg,
		planet: &Body{Name: "planet", Radius: cfg.PlanetRadius},
		clouds: &Body{Name: "clouds", Radius: cfg.CloudRadius},
	}
	w.bodies = []*Body{w.planet, w.clouds}

	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return w
}

// Config returns the world's configuration.
func (w *World) Config() Config {
	return w.cfg
}

// Launch queues a launch. The entity appears on the next Tick.
func (w *World) Launch(spec LaunchSpec) {
	w.mu.Lock()
	w.inbox = append(w.inbox, spec)
	w.mu.Unlock()
}

// Queued returns the number of launches waiting for the next Tick.
func (w *World) Queued() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inbox)
}

// Tick advances the world by one frame: queued launches spawn, bodies
// spin, orbiting entities advance, then launch animations step. An entity
// that reaches orbit during this tick starts advancing on the next one.
func (w *World) Tick() {
	w.frame++

	w.spawnQueued()

	for _, b := range w.bodies {
		b.Spin += w.cfg.SpinRate
	}

	for _, e := range w.orbiting {
		e.Orbit.Phase += e.Orbit.Speed
		e.Position.X = e.Orbit.Radius * math.Cos(e.Orbit.Phase)
		e.Position.Z = e.Orbit.Radius * math.Sin(e.Orbit.Phase)
	}

	w.stepLaunches()
}

func (w *World) spawnQueued() {
	w.mu.Lock()
	queued := w.inbox
	w.inbox = nil
	w.mu.Unlock()

	for _, spec := range queued {
		w.spawn(spec)
	}
}

func (w *World) spawn(spec LaunchSpec) *Entity {
	base := spec.BaseRadius
	if base <= 0 {
		base = w.cfg.PlanetRadius
	}

	w.nextID++
	e := &Entity{
		ID:          w.nextID,
		Spec:        spec,
		State:       StateLaunching,
		start:       LatLonToPosition(spec.Lat, spec.Lon, base),
		end:         LatLonToPosition(spec.Lat, spec.Lon, base*w.cfg.ShellFactor),
		LaunchFrame: w.frame,
	}
	e.Local = e.start
	e.Position = RotateY(e.Local, w.planet.Spin)

	w.entities = append(w.entities, e)
	w.launching = append(w.launching, e)
	return e
}

// stepLaunches advances every launch animation by one step and moves the
// finished ones into orbit.
func (w *World) stepLaunches() {
	steps := w.cfg.LaunchSteps
	remaining := w.launching[:0]

	for _, e := range w.launching {
		e.step++
		e.Local = Lerp(e.start, e.end, float64(e.step)/float64(steps))
		e.Position = RotateY(e.Local, w.planet.Spin)

		if e.step < steps {
			remaining = append(remaining, e)
			continue
		}
		w.enterOrbit(e)
	}

	// Clear the tail so finished entities are not pinned by the backing array.
	for i := len(remaining); i < len(w.launching); i++ {
		w.launching[i] = nil
	}
	w.launching = remaining
}

// enterOrbit detaches e from the planet frame. The world position computed
// from the planet's current spin becomes the starting point; from here on
// Position is world space only.
func (w *World) enterOrbit(e *Entity) {
	e.Position = RotateY(e.end, w.planet.Spin)
	e.Local = Vec3{}
	e.Orbit = OrbitParams{
		Radius:      OrbitRadius(w.cfg.PlanetRadius, e.Spec.Perigee, e.Spec.Apogee),
		Inclination: e.Spec.Inclination,
		Phase:       w.rng.Float64() * 2 * math.Pi,
		Speed:       AngularSpeed(e.Spec.Period, w.cfg.TimeCompression),
	}
	e.State = StateOrbiting
	e.OrbitFrame = w.frame

	w.orbiting = append(w.orbiting, e)
	if w.onOrbit != nil {
		w.onOrbit(*e)
	}
}

// Frame returns the number of ticks so far.
func (w *World) Frame() uint64 {
	return w.frame
}

// Planet returns a copy of the planet body.
func (w *World) Planet() Body {
	return *w.planet
}

// Clouds returns a copy of the cloud layer body.
func (w *World) Clouds() Body {
	return *w.clouds
}

// Counts returns the number of launching and orbiting entities.
func (w *World) Counts() (launching, orbiting int) {
	return len(w.launching), len(w.orbiting)
}

// Idle reports whether nothing is queued or mid-launch.
func (w *World) Idle() bool {
	return len(w.launching) == 0 && w.Queued() == 0
}

// Entities returns copies of all entities in spawn order.
func (w *World) Entities() []Entity {
	out := make([]Entity, len(w.entities))
	for i, e := range w.entities {
		out[i] = *e
	}
	return out
}

// Snapshot is a copy of the world for rendering.
type Snapshot struct {
	Frame     uint64
	Planet    Body
	Clouds    Body
	Entities  []Entity
	Launching int
	Orbiting  int
	Queued    int
	Steps     int
}

// Snapshot copies the current world state.
func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Frame:     w.frame,
		Planet:    *w.planet,
		Clouds:    *w.clouds,
		Entities:  w.Entities(),
		Launching: len(w.launching),
		Orbiting:  len(w.orbiting),
		Queued:    w.Queued(),
		Steps:     w.cfg.LaunchSteps,
	}
}
