package orbit

import (
	"fmt"
	"time"
)

// State is the lifecycle stage of an entity.
type State int

const (
	// StateLaunching: climbing from the surface to the orbital shell,
	// carried along by the planet's spin.
	StateLaunching State = iota
	// StateOrbiting: circling in world space, independent of the planet.
	StateOrbiting
)

func (s State) String() string {
	switch s {
	case StateLaunching:
		return "launching"
	case StateOrbiting:
		return "orbiting"
	default:
		return "unknown"
	}
}

// Color is a 0xRRGGBB display colour.
type Color uint32

// Hex returns the colour as "#RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06X", uint32(c)&0xffffff)
}

// LaunchSpec describes one launch handed to a World.
type LaunchSpec struct {
	Name  string
	Site  string
	Owner string
	Date  time.Time

	Lat, Lon   float64 // launch site, degrees
	BaseRadius float64 // surface radius; 0 means the planet radius
	Color      Color

	Perigee     float64 // km
	Apogee      float64 // km
	Inclination float64 // radians; stored, not applied to positions
	Period      float64 // minutes
}

// OrbitParams drive an orbiting entity. Phase advances by Speed each frame.
type OrbitParams struct {
	Radius      float64 // scene units
	Inclination float64 // radians
	Phase       float64 // radians
	Speed       float64 // radians per frame
}

// Entity is one launched object.
type Entity struct {
	ID    int
	Spec  LaunchSpec
	State State

	// Local is the offset in the planet's rotating frame. Only meaningful
	// while launching.
	Local Vec3
	// Position is the world-space position.
	Position Vec3

	Orbit OrbitParams

	// Frames counted from spawn to the orbit transition.
	LaunchFrame uint64
	OrbitFrame  uint64

	start, end Vec3
	step       int
}

// Progress returns launch progress in [0, 1] for the given step count.
func (e Entity) Progress(steps int) float64 {
	if e.State == StateOrbiting || steps <= 0 {
		return 1
	}
	return float64(e.step) / float64(steps)
}
