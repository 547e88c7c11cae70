package orbit

import "math"

// EarthRadiusKm is the physical radius mapped onto the planet's scene radius.
const EarthRadiusKm = 6371.0

// OrbitRadius scales a mean orbital altitude into scene units using the
// same ratio that maps EarthRadiusKm onto planetRadius.
func OrbitRadius(planetRadius, perigeeKm, apogeeKm float64) float64 {
	meanAltitude := (perigeeKm + apogeeKm) / 2
	return planetRadius * (EarthRadiusKm + meanAltitude) / EarthRadiusKm
}

// AngularSpeed returns radians per frame for an orbital period in minutes.
// One revolution takes period-in-seconds / compression frames.
func AngularSpeed(periodMinutes, compression float64) float64 {
	framesPerRev := (periodMinutes * 60) / compression
	return 2 * math.Pi / framesPerRev
}
