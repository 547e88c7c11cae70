// Package orbit animates launched objects from the planet surface into
// circular orbits and advances them once per frame.
package orbit

import "math"

// Vec3 is a point or offset in scene units. Y is the planet's spin axis.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{X: v.X + u.X, Y: v.Y + u.Y, Z: v.Z + u.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

// Lerp interpolates linearly from a (t=0) to b (t=1).
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Scale(t))
}

// RotateY rotates v by angle radians about the Y axis (right-handed).
func RotateY(v Vec3, angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// RotateX rotates v by angle radians about the X axis (right-handed).
func RotateX(v Vec3, angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	return Vec3{
		X: v.X,
		Y: v.Y*cos - v.Z*sin,
		Z: v.Y*sin + v.Z*cos,
	}
}

// LatLonToPosition maps geographic degrees onto a sphere of radius r
// centred at the origin. Latitude 90 is +Y; longitude 0 is +X.
func LatLonToPosition(lat, lon, r float64) Vec3 {
	phi := degToRad(90 - lat)
	theta := degToRad(lon + 180)
	return Vec3{
		X: -r * math.Sin(phi) * math.Cos(theta),
		Y: r * math.Cos(phi),
		Z: r * math.Sin(phi) * math.Sin(theta),
	}
}

// PositionToLatLon inverts LatLonToPosition for a non-zero point, returning
// latitude in [-90, 90] and longitude in [-180, 180) degrees.
func PositionToLatLon(p Vec3) (lat, lon float64) {
	r := p.Norm()
	if r == 0 {
		return 0, 0
	}
	lat = 90 - radToDeg(math.Acos(math.Max(-1, math.Min(1, p.Y/r))))
	lon = radToDeg(math.Atan2(p.Z, -p.X)) - 180
	if lon < -180 {
		lon += 360
	}
	return lat, lon
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
