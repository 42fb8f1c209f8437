package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// Distance returns the euclidean distance between two points.
func Distance(a, b r2.Point) float64 {
	return b.Sub(a).Norm()
}

// Bearing returns the angle, in radians from the +X axis, of the ray that starts at `from` and
// passes through `to`. Coincident points have a bearing of zero.
func Bearing(from, to r2.Point) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// PointAlongBearing returns the point `dist` away from `from` in the direction `bearing`.
func PointAlongBearing(from r2.Point, bearing, dist float64) r2.Point {
	return r2.Point{
		X: from.X + dist*math.Cos(bearing),
		Y: from.Y + dist*math.Sin(bearing),
	}
}

// AngleBetween returns the unsigned angle in [0, pi] between two direction vectors. The second
// return value is false if either vector has zero length, in which case no angle is defined.
func AngleBetween(u, v r2.Point) (float64, bool) {
	nu, nv := u.Norm(), v.Norm()
	if nu == 0 || nv == 0 {
		return 0, false
	}
	// Clamp for acos; rounding can push parallel vectors just past +-1.
	cos := math.Max(-1, math.Min(1, u.Dot(v)/(nu*nv)))
	return math.Acos(cos), true
}

// Interpolate returns the point `by` of the way from a to b. by=0 gives a and by=1 gives b.
func Interpolate(a, b r2.Point, by float64) r2.Point {
	return a.Add(b.Sub(a).Mul(by))
}

// NormalizeAngle wraps an angle in radians into (-pi, pi].
func NormalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	} else if theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

// R2PointAlmostEqual returns whether the two points are within epsilon of each other on every axis.
func R2PointAlmostEqual(a, b r2.Point, epsilon float64) bool {
	return math.Abs(a.X-b.X) <= epsilon && math.Abs(a.Y-b.Y) <= epsilon
}
