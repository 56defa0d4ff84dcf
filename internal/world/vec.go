package world

import "math"

// Vec3 is a world position or velocity. Y is up; gameplay distances are
// measured on the XZ plane.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3       { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3       { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(f float64) Vec3  { return Vec3{a.X * f, a.Y * f, a.Z * f} }
func (a Vec3) Len2D() float64        { return math.Hypot(a.X, a.Z) }
func (a Vec3) Dist2D(b Vec3) float64 { return math.Hypot(a.X-b.X, a.Z-b.Z) }

// Dist2DSq is the squared XZ distance.
func (a Vec3) Dist2DSq(b Vec3) float64 {
	dx, dz := a.X-b.X, a.Z-b.Z
	return dx*dx + dz*dz
}

// Dir2D returns the unit XZ direction from a to b, or zero when they coincide.
func (a Vec3) Dir2D(b Vec3) Vec3 {
	dx, dz := b.X-a.X, b.Z-a.Z
	l := math.Hypot(dx, dz)
	if l < 1e-9 {
		return Vec3{}
	}
	return Vec3{X: dx / l, Z: dz / l}
}

// Polar returns a point at angle/dist around a on the XZ plane.
func (a Vec3) Polar(angle, dist float64) Vec3 {
	return Vec3{X: a.X + math.Cos(angle)*dist, Y: a.Y, Z: a.Z + math.Sin(angle)*dist}
}
