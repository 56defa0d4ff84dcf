// Package terrain holds the arena ground-height function and bounds helpers.
// Everything here is pure: same inputs, same outputs.
package terrain

import "math"

const (
	// DefaultAmplitude is the peak-to-centre height of the rolling hills.
	DefaultAmplitude = 2.5
	// PlateauRadius is the flat area around the origin where runs start.
	PlateauRadius = 12.0
	plateauBlend  = 8.0
)

// Height returns ground height at (x, z) for the given map seed using the
// default amplitude.
func Height(x, z float64, seed int64) float64 {
	return HeightAmp(x, z, seed, DefaultAmplitude)
}

// HeightAmp is Height with an explicit amplitude (per-map terrain roughness).
func HeightAmp(x, z float64, seed int64, amp float64) float64 {
	if amp <= 0 {
		return 0
	}
	s := float64(seed%10007) * 0.618
	h := math.Sin(x*0.045+s)*math.Cos(z*0.05+s*0.7) +
		0.5*math.Sin(x*0.11+z*0.09+s*1.3) +
		0.25*math.Cos(x*0.23-z*0.19+s*2.1)
	h *= amp / 1.75

	// Blend to flat ground inside the starting plateau.
	d := math.Hypot(x, z)
	if d <= PlateauRadius {
		return 0
	}
	if d < PlateauRadius+plateauBlend {
		t := (d - PlateauRadius) / plateauBlend
		h *= t * t * (3 - 2*t)
	}
	return h
}

// Bounds is a square arena centred on the origin.
type Bounds struct {
	Half float64
}

// Clamp pulls (x, z) inside the arena.
func (b Bounds) Clamp(x, z float64) (float64, float64) {
	return clamp(x, -b.Half, b.Half), clamp(z, -b.Half, b.Half)
}

// Contains reports whether (x, z) lies inside the arena (inclusive).
func (b Bounds) Contains(x, z float64) bool {
	return x >= -b.Half && x <= b.Half && z >= -b.Half && z <= b.Half
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
