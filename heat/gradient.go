package heat

import (
	"fmt"
	"image/color"
	"math"
)

// responseExp is the compressive exponent applied to normalized intensity
// before color lookup. Sub-linear so faint trails stay visible against the
// fixed ceiling.
const responseExp = 0.6

// Gradient is the fixed three-stop color ramp. Stop alpha channels are
// ignored; the resolver applies one uniform alpha to every pixel.
type Gradient struct {
	Cold color.RGBA
	Mid  color.RGBA
	Hot  color.RGBA
}

// Resolver converts raw field intensities into RGBA pixels. Normalization
// uses a fixed ceiling rather than the running field maximum, so one spiking
// cell cannot rescale the whole display between frames.
type Resolver struct {
	ceiling    float32
	invCeiling float32
	gradient   Gradient
	alpha      uint8
}

// NewResolver creates a resolver with the given normalization ceiling,
// gradient stops, and uniform output alpha.
func NewResolver(ceiling float32, g Gradient, alpha uint8) (*Resolver, error) {
	if !(ceiling > 0) || !isFinite(ceiling) {
		return nil, fmt.Errorf("resolver: ceiling must be positive and finite, got %g", ceiling)
	}
	return &Resolver{
		ceiling:    ceiling,
		invCeiling: 1 / ceiling,
		gradient:   g,
		alpha:      alpha,
	}, nil
}

// Ceiling returns the fixed normalization ceiling.
func (r *Resolver) Ceiling() float32 { return r.ceiling }

// Alpha returns the uniform output alpha.
func (r *Resolver) Alpha() uint8 { return r.alpha }

// Resolve fills dst with the false-color rendering of the whole field.
// dst must hold W*H pixels, row-major to match the field layout.
func (r *Resolver) Resolve(f *Field, dst []color.RGBA) {
	r.ResolveRows(f, dst, 0, f.H)
}

// ResolveRows colorizes rows [y0,y1) of the field into dst. Row ranges are
// disjoint, so callers may run them concurrently.
func (r *Resolver) ResolveRows(f *Field, dst []color.RGBA, y0, y1 int) {
	for i := y0 * f.W; i < y1*f.W; i++ {
		dst[i] = r.ColorAt(f.Cells[i])
	}
}

// ColorAt maps one raw intensity to its display color. Zero intensity
// resolves to the cold stop, never to a transparent pixel; values at or
// above the ceiling saturate at the hot stop.
func (r *Resolver) ColorAt(value float32) color.RGBA {
	if value <= 0 {
		c := r.gradient.Cold
		c.A = r.alpha
		return c
	}
	n := clamp01(float32(math.Pow(float64(value*r.invCeiling), responseExp)))

	var c color.RGBA
	if n < 0.5 {
		t := n * 2
		c = lerpColor(r.gradient.Cold, r.gradient.Mid, t)
	} else {
		t := (n - 0.5) * 2
		c = lerpColor(r.gradient.Mid, r.gradient.Hot, t)
	}
	c.A = r.alpha
	return c
}

// lerpColor interpolates each channel linearly; t must be in [0,1].
func lerpColor(a, b color.RGBA, t float32) color.RGBA {
	return color.RGBA{
		R: uint8(float32(a.R) + (float32(b.R)-float32(a.R))*t),
		G: uint8(float32(a.G) + (float32(b.G)-float32(a.G))*t),
		B: uint8(float32(a.B) + (float32(b.B)-float32(a.B))*t),
	}
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
