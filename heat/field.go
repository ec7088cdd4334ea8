// Package heat implements the particle-to-grid accumulation core: a decaying
// scalar density field over a bounded world rectangle, a Gaussian splat
// kernel, and a false-color resolver.
package heat

import (
	"fmt"
	"math"
)

// Field is a dense W×H scalar grid mapped onto a world rectangle.
// Cell values are non-negative heat intensities; every tick the whole buffer
// is attenuated by the decay factor and new samples are splatted on top.
type Field struct {
	W, H int

	// Cells holds intensities in row-major order (y*W + x).
	Cells []float32

	// World rectangle for coordinate mapping
	minX, minY float32
	maxX, maxY float32

	// Precomputed world->grid scale
	sx, sy float32

	// Per-tick multiplicative attenuation, in (0,1)
	decay float32
}

// NewField creates a field of w×h cells covering the world rectangle
// [(minX,minY),(maxX,maxY)] with the given per-tick decay factor.
func NewField(w, h int, minX, minY, maxX, maxY float32, decay float32) (*Field, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("field: grid dimensions must be positive, got %dx%d", w, h)
	}
	if !(maxX > minX) || !(maxY > minY) {
		return nil, fmt.Errorf("field: degenerate world rectangle [(%g,%g),(%g,%g)]", minX, minY, maxX, maxY)
	}
	if !(decay > 0 && decay < 1) {
		return nil, fmt.Errorf("field: decay factor must be in (0,1), got %g", decay)
	}

	return &Field{
		W: w, H: h,
		Cells: make([]float32, w*h),
		minX:  minX, minY: minY,
		maxX: maxX, maxY: maxY,
		sx:    float32(w) / (maxX - minX),
		sy:    float32(h) / (maxY - minY),
		decay: decay,
	}, nil
}

// DecayFactor returns the per-tick attenuation factor.
func (f *Field) DecayFactor() float32 { return f.decay }

// Decay attenuates every cell by the decay factor. Values fade geometrically
// toward zero and never go negative.
func (f *Field) Decay() {
	f.DecayRows(0, f.H)
}

// DecayRows attenuates the cells of rows [y0,y1). Row ranges are disjoint, so
// callers may run them concurrently.
func (f *Field) DecayRows(y0, y1 int) {
	d := f.decay
	for i := y0 * f.W; i < y1*f.W; i++ {
		f.Cells[i] *= d
	}
}

// Accumulate adds amount to cell (cx,cy) and reports whether the cell was
// inside the grid. Out-of-bounds coordinates are silently dropped: a splat
// centered near the edge legitimately spills past the mapped rectangle.
func (f *Field) Accumulate(cx, cy int, amount float32) bool {
	if cx < 0 || cx >= f.W || cy < 0 || cy >= f.H {
		return false
	}
	f.Cells[cy*f.W+cx] += amount
	return true
}

// WorldToCell maps a world position to fractional grid coordinates.
// The result is deliberately not clamped: positions outside the world
// rectangle map to out-of-range coordinates so that their splat region can
// still reach in-bounds cells.
func (f *Field) WorldToCell(wx, wy float32) (float32, float32) {
	return (wx - f.minX) * f.sx, (wy - f.minY) * f.sy
}

// At returns the value of cell (x,y), or 0 for out-of-range coordinates.
func (f *Field) At(x, y int) float32 {
	if x < 0 || x >= f.W || y < 0 || y >= f.H {
		return 0
	}
	return f.Cells[y*f.W+x]
}

// Sample returns the bilinearly interpolated intensity at a world position,
// clamping to the edge cells outside the rectangle.
func (f *Field) Sample(wx, wy float32) float32 {
	fx, fy := f.WorldToCell(wx, wy)

	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	x0 = clampInt(x0, 0, f.W-1)
	y0 = clampInt(y0, 0, f.H-1)
	x1 := clampInt(x0+1, 0, f.W-1)
	y1 := clampInt(y0+1, 0, f.H-1)

	a := f.Cells[y0*f.W+x0] + (f.Cells[y0*f.W+x1]-f.Cells[y0*f.W+x0])*tx
	b := f.Cells[y1*f.W+x0] + (f.Cells[y1*f.W+x1]-f.Cells[y1*f.W+x0])*tx
	return a + (b-a)*ty
}

// Reset clears every cell to zero without reallocating.
func (f *Field) Reset() {
	for i := range f.Cells {
		f.Cells[i] = 0
	}
}

// TotalMass returns the sum of all cell values.
func (f *Field) TotalMass() float32 {
	var sum float32
	for _, v := range f.Cells {
		sum += v
	}
	return sum
}

// Peak returns the maximum cell value.
func (f *Field) Peak() float32 {
	var max float32
	for _, v := range f.Cells {
		if v > max {
			max = v
		}
	}
	return max
}

// WorldRect returns the mapped world rectangle.
func (f *Field) WorldRect() (minX, minY, maxX, maxY float32) {
	return f.minX, f.minY, f.maxX, f.maxY
}

// Size returns the grid dimensions.
func (f *Field) Size() (int, int) {
	return f.W, f.H
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
