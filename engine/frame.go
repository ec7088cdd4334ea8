package engine

import "image/color"

// Frame is one resolved RGBA view of the density field. Pixels is row-major
// with stride W, matching the field's cell layout.
type Frame struct {
	W, H   int
	Tick   int32
	Pixels []color.RGBA
}

func newFrame(w, h int) *Frame {
	return &Frame{W: w, H: h, Pixels: make([]color.RGBA, w*h)}
}

// At returns the pixel at (x, y). Out-of-range coordinates return the zero
// color.
func (f *Frame) At(x, y int) color.RGBA {
	if x < 0 || x >= f.W || y < 0 || y >= f.H {
		return color.RGBA{}
	}
	return f.Pixels[y*f.W+x]
}

// Clone returns a deep copy for observers that retain frames beyond the
// notification callback.
func (f *Frame) Clone() *Frame {
	c := &Frame{W: f.W, H: f.H, Tick: f.Tick, Pixels: make([]color.RGBA, len(f.Pixels))}
	copy(c.Pixels, f.Pixels)
	return c
}
