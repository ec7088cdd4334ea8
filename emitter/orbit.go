package emitter

import (
	"fmt"
	"math"

	"github.com/pthm-cable/heattrace/heat"
)

// OrbitOptions configures a Lissajous tracer.
type OrbitOptions struct {
	MinX, MinY float32
	MaxX, MaxY float32
	Rate       float32 // Samples per second
	FreqX      float32 // Horizontal cycles per second
	FreqY      float32 // Vertical cycles per second
	Margin     float32 // Fraction of the half-extent kept clear of the path
}

// Orbit emits samples along a Lissajous curve inside the configured bounds.
// The path is a pure function of simulation time, so runs with the same
// settings produce identical sample streams.
type Orbit struct {
	cx, cy float32
	hw, hh float32
	rate   float32
	freqX  float32
	freqY  float32
	acc    float32
}

// NewOrbit creates an orbit tracer.
func NewOrbit(opts OrbitOptions) (*Orbit, error) {
	if opts.MaxX <= opts.MinX || opts.MaxY <= opts.MinY {
		return nil, fmt.Errorf("orbit bounds are degenerate: [%v,%v]x[%v,%v]",
			opts.MinX, opts.MaxX, opts.MinY, opts.MaxY)
	}
	if opts.Rate < 0 {
		return nil, fmt.Errorf("orbit rate must be non-negative, got %v", opts.Rate)
	}
	if opts.Margin < 0 || opts.Margin >= 1 {
		return nil, fmt.Errorf("orbit margin must be in [0,1), got %v", opts.Margin)
	}

	return &Orbit{
		cx:    (opts.MinX + opts.MaxX) / 2,
		cy:    (opts.MinY + opts.MaxY) / 2,
		hw:    (opts.MaxX - opts.MinX) / 2 * (1 - opts.Margin),
		hh:    (opts.MaxY - opts.MinY) / 2 * (1 - opts.Margin),
		rate:  opts.Rate,
		freqX: opts.FreqX,
		freqY: opts.FreqY,
	}, nil
}

// PositionAt returns the tracer position at the given simulation time.
func (o *Orbit) PositionAt(simTime float64) (float32, float32) {
	x := o.cx + o.hw*float32(math.Sin(2*math.Pi*float64(o.freqX)*simTime))
	y := o.cy + o.hh*float32(math.Cos(2*math.Pi*float64(o.freqY)*simTime))
	return x, y
}

// Samples returns the samples emitted during the given tick, evaluated at
// the tick's start time. All of a tick's samples share one position.
func (o *Orbit) Samples(tick int32, dt float32) ([]heat.Sample, error) {
	x, y := o.PositionAt(float64(tick) * float64(dt))

	o.acc += o.rate * dt
	var out []heat.Sample
	for o.acc >= 1 {
		out = append(out, heat.Sample{X: x, Y: y})
		o.acc--
	}
	return out, nil
}
