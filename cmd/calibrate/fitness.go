package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/heattrace/config"
	"github.com/pthm-cable/heattrace/engine"
	"github.com/pthm-cable/heattrace/heat"
)

// Targets describe the desired heat response.
type Targets struct {
	Fill        float64 // Steady peak as a fraction of the color ceiling
	HalfLifeSec float64 // Seconds for the peak to halve after the source stops
	HalfRadius  float64 // Cells from the peak to half the peak value
}

// Measure holds the response measured from one run.
type Measure struct {
	Fill        float64
	HalfLifeSec float64
	HalfRadius  float64
}

// centerSource emits one sample per tick at a fixed world position while
// active. It drives the calibration runs.
type centerSource struct {
	x, y   float32
	active bool
}

func (c *centerSource) Samples(tick int32, dt float32) ([]heat.Sample, error) {
	if !c.active {
		return nil, nil
	}
	return []heat.Sample{{X: c.x, Y: c.y}}, nil
}

// FitnessEvaluator runs headless pipelines and scores parameter vectors.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	targets    Targets
	baseConfig *config.Config

	mu          sync.Mutex
	lastMeasure Measure
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, targets Targets, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		targets:    targets,
		baseConfig: baseCfg,
	}
}

// LastMeasure returns the response measured by the most recent evaluation.
func (fe *FitnessEvaluator) LastMeasure() Measure {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMeasure
}

// Ticks the peak must hold steady, within relative tolerance, before the
// warmup counts as converged.
const (
	steadyTicks     = 10
	steadyTolerance = 1e-4
)

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the summed squared relative error against the targets.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	m, err := fe.runSimulation(x)
	if err != nil {
		// Reject parameter combinations the pipeline refuses to build
		return 1e9
	}

	t := fe.targets
	fill := relErr(m.Fill, t.Fill)
	life := relErr(m.HalfLifeSec, t.HalfLifeSec)
	radius := relErr(m.HalfRadius, t.HalfRadius)
	fitness := fill*fill + life*life + radius*radius

	fe.mu.Lock()
	fe.lastMeasure = m
	fe.mu.Unlock()

	return fitness
}

// runSimulation measures the heat response for one parameter vector: drive
// a stationary source until the peak settles, read off fill and half
// radius, then cut the source and time the peak's fall to half.
func (fe *FitnessEvaluator) runSimulation(x []float64) (Measure, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	src := &centerSource{
		x:      (cfg.Derived.WorldMinX + cfg.Derived.WorldMaxX) / 2,
		y:      (cfg.Derived.WorldMinY + cfg.Derived.WorldMaxY) / 2,
		active: true,
	}
	eng, err := engine.FromConfig(cfg, engine.Options{Emitter: src, Workers: 1})
	if err != nil {
		return Measure{}, err
	}
	defer eng.Close()

	var peak, prev float32
	stable := 0
	for tick := int32(0); tick < fe.maxTicks; tick++ {
		eng.Tick()
		peak = eng.Field().Peak()
		if prev > 0 && math.Abs(float64(peak-prev)) < steadyTolerance*float64(peak) {
			stable++
			if stable >= steadyTicks {
				break
			}
		} else {
			stable = 0
		}
		prev = peak
	}

	m := Measure{
		Fill:       float64(peak) / cfg.Color.Ceiling,
		HalfRadius: halfRadius(eng.Field()),
	}

	src.active = false
	half := peak / 2
	ticks := int32(0)
	for peak > half && ticks < fe.maxTicks {
		eng.Tick()
		peak = eng.Field().Peak()
		ticks++
	}
	m.HalfLifeSec = float64(ticks) * float64(eng.DT())

	return m, nil
}

// copyConfig copies the base config. Calibration only rewrites scalar
// kernel and field values, so a shallow copy is enough.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// halfRadius measures the distance, in cells, from the hottest cell to
// where the field falls to half its peak, interpolated between cells.
func halfRadius(f *heat.Field) float64 {
	w, h := f.Size()
	var peak float32
	px, py := 0, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if v := f.At(x, y); v > peak {
				peak, px, py = v, x, y
			}
		}
	}
	if peak <= 0 {
		return 0
	}

	half := peak / 2
	prev := peak
	for r := 1; px+r < w; r++ {
		v := f.At(px+r, py)
		if v < half {
			// Interpolate between the straddling cells
			return float64(r-1) + float64(prev-half)/float64(prev-v)
		}
		prev = v
	}
	return float64(w - 1 - px)
}

// relErr returns the relative error of got against want.
func relErr(got, want float64) float64 {
	if want == 0 {
		return got
	}
	return (got - want) / want
}
