package engine

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"github.com/pthm-cable/heattrace/config"
	"github.com/pthm-cable/heattrace/heat"
	"github.com/pthm-cable/heattrace/telemetry"
)

// Emitter produces world-space point samples for one tick. A failed fetch
// costs the engine one tick of input, nothing more: the engine logs the
// error and runs the tick with zero samples.
type Emitter interface {
	Samples(tick int32, dt float32) ([]heat.Sample, error)
}

// Surface receives each resolved frame. The frame stays valid until the
// next Tick call; surfaces that retain pixels longer must copy them.
type Surface interface {
	Publish(f *Frame) error
}

// Options configures engine assembly.
type Options struct {
	Emitter Emitter

	// Surface receives published frames. Nil skips the publish phase,
	// which is how headless runs operate; frame observers still fire.
	Surface Surface

	// DT is the fixed simulation timestep in seconds.
	DT float32

	// Workers sets the row pool size for decay and resolve. Zero or
	// negative uses all logical CPUs, one runs serial.
	Workers int

	StatsWindowSec float64
	PerfWindow     int

	// OutputDir enables CSV telemetry when non-empty.
	OutputDir string

	// LogStats emits window stats through slog on each flush.
	LogStats bool

	// StatsCallback receives each flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Engine owns the density field and drives the decay, fetch, splat,
// resolve, publish cycle. It is single-threaded: all methods must be
// called from the goroutine that calls Tick.
type Engine struct {
	field    *heat.Field
	kernel   *heat.Kernel
	resolver *heat.Resolver

	emitter Emitter
	surface Surface
	pool    *heat.RowPool

	// Double-buffered frames: back is written during resolve, then the
	// buffers swap so front stays stable for a full tick.
	front *Frame
	back  *Frame

	observers []frameObserver
	nextObsID int

	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	// Run-wide counters, never reset by window flushes
	cumSamples  int64
	cumRejected int64
	cumCells    int64
	lastRejects int

	tick int32
	dt   float32
}

// Stats is a point-in-time engine summary for HUDs and logs. The sample
// counters are cumulative over the whole run; TickRejected covers only the
// most recent tick.
type Stats struct {
	Tick         int32
	SimTime      float64
	Samples      int64
	Rejected     int64
	SplatCells   int64
	TickRejected int
	Mass         float32
	Peak         float32
}

// New assembles an engine from prebuilt parts.
func New(field *heat.Field, kernel *heat.Kernel, resolver *heat.Resolver, opts Options) (*Engine, error) {
	if field == nil || kernel == nil || resolver == nil {
		return nil, fmt.Errorf("engine requires a field, kernel, and resolver")
	}
	if opts.Emitter == nil {
		return nil, fmt.Errorf("engine requires an emitter")
	}
	if !(opts.DT > 0) || math.IsInf(float64(opts.DT), 0) {
		return nil, fmt.Errorf("dt must be positive and finite, got %v", opts.DT)
	}

	windowSec := opts.StatsWindowSec
	if windowSec <= 0 {
		windowSec = 5
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("initializing output: %w", err)
	}

	var pool *heat.RowPool
	if opts.Workers != 1 {
		pool = heat.NewRowPool(opts.Workers)
	}

	w, h := field.Size()
	return &Engine{
		field:         field,
		kernel:        kernel,
		resolver:      resolver,
		emitter:       opts.Emitter,
		surface:       opts.Surface,
		pool:          pool,
		front:         newFrame(w, h),
		back:          newFrame(w, h),
		collector:     telemetry.NewCollector(windowSec, opts.DT),
		perf:          telemetry.NewPerfCollector(opts.PerfWindow),
		output:        output,
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
		dt:            opts.DT,
	}, nil
}

// FromConfig builds the field, kernel, and resolver from cfg and assembles
// an engine around them. Option fields left zero fall back to their config
// values.
func FromConfig(cfg *config.Config, opts Options) (*Engine, error) {
	field, err := heat.NewField(
		cfg.Grid.Width, cfg.Grid.Height,
		float32(cfg.World.MinX), float32(cfg.World.MinY),
		float32(cfg.World.MaxX), float32(cfg.World.MaxY),
		float32(cfg.Field.Decay),
	)
	if err != nil {
		return nil, fmt.Errorf("building field: %w", err)
	}

	kernel, err := heat.NewKernel(cfg.Kernel.Radius, float32(cfg.Kernel.Sigma), float32(cfg.Kernel.Intensity))
	if err != nil {
		return nil, fmt.Errorf("building kernel: %w", err)
	}

	gradient, err := gradientFromConfig(&cfg.Color)
	if err != nil {
		return nil, err
	}

	resolver, err := heat.NewResolver(float32(cfg.Color.Ceiling), gradient, cfg.Color.Alpha)
	if err != nil {
		return nil, fmt.Errorf("building resolver: %w", err)
	}

	if opts.DT == 0 {
		opts.DT = cfg.Derived.DT32
	}
	if opts.Workers == 0 {
		opts.Workers = cfg.Engine.Workers
	}
	if opts.StatsWindowSec == 0 {
		opts.StatsWindowSec = cfg.Telemetry.StatsWindow
	}
	if opts.PerfWindow == 0 {
		opts.PerfWindow = cfg.Telemetry.PerfWindow
	}

	e, err := New(field, kernel, resolver, opts)
	if err != nil {
		return nil, err
	}

	if e.output != nil {
		if err := e.output.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
		}
	}

	return e, nil
}

func gradientFromConfig(c *config.ColorConfig) (heat.Gradient, error) {
	stops := [3][]uint8{c.Cold, c.Mid, c.Hot}
	names := [3]string{"cold", "mid", "hot"}
	var rgba [3]color.RGBA
	for i, s := range stops {
		if len(s) != 3 {
			return heat.Gradient{}, fmt.Errorf("color stop %s needs 3 channels, got %d", names[i], len(s))
		}
		rgba[i] = color.RGBA{R: s[0], G: s[1], B: s[2], A: 255}
	}
	return heat.Gradient{Cold: rgba[0], Mid: rgba[1], Hot: rgba[2]}, nil
}

// Tick advances the engine one step.
func (e *Engine) Tick() {
	e.perf.StartTick()

	// 1. Decay the whole field
	e.perf.StartPhase(telemetry.PhaseDecay)
	e.pool.Run(e.field.H, e.field.DecayRows)

	// 2. Fetch samples; an emitter failure means an empty tick
	e.perf.StartPhase(telemetry.PhaseFetch)
	raw, err := e.emitter.Samples(e.tick, e.dt)
	if err != nil {
		slog.Warn("emitter failed, continuing without samples", "tick", e.tick, "error", err)
		raw = nil
		e.collector.RecordEmitterError()
	}
	samples, rejected := heat.DropNonFinite(raw)
	if rejected > 0 {
		slog.Debug("dropped non-finite samples", "tick", e.tick, "count", rejected)
	}

	// 3. Splat surviving samples in arrival order
	e.perf.StartPhase(telemetry.PhaseSplat)
	cells := 0
	for _, s := range samples {
		cells += e.kernel.Splat(e.field, s.X, s.Y, e.dt)
	}

	// 4. Resolve into the back buffer, then swap
	e.perf.StartPhase(telemetry.PhaseResolve)
	e.back.Tick = e.tick
	e.pool.Run(e.field.H, func(y0, y1 int) {
		e.resolver.ResolveRows(e.field, e.back.Pixels, y0, y1)
	})
	e.front, e.back = e.back, e.front

	// 5. Publish and notify
	e.perf.StartPhase(telemetry.PhasePublish)
	if e.surface != nil {
		if err := e.surface.Publish(e.front); err != nil {
			slog.Error("publish failed", "tick", e.tick, "error", err)
			e.collector.RecordPublishError()
		}
	}
	for _, obs := range e.observers {
		obs.fn(e.front)
	}

	// 6. Telemetry
	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.cumSamples += int64(len(samples) + rejected)
	e.cumRejected += int64(rejected)
	e.cumCells += int64(cells)
	e.lastRejects = rejected
	e.collector.RecordTick(len(samples)+rejected, rejected, cells, e.field.TotalMass(), e.field.Peak())
	e.tick++
	e.flushTelemetry()

	e.perf.EndTick()
}

// flushTelemetry checks if the stats window should be flushed.
func (e *Engine) flushTelemetry() {
	if !e.collector.ShouldFlush(e.tick) {
		return
	}

	stats := e.collector.Flush(e.tick)
	perfStats := e.perf.Stats()

	if e.statsCallback != nil {
		e.statsCallback(stats)
	}

	if e.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if e.output != nil {
		if err := e.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := e.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// Frame returns the most recently resolved frame.
func (e *Engine) Frame() *Frame { return e.front }

// Field returns the engine's density field.
func (e *Engine) Field() *heat.Field { return e.field }

// Kernel returns the engine's splat kernel.
func (e *Engine) Kernel() *heat.Kernel { return e.kernel }

// Resolver returns the engine's color resolver.
func (e *Engine) Resolver() *heat.Resolver { return e.resolver }

// DT returns the fixed timestep in seconds.
func (e *Engine) DT() float32 { return e.dt }

// CurrentTick returns the number of completed ticks.
func (e *Engine) CurrentTick() int32 { return e.tick }

// ClearField zeroes the density field without touching the tick counter.
func (e *Engine) ClearField() { e.field.Reset() }

// Stats returns a point-in-time engine summary.
func (e *Engine) Stats() Stats {
	return Stats{
		Tick:         e.tick,
		SimTime:      float64(e.tick) * float64(e.dt),
		Samples:      e.cumSamples,
		Rejected:     e.cumRejected,
		SplatCells:   e.cumCells,
		TickRejected: e.lastRejects,
		Mass:         e.field.TotalMass(),
		Peak:         e.field.Peak(),
	}
}

// RecordFrame forwards viewer frame timing to the perf collector.
func (e *Engine) RecordFrame() { e.perf.RecordFrame() }

// PerfStats returns rolling performance statistics.
func (e *Engine) PerfStats() telemetry.PerfStats { return e.perf.Stats() }

// Close stops the worker pool and closes any output files.
func (e *Engine) Close() error {
	e.pool.Stop()
	return e.output.Close()
}
