package engine

import (
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/heattrace/config"
	"github.com/pthm-cable/heattrace/heat"
	"github.com/pthm-cable/heattrace/telemetry"
)

var testGradient = heat.Gradient{
	Cold: color.RGBA{R: 6, G: 10, B: 40, A: 255},
	Mid:  color.RGBA{R: 220, G: 90, B: 25, A: 255},
	Hot:  color.RGBA{R: 255, G: 245, B: 200, A: 255},
}

// scriptEmitter plays back per-tick samples and errors.
type scriptEmitter struct {
	samples map[int32][]heat.Sample
	errs    map[int32]error
	calls   []int32
}

func (s *scriptEmitter) Samples(tick int32, dt float32) ([]heat.Sample, error) {
	s.calls = append(s.calls, tick)
	if err, ok := s.errs[tick]; ok {
		return nil, err
	}
	return s.samples[tick], nil
}

// captureSurface records every published frame pointer.
type captureSurface struct {
	frames []*Frame
	ticks  []int32
	err    error
	onPub  func()
}

func (s *captureSurface) Publish(f *Frame) error {
	s.frames = append(s.frames, f)
	s.ticks = append(s.ticks, f.Tick)
	if s.onPub != nil {
		s.onPub()
	}
	return s.err
}

func mustEngine(t testing.TB, w, h int, decay float32, radius int, sigma, intensity float32, opts Options) *Engine {
	t.Helper()

	field, err := heat.NewField(w, h, 0, 0, float32(w), float32(h), decay)
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	kernel, err := heat.NewKernel(radius, sigma, intensity)
	if err != nil {
		t.Fatalf("NewKernel: %v", err)
	}
	resolver, err := heat.NewResolver(10, testGradient, 200)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	if opts.DT == 0 {
		opts.DT = 1
	}
	if opts.Workers == 0 {
		opts.Workers = 1
	}

	e, err := New(field, kernel, resolver, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineSplatThenDecay(t *testing.T) {
	em := &scriptEmitter{samples: map[int32][]heat.Sample{
		0: {{X: 2, Y: 2}},
	}}
	e := mustEngine(t, 4, 4, 0.9, 1, 1, 10, Options{Emitter: em})

	e.Tick()

	f := e.Field()
	if got := f.At(2, 2); got != 10 {
		t.Fatalf("center after splat = %g, want exactly 10", got)
	}
	neighbors := []float32{f.At(1, 2), f.At(3, 2), f.At(2, 1), f.At(2, 3)}
	for i, n := range neighbors {
		if n <= 0 || n >= 10 {
			t.Errorf("neighbor %d = %g, want in (0, 10)", i, n)
		}
		if n != neighbors[0] {
			t.Errorf("neighbor %d = %g, want symmetric %g", i, n, neighbors[0])
		}
	}
	if got := f.At(0, 0); got != 0 {
		t.Errorf("cell beyond kernel radius = %g, want exactly 0", got)
	}

	// Second tick has no samples, so the field only decays
	before := f.At(2, 2)
	e.Tick()
	if got, want := f.At(2, 2), before*0.9; got != want {
		t.Errorf("center after decay tick = %g, want %g", got, want)
	}
}

func TestEngineDecaysBeforeSplatting(t *testing.T) {
	em := &scriptEmitter{samples: map[int32][]heat.Sample{
		0: {{X: 2, Y: 2}},
		1: {{X: 2, Y: 2}},
	}}
	// Radius 0 confines each splat to the center cell
	e := mustEngine(t, 4, 4, 0.5, 0, 1, 10, Options{Emitter: em})

	e.Tick()
	e.Tick()

	// Decay-then-splat gives 10*0.5 + 10; splat-then-decay would give 10
	if got := e.Field().At(2, 2); got != 15 {
		t.Errorf("center after two ticks = %g, want 15", got)
	}
}

func TestEngineFrameMatchesField(t *testing.T) {
	em := &scriptEmitter{samples: map[int32][]heat.Sample{
		0: {{X: 2, Y: 2}},
	}}
	e := mustEngine(t, 4, 4, 0.9, 1, 1, 10, Options{Emitter: em})

	e.Tick()

	frame := e.Frame()
	if frame.Tick != 0 {
		t.Errorf("frame tick = %d, want 0", frame.Tick)
	}

	// Center cell sits exactly at the ceiling, so it renders the hot stop
	want := color.RGBA{R: 255, G: 245, B: 200, A: 200}
	if got := frame.At(2, 2); got != want {
		t.Errorf("hot pixel = %v, want %v", got, want)
	}

	// An untouched cell renders the cold stop
	wantCold := color.RGBA{R: 6, G: 10, B: 40, A: 200}
	if got := frame.At(0, 0); got != wantCold {
		t.Errorf("cold pixel = %v, want %v", got, wantCold)
	}
}

func TestEngineEmitterFailureDegrades(t *testing.T) {
	em := &scriptEmitter{
		samples: map[int32][]heat.Sample{1: {{X: 2, Y: 2}}},
		errs:    map[int32]error{0: errors.New("upstream gone")},
	}

	var windows []telemetry.WindowStats
	e := mustEngine(t, 4, 4, 0.9, 1, 1, 10, Options{
		Emitter:        em,
		StatsWindowSec: 2, // two-tick windows at dt=1
		StatsCallback:  func(ws telemetry.WindowStats) { windows = append(windows, ws) },
	})

	e.Tick()
	if got := e.Field().TotalMass(); got != 0 {
		t.Fatalf("mass after failed fetch = %g, want 0", got)
	}
	if e.CurrentTick() != 1 {
		t.Fatalf("tick counter = %d, want 1 after failed fetch", e.CurrentTick())
	}

	e.Tick()
	if got := e.Field().At(2, 2); got != 10 {
		t.Errorf("center after recovery = %g, want 10", got)
	}

	if len(windows) != 1 {
		t.Fatalf("got %d stats windows, want 1", len(windows))
	}
	if windows[0].EmitterErrors != 1 {
		t.Errorf("emitter errors = %d, want 1", windows[0].EmitterErrors)
	}
	if windows[0].SamplesIn != 1 {
		t.Errorf("samples in = %d, want 1", windows[0].SamplesIn)
	}
}

func TestEngineRejectsNonFiniteSamples(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	em := &scriptEmitter{samples: map[int32][]heat.Sample{
		0: {{X: nan, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: inf}},
	}}

	var windows []telemetry.WindowStats
	e := mustEngine(t, 4, 4, 0.9, 0, 1, 10, Options{
		Emitter:        em,
		StatsWindowSec: 1, // flush every tick at dt=1
		StatsCallback:  func(ws telemetry.WindowStats) { windows = append(windows, ws) },
	})

	e.Tick()

	if got := e.Field().At(2, 2); got != 10 {
		t.Errorf("finite sample not splatted: center = %g, want 10", got)
	}
	if len(windows) != 1 {
		t.Fatalf("got %d stats windows, want 1", len(windows))
	}
	ws := windows[0]
	if ws.SamplesIn != 3 || ws.SamplesRejected != 2 || ws.SamplesSplatted != 1 {
		t.Errorf("sample flow = %d/%d/%d, want 3/2/1",
			ws.SamplesIn, ws.SamplesRejected, ws.SamplesSplatted)
	}

	stats := e.Stats()
	if stats.Samples != 3 || stats.Rejected != 2 {
		t.Errorf("cumulative samples/rejected = %d/%d, want 3/2", stats.Samples, stats.Rejected)
	}
	if stats.TickRejected != 2 {
		t.Errorf("tick rejected = %d, want 2", stats.TickRejected)
	}
}

func TestEngineDoubleBuffersFrames(t *testing.T) {
	em := &scriptEmitter{}
	surf := &captureSurface{}
	e := mustEngine(t, 4, 4, 0.9, 1, 1, 10, Options{Emitter: em, Surface: surf})

	e.Tick()
	e.Tick()
	e.Tick()

	if len(surf.frames) != 3 {
		t.Fatalf("published %d frames, want 3", len(surf.frames))
	}
	if surf.frames[0] == surf.frames[1] {
		t.Error("consecutive ticks published the same buffer")
	}
	if surf.frames[0] != surf.frames[2] {
		t.Error("buffers should alternate between exactly two frames")
	}
	for i, tick := range surf.ticks {
		if tick != int32(i) {
			t.Errorf("frame %d stamped tick %d, want %d", i, tick, i)
		}
	}
}

func TestEngineObserverOrderAndRemoval(t *testing.T) {
	em := &scriptEmitter{}
	var log []string
	surf := &captureSurface{onPub: func() { log = append(log, "surface") }}
	e := mustEngine(t, 4, 4, 0.9, 1, 1, 10, Options{Emitter: em, Surface: surf})

	idA := e.AddFrameObserver(func(*Frame) { log = append(log, "a") })
	e.AddFrameObserver(func(*Frame) { log = append(log, "b") })

	e.Tick()

	want := []string{"surface", "a", "b"}
	if len(log) != len(want) {
		t.Fatalf("notify log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("notify log = %v, want %v", log, want)
		}
	}

	e.RemoveFrameObserver(idA)
	e.RemoveFrameObserver(9999) // unknown id is a no-op
	if e.ObserverCount() != 1 {
		t.Fatalf("observer count = %d, want 1", e.ObserverCount())
	}

	log = log[:0]
	e.Tick()
	if len(log) != 2 || log[0] != "surface" || log[1] != "b" {
		t.Errorf("notify log after removal = %v, want [surface b]", log)
	}
}

func TestEngineObserverSeesPublishedFrame(t *testing.T) {
	em := &scriptEmitter{}
	surf := &captureSurface{}
	e := mustEngine(t, 4, 4, 0.9, 1, 1, 10, Options{Emitter: em, Surface: surf})

	var seen *Frame
	e.AddFrameObserver(func(f *Frame) { seen = f })

	e.Tick()

	if seen == nil {
		t.Fatal("observer never called")
	}
	if seen != surf.frames[0] {
		t.Error("observer received a different frame than the surface")
	}
	if seen != e.Frame() {
		t.Error("observer frame is not the current front buffer")
	}
}

func TestEnginePublishErrorContinues(t *testing.T) {
	em := &scriptEmitter{samples: map[int32][]heat.Sample{
		0: {{X: 2, Y: 2}},
		1: {{X: 2, Y: 2}},
	}}
	surf := &captureSurface{err: errors.New("display detached")}

	var windows []telemetry.WindowStats
	e := mustEngine(t, 4, 4, 0.9, 0, 1, 10, Options{
		Emitter:        em,
		Surface:        surf,
		StatsWindowSec: 2,
		StatsCallback:  func(ws telemetry.WindowStats) { windows = append(windows, ws) },
	})

	e.Tick()
	e.Tick()

	if len(surf.frames) != 2 {
		t.Fatalf("publish attempts = %d, want 2 despite errors", len(surf.frames))
	}
	if got := e.Field().At(2, 2); got != 19 {
		t.Errorf("field after two ticks = %g, want 19", got)
	}
	if len(windows) != 1 || windows[0].PublishErrors != 2 {
		t.Errorf("publish errors not counted: %+v", windows)
	}
}

func TestEngineObserversFireWithoutSurface(t *testing.T) {
	em := &scriptEmitter{}
	e := mustEngine(t, 4, 4, 0.9, 1, 1, 10, Options{Emitter: em})

	called := 0
	e.AddFrameObserver(func(*Frame) { called++ })

	e.Tick()
	e.Tick()

	if called != 2 {
		t.Errorf("observer calls = %d, want 2 in headless mode", called)
	}
}

func TestEngineConstructionValidation(t *testing.T) {
	field, _ := heat.NewField(4, 4, 0, 0, 4, 4, 0.9)
	kernel, _ := heat.NewKernel(1, 1, 10)
	resolver, _ := heat.NewResolver(10, testGradient, 200)
	em := &scriptEmitter{}

	cases := []struct {
		name string
		f    *heat.Field
		opts Options
	}{
		{"nil field", nil, Options{Emitter: em, DT: 1, Workers: 1}},
		{"nil emitter", field, Options{DT: 1, Workers: 1}},
		{"zero dt", field, Options{Emitter: em, Workers: 1}},
		{"negative dt", field, Options{Emitter: em, DT: -1, Workers: 1}},
		{"nan dt", field, Options{Emitter: em, DT: float32(math.NaN()), Workers: 1}},
	}

	for _, tc := range cases {
		if _, err := New(tc.f, kernel, resolver, tc.opts); err == nil {
			t.Errorf("%s: expected construction error", tc.name)
		}
	}
}

func TestEngineFromConfigDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	em := &scriptEmitter{}
	e, err := FromConfig(cfg, Options{Emitter: em, Workers: 1})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer e.Close()

	w, h := e.Field().Size()
	if w != cfg.Grid.Width || h != cfg.Grid.Height {
		t.Errorf("field size = %dx%d, want %dx%d", w, h, cfg.Grid.Width, cfg.Grid.Height)
	}
	if e.DT() != cfg.Derived.DT32 {
		t.Errorf("dt = %g, want config derived %g", e.DT(), cfg.Derived.DT32)
	}
	if e.CurrentTick() != 0 {
		t.Errorf("fresh engine tick = %d, want 0", e.CurrentTick())
	}
}

func TestEngineFromConfigRejectsBadColorStops(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Color.Mid = []uint8{220, 90}

	if _, err := FromConfig(cfg, Options{Emitter: &scriptEmitter{}, Workers: 1}); err == nil {
		t.Fatal("expected error for malformed color stop")
	}
}

func TestEngineDeterministicAcrossWorkerCounts(t *testing.T) {
	build := func(workers int) *Engine {
		field, err := heat.NewField(64, 40, 0, 0, 64, 40, 0.93)
		if err != nil {
			t.Fatalf("NewField: %v", err)
		}
		kernel, err := heat.NewKernel(3, 1.5, 20)
		if err != nil {
			t.Fatalf("NewKernel: %v", err)
		}
		resolver, err := heat.NewResolver(10, testGradient, 200)
		if err != nil {
			t.Fatalf("NewResolver: %v", err)
		}
		e, err := New(field, kernel, resolver, Options{
			Emitter: orbitScript{},
			DT:      1.0 / 60.0,
			Workers: workers,
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		t.Cleanup(func() { e.Close() })
		return e
	}

	serial := build(1)
	pooled := build(4)

	for i := 0; i < 50; i++ {
		serial.Tick()
		pooled.Tick()
	}

	sf, pf := serial.Field(), pooled.Field()
	for i := range sf.Cells {
		if sf.Cells[i] != pf.Cells[i] {
			t.Fatalf("cell %d diverged: serial %g pooled %g", i, sf.Cells[i], pf.Cells[i])
		}
	}

	sp, pp := serial.Frame().Pixels, pooled.Frame().Pixels
	for i := range sp {
		if sp[i] != pp[i] {
			t.Fatalf("pixel %d diverged: serial %v pooled %v", i, sp[i], pp[i])
		}
	}
}

// orbitScript is a deterministic emitter driven only by the tick number.
type orbitScript struct{}

func (orbitScript) Samples(tick int32, dt float32) ([]heat.Sample, error) {
	ft := float64(tick)
	return []heat.Sample{
		{X: float32(32 + 20*math.Sin(ft*0.10)), Y: float32(20 + 12*math.Cos(ft*0.13))},
		{X: float32(32 + 20*math.Cos(ft*0.07)), Y: float32(20 + 12*math.Sin(ft*0.11))},
	}, nil
}

func TestEngineClearField(t *testing.T) {
	em := &scriptEmitter{samples: map[int32][]heat.Sample{
		0: {{X: 2, Y: 2}},
	}}
	e := mustEngine(t, 4, 4, 0.9, 1, 1, 10, Options{Emitter: em})

	e.Tick()
	if e.Field().TotalMass() == 0 {
		t.Fatal("expected mass after splat")
	}

	e.ClearField()
	if got := e.Field().TotalMass(); got != 0 {
		t.Errorf("mass after clear = %g, want 0", got)
	}
	if e.CurrentTick() != 1 {
		t.Errorf("tick counter = %d, want unchanged 1", e.CurrentTick())
	}
}

func TestEngineStatsSnapshot(t *testing.T) {
	em := &scriptEmitter{samples: map[int32][]heat.Sample{
		0: {{X: 2, Y: 2}},
	}}
	// Radius 0: each splat deposits exactly intensity*dt into one cell
	e := mustEngine(t, 4, 4, 0.9, 0, 1, 10, Options{Emitter: em, DT: 0.5})

	e.Tick()
	e.Tick()

	stats := e.Stats()
	if stats.Tick != 2 {
		t.Errorf("stats tick = %d, want 2", stats.Tick)
	}
	if stats.SimTime != 1.0 {
		t.Errorf("sim time = %g, want 1.0", stats.SimTime)
	}
	// 10*0.5 deposited on tick 0, then one decay by 0.9
	want := float32(10*0.5) * 0.9
	if stats.Mass != want || stats.Peak != want {
		t.Errorf("mass/peak = %g/%g, want %g", stats.Mass, stats.Peak, want)
	}
	if stats.Samples != 1 || stats.Rejected != 0 || stats.SplatCells != 1 {
		t.Errorf("samples/rejected/cells = %d/%d/%d, want 1/0/1",
			stats.Samples, stats.Rejected, stats.SplatCells)
	}
}

func TestEngineWritesRunArtifacts(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "run")
	em := &scriptEmitter{}
	e, err := FromConfig(cfg, Options{
		Emitter:        em,
		Workers:        1,
		DT:             1,
		StatsWindowSec: 1,
		OutputDir:      dir,
	})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	e.Tick()
	e.Tick()
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing run artifact %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	if len(data) == 0 {
		t.Error("telemetry.csv is empty")
	}
}

func BenchmarkEngineTick(b *testing.B) {
	field, _ := heat.NewField(256, 144, 0, 0, 64, 36, 0.94)
	kernel, _ := heat.NewKernel(6, 2, 36)
	resolver, _ := heat.NewResolver(10, testGradient, 200)
	e, err := New(field, kernel, resolver, Options{
		Emitter: benchEmitter{},
		DT:      1.0 / 60.0,
		Workers: 1,
	})
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	defer e.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Tick()
	}
}

type benchEmitter struct{}

func (benchEmitter) Samples(tick int32, dt float32) ([]heat.Sample, error) {
	out := make([]heat.Sample, 6)
	for i := range out {
		ft := float64(tick)*0.02 + float64(i)
		out[i] = heat.Sample{
			X: float32(32 + 28*math.Sin(ft)),
			Y: float32(18 + 15*math.Cos(ft*1.3)),
		}
	}
	return out, nil
}
