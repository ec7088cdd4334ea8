package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/heattrace/camera"
	"github.com/pthm-cable/heattrace/config"
	"github.com/pthm-cable/heattrace/emitter"
	"github.com/pthm-cable/heattrace/engine"
	"github.com/pthm-cable/heattrace/heat"
	"github.com/pthm-cable/heattrace/renderer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per frame in the viewer")
	emitterKind := flag.String("emitter", "", "Emitter kind override: swarm or orbit (empty = use config)")
	recordPath := flag.String("record", "", "Capture emitted samples to this CSV file")
	replayPath := flag.String("replay", "", "Feed samples from a capture file instead of a live emitter")
	replayLoop := flag.Bool("replay-loop", false, "Repeat the capture when it runs out")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *emitterKind != "" {
		cfg.Emitter.Kind = *emitterKind
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build the sample source: a live emitter, or a capture replay
	var src emitter.SampleSource
	var replay *emitter.Replay
	if *replayPath != "" {
		r, err := emitter.NewReplay(*replayPath, *replayLoop)
		if err != nil {
			slog.Error("failed to load capture", "path", *replayPath, "error", err)
			os.Exit(1)
		}
		replay = r
		src = r
	} else {
		s, err := emitter.FromConfig(cfg, rngSeed)
		if err != nil {
			slog.Error("failed to build emitter", "error", err)
			os.Exit(1)
		}
		src = s
	}

	// Marker lookups want the concrete emitter, before any recorder wrap
	base := src

	if *recordPath != "" {
		rec, err := emitter.NewRecorder(src, *recordPath)
		if err != nil {
			slog.Error("failed to open capture file", "path", *recordPath, "error", err)
			os.Exit(1)
		}
		defer rec.Close()
		src = rec
	}

	opts := engine.Options{
		Emitter:        src,
		OutputDir:      *outputDir,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
	}

	if *headless {
		// Headless mode - pure CPU pipeline, no raylib needed
		eng, err := engine.FromConfig(cfg, opts)
		if err != nil {
			slog.Error("failed to build engine", "error", err)
			os.Exit(1)
		}
		defer eng.Close()

		slog.Info("starting headless run",
			"seed", rngSeed,
			"emitter", cfg.Emitter.Kind,
			"stats_window", *statsWindow,
			"max_ticks", *maxTicks,
		)

		for {
			eng.Tick()

			if *maxTicks > 0 && int(eng.CurrentTick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", eng.CurrentTick())
				break
			}
			if replay != nil && replay.Finished() {
				slog.Info("replay finished", "tick", eng.CurrentTick())
				break
			}
		}

		st := eng.Stats()
		slog.Info("headless run complete",
			"ticks", st.Tick,
			"sim_time", st.SimTime,
			"samples", st.Samples,
			"rejected", st.Rejected,
			"mass", st.Mass,
			"peak", st.Peak,
		)
		return
	}

	// Graphical mode
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Heat Trace")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	heatR := renderer.NewHeatRenderer(
		cfg.Derived.WorldMinX, cfg.Derived.WorldMinY,
		cfg.Derived.WorldMaxX, cfg.Derived.WorldMaxY,
	)
	defer heatR.Unload()
	opts.Surface = heatR

	eng, err := engine.FromConfig(cfg, opts)
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	cam := camera.New(
		cfg.Derived.ScreenW32, cfg.Derived.ScreenH32,
		cfg.Derived.WorldMinX, cfg.Derived.WorldMinY,
		cfg.Derived.WorldMaxX, cfg.Derived.WorldMaxY,
	)

	v := newViewer(eng, heatR, cam, markerSource(base, eng), *stepsPerUpdate)

	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()

		if *maxTicks > 0 && int(eng.CurrentTick()) >= *maxTicks {
			break
		}
	}
}

// markerSource picks a marker position provider for the emitter kind.
// Replays carry no walker state, so they draw no markers.
func markerSource(src emitter.SampleSource, eng *engine.Engine) func() []heat.Sample {
	switch e := src.(type) {
	case *emitter.Swarm:
		return e.Positions
	case *emitter.Orbit:
		return func() []heat.Sample {
			x, y := e.PositionAt(eng.Stats().SimTime)
			return []heat.Sample{{X: x, Y: y}}
		}
	default:
		return nil
	}
}
