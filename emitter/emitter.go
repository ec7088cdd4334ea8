// Package emitter provides the sample sources that feed the density field:
// an ECS-backed swarm of random walkers, a deterministic orbit tracer, and
// CSV capture/replay wrappers.
package emitter

import (
	"fmt"

	"github.com/pthm-cable/heattrace/config"
	"github.com/pthm-cable/heattrace/heat"
)

// SampleSource matches the engine's emitter contract. The caller owns the
// returned slice until the next Samples call and may modify it.
type SampleSource interface {
	Samples(tick int32, dt float32) ([]heat.Sample, error)
}

// FromConfig builds the emitter kind named in cfg. The seed drives the
// swarm's random walk; a zero seed falls back to the clock.
func FromConfig(cfg *config.Config, seed int64) (SampleSource, error) {
	switch cfg.Emitter.Kind {
	case "swarm":
		return NewSwarm(SwarmOptions{
			Count:      cfg.Emitter.Swarm.Count,
			MinX:       float32(cfg.World.MinX),
			MinY:       float32(cfg.World.MinY),
			MaxX:       float32(cfg.World.MaxX),
			MaxY:       float32(cfg.World.MaxY),
			Speed:      float32(cfg.Emitter.Swarm.Speed),
			Rate:       float32(cfg.Emitter.Swarm.Rate),
			TurnJitter: float32(cfg.Emitter.Swarm.TurnJitter),
			Seed:       seed,
		})
	case "orbit":
		return NewOrbit(OrbitOptions{
			MinX:   float32(cfg.World.MinX),
			MinY:   float32(cfg.World.MinY),
			MaxX:   float32(cfg.World.MaxX),
			MaxY:   float32(cfg.World.MaxY),
			Rate:   float32(cfg.Emitter.Orbit.Rate),
			FreqX:  float32(cfg.Emitter.Orbit.FreqX),
			FreqY:  float32(cfg.Emitter.Orbit.FreqY),
			Margin: float32(cfg.Emitter.Orbit.Margin),
		})
	default:
		return nil, fmt.Errorf("unknown emitter kind %q", cfg.Emitter.Kind)
	}
}
