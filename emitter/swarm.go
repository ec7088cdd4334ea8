package emitter

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/heattrace/heat"
)

// Position is a walker's world-space location.
type Position struct {
	X, Y float32
}

// Velocity is a walker's world-space velocity in units per second.
type Velocity struct {
	X, Y float32
}

// Source carries a walker's emission state. Acc collects fractional samples
// between ticks so low rates still emit at the right long-run frequency.
type Source struct {
	Rate float32
	Acc  float32
}

// SwarmOptions configures a walker swarm.
type SwarmOptions struct {
	Count      int
	MinX, MinY float32
	MaxX, MaxY float32
	Speed      float32 // World units per second
	Rate       float32 // Samples per second per walker
	TurnJitter float32 // Heading noise, radians per sqrt(second)
	Seed       int64   // 0 seeds from the clock
}

// Swarm drives a population of wandering walkers that drop samples as they
// move. Walkers live in an ECS world and bounce off the configured bounds.
type Swarm struct {
	world  ecs.World
	mapper *ecs.Map3[Position, Velocity, Source]
	filter ecs.Filter3[Position, Velocity, Source]
	rng    *rand.Rand

	minX, minY float32
	maxX, maxY float32
	speed      float32
	jitter     float32
	count      int
}

// NewSwarm creates a swarm and spawns its walkers at random positions with
// random headings.
func NewSwarm(opts SwarmOptions) (*Swarm, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("swarm count must be positive, got %d", opts.Count)
	}
	if opts.MaxX <= opts.MinX || opts.MaxY <= opts.MinY {
		return nil, fmt.Errorf("swarm bounds are degenerate: [%v,%v]x[%v,%v]",
			opts.MinX, opts.MaxX, opts.MinY, opts.MaxY)
	}
	if opts.Speed < 0 || opts.Rate < 0 || opts.TurnJitter < 0 {
		return nil, fmt.Errorf("swarm speed, rate and turn jitter must be non-negative")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Swarm{
		world:  ecs.NewWorld(),
		rng:    rand.New(rand.NewSource(seed)),
		minX:   opts.MinX,
		minY:   opts.MinY,
		maxX:   opts.MaxX,
		maxY:   opts.MaxY,
		speed:  opts.Speed,
		jitter: opts.TurnJitter,
		count:  opts.Count,
	}
	s.mapper = ecs.NewMap3[Position, Velocity, Source](&s.world)
	s.filter = *ecs.NewFilter3[Position, Velocity, Source](&s.world)

	for i := 0; i < opts.Count; i++ {
		pos := Position{
			X: s.minX + s.rng.Float32()*(s.maxX-s.minX),
			Y: s.minY + s.rng.Float32()*(s.maxY-s.minY),
		}
		heading := s.rng.Float64() * 2 * math.Pi
		vel := Velocity{
			X: float32(math.Cos(heading)) * s.speed,
			Y: float32(math.Sin(heading)) * s.speed,
		}
		// Random initial accumulator desyncs emission across the population.
		src := Source{Rate: opts.Rate, Acc: s.rng.Float32()}
		s.mapper.NewEntity(&pos, &vel, &src)
	}

	return s, nil
}

// Count returns the number of walkers.
func (s *Swarm) Count() int {
	return s.count
}

// Samples advances every walker by dt and returns the samples emitted this
// tick. It never fails; the error return satisfies the emitter contract.
func (s *Swarm) Samples(tick int32, dt float32) ([]heat.Sample, error) {
	var out []heat.Sample

	jitterScale := s.jitter * float32(math.Sqrt(float64(dt)))

	query := s.filter.Query()
	for query.Next() {
		pos, vel, src := query.Get()

		if jitterScale > 0 {
			angle := float64(float32(s.rng.NormFloat64()) * jitterScale)
			sin, cos := math.Sincos(angle)
			vx := vel.X*float32(cos) - vel.Y*float32(sin)
			vy := vel.X*float32(sin) + vel.Y*float32(cos)
			vel.X, vel.Y = vx, vy
		}

		pos.X += vel.X * dt
		pos.Y += vel.Y * dt

		if pos.X < s.minX {
			pos.X = s.minX
			vel.X = -vel.X
		} else if pos.X > s.maxX {
			pos.X = s.maxX
			vel.X = -vel.X
		}
		if pos.Y < s.minY {
			pos.Y = s.minY
			vel.Y = -vel.Y
		} else if pos.Y > s.maxY {
			pos.Y = s.maxY
			vel.Y = -vel.Y
		}

		src.Acc += src.Rate * dt
		for src.Acc >= 1 {
			out = append(out, heat.Sample{X: pos.X, Y: pos.Y})
			src.Acc--
		}
	}

	return out, nil
}

// Positions returns the current walker positions, for marker overlays.
func (s *Swarm) Positions() []heat.Sample {
	out := make([]heat.Sample, 0, s.count)
	query := s.filter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		out = append(out, heat.Sample{X: pos.X, Y: pos.Y})
	}
	return out
}
