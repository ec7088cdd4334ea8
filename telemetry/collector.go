package telemetry

import "math"

// Collector accumulates engine events within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Counters for current window
	ticks           int
	samplesIn       int
	samplesRejected int
	cellsTouched    int
	emitterErrors   int
	publishErrors   int

	// Per-tick field totals for distribution stats
	massSeries []float64
	massEnd    float64
	peakMax    float64
	peakEnd    float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	// Round so a window of exactly N ticks survives the float32 dt.
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		windowStartTick:     0,
	}
}

// RecordTick records the sample flow and field totals for one engine tick.
// samples is the raw sample count from the emitter, rejected the number
// dropped by validation, and cells the number of cell updates splatted.
func (c *Collector) RecordTick(samples, rejected, cells int, mass, peak float32) {
	c.ticks++
	c.samplesIn += samples
	c.samplesRejected += rejected
	c.cellsTouched += cells
	c.massSeries = append(c.massSeries, float64(mass))
	c.massEnd = float64(mass)
	c.peakEnd = float64(peak)
	if float64(peak) > c.peakMax {
		c.peakMax = float64(peak)
	}
}

// RecordEmitterError records a failed sample fetch.
func (c *Collector) RecordEmitterError() {
	c.emitterErrors++
}

// RecordPublishError records a failed frame publish.
func (c *Collector) RecordPublishError() {
	c.publishErrors++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32) WindowStats {
	splatted := c.samplesIn - c.samplesRejected

	var acceptRate, cellsPerSplat float64
	if c.samplesIn > 0 {
		acceptRate = float64(splatted) / float64(c.samplesIn)
	}
	if splatted > 0 {
		cellsPerSplat = float64(c.cellsTouched) / float64(splatted)
	}

	massMean, massStd, massP10, massP50, massP90 := Summarize(c.massSeries)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Ticks:           c.ticks,
		SamplesIn:       c.samplesIn,
		SamplesRejected: c.samplesRejected,
		SamplesSplatted: splatted,
		CellsTouched:    c.cellsTouched,
		EmitterErrors:   c.emitterErrors,
		PublishErrors:   c.publishErrors,

		AcceptRate:    acceptRate,
		CellsPerSplat: cellsPerSplat,

		MassMean: massMean,
		MassStd:  massStd,
		MassP10:  massP10,
		MassP50:  massP50,
		MassP90:  massP90,
		MassEnd:  c.massEnd,

		PeakMax: c.peakMax,
		PeakEnd: c.peakEnd,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.samplesIn = 0
	c.samplesRejected = 0
	c.cellsTouched = 0
	c.emitterErrors = 0
	c.publishErrors = 0
	c.massSeries = c.massSeries[:0]
	c.peakMax = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
