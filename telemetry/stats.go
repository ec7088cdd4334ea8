package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Tick and sample flow during the window
	Ticks           int `csv:"ticks"`
	SamplesIn       int `csv:"samples_in"`
	SamplesRejected int `csv:"samples_rejected"`
	SamplesSplatted int `csv:"samples_splatted"`
	CellsTouched    int `csv:"cells_touched"`
	EmitterErrors   int `csv:"emitter_errors"`
	PublishErrors   int `csv:"publish_errors"`

	AcceptRate    float64 `csv:"accept_rate"`
	CellsPerSplat float64 `csv:"cells_per_splat"`

	// Field mass distribution over the window's per-tick totals
	MassMean float64 `csv:"mass_mean"`
	MassStd  float64 `csv:"mass_std"`
	MassP10  float64 `csv:"mass_p10"`
	MassP50  float64 `csv:"mass_p50"`
	MassP90  float64 `csv:"mass_p90"`
	MassEnd  float64 `csv:"mass_end"`

	// Hottest cell seen during the window and at its end
	PeakMax float64 `csv:"peak_max"`
	PeakEnd float64 `csv:"peak_end"`
}

// Summarize computes mean, sample standard deviation, and empirical
// percentiles of a value series. Returns zeros for an empty series.
func Summarize(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	if n > 1 {
		std = stat.StdDev(sorted, nil)
	}
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("ticks", s.Ticks),
		slog.Int("samples_in", s.SamplesIn),
		slog.Int("samples_rejected", s.SamplesRejected),
		slog.Int("samples_splatted", s.SamplesSplatted),
		slog.Int("cells_touched", s.CellsTouched),
		slog.Int("emitter_errors", s.EmitterErrors),
		slog.Int("publish_errors", s.PublishErrors),
		slog.Float64("accept_rate", s.AcceptRate),
		slog.Float64("cells_per_splat", s.CellsPerSplat),
		slog.Float64("mass_mean", s.MassMean),
		slog.Float64("mass_std", s.MassStd),
		slog.Float64("mass_p10", s.MassP10),
		slog.Float64("mass_p50", s.MassP50),
		slog.Float64("mass_p90", s.MassP90),
		slog.Float64("mass_end", s.MassEnd),
		slog.Float64("peak_max", s.PeakMax),
		slog.Float64("peak_end", s.PeakEnd),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"ticks", s.Ticks,
		"samples_in", s.SamplesIn,
		"samples_rejected", s.SamplesRejected,
		"samples_splatted", s.SamplesSplatted,
		"cells_touched", s.CellsTouched,
		"emitter_errors", s.EmitterErrors,
		"publish_errors", s.PublishErrors,
		"accept_rate", s.AcceptRate,
		"cells_per_splat", s.CellsPerSplat,
		"mass_mean", s.MassMean,
		"mass_std", s.MassStd,
		"mass_p10", s.MassP10,
		"mass_p50", s.MassP50,
		"mass_p90", s.MassP90,
		"mass_end", s.MassEnd,
		"peak_max", s.PeakMax,
		"peak_end", s.PeakEnd,
	)
}
