// Package main provides CMA-ES calibration for finding kernel and field
// parameters that produce a target heat response.
package main

import (
	"math"

	"github.com/pthm-cable/heattrace/config"
)

// ParamSpec defines a single calibratable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all calibratable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibratable parameters.
// The color ceiling stays fixed: scaling ceiling and intensity together
// is a no-op for the display, so tuning both would leave the search
// direction degenerate.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "kernel_sigma", Path: "kernel.sigma", Min: 0.5, Max: 8.0, Default: 1.5},
			{Name: "kernel_radius", Path: "kernel.radius", Min: 1, Max: 6, Default: 3},
			{Name: "kernel_intensity", Path: "kernel.intensity", Min: 1.0, Max: 200.0, Default: 20.0},
			{Name: "field_decay", Path: "field.decay", Min: 0.80, Max: 0.999, Default: 0.96},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Clamp values to ensure they're within bounds
	clamped := pv.Clamp(values)

	// Order must match Specs order
	cfg.Kernel.Sigma = clamped[0]
	cfg.Kernel.Radius = int(math.Round(clamped[1]))
	cfg.Kernel.Intensity = clamped[2]
	cfg.Field.Decay = clamped[3]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Kernel.Sigma,
		float64(cfg.Kernel.Radius),
		cfg.Kernel.Intensity,
		cfg.Field.Decay,
	}
}
