package telemetry

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	mean, std, p10, p50, p90 := Summarize(values)

	if math.Abs(mean-5.5) > 0.001 {
		t.Errorf("mean = %v, want 5.5", mean)
	}

	// Sample standard deviation of 1..10
	if math.Abs(std-3.0277) > 0.001 {
		t.Errorf("std = %v, want ~3.0277", std)
	}

	// Empirical quantiles pick the smallest value with CDF >= p
	if p10 != 1 {
		t.Errorf("p10 = %v, want 1", p10)
	}
	if p50 != 5 {
		t.Errorf("p50 = %v, want 5", p50)
	}
	if p90 != 9 {
		t.Errorf("p90 = %v, want 9", p90)
	}
}

func TestSummarizeUnsortedInput(t *testing.T) {
	shuffled := []float64{7, 1, 9, 3, 5, 10, 2, 8, 4, 6}
	mean, _, p10, p50, p90 := Summarize(shuffled)

	if math.Abs(mean-5.5) > 0.001 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	if p10 != 1 || p50 != 5 || p90 != 9 {
		t.Errorf("quantiles = %v/%v/%v, want 1/5/9", p10, p50, p90)
	}

	// Input order must be preserved
	if shuffled[0] != 7 || shuffled[9] != 6 {
		t.Error("Summarize mutated its input")
	}
}

func TestSummarizeSingleValue(t *testing.T) {
	mean, std, p10, p50, p90 := Summarize([]float64{42})

	if mean != 42 || p10 != 42 || p50 != 42 || p90 != 42 {
		t.Errorf("single value stats = %v/%v/%v/%v, want all 42", mean, p10, p50, p90)
	}
	if std != 0 {
		t.Errorf("std of single value = %v, want 0", std)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := Summarize(nil)

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty series should return all zeros")
	}
}
