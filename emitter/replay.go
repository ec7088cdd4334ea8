package emitter

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/heattrace/heat"
)

// SampleRecord is one emitted sample in a capture file.
type SampleRecord struct {
	Tick int32   `csv:"tick"`
	X    float32 `csv:"x"`
	Y    float32 `csv:"y"`
}

// Recorder tees the samples of an inner emitter into a CSV capture file.
// Write failures are logged and do not interrupt the run.
type Recorder struct {
	inner         SampleSource
	file          *os.File
	headerWritten bool
}

// NewRecorder wraps inner and captures its output at path.
func NewRecorder(inner SampleSource, path string) (*Recorder, error) {
	if inner == nil {
		return nil, fmt.Errorf("recorder requires an inner emitter")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating capture file: %w", err)
	}
	return &Recorder{inner: inner, file: f}, nil
}

// Samples fetches from the inner emitter and appends the result to the
// capture file. Inner errors pass through unrecorded.
func (r *Recorder) Samples(tick int32, dt float32) ([]heat.Sample, error) {
	samples, err := r.inner.Samples(tick, dt)
	if err != nil {
		return nil, err
	}
	if len(samples) > 0 {
		records := make([]SampleRecord, len(samples))
		for i, s := range samples {
			records[i] = SampleRecord{Tick: tick, X: s.X, Y: s.Y}
		}
		var werr error
		if !r.headerWritten {
			werr = gocsv.Marshal(records, r.file)
			r.headerWritten = true
		} else {
			werr = gocsv.MarshalWithoutHeaders(records, r.file)
		}
		if werr != nil {
			slog.Error("failed to write sample capture", "tick", tick, "error", werr)
		}
	}
	return samples, nil
}

// Close flushes and closes the capture file.
func (r *Recorder) Close() error {
	return r.file.Close()
}

// Replay feeds samples back from a capture file, keyed by tick. With loop
// enabled the capture repeats past its last recorded tick; without it the
// replay goes quiet and reports Finished.
type Replay struct {
	byTick   map[int32][]heat.Sample
	maxTick  int32
	loop     bool
	finished bool
}

// NewReplay loads a capture file written by a Recorder.
func NewReplay(path string, loop bool) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture file: %w", err)
	}
	defer f.Close()

	r := &Replay{
		byTick:  make(map[int32][]heat.Sample),
		maxTick: -1,
		loop:    loop,
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("inspecting capture file: %w", err)
	}
	// A capture with no samples has no header either.
	if info.Size() == 0 {
		return r, nil
	}

	var records []SampleRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing capture file: %w", err)
	}
	for _, rec := range records {
		r.byTick[rec.Tick] = append(r.byTick[rec.Tick], heat.Sample{X: rec.X, Y: rec.Y})
		if rec.Tick > r.maxTick {
			r.maxTick = rec.Tick
		}
	}

	return r, nil
}

// Samples returns the capture's samples for the given tick. It never fails;
// past the end of a non-looping capture it returns nothing.
func (r *Replay) Samples(tick int32, dt float32) ([]heat.Sample, error) {
	if r.loop {
		if span := r.maxTick + 1; span > 0 {
			tick %= span
		}
	} else if tick > r.maxTick {
		r.finished = true
		return nil, nil
	}
	return r.byTick[tick], nil
}

// Finished reports whether a non-looping replay has run past its capture.
func (r *Replay) Finished() bool {
	return r.finished
}

// MaxTick returns the last recorded tick, or -1 for an empty capture.
func (r *Replay) MaxTick() int32 {
	return r.maxTick
}
