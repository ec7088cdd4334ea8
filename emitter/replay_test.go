package emitter

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/heattrace/heat"
)

// scriptedSource returns canned samples per tick, for exercising the
// capture wrappers without a live emitter.
type scriptedSource struct {
	byTick map[int32][]heat.Sample
	errAt  map[int32]error
}

func (s *scriptedSource) Samples(tick int32, dt float32) ([]heat.Sample, error) {
	if err := s.errAt[tick]; err != nil {
		return nil, err
	}
	return s.byTick[tick], nil
}

func TestRecorderReplayRoundtrip(t *testing.T) {
	script := map[int32][]heat.Sample{
		0: {{X: 1.5, Y: 2.25}},
		2: {{X: 3, Y: 4.5}, {X: 5, Y: 6.5}},
		4: {{X: -1.25, Y: 0.5}},
	}
	path := filepath.Join(t.TempDir(), "capture.csv")

	rec, err := NewRecorder(&scriptedSource{byTick: script}, path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	for tick := int32(0); tick <= 4; tick++ {
		got, err := rec.Samples(tick, 1.0/60.0)
		if err != nil {
			t.Fatalf("Recorder.Samples(%d): %v", tick, err)
		}
		if len(got) != len(script[tick]) {
			t.Fatalf("tick %d: recorder returned %d samples, want %d", tick, len(got), len(script[tick]))
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rep, err := NewReplay(path, false)
	if err != nil {
		t.Fatalf("NewReplay: %v", err)
	}
	if rep.MaxTick() != 4 {
		t.Errorf("MaxTick = %d, want 4", rep.MaxTick())
	}

	for tick := int32(0); tick <= 4; tick++ {
		got, err := rep.Samples(tick, 1.0/60.0)
		if err != nil {
			t.Fatalf("Replay.Samples(%d): %v", tick, err)
		}
		want := script[tick]
		if len(got) != len(want) {
			t.Fatalf("tick %d: replayed %d samples, want %d", tick, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("tick %d sample %d: got %v, want %v", tick, i, got[i], want[i])
			}
		}
	}

	if rep.Finished() {
		t.Error("replay reported finished before running past the capture")
	}
	got, err := rep.Samples(5, 1.0/60.0)
	if err != nil || len(got) != 0 {
		t.Errorf("past-the-end Samples = (%v, %v), want (empty, nil)", got, err)
	}
	if !rep.Finished() {
		t.Error("replay did not report finished past the capture")
	}
}

func TestReplayLoop(t *testing.T) {
	script := map[int32][]heat.Sample{
		0: {{X: 1, Y: 1}},
		1: {{X: 2, Y: 2}, {X: 2.5, Y: 2.5}},
		2: {{X: 3, Y: 3}},
	}
	path := filepath.Join(t.TempDir(), "capture.csv")

	rec, err := NewRecorder(&scriptedSource{byTick: script}, path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	for tick := int32(0); tick <= 2; tick++ {
		rec.Samples(tick, 1)
	}
	rec.Close()

	rep, err := NewReplay(path, true)
	if err != nil {
		t.Fatalf("NewReplay: %v", err)
	}

	// The three-tick capture repeats: tick 3 plays tick 0, tick 7 plays tick 1.
	for _, tc := range []struct {
		tick int32
		want int32
	}{{3, 0}, {7, 1}, {47, 2}} {
		got, _ := rep.Samples(tc.tick, 1)
		want := script[tc.want]
		if len(got) != len(want) {
			t.Fatalf("tick %d: got %d samples, want %d", tc.tick, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("tick %d sample %d: got %v, want %v", tc.tick, i, got[i], want[i])
			}
		}
	}
	if rep.Finished() {
		t.Error("looping replay reported finished")
	}
}

func TestRecorderPassesThroughErrors(t *testing.T) {
	boom := errors.New("backend down")
	script := &scriptedSource{
		byTick: map[int32][]heat.Sample{
			0: {{X: 1, Y: 1}},
			2: {{X: 3, Y: 3}},
		},
		errAt: map[int32]error{1: boom},
	}
	path := filepath.Join(t.TempDir(), "capture.csv")

	rec, err := NewRecorder(script, path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if _, err := rec.Samples(0, 1); err != nil {
		t.Fatalf("tick 0: %v", err)
	}
	if _, err := rec.Samples(1, 1); !errors.Is(err, boom) {
		t.Fatalf("tick 1 error = %v, want %v", err, boom)
	}
	if _, err := rec.Samples(2, 1); err != nil {
		t.Fatalf("tick 2: %v", err)
	}
	rec.Close()

	rep, err := NewReplay(path, false)
	if err != nil {
		t.Fatalf("NewReplay: %v", err)
	}
	for _, tick := range []int32{0, 2} {
		got, _ := rep.Samples(tick, 1)
		if len(got) != 1 {
			t.Errorf("tick %d: replayed %d samples, want 1", tick, len(got))
		}
	}
	got, _ := rep.Samples(1, 1)
	if len(got) != 0 {
		t.Errorf("failed tick replayed %d samples, want 0", len(got))
	}
}

func TestRecorderEmptyCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.csv")

	rec, err := NewRecorder(&scriptedSource{}, path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	for tick := int32(0); tick < 3; tick++ {
		rec.Samples(tick, 1)
	}
	rec.Close()

	rep, err := NewReplay(path, false)
	if err != nil {
		t.Fatalf("NewReplay: %v", err)
	}
	if rep.MaxTick() != -1 {
		t.Errorf("MaxTick = %d, want -1", rep.MaxTick())
	}
	got, err := rep.Samples(0, 1)
	if err != nil || len(got) != 0 {
		t.Errorf("empty capture Samples = (%v, %v), want (empty, nil)", got, err)
	}
	if !rep.Finished() {
		t.Error("empty capture did not report finished")
	}
}

func TestReplayMissingFile(t *testing.T) {
	if _, err := NewReplay(filepath.Join(t.TempDir(), "missing.csv"), false); err == nil {
		t.Error("expected an error for a missing capture file")
	}
}

func TestNewRecorderRequiresSource(t *testing.T) {
	if _, err := NewRecorder(nil, filepath.Join(t.TempDir(), "capture.csv")); err == nil {
		t.Error("expected an error for a nil source")
	}
}
