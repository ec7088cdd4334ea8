package heat

// Sample is a single world-space point observation ingested in one tick.
// Samples carry an implicit unit weight and are never stored past the tick
// that read them.
type Sample struct {
	X, Y float32
}

// DropNonFinite filters out samples with NaN or infinite components,
// compacting the slice in place. It returns the surviving samples and the
// number rejected. Positions outside the world rectangle are kept: edge
// spill-over is legitimate and handled by the field's bounds checks.
func DropNonFinite(samples []Sample) ([]Sample, int) {
	kept := samples[:0]
	for _, s := range samples {
		if !isFinite(s.X) || !isFinite(s.Y) {
			continue
		}
		kept = append(kept, s)
	}
	return kept, len(samples) - len(kept)
}
