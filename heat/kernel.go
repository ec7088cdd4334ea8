package heat

import (
	"fmt"
	"math"
)

// Kernel is the radially symmetric Gaussian splat kernel. Weight is 1 at the
// sample's center cell, falls off as exp(-d²/(2σ²)), and is cut hard to zero
// beyond radius cells regardless of the continuous falloff value there.
type Kernel struct {
	radius    int
	sigma     float32
	intensity float32

	invTwoSigmaSq float64
}

// NewKernel creates a kernel with influence radius (cells), Gaussian falloff
// width sigma (cells), and per-sample intensity deposited per second.
func NewKernel(radius int, sigma, intensity float32) (*Kernel, error) {
	if radius < 0 {
		return nil, fmt.Errorf("kernel: radius must be non-negative, got %d", radius)
	}
	if !(sigma > 0) {
		return nil, fmt.Errorf("kernel: sigma must be positive, got %g", sigma)
	}
	if intensity < 0 || !isFinite(intensity) {
		return nil, fmt.Errorf("kernel: intensity must be finite and non-negative, got %g", intensity)
	}

	return &Kernel{
		radius:        radius,
		sigma:         sigma,
		intensity:     intensity,
		invTwoSigmaSq: 1 / (2 * float64(sigma) * float64(sigma)),
	}, nil
}

// Radius returns the influence radius in cells.
func (k *Kernel) Radius() int { return k.radius }

// Sigma returns the Gaussian falloff width in cells.
func (k *Kernel) Sigma() float32 { return k.sigma }

// Intensity returns the heat deposited per sample per second at distance 0.
func (k *Kernel) Intensity() float32 { return k.intensity }

// Weight returns the kernel weight at the given cell distance, including the
// hard cutoff beyond the radius.
func (k *Kernel) Weight(dist float32) float32 {
	if dist > float32(k.radius) {
		return 0
	}
	return float32(math.Exp(-float64(dist) * float64(dist) * k.invTwoSigmaSq))
}

// Splat deposits one sample at world position (wx,wy) into the field,
// scaled by the tick duration dt. The sample's fractional grid position is
// rounded to the nearest cell and the [-radius,radius]² neighborhood around
// it receives intensity*weight*dt per cell, subject to the hard distance
// cutoff. Returns the number of in-bounds cells updated.
func (k *Kernel) Splat(f *Field, wx, wy float32, dt float32) int {
	fx, fy := f.WorldToCell(wx, wy)
	cx := int(math.Round(float64(fx)))
	cy := int(math.Round(float64(fy)))

	r := k.radius
	rSq := r * r
	base := float64(k.intensity) * float64(dt)

	updated := 0
	for oy := -r; oy <= r; oy++ {
		for ox := -r; ox <= r; ox++ {
			dSq := ox*ox + oy*oy
			if dSq > rSq {
				continue
			}
			w := math.Exp(-float64(dSq) * k.invTwoSigmaSq)
			if f.Accumulate(cx+ox, cy+oy, float32(base*w)) {
				updated++
			}
		}
	}
	return updated
}

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
