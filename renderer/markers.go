package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/heattrace/camera"
	"github.com/pthm-cable/heattrace/heat"
)

// MarkerRenderer draws emitter positions as small ring markers.
type MarkerRenderer struct {
	// Radius is the marker ring radius in screen pixels.
	Radius float32
	Color  rl.Color
}

// NewMarkerRenderer creates a marker renderer with the default look.
func NewMarkerRenderer() *MarkerRenderer {
	return &MarkerRenderer{
		Radius: 4,
		Color:  rl.Color{R: 255, G: 255, B: 255, A: 220},
	}
}

// Draw renders one ring per position, culling markers outside the view.
func (m *MarkerRenderer) Draw(cam *camera.Camera, positions []heat.Sample) {
	// Culling works in world units, the ring radius is in pixels.
	worldRadius := m.Radius / cam.Zoom
	for _, p := range positions {
		if !cam.IsVisible(p.X, p.Y, worldRadius) {
			continue
		}
		sx, sy := cam.WorldToScreen(p.X, p.Y)
		rl.DrawCircleLines(int32(sx), int32(sy), m.Radius, m.Color)
		rl.DrawCircle(int32(sx), int32(sy), 1, m.Color)
	}
}
