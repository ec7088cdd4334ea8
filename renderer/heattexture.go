// Package renderer draws published heat frames and emitter markers through
// the camera.
package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/heattrace/camera"
	"github.com/pthm-cable/heattrace/engine"
)

// HeatRenderer uploads published frames to a GPU texture and draws them
// into the world rectangle. It implements the engine's display surface.
type HeatRenderer struct {
	tex        rl.Texture2D
	texW, texH int

	minX, minY float32
	maxX, maxY float32

	initialized bool
}

// NewHeatRenderer creates a renderer for the given world rectangle.
// The texture is created lazily on the first publish, which must happen
// after the raylib window exists.
func NewHeatRenderer(minX, minY, maxX, maxY float32) *HeatRenderer {
	return &HeatRenderer{minX: minX, minY: minY, maxX: maxX, maxY: maxY}
}

func (r *HeatRenderer) init(w, h int) {
	img := rl.GenImageColor(w, h, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterBilinear)
	rl.SetTextureWrap(r.tex, rl.WrapClamp)
	rl.UnloadImage(img)

	r.texW = w
	r.texH = h
	r.initialized = true
}

// Publish uploads a frame to the GPU texture.
func (r *HeatRenderer) Publish(f *engine.Frame) error {
	if !r.initialized {
		r.init(f.W, f.H)
	}
	if f.W != r.texW || f.H != r.texH {
		return fmt.Errorf("frame size %dx%d does not match texture %dx%d", f.W, f.H, r.texW, r.texH)
	}
	rl.UpdateTexture(r.tex, f.Pixels)
	return nil
}

// Draw renders the last published frame through the camera.
func (r *HeatRenderer) Draw(cam *camera.Camera) {
	if !r.initialized {
		return
	}

	sx, sy := cam.WorldToScreen(r.minX, r.minY)
	srcRect := rl.Rectangle{X: 0, Y: 0, Width: float32(r.texW), Height: float32(r.texH)}
	dstRect := rl.Rectangle{
		X:      sx,
		Y:      sy,
		Width:  (r.maxX - r.minX) * cam.Zoom,
		Height: (r.maxY - r.minY) * cam.Zoom,
	}
	rl.DrawTexturePro(r.tex, srcRect, dstRect, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *HeatRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
