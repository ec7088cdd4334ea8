package main

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/heattrace/camera"
	"github.com/pthm-cable/heattrace/engine"
	"github.com/pthm-cable/heattrace/heat"
	"github.com/pthm-cable/heattrace/renderer"
)

// viewer owns the interactive window: camera control, overlay toggles and
// the per-frame tick loop.
type viewer struct {
	eng      *engine.Engine
	heatR    *renderer.HeatRenderer
	markers  *renderer.MarkerRenderer
	cam      *camera.Camera
	markerFn func() []heat.Sample

	screenW, screenH float32

	paused         bool
	stepsPerUpdate int
	showHeat       bool
	showMarkers    bool
}

func newViewer(eng *engine.Engine, heatR *renderer.HeatRenderer, cam *camera.Camera, markerFn func() []heat.Sample, stepsPerUpdate int) *viewer {
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}
	return &viewer{
		eng:            eng,
		heatR:          heatR,
		markers:        renderer.NewMarkerRenderer(),
		cam:            cam,
		markerFn:       markerFn,
		screenW:        float32(rl.GetScreenWidth()),
		screenH:        float32(rl.GetScreenHeight()),
		stepsPerUpdate: stepsPerUpdate,
		showHeat:       true,
		showMarkers:    true,
	}
}

// Update handles input and advances the simulation.
func (v *viewer) Update() {
	v.handleInput()

	if v.paused {
		return
	}
	for i := 0; i < v.stepsPerUpdate; i++ {
		v.eng.Tick()
	}
}

// handleInput processes keyboard and mouse input.
func (v *viewer) handleInput() {
	v.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	// Single-step while paused
	if v.paused && rl.IsKeyPressed(rl.KeyN) {
		v.eng.Tick()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && v.stepsPerUpdate > 1 {
		v.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && v.stepsPerUpdate < 10 {
		v.stepsPerUpdate++
	}

	// Overlay toggles
	if rl.IsKeyPressed(rl.KeyH) {
		v.showHeat = !v.showHeat
	}
	if rl.IsKeyPressed(rl.KeyM) {
		v.showMarkers = !v.showMarkers
	}

	if rl.IsKeyPressed(rl.KeyC) {
		v.eng.ClearField()
	}

	v.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (v *viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW = w
	v.screenH = h
	v.cam.Resize(w, h)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *viewer) handleCameraInput() {
	const panSpeed = 8.0

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		v.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.cam.Pan(0, -panSpeed)
	}

	// Mouse wheel zooms toward the cursor
	wheelMove := rl.GetMouseWheelMove()
	if wheelMove != 0 {
		mouse := rl.GetMousePosition()
		v.cam.ZoomAt(mouse.X, mouse.Y, 1.0+wheelMove*0.1)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.cam.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
	}
}

// Draw renders the frame.
func (v *viewer) Draw() {
	v.eng.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	if v.showHeat {
		v.heatR.Draw(v.cam)
	}
	if v.showMarkers && v.markerFn != nil {
		v.markers.Draw(v.cam, v.markerFn())
	}

	// Draw HUD
	stats := v.eng.Stats()
	rl.DrawText(fmt.Sprintf("Tick: %d  FPS: %d", stats.Tick, rl.GetFPS()), 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Mass: %.1f  Peak: %.2f", stats.Mass, stats.Peak), 10, 35, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Speed: %dx  [</>]", v.stepsPerUpdate), 10, 60, 20, rl.White)
	y := int32(85)
	if stats.Rejected > 0 {
		rl.DrawText(fmt.Sprintf("Rejected: %d", stats.Rejected), 10, y, 20, rl.Orange)
		y += 25
	}
	if v.paused {
		rl.DrawText("PAUSED  [N] step", 10, y, 20, rl.Yellow)
	}

	rl.EndDrawing()
}
