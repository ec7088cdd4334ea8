// Splat kernel preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/kernelpreview
package main

import (
	"fmt"
	"image/color"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/heattrace/heat"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30

	// Preview grid: one world unit per cell, source in the middle.
	gridSize = 64
	dt       = float32(1.0 / 60.0)
)

// KernelParams holds the tunable pipeline parameters.
type KernelParams struct {
	Sigma     float32
	Radius    int
	Intensity float32
	Decay     float32
	Ceiling   float32
}

func defaultParams() KernelParams {
	return KernelParams{
		Sigma:     2.0,
		Radius:    6,
		Intensity: 36.0,
		Decay:     0.94,
		Ceiling:   10.0,
	}
}

// pipeline bundles the live heat components behind the sliders.
type pipeline struct {
	field    *heat.Field
	kernel   *heat.Kernel
	resolver *heat.Resolver
}

func buildPipeline(p KernelParams) (*pipeline, error) {
	field, err := heat.NewField(gridSize, gridSize, 0, 0, gridSize, gridSize, p.Decay)
	if err != nil {
		return nil, err
	}
	kernel, err := heat.NewKernel(p.Radius, p.Sigma, p.Intensity)
	if err != nil {
		return nil, err
	}
	resolver, err := heat.NewResolver(p.Ceiling, heat.Gradient{
		Cold: color.RGBA{R: 6, G: 10, B: 40, A: 255},
		Mid:  color.RGBA{R: 220, G: 90, B: 25, A: 255},
		Hot:  color.RGBA{R: 255, G: 245, B: 200, A: 255},
	}, 255)
	if err != nil {
		return nil, err
	}
	return &pipeline{field: field, kernel: kernel, resolver: resolver}, nil
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Splat Kernel Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	params := defaultParams()

	pipe, err := buildPipeline(params)
	if err != nil {
		panic(err)
	}

	pixels := make([]color.RGBA, gridSize*gridSize)
	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(texture, rl.FilterBilinear)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	const center = float32(gridSize) / 2

	animating := false
	cellsTouched := 0
	needsRebuild := false
	needsRegen := true

	// Static view: a single one-second pulse shows the raw deposit shape,
	// so the center cell reads exactly the intensity value.
	pulse := func() {
		pipe.field.Reset()
		cellsTouched = pipe.kernel.Splat(pipe.field, center, center, 1)
	}
	pulse()

	for !rl.WindowShouldClose() {
		if needsRebuild {
			if next, err := buildPipeline(params); err == nil {
				pipe = next
			}
			needsRebuild = false
			if !animating {
				pulse()
			}
			needsRegen = true
		}

		// Animation: continuous source against decay, settling toward
		// intensity*dt/(1-decay)
		if animating {
			pipe.field.Decay()
			cellsTouched = pipe.kernel.Splat(pipe.field, center, center, dt)
			needsRegen = true
		}

		if needsRegen {
			pipe.resolver.Resolve(pipe.field, pixels)
			rl.UpdateTexture(texture, pixels)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: gridSize, Height: gridSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		// Gradient ramp under the preview
		rampY := int32(previewSize + 20)
		for i := int32(0); i < 256; i++ {
			v := params.Ceiling * float32(i) / 255
			c := pipe.resolver.ColorAt(v)
			rl.DrawRectangle(10+i*2, rampY, 2, 14, rl.Color{R: c.R, G: c.G, B: c.B, A: 255})
		}
		rl.DrawRectangleLines(10, rampY, 512, 14, rl.DarkGray)

		// Draw stats
		centerVal := pipe.field.Sample(center, center)
		steady := params.Intensity * dt / (1 - params.Decay)

		statsY := rampY + 22
		rl.DrawText(fmt.Sprintf("Center: %.2f  Peak: %.2f  Cells/splat: %d", centerVal, pipe.field.Peak(), cellsTouched), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Steady-state peak: %.2f (%.0f%% of ceiling)", steady, 100*steady/params.Ceiling), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Splat Kernel Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		// Sigma slider
		rl.DrawText("Sigma (Gaussian falloff width, cells)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSigma := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.2", "8.0",
			params.Sigma, 0.2, 8.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.Sigma), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newSigma != params.Sigma {
			params.Sigma = newSigma
			needsRebuild = true
		}
		panelY += 35

		// Radius slider
		rl.DrawText("Radius (hard cutoff, cells)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newRadius := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "12",
			float32(params.Radius), 0, 12,
		)
		rl.DrawText(fmt.Sprintf("%d", params.Radius), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int(newRadius) != params.Radius {
			params.Radius = int(newRadius)
			needsRebuild = true
		}
		panelY += 35

		// Intensity slider
		rl.DrawText("Intensity (heat per sample-second)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newIntensity := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "200",
			params.Intensity, 1, 200,
		)
		rl.DrawText(fmt.Sprintf("%.0f", params.Intensity), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newIntensity != params.Intensity {
			params.Intensity = newIntensity
			needsRebuild = true
		}
		panelY += 35

		// Decay slider
		rl.DrawText("Decay (per-tick attenuation)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newDecay := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.80", "0.999",
			params.Decay, 0.80, 0.999,
		)
		rl.DrawText(fmt.Sprintf("%.3f", params.Decay), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newDecay != params.Decay {
			params.Decay = newDecay
			needsRebuild = true
		}
		panelY += 35

		// Ceiling slider
		rl.DrawText("Ceiling (display normalization)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newCeiling := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "300",
			params.Ceiling, 1, 300,
		)
		rl.DrawText(fmt.Sprintf("%.0f", params.Ceiling), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newCeiling != params.Ceiling {
			params.Ceiling = newCeiling
			needsRebuild = true
		}
		panelY += 45

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
			if animating {
				pipe.field.Reset()
			} else {
				pulse()
				needsRegen = true
			}
		}

		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Clear") {
			pipe.field.Reset()
			if !animating {
				pulse()
			}
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams()
			animating = false
			needsRebuild = true
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range yamlLines(params) {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		// Instructions
		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		// Copy to clipboard on C key
		if rl.IsKeyPressed(rl.KeyC) {
			yaml := ""
			for _, line := range yamlLines(params) {
				yaml += line + "\n"
			}
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

func yamlLines(p KernelParams) []string {
	return []string{
		"kernel:",
		fmt.Sprintf("  radius: %d", p.Radius),
		fmt.Sprintf("  sigma: %.2f", p.Sigma),
		fmt.Sprintf("  intensity: %.1f", p.Intensity),
		"field:",
		fmt.Sprintf("  decay: %.3f", p.Decay),
		"color:",
		fmt.Sprintf("  ceiling: %.1f", p.Ceiling),
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
