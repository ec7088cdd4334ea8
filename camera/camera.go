// Package camera provides a 2D camera system for viewport control.
package camera

// Relation of max zoom to min zoom. Min zoom fits the world to the
// viewport, so this is the deepest magnification past the fitted view.
const maxZoomFactor = 16.0

// Camera controls the viewport into the world rectangle.
// Supports pan and zoom; panning clamps so the view never leaves the world.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom in screen pixels per world unit
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World rectangle the camera is confined to
	MinX, MinY, MaxX, MaxY float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world, zoomed to fit it.
func New(viewportW, viewportH, minX, minY, maxX, maxY float32) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinX:      minX,
		MinY:      minY,
		MaxX:      maxX,
		MaxY:      maxY,
	}
	c.updateZoomLimits()
	c.Reset()
	return c
}

func (c *Camera) worldW() float32 { return c.MaxX - c.MinX }
func (c *Camera) worldH() float32 { return c.MaxY - c.MinY }

// updateZoomLimits recomputes the zoom range from the viewport and world.
// At MinZoom the viewport exactly covers the world's limiting dimension,
// so zooming out further would show dead space outside the world.
func (c *Camera) updateZoomLimits() {
	minZoomX := c.ViewportW / c.worldW()
	minZoomY := c.ViewportH / c.worldH()
	c.MinZoom = minZoomX
	if minZoomY > c.MinZoom {
		c.MinZoom = minZoomY
	}
	c.MaxZoom = c.MinZoom * maxZoomFactor
}

// clampCenter keeps the visible area inside the world rectangle.
// MinZoom guarantees the visible extent never exceeds the world, so the
// clamp range is always valid.
func (c *Camera) clampCenter() {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	c.X = clamp(c.X, c.MinX+halfW, c.MaxX-halfW)
	c.Y = clamp(c.Y, c.MinY+halfH, c.MaxY-halfH)
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
// The result is not clamped; a cursor outside the world maps outside it.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateZoomLimits()
	c.Zoom = clamp(c.Zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels, clamped to
// the world rectangle.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// the given screen position fixed, as far as the world clamp allows.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	c.X = wx - (sx-c.ViewportW/2)/c.Zoom
	c.Y = wy - (sy-c.ViewportH/2)/c.Zoom
	c.clampCenter()
}

// Reset returns the camera to the world center at the fitted zoom.
func (c *Camera) Reset() {
	c.Zoom = c.MinZoom
	c.X = c.MinX + c.worldW()/2
	c.Y = c.MinY + c.worldH()/2
	c.clampCenter()
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
// Returns (minX, minY, maxX, maxY) in world coordinates.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
