// Package visualizer draws the live waveform onto a terminal canvas.
package visualizer

// Surface is the subset of a 2D drawing context the renderer needs.
// Coordinates are in pixels.
type Surface interface {
	Size() (width, height int)
	// FadeOut erases alpha from every pixel, leaving a fading trail.
	FadeOut(alpha float64)
	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Stroke()
}
