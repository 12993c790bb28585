package standalone

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// FramebufferRenderer owns the ebiten offscreen buffer and handles
// pixel rendering with scaling.
type FramebufferRenderer struct {
	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions
}

// NewFramebufferRenderer creates a renderer.
func NewFramebufferRenderer() *FramebufferRenderer {
	return &FramebufferRenderer{}
}

// drawRect computes the scale and offset that fit a width x height frame
// shown at aspect into the screen, centered. An aspect <= 0 means square
// pixels.
func drawRect(screenW, screenH, width, height int, aspect float64) (scaleX, scaleY, offsetX, offsetY float64) {
	nativeW := float64(width)
	nativeH := float64(height)
	if aspect <= 0 {
		aspect = nativeW / nativeH
	}
	// Width of the frame once its pixels are stretched to the display aspect
	displayW := nativeH * aspect

	scale := float64(screenW) / displayW
	if s := float64(screenH) / nativeH; s < scale {
		scale = s
	}

	scaleY = scale
	scaleX = scale * displayW / nativeW
	offsetX = (float64(screenW) - nativeW*scaleX) / 2
	offsetY = (float64(screenH) - nativeH*scaleY) / 2
	return
}

// DrawFramebuffer renders RGBA pixel data to the screen scaled to fit while
// keeping the display aspect ratio.
func (r *FramebufferRenderer) DrawFramebuffer(screen *ebiten.Image, pixels []byte, width, height int, aspect float64) {
	if width == 0 || height == 0 {
		return
	}

	requiredLen := width * height * 4
	if len(pixels) < requiredLen {
		return
	}

	if r.offscreen == nil || r.offscreen.Bounds().Dx() != width || r.offscreen.Bounds().Dy() != height {
		r.offscreen = ebiten.NewImage(width, height)
	}

	r.offscreen.WritePixels(pixels[:requiredLen])

	scaleX, scaleY, offsetX, offsetY := drawRect(screen.Bounds().Dx(), screen.Bounds().Dy(), width, height, aspect)

	r.drawOpts = ebiten.DrawImageOptions{}
	r.drawOpts.GeoM.Scale(scaleX, scaleY)
	r.drawOpts.GeoM.Translate(offsetX, offsetY)
	r.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(r.offscreen, &r.drawOpts)
}
