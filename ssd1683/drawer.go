package ssd1683

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Drawer adapts a Dev to periph's generic image.Image-based ecosystem
// (periph.io/x/conn/v3/display.Drawer), the same adapter every
// waveshare2in13* driver in the periph devices tree provides via its own
// Dev.Draw/ColorModel/Bounds methods and `var _ display.Drawer = &Dev{}`
// assertion. It is additive: the wire protocol and application loop
// (package app) drive Dev directly with raw 1bpp buffers per spec, never
// through Drawer.
type Drawer struct {
	dev *Dev

	// prev is the last frame this Drawer displayed, needed as the OLD-RAM
	// reference for partial refreshes (spec §4.3.8).
	prev [FrameBytes]byte
	full bool
}

// NewDrawer wraps dev for image.Image-based drawing. The first Draw call
// always performs a full refresh, since there is no prior OLD-RAM
// reference yet.
func NewDrawer(dev *Dev) *Drawer {
	return &Drawer{dev: dev}
}

// ColorModel returns the strictly-1bpp black/white model this panel
// supports (spec non-goal: no grayscale/color rendering).
func (w *Drawer) ColorModel() color.Model { return image1bit.BitModel }

// Bounds returns the panel's pixel bounds.
func (w *Drawer) Bounds() image.Rectangle { return image.Rect(0, 0, Width, Height) }

// Draw renders src into dstRect and pushes it to the panel: a full
// refresh the first time, a full-screen partial refresh afterward.
func (w *Drawer) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
	draw.Src.Draw(img, img.Bounds(), &image.Uniform{image1bit.On}, image.Point{})
	draw.Src.Draw(img, dstRect, src, srcPts)

	var next [FrameBytes]byte
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if img.BitAt(x, y) {
				next[y*BytesPerRow+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}

	if !w.full {
		w.full = true
		if err := w.dev.ShowFull(next[:]); err != nil {
			return err
		}
	} else {
		if err := w.dev.ShowPartialFull(next[:], w.prev[:]); err != nil {
			return err
		}
	}
	w.prev = next
	return nil
}

var _ display.Drawer = &Drawer{}
