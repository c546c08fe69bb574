// Package ssd1683 controls a dual-controller SSD1683 monochrome
// electrophoretic (e-paper) display, as found on the 792x272 GDEY0579T93
// glass: two controller halves (master driving the left 400 pixels, slave
// the right 400, sharing one overlap byte) behind a single SPI bus and
// BUSY line.
//
// The panel's RAM is filled column-major with rows running bottom to top
// (data entry mode X-increment/Y-decrement); Dev hides that from callers,
// which always address the panel in the row-major, top-row-first 1bpp
// layout: BytesPerRow bytes per row, most significant bit leftmost.
//
// Datasheet family: SSD1683 (Solomon Systech / Good Display). Product:
// https://www.good-display.com/product/394.html (GDEY0579T93).
package ssd1683
