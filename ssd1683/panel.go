package ssd1683

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/cforcomputer/mindwrite/hal"
)

// Idle timeouts used internally by the driver (spec §4.3.5: "driver-
// internal calls use 5000 or 20000ms").
const (
	idleTimeoutShort = 5 * time.Second
	idleTimeoutReset = 5 * time.Second
	idleTimeoutFull  = 20 * time.Second
)

// Dev owns the SPI session, pin assignments, and initialization state for
// one SSD1683 dual-controller panel (spec §3, "PanelDriver"). It is a
// process-lifetime singleton: the core is single-threaded, and no
// exclusion primitive guards concurrent calls (spec §5, §9).
type Dev struct {
	c     conn.Conn
	pins  hal.Pins
	clock hal.Clock

	initialized bool

	// scratch is reused across every NEW/OLD RAM write so no per-frame
	// heap allocation is needed (spec §9). Its size is the largest single
	// write any one half ever performs: one full half's worth of the
	// panel, column-major.
	scratch [MasterCols * Height]byte

	// whiteFrame is the constant all-0xFF buffer ClearToWhite feeds to
	// ShowFull; it never needs re-filling since all-white never changes.
	whiteFrame [FrameBytes]byte
}

// New creates a Dev bound to an already-opened SPI port and the given
// pin assignment. It does not touch the panel; call Init to bring it up.
func New(p spi.Port, pins hal.Pins, clock hal.Clock) (*Dev, error) {
	c, err := p.Connect(20*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ssd1683: connect SPI: %w", err)
	}
	if err := pins.Busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("ssd1683: configure BUSY pin: %w", err)
	}
	if clock == nil {
		clock = hal.SystemClock{}
	}
	d := &Dev{c: c, pins: pins, clock: clock}
	for i := range d.whiteFrame {
		d.whiteFrame[i] = 0xFF
	}
	return d, nil
}

func (d *Dev) newErrorHandler() *errorHandler {
	return &errorHandler{pins: d.pins, bus: d.c, clock: d.clock}
}

// Initialized reports whether Init has completed successfully.
func (d *Dev) Initialized() bool { return d.initialized }

// Init performs the hardware reset and register setup sequence (spec
// §4.3.4): CS/DC/RST configured, hardware reset pulse, software reset,
// border waveform, temperature sensor source, then marks the driver
// initialized.
func (d *Dev) Init() error {
	eh := d.newErrorHandler()

	eh.csOut(gpio.High)
	eh.dcOut(gpio.Low)
	eh.rstOut(gpio.High)
	if eh.err != nil {
		return eh.err
	}

	eh.rstOut(gpio.Low)
	d.clock.Sleep(10 * time.Millisecond)
	eh.rstOut(gpio.High)
	d.clock.Sleep(10 * time.Millisecond)

	eh.sendCommand(masterSWReset)
	eh.waitIdle(idleTimeoutReset)

	eh.sendCommand(masterBorderWave)
	eh.sendData([]byte{0x80})

	eh.sendCommand(masterTempSensor)
	eh.sendData([]byte{0x80})

	if eh.err != nil {
		return eh.err
	}
	d.initialized = true
	return nil
}

// WaitIdle polls BUSY until it clears or timeout elapses, reporting false
// on timeout (spec §4.3.5). The driver itself does not treat a timeout as
// fatal (spec §7): callers may choose to.
func (d *Dev) WaitIdle(timeout time.Duration) bool {
	eh := d.newErrorHandler()
	return eh.waitIdle(timeout)
}

// ShowFull performs a full refresh of the panel from frame, a
// FrameBytes-long row-major 1bpp buffer (spec §4.3.6). It is a no-op if
// Init has not completed (spec §7, "Uninitialized driver call: no-op").
func (d *Dev) ShowFull(frame []byte) error {
	if !d.initialized {
		return nil
	}
	if len(frame) != FrameBytes {
		return fmt.Errorf("ssd1683: ShowFull: frame is %d bytes, want %d", len(frame), FrameBytes)
	}

	eh := d.newErrorHandler()
	get := func(c, y int) byte { return frame[y*BytesPerRow+c] }
	zero := func(c, y int) byte { return 0 }

	programWindow(eh, masterHalf, masterHalf.columns, 0, Height-1)
	eh.waitIdle(idleTimeoutShort)
	writeColumnMajor(eh, masterHalf.writeNew, d.scratch[:], masterHalf.columns, 0, Height-1, get)
	writeColumnMajor(eh, masterHalf.writeOld, d.scratch[:], masterHalf.columns, 0, Height-1, zero)

	programWindow(eh, slaveHalf, slaveHalf.columns, 0, Height-1)
	eh.waitIdle(idleTimeoutShort)
	writeColumnMajor(eh, slaveHalf.writeNew, d.scratch[:], slaveHalf.columns, 0, Height-1, get)
	writeColumnMajor(eh, slaveHalf.writeOld, d.scratch[:], slaveHalf.columns, 0, Height-1, zero)

	trigger(eh, updateFlagsFull, idleTimeoutFull)
	return eh.err
}

// ShowPartialFull performs a full-screen partial refresh: newFrame is
// displayed using oldFrame as the OLD-RAM reference for every pixel
// (spec §4.3.7). It is equivalent to ShowPartialWindow covering the
// entire panel.
func (d *Dev) ShowPartialFull(newFrame, oldFrame []byte) error {
	return d.ShowPartialWindow(0, 0, Width, Height, newFrame, oldFrame)
}

// ShowPartialWindow performs a partial refresh of the rectangle (x, y,
// w, h), where rectNew is a tightly packed w/8*h byte buffer for just
// that rectangle and oldFull is the full FrameBytes-long buffer last
// displayed (spec §4.3.8). x and w must be multiples of 8; w and h are
// clamped so the region stays on-panel.
func (d *Dev) ShowPartialWindow(x, y, w, h int, rectNew, oldFull []byte) error {
	if !d.initialized {
		return nil
	}
	if x%8 != 0 || w%8 != 0 || w <= 0 || h <= 0 || x >= Width || y >= Height {
		return fmt.Errorf("ssd1683: ShowPartialWindow: invalid rect x=%d y=%d w=%d h=%d", x, y, w, h)
	}
	if x+w > Width {
		w = Width - x
	}
	if y+h > Height {
		h = Height - y
	}
	if len(oldFull) != FrameBytes {
		return fmt.Errorf("ssd1683: ShowPartialWindow: oldFull is %d bytes, want %d", len(oldFull), FrameBytes)
	}

	rectXB := x / 8
	rectWB := w / 8
	xEndB := rectXB + rectWB - 1
	yTop, yBottom := y, y+h-1

	if len(rectNew) != rectWB*h {
		return fmt.Errorf("ssd1683: ShowPartialWindow: rectNew is %d bytes, want %d", len(rectNew), rectWB*h)
	}

	eh := d.newErrorHandler()

	getNew := func(gcol, yy int) byte { return rectNew[(yy-y)*rectWB+(gcol-rectXB)] }
	getOld := func(gcol, yy int) byte { return oldFull[yy*BytesPerRow+gcol] }

	for _, h2 := range []half{masterHalf, slaveHalf} {
		lo, hi := intersect(h2.columns, [2]int{rectXB, xEndB})
		if lo > hi {
			continue
		}
		cols := [2]int{lo, hi}
		programWindow(eh, h2, cols, yTop, yBottom)
		eh.waitIdle(idleTimeoutShort)
		writeColumnMajor(eh, h2.writeNew, d.scratch[:], cols, yTop, yBottom, getNew)
		writeColumnMajor(eh, h2.writeOld, d.scratch[:], cols, yTop, yBottom, getOld)
	}

	trigger(eh, updateFlagsPartial, idleTimeoutShort)
	return eh.err
}

func intersect(a, b [2]int) (lo, hi int) {
	lo = a[0]
	if b[0] > lo {
		lo = b[0]
	}
	hi = a[1]
	if b[1] < hi {
		hi = b[1]
	}
	return lo, hi
}

// ClearToWhite fills the panel with white via a full refresh (spec
// §4.3.9).
func (d *Dev) ClearToWhite() error {
	return d.ShowFull(d.whiteFrame[:])
}

// String returns a short description of the driver's configuration,
// matching every waveshare2in13* driver's own String method.
func (d *Dev) String() string {
	return fmt.Sprintf("ssd1683.Dev{%dx%d, initialized=%v}", Width, Height, d.initialized)
}
