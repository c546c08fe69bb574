package app

import (
	"encoding/binary"
	"fmt"

	"github.com/cforcomputer/mindwrite/frame"
	"github.com/cforcomputer/mindwrite/hal"
	"github.com/cforcomputer/mindwrite/ssd1683"
)

// Wire flag bits, payload[0] (spec §3, §4.4).
const (
	flagForceFull byte = 0x01
	flagRect      byte = 0x02
)

// Loop binds a frame.Parser to a panel driver. It owns prevFrame, the
// statically allocated record of what the panel last displayed (spec
// §9: no heap allocation).
type Loop struct {
	parser    *frame.Parser
	dev       *ssd1683.Dev
	transport hal.Transport
	clock     hal.Clock

	prevFrame [ssd1683.FrameBytes]byte

	framesOK      uint64
	framesDropped uint64
}

// NewLoop constructs a Loop and clears the panel to white, setting
// prevFrame to all-white, as spec §4.4 requires before the loop starts
// accepting updates. dev must already be initialized.
func NewLoop(dev *ssd1683.Dev, transport hal.Transport, clock hal.Clock) (*Loop, error) {
	l := &Loop{
		parser:    frame.NewParser(),
		dev:       dev,
		transport: transport,
		clock:     clock,
	}
	if err := dev.ClearToWhite(); err != nil {
		return nil, fmt.Errorf("app: initial clear_to_white: %w", err)
	}
	for i := range l.prevFrame {
		l.prevFrame[i] = 0xFF
	}
	return l, nil
}

// Run drives the loop until a driver error occurs. A malformed or
// validation-rejected frame never stops it; it is silently dropped,
// per spec §7.
func (l *Loop) Run() error {
	for {
		if err := l.ProcessOne(); err != nil {
			return err
		}
	}
}

// ProcessOne blocks until the parser yields one payload, dispatches
// it, and on success emits the ACK after the driver call has fully
// completed (spec §8, "ACK causality").
func (l *Loop) ProcessOne() error {
	f := l.parser.Next(l.transport, l.clock)
	ok, err := l.dispatch(f.Payload)
	if err != nil {
		return err
	}
	if !ok {
		l.framesDropped++
		return nil
	}
	l.framesOK++
	return l.ack()
}

func (l *Loop) dispatch(payload []byte) (ok bool, err error) {
	if len(payload) < 1 {
		return false, nil
	}
	flags := payload[0]
	forceFull := flags&flagForceFull != 0
	isRect := flags&flagRect != 0

	if !isRect {
		return l.dispatchFull(payload, forceFull)
	}
	return l.dispatchRect(payload, forceFull)
}

func (l *Loop) dispatchFull(payload []byte, forceFull bool) (bool, error) {
	if len(payload) != 1+ssd1683.FrameBytes {
		return false, nil
	}
	newFrame := payload[1:]
	if forceFull {
		if err := l.dev.ClearToWhite(); err != nil {
			return false, err
		}
		if err := l.dev.ShowFull(newFrame); err != nil {
			return false, err
		}
	} else {
		if err := l.dev.ShowPartialFull(newFrame, l.prevFrame[:]); err != nil {
			return false, err
		}
	}
	copy(l.prevFrame[:], newFrame)
	return true, nil
}

func (l *Loop) dispatchRect(payload []byte, forceFull bool) (bool, error) {
	if len(payload) < 1+8 {
		return false, nil
	}
	rect := ssd1683.RectHeader{
		X: binary.LittleEndian.Uint16(payload[1:3]),
		Y: binary.LittleEndian.Uint16(payload[3:5]),
		W: binary.LittleEndian.Uint16(payload[5:7]),
		H: binary.LittleEndian.Uint16(payload[7:9]),
	}
	if !rect.Validate() {
		return false, nil
	}
	wb := int(rect.W) / 8
	want := 1 + 8 + wb*int(rect.H)
	if len(payload) != want {
		return false, nil
	}
	rectBytes := payload[9:]

	if forceFull {
		patchRect(l.prevFrame[:], rect, rectBytes)
		if err := l.dev.ClearToWhite(); err != nil {
			return false, err
		}
		if err := l.dev.ShowFull(l.prevFrame[:]); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := l.dev.ShowPartialWindow(int(rect.X), int(rect.Y), int(rect.W), int(rect.H), rectBytes, l.prevFrame[:]); err != nil {
		return false, err
	}
	patchRect(l.prevFrame[:], rect, rectBytes)
	return true, nil
}

// patchRect overwrites the rectangle (rect.X, rect.Y, rect.W, rect.H)
// of dst, a row-major FrameBytes-long buffer, with rectBytes (spec §8,
// testable property 7: "rect patch equivalence").
func patchRect(dst []byte, rect ssd1683.RectHeader, rectBytes []byte) {
	wb := int(rect.W) / 8
	xb := int(rect.X) / 8
	for row := 0; row < int(rect.H); row++ {
		src := rectBytes[row*wb : (row+1)*wb]
		off := (int(rect.Y)+row)*ssd1683.BytesPerRow + xb
		copy(dst[off:off+wb], src)
	}
}

func (l *Loop) ack() error {
	if err := l.transport.WriteBytes([]byte{'O', 'K'}); err != nil {
		return err
	}
	return l.transport.Flush()
}

// Stats reports how many frames this Loop has accepted and silently
// dropped since construction. It is a diagnostics side channel only;
// spec §7 is explicit that nothing about rejected frames is surfaced
// on the wire.
func (l *Loop) Stats() (ok, dropped uint64) {
	return l.framesOK, l.framesDropped
}
