package ssd1683

import (
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/cforcomputer/mindwrite/hal"
)

// errorHandler wraps the low-level SPI/GPIO protocol (spec §4.3.1): every
// command byte is clocked out with DC low, every data byte with DC high,
// each bracketed by a CS assert/deassert. It absorbs the first error so
// callers can chain several sends unconditionally and check eh.err once
// at the end, the same shape as every waveshare2in13* driver's own
// errorHandler.
type errorHandler struct {
	pins  hal.Pins
	bus   busWriter
	clock hal.Clock
	err   error
}

// busWriter is the SPI write surface errorHandler needs (satisfied by the
// Dev's conn.Conn), kept narrow so errorHandler only depends on what it
// uses.
type busWriter interface {
	Tx(w, r []byte) error
}

func (eh *errorHandler) csOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.pins.CS.Out(l)
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.pins.DC.Out(l)
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.pins.RST.Out(l)
}

func (eh *errorHandler) tx(w []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.bus.Tx(w, nil)
}

// sendCommand clocks out a single command byte: CS low, DC low, write,
// CS high (spec §4.3.1).
func (eh *errorHandler) sendCommand(cmd byte) {
	eh.csOut(gpio.Low)
	eh.dcOut(gpio.Low)
	eh.tx([]byte{cmd})
	eh.csOut(gpio.High)
}

// sendData clocks out data bytes under one CS assertion: CS low, DC high,
// write, CS high. Batching consecutive data bytes under a single CS
// assertion is the optimization spec §4.3.1 explicitly allows.
func (eh *errorHandler) sendData(data []byte) {
	if len(data) == 0 {
		return
	}
	eh.csOut(gpio.Low)
	eh.dcOut(gpio.High)
	eh.tx(data)
	eh.csOut(gpio.High)
}

// waitIdle polls BUSY at the configured active level until it clears or
// timeout elapses (spec §4.3.5). It does not set eh.err: a BUSY timeout
// is reported to the caller as a boolean, not treated as a fatal SPI
// error (spec §7 — "the driver itself proceeds... the core does not
// terminate").
func (eh *errorHandler) waitIdle(timeout time.Duration) bool {
	if eh.err != nil {
		return false
	}
	const pollInterval = 5 * time.Millisecond
	deadline := eh.clock.Now().Add(timeout)
	for {
		if eh.pins.Busy.Read() != eh.pins.BusyActiveLevel {
			return true
		}
		if eh.clock.Now().After(deadline) {
			return false
		}
		eh.clock.Sleep(pollInterval)
	}
}
