package ssd1683

import (
	"testing"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"

	"github.com/cforcomputer/mindwrite/hal"
)

// fakePin is a minimal gpio.PinIO, grounded on tca95xx's portpin: only the
// methods Dev and errorHandler actually exercise (Out, Read, In) do
// anything; the rest are stubs satisfying the interface.
type fakePin struct {
	name  string
	level gpio.Level
}

func (p *fakePin) String() string                        { return p.name }
func (p *fakePin) Halt() error                           { return nil }
func (p *fakePin) Name() string                          { return p.name }
func (p *fakePin) Number() int                           { return 0 }
func (p *fakePin) Function() string                      { return "" }
func (p *fakePin) Func() pin.Func                        { return gpio.OUT }
func (p *fakePin) SupportedFuncs() []pin.Func            { return []pin.Func{gpio.IN, gpio.OUT} }
func (p *fakePin) SetFunc(pin.Func) error                { return nil }
func (p *fakePin) In(gpio.Pull, gpio.Edge) error         { return nil }
func (p *fakePin) Read() gpio.Level                      { return p.level }
func (p *fakePin) WaitForEdge(time.Duration) bool        { return false }
func (p *fakePin) Pull() gpio.Pull                       { return gpio.Float }
func (p *fakePin) DefaultPull() gpio.Pull                { return gpio.Float }
func (p *fakePin) Out(l gpio.Level) error                { p.level = l; return nil }
func (p *fakePin) PWM(gpio.Duty, physic.Frequency) error { return nil }

// fakeConn is a minimal conn.Conn that records every Tx call, grounded on
// max7219_test.go's spitest.Record usage but hand-rolled since the driver
// talks to conn.Conn directly rather than through an spi.Port.
type fakeConn struct {
	ops [][]byte
}

func (c *fakeConn) String() string      { return "fakeConn" }
func (c *fakeConn) Duplex() conn.Duplex { return conn.Full }
func (c *fakeConn) Tx(w, r []byte) error {
	cp := make([]byte, len(w))
	copy(cp, w)
	c.ops = append(c.ops, cp)
	return nil
}

func newTestDev() (*Dev, *fakeConn, *fakePin) {
	busy := &fakePin{name: "busy", level: gpio.Low}
	c := &fakeConn{}
	d := &Dev{
		c: c,
		pins: hal.Pins{
			CS:              &fakePin{name: "cs"},
			DC:              &fakePin{name: "dc"},
			RST:             &fakePin{name: "rst"},
			Busy:            busy,
			BusyActiveLevel: gpio.High,
		},
		clock:       hal.SystemClock{},
		initialized: true,
	}
	for i := range d.whiteFrame {
		d.whiteFrame[i] = 0xFF
	}
	return d, c, busy
}

func TestShowFullUninitializedNoOp(t *testing.T) {
	d, c, _ := newTestDev()
	d.initialized = false
	frame := make([]byte, FrameBytes)
	if err := d.ShowFull(frame); err != nil {
		t.Fatalf("ShowFull on uninitialized Dev returned error: %v", err)
	}
	if len(c.ops) != 0 {
		t.Errorf("ShowFull on uninitialized Dev issued %d SPI ops, want 0", len(c.ops))
	}
}

func TestShowFullWrongSize(t *testing.T) {
	d, _, _ := newTestDev()
	if err := d.ShowFull(make([]byte, FrameBytes-1)); err == nil {
		t.Error("ShowFull with undersized frame returned nil error, want error")
	}
}

func TestShowFullIssuesCommands(t *testing.T) {
	d, c, _ := newTestDev()
	frame := make([]byte, FrameBytes)
	if err := d.ShowFull(frame); err != nil {
		t.Fatalf("ShowFull returned error: %v", err)
	}
	if len(c.ops) == 0 {
		t.Fatal("ShowFull issued no SPI operations")
	}
	// First command byte sent must be the master data entry mode command
	// (spec §4.3.6 step 1), and the very last op must be the
	// masterActivate command that triggers the refresh (spec §4.3.6
	// step 9).
	if c.ops[0][0] != masterDataEntryMode {
		t.Errorf("first command = 0x%02X, want masterDataEntryMode (0x%02X)", c.ops[0][0], masterDataEntryMode)
	}
	last := len(c.ops) - 1
	if c.ops[last][0] != masterActivate {
		t.Errorf("last command = 0x%02X, want masterActivate (0x%02X)", c.ops[last][0], masterActivate)
	}
}

func TestShowPartialWindowRejectsMisalignedRect(t *testing.T) {
	d, _, _ := newTestDev()
	old := make([]byte, FrameBytes)
	rect := make([]byte, 1*8)
	if err := d.ShowPartialWindow(3, 0, 8, 8, rect, old); err == nil {
		t.Error("ShowPartialWindow with unaligned x accepted, want error")
	}
}

func TestShowPartialWindowClampsToBounds(t *testing.T) {
	d, c, _ := newTestDev()
	old := make([]byte, FrameBytes)
	// A window that runs past the right edge should be silently clamped
	// rather than rejected (spec §4.3.8, testable property 9).
	rectWB := (Width - (Width - 8)) / 8
	rect := make([]byte, rectWB*8)
	if err := d.ShowPartialWindow(Width-8, Height-8, 16, 8, rect, old); err != nil {
		t.Fatalf("ShowPartialWindow returned error: %v", err)
	}
	if len(c.ops) == 0 {
		t.Error("ShowPartialWindow issued no SPI operations")
	}
}

func TestWaitIdleTimeout(t *testing.T) {
	d, _, busy := newTestDev()
	busy.level = gpio.High // stays busy forever
	if ok := d.WaitIdle(5 * time.Millisecond); ok {
		t.Error("WaitIdle reported success while BUSY held active, want timeout")
	}
}

func TestWaitIdleClears(t *testing.T) {
	d, _, busy := newTestDev()
	busy.level = gpio.Low // idle immediately, active level is High
	if ok := d.WaitIdle(5 * time.Millisecond); !ok {
		t.Error("WaitIdle reported timeout while BUSY clear, want success")
	}
}
