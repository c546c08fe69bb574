// Package hal defines the thin hardware-abstraction boundary the rest of
// this firmware core is written against: GPIO pins for the panel, a
// monotonic clock, and a non-blocking byte transport for the host serial
// link. The panel's SPI session is a conn.Conn used directly by package
// ssd1683, not a type of this package.
// Board bring-up (clocks, USB enumeration) and the concrete GPIO/SPI
// peripheral drivers are external collaborators (spec §1); this package
// only names the shape the core consumes, mirroring the way every
// waveshare2in13* driver in the periph devices tree takes its
// conn.Conn/gpio.PinOut/gpio.PinIn as constructor arguments rather than
// owning bus discovery itself.
package hal

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Pins bundles the four GPIO lines the panel driver needs. CS, DC and RST
// are outputs; BUSY is an input, polled at its configured active level.
type Pins struct {
	CS   gpio.PinOut
	DC   gpio.PinOut
	RST  gpio.PinOut
	Busy gpio.PinIn

	// BusyActiveLevel is the level BUSY holds while the controller is not
	// ready to accept commands (spec §4.3.5). Its zero value is gpio.Low;
	// ssd1683.New uses the value as given and does not default it, so an
	// active-high panel needs gpio.High set explicitly.
	BusyActiveLevel gpio.Level
}

// Clock is a monotonic time source, abstracted so parser and driver
// timeouts can be tested without real sleeps. The default implementation
// wraps the standard library's time package directly, the same as every
// driver in the periph devices tree (time.Sleep, time.Now) — no repo in
// the example pack reaches for a clock abstraction library, since
// time.Now already returns a monotonic reading on every supported Go
// platform.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the production Clock backed by the standard library.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// ByteSource is a non-blocking single-byte reader: ReadByte reports
// whether a byte was available without blocking the caller, matching
// spec §2's `serial_read_byte_nonblocking() -> option<u8>` contract.
type ByteSource interface {
	ReadByte() (b byte, ok bool)
}

// Transport is the full serial surface the application loop needs: a
// ByteSource to feed the frame parser, buffered writes for the ACK bytes,
// and an explicit flush so spec §8's "ACK causality" property (the ACK is
// visible on the wire only after the flush, never buffered indefinitely)
// holds.
type Transport interface {
	ByteSource
	WriteBytes(b []byte) error
	Flush() error
}
