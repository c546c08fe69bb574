package hal

import (
	"time"

	"go.bug.st/serial"
)

// SerialTransport adapts a go.bug.st/serial.Port — the same library
// tinygo-org/tinygo uses to talk to an attached board over its USB-CDC
// virtual serial port — to the Transport interface the application loop
// consumes.
//
// go.bug.st/serial.Port.Read blocks until either a byte arrives or the
// port's read timeout elapses, returning (0, nil) on timeout rather than
// an error. SerialTransport configures a very short read timeout at
// construction so ReadByte can honor the non-blocking contract spec §2
// requires of serial_read_byte_nonblocking while still using a single
// blocking syscall per poll, rather than spinning in a busy loop.
type SerialTransport struct {
	port serial.Port
	buf  [1]byte
}

// NewSerialTransport wraps an already-open serial.Port. The caller is
// responsible for configuring the port's baud rate before this call; this
// constructor only sets the short read timeout ByteSource relies on.
func NewSerialTransport(port serial.Port) (*SerialTransport, error) {
	if err := port.SetReadTimeout(readPollInterval); err != nil {
		return nil, err
	}
	return &SerialTransport{port: port}, nil
}

// readPollInterval bounds how long a single ReadByte call may block
// waiting for one byte before reporting none available. It is short
// enough that the parser's per-phase timeouts (spec §4.2: 2-8s) remain
// accurate to a small fraction of their budget.
const readPollInterval = 5 * time.Millisecond

func (s *SerialTransport) ReadByte() (byte, bool) {
	n, err := s.port.Read(s.buf[:])
	if err != nil || n == 0 {
		return 0, false
	}
	return s.buf[0], true
}

func (s *SerialTransport) WriteBytes(b []byte) error {
	_, err := s.port.Write(b)
	return err
}

func (s *SerialTransport) Flush() error {
	return s.port.Drain()
}
