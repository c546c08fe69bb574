package frame

import (
	"time"

	"github.com/cforcomputer/mindwrite/common"
	"github.com/cforcomputer/mindwrite/hal"
	"github.com/cforcomputer/mindwrite/ssd1683"
)

// MaxPayloadLen is the largest payload this wire format ever carries: a
// full-screen rect update (flags + RectHeader + one whole framebuffer's
// worth of pixel bytes).
const MaxPayloadLen = ssd1683.FrameBytes + 9

var magic = [4]byte{'M', 'W', 'F', '1'}

// Per-phase byte-inactivity timeouts. These reset on every byte consumed
// within the phase; they are not a whole-frame deadline.
const (
	readLenTimeout     = 2000 * time.Millisecond
	readPayloadTimeout = 8000 * time.Millisecond
	readCRCTimeout     = 2000 * time.Millisecond
	pollInterval       = 5 * time.Millisecond
)

type state int

const (
	stateSeekMagic state = iota
	stateReadLen
	stateReadPayload
	stateReadCRC
)

func phaseTimeout(s state) time.Duration {
	switch s {
	case stateReadLen:
		return readLenTimeout
	case stateReadPayload:
		return readPayloadTimeout
	case stateReadCRC:
		return readCRCTimeout
	default:
		return 0
	}
}

// Frame is a single validated payload handed to the application loop.
// Payload aliases the Parser's own internal buffer and is only valid
// until the next call to Next.
type Frame struct {
	Payload []byte
}

// Parser is a resynchronizing frame reader (spec: a 4-byte magic sync
// window, then length, payload, CRC). On any validation failure it
// drops the attempt and returns to seeking the magic, preserving the
// sliding window rather than clearing it, so a misaligned magic can
// still be found by byte-shift.
type Parser struct {
	state  state
	window [4]byte

	lenBuf [4]byte
	lenPos int

	payload    [MaxPayloadLen]byte
	payloadLen int
	payloadPos int

	crcBuf [4]byte
	crcPos int

	deadline time.Time
}

// NewParser returns a Parser ready to seek its first frame.
func NewParser() *Parser {
	return &Parser{}
}

// Next cooperatively polls src until a validated frame arrives,
// returning it. It never returns on a malformed or timed-out frame:
// those are dropped internally and seeking resumes transparently, the
// same way the caller's main loop would spin forever waiting for the
// next good frame.
func (p *Parser) Next(src hal.ByteSource, clock hal.Clock) Frame {
	for {
		b, ok := src.ReadByte()
		if !ok {
			if p.state != stateSeekMagic && clock.Now().After(p.deadline) {
				p.dropAndReseek()
			}
			clock.Sleep(pollInterval)
			continue
		}
		if payload := p.step(b); payload != nil {
			return Frame{Payload: payload}
		}
		if p.state != stateSeekMagic {
			p.deadline = clock.Now().Add(phaseTimeout(p.state))
		}
	}
}

// step advances the state machine by exactly one byte. It returns a
// non-nil slice only when a complete, CRC-valid frame has just been
// assembled.
func (p *Parser) step(b byte) []byte {
	switch p.state {
	case stateSeekMagic:
		p.window[0], p.window[1], p.window[2], p.window[3] = p.window[1], p.window[2], p.window[3], b
		if p.window == magic {
			p.state = stateReadLen
			p.lenPos = 0
		}
		return nil

	case stateReadLen:
		p.lenBuf[p.lenPos] = b
		p.lenPos++
		if p.lenPos < len(p.lenBuf) {
			return nil
		}
		n := int(p.lenBuf[0]) | int(p.lenBuf[1])<<8 | int(p.lenBuf[2])<<16 | int(p.lenBuf[3])<<24
		if n <= 0 || n > MaxPayloadLen {
			p.dropAndReseek()
			return nil
		}
		p.payloadLen = n
		p.payloadPos = 0
		p.state = stateReadPayload
		return nil

	case stateReadPayload:
		p.payload[p.payloadPos] = b
		p.payloadPos++
		if p.payloadPos < p.payloadLen {
			return nil
		}
		p.crcPos = 0
		p.state = stateReadCRC
		return nil

	case stateReadCRC:
		p.crcBuf[p.crcPos] = b
		p.crcPos++
		if p.crcPos < len(p.crcBuf) {
			return nil
		}
		rx := uint32(p.crcBuf[0]) | uint32(p.crcBuf[1])<<8 | uint32(p.crcBuf[2])<<16 | uint32(p.crcBuf[3])<<24
		calc := common.CRC32(p.payload[:p.payloadLen])
		payloadLen := p.payloadLen
		p.dropAndReseek()
		if rx != calc {
			return nil
		}
		return p.payload[:payloadLen]

	default:
		return nil
	}
}

func (p *Parser) dropAndReseek() {
	p.state = stateSeekMagic
	p.lenPos = 0
	p.payloadPos = 0
	p.crcPos = 0
}
