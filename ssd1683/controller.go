package ssd1683

import "time"

// controller is the command/data/BUSY surface the free functions in this
// file are written against, mirroring waveshare2in13v4's own `controller`
// interface (sendCommand/sendData/readBusy) tested via a fakeController
// recorder. Dev satisfies it through errorHandler (see errorhandler.go).
type controller interface {
	sendCommand(byte)
	sendData([]byte)
	waitIdle(timeout time.Duration) bool
}

// half bundles one controller half's opcode table and X-addressing
// convention (spec §9, "Dual-controller asymmetry": "model master and
// slave as two instances of a common capability set {program_window,
// write_new, write_old, trigger_update}, parameterized by their command
// opcodes and X-mapping function").
type half struct {
	name           string
	entryMode      byte
	entryModeValue byte
	xWindow        byte
	yWindow        byte
	xCursor        byte
	yCursor        byte
	writeNew       byte
	writeOld       byte
	columns        [2]int // inclusive global byte-column range this half owns
	localX         func(globalCol int) byte
}

var masterHalf = half{
	name:           "master",
	entryMode:      masterDataEntryMode,
	entryModeValue: 0x05,
	xWindow:        masterXWindow,
	yWindow:        masterYWindow,
	xCursor:        masterXCursor,
	yCursor:        masterYCursor,
	writeNew:       masterWriteNewRAM,
	writeOld:       masterWriteOldRAM,
	columns:        [2]int{0, SlaveStartCol},
	localX:         func(globalCol int) byte { return byte(globalCol) },
}

var slaveHalf = half{
	name:           "slave",
	entryMode:      slaveDataEntryMode,
	entryModeValue: 0x04,
	xWindow:        slaveXWindow,
	yWindow:        slaveYWindow,
	xCursor:        slaveXCursor,
	yCursor:        slaveYCursor,
	writeNew:       slaveWriteNewRAM,
	writeOld:       slaveWriteOldRAM,
	columns:        [2]int{SlaveStartCol, BytesPerRow - 1},
	localX:         slaveLocalX,
}

// programWindow sets up a half's X/Y address window and cursor ahead of a
// NEW/OLD RAM write. cols is the inclusive global byte-column range to
// program; it is translated to the half's own local X numbering via
// h.localX, which is where the slave's reversed addressing (spec §4.3.2)
// gets applied uniformly for both the full-panel and windowed-partial
// paths. yBottom/yTop are global row numbers; since data entry mode is
// Y-decrement, the window's Y start is the bottom row and Y end is the
// top row.
func programWindow(ctrl controller, h half, cols [2]int, yTop, yBottom int) {
	xStart, xEnd := h.localX(cols[0]), h.localX(cols[1])

	ctrl.sendCommand(h.entryMode)
	ctrl.sendData([]byte{h.entryModeValue})

	ctrl.sendCommand(h.xWindow)
	ctrl.sendData([]byte{xStart, xEnd})

	ctrl.sendCommand(h.yWindow)
	ctrl.sendData([]byte{
		byte(yBottom & 0xFF), byte((yBottom >> 8) & 0xFF),
		byte(yTop & 0xFF), byte((yTop >> 8) & 0xFF),
	})

	ctrl.sendCommand(h.xCursor)
	ctrl.sendData([]byte{xStart})

	ctrl.sendCommand(h.yCursor)
	ctrl.sendData([]byte{byte(yBottom & 0xFF), byte((yBottom >> 8) & 0xFF)})
}

// writeColumnMajor writes cmd's RAM with the bytes get(col, y) produces,
// in the controller's native column-major, Y-decreasing order (spec
// §4.3.3): for each byte column in cols (inclusive), for each row from
// yBottom down to yTop, transmit xform(get(col, y)). scratch is reused
// across calls so no per-frame heap allocation is needed (spec §9).
func writeColumnMajor(ctrl controller, cmd byte, scratch []byte, cols [2]int, yTop, yBottom int, get func(col, y int) byte) []byte {
	ctrl.sendCommand(cmd)
	n := 0
	for c := cols[0]; c <= cols[1]; c++ {
		for y := yBottom; y >= yTop; y-- {
			scratch[n] = xform(get(c, y))
			n++
		}
	}
	out := scratch[:n]
	ctrl.sendData(out)
	return out
}

// trigger issues the master-activation sequence with the given update
// flags (0xF7 full, 0xFF partial; spec §4.3.6 step 9, §4.3.8 final step)
// and waits for the controller to go idle.
func trigger(ctrl controller, flags byte, idleTimeout time.Duration) bool {
	ctrl.sendCommand(masterDisplayCtrl2)
	ctrl.sendData([]byte{flags})
	ctrl.sendCommand(masterActivate)
	return ctrl.waitIdle(idleTimeout)
}
