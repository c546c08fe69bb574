package ssd1683

// Master-half commands (spec §4.3.2). The master drives the left 400
// pixels (byte columns 0..49 of each row).
const (
	masterDataEntryMode byte = 0x11
	masterSWReset       byte = 0x12
	masterXWindow       byte = 0x44
	masterYWindow       byte = 0x45
	masterXCursor       byte = 0x4E
	masterYCursor       byte = 0x4F
	masterWriteNewRAM   byte = 0x24
	masterWriteOldRAM   byte = 0x26
	masterBorderWave    byte = 0x3C
	masterTempSensor    byte = 0x18
	masterDisplayCtrl2  byte = 0x22
	masterActivate      byte = 0x20
)

// Slave-half commands. The slave drives the right 400 pixels (byte
// columns 49..98 of each row, column 49 shared with the master) and has
// reversed X addressing (spec §4.3.2).
const (
	slaveDataEntryMode byte = 0x91
	slaveXWindow       byte = 0xC4
	slaveYWindow       byte = 0xC5
	slaveXCursor       byte = 0xCE
	slaveYCursor       byte = 0xCF
	slaveWriteNewRAM   byte = 0xA4
	slaveWriteOldRAM   byte = 0xA6
)

// Update-trigger payloads for masterDisplayCtrl2 (spec §4.3.6, §4.3.8).
const (
	updateFlagsFull    byte = 0xF7
	updateFlagsPartial byte = 0xFF
)

// slaveLocalX maps a global byte column (0..98) to the slave controller's
// own internal X coordinate. The slave's X addressing runs in the
// opposite direction from the master's (spec §4.3.2): internal X = 0x31 -
// (global column - 49).
func slaveLocalX(globalCol int) byte {
	return byte(0x31 - (globalCol - SlaveStartCol))
}
