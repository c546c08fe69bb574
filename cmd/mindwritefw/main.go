// Command mindwritefw is the host-side process that plays the role of
// this firmware core's process-lifetime entry point: it opens the
// panel's SPI bus and pins, opens the USB-CDC virtual serial port the
// host writes frames to, and runs the application loop until it exits
// with an error.
package main

import (
	"flag"
	"log"

	"go.bug.st/serial"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/cforcomputer/mindwrite/app"
	"github.com/cforcomputer/mindwrite/hal"
	"github.com/cforcomputer/mindwrite/ssd1683"
)

func main() {
	var (
		spiBus   = flag.String("spi", "", "SPI bus name, empty for the first available")
		pinCS    = flag.String("cs", "GPIO8", "chip-select pin name")
		pinDC    = flag.String("dc", "GPIO25", "data/command pin name")
		pinRST   = flag.String("rst", "GPIO17", "reset pin name")
		pinBusy  = flag.String("busy", "GPIO24", "BUSY pin name")
		busyHigh = flag.Bool("busy-active-high", true, "BUSY is active-high")
		port     = flag.String("port", "", "serial device the host writes frames to, e.g. /dev/ttyACM0")
		baud     = flag.Int("baud", 115200, "serial baud rate")
	)
	flag.Parse()

	if *port == "" {
		log.Fatal("mindwritefw: -port is required")
	}

	if _, err := host.Init(); err != nil {
		log.Fatalf("mindwritefw: host.Init: %v", err)
	}

	spiPort, err := spireg.Open(*spiBus)
	if err != nil {
		log.Fatalf("mindwritefw: spireg.Open: %v", err)
	}
	defer spiPort.Close()

	pins := hal.Pins{
		CS:   lookupOut(*pinCS),
		DC:   lookupOut(*pinDC),
		RST:  lookupOut(*pinRST),
		Busy: lookupIn(*pinBusy),
	}
	if *busyHigh {
		pins.BusyActiveLevel = gpio.High
	} else {
		pins.BusyActiveLevel = gpio.Low
	}

	dev, err := ssd1683.New(spiPort, pins, hal.SystemClock{})
	if err != nil {
		log.Fatalf("mindwritefw: ssd1683.New: %v", err)
	}
	if err := dev.Init(); err != nil {
		log.Fatalf("mindwritefw: panel Init: %v", err)
	}

	serialPort, err := serial.Open(*port, &serial.Mode{BaudRate: *baud})
	if err != nil {
		log.Fatalf("mindwritefw: serial.Open: %v", err)
	}
	defer serialPort.Close()

	transport, err := hal.NewSerialTransport(serialPort)
	if err != nil {
		log.Fatalf("mindwritefw: configure serial transport: %v", err)
	}

	loop, err := app.NewLoop(dev, transport, hal.SystemClock{})
	if err != nil {
		log.Fatalf("mindwritefw: app.NewLoop: %v", err)
	}

	log.Printf("mindwritefw: ready, panel %s, serial %s@%d", dev, *port, *baud)
	if err := loop.Run(); err != nil {
		log.Fatalf("mindwritefw: loop exited: %v", err)
	}
}

func lookupOut(name string) gpio.PinOut {
	p := gpioreg.ByName(name)
	if p == nil {
		log.Fatalf("mindwritefw: no such GPIO pin %q", name)
	}
	return p
}

func lookupIn(name string) gpio.PinIn {
	p := gpioreg.ByName(name)
	if p == nil {
		log.Fatalf("mindwritefw: no such GPIO pin %q", name)
	}
	return p
}
