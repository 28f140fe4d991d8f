package modules

import (
	"fmt"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// BusOpener opens the I2C bus with the given number. The caller owns the
// returned handle and must close it.
type BusOpener func(bus int) (i2c.BusCloser, error)

func PeriphOpener(bus int) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("error initializing periph host drivers: %w", err)
	}
	handle, err := i2creg.Open(strconv.Itoa(bus))
	if err != nil {
		return nil, fmt.Errorf("error opening I2C bus %d: %w", bus, err)
	}
	return handle, nil
}

// ParseAddress parses a 7-bit I2C address written in hex, with or without the
// 0x prefix.
func ParseAddress(location string) (uint16, error) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return 0, fmt.Errorf("empty I2C address")
	}
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	value, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("error parsing I2C address %q: %w", location, err)
	}
	if value > 0x7F {
		return 0, fmt.Errorf("I2C address %q does not fit in 7 bits", location)
	}
	return uint16(value), nil
}

// Device issues SMBus style block transfers to one address.
type Device struct {
	dev i2c.Dev
}

func NewDevice(bus i2c.Bus, addr uint16) *Device {
	return &Device{i2c.Dev{Bus: bus, Addr: addr}}
}

func (d *Device) Addr() uint16 {
	return d.dev.Addr
}

// WriteBlock writes the command byte followed by data in one transaction.
func (d *Device) WriteBlock(command byte, data ...byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, command)
	w = append(w, data...)
	if err := d.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("error writing block (command %d) to 0x%02x: %w", command, d.dev.Addr, err)
	}
	return nil
}

// ReadBlock writes the command byte and reads length bytes back.
func (d *Device) ReadBlock(command byte, length int) ([]byte, error) {
	r := make([]byte, length)
	if err := d.dev.Tx([]byte{command}, r); err != nil {
		return nil, fmt.Errorf("error reading block (command %d) from 0x%02x: %w", command, d.dev.Addr, err)
	}
	return r, nil
}
