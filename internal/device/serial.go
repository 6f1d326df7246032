// Package device implements the developer/test harness used by cmd/canesim
// to stand in for the out-of-scope cane firmware: a single consolidated
// SerialDevice (deduplicated from the teacher's three near-identical serial
// wrappers, internal/device/serial.go, serial_device.go and the GPS/Arduino
// variants that each re-opened their own port) plus readers that turn
// Arduino-style CSV telemetry and NMEA GPS sentences into the wire Packet
// format internal/transport consumes.
package device

import (
	"bufio"
	"errors"
	"fmt"
	"time"

	serial "go.bug.st/serial"
)

// SerialDevice wraps a single go.bug.st/serial port with line-oriented
// read/write, matching the teacher's Device interface shape.
type SerialDevice struct {
	port serial.Port
	r    *bufio.Reader
	dev  string
	baud int
}

// NewSerialDevice opens dev at baud and returns a ready-to-use SerialDevice.
func NewSerialDevice(dev string, baud int) (*SerialDevice, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", dev, err)
	}
	return &SerialDevice{port: p, r: bufio.NewReader(p), dev: dev, baud: baud}, nil
}

// Reopen re-establishes the port after a Close, e.g. following a hotplug.
func (s *SerialDevice) Reopen() error {
	if s.port != nil {
		return nil
	}
	p, err := serial.Open(s.dev, &serial.Mode{BaudRate: s.baud})
	if err != nil {
		return fmt.Errorf("reopen serial %s: %w", s.dev, err)
	}
	s.port = p
	s.r = bufio.NewReader(p)
	return nil
}

// Close releases the underlying port.
func (s *SerialDevice) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// ReadLine reads one newline-terminated line, blocking until it arrives or
// timeout elapses. A non-positive timeout blocks indefinitely.
func (s *SerialDevice) ReadLine(timeout time.Duration) (string, error) {
	if s.port == nil {
		return "", errors.New("serial port not open")
	}

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := s.r.ReadString('\n')
		ch <- result{line, err}
	}()

	if timeout <= 0 {
		res := <-ch
		return res.line, res.err
	}
	select {
	case res := <-ch:
		return res.line, res.err
	case <-time.After(timeout):
		return "", errors.New("serial read timeout")
	}
}

// WriteLine writes line followed by a newline.
func (s *SerialDevice) WriteLine(line string) error {
	if s.port == nil {
		return errors.New("serial port not open")
	}
	_, err := s.port.Write(append([]byte(line), '\n'))
	return err
}
