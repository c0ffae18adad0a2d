// Package raspberry maps gpio lines of a raspberry pi to a byte-wide input port.
//
// Line i of the configuration is bit i of the port value.
package raspberry

import (
	"errors"
	"fmt"

	"github.com/womat/debug"
	"golang.org/x/exp/slices"

	"pulsein/pkg/port"
)

var (
	ErrInvalidParam = fmt.Errorf("invalid parameters")
	ErrUnsupported  = errors.New("gpio driver not supported on this platform")
)

const (
	// MaxLines is the count of lines of a byte-wide port.
	MaxLines = 8
	// maxOffset is the highest BCM gpio number.
	maxOffset = 53
)

// Driver names
const (
	GPIOMem  = "gpiomem"
	GPIOD    = "gpiod"
	Emulator = "emulator"
)

// Bank is a byte-wide port built from gpio input lines.
type Bank interface {
	port.Port
	// Close releases the lines.
	Close() error
}

// Config defines the lines of a Bank.
type Config struct {
	// Driver selects the gpio access: gpiomem, gpiod or emulator.
	Driver string
	// Chip is the gpio character device, used by gpiod only.
	Chip string
	// Lines are the BCM gpio numbers, the first line is bit 0.
	Lines []int
	// Terminator is the pull state of the lines: pullup, pulldown or none.
	Terminator string
	// EmulatorHigh and EmulatorLow are the reads per emulated pulse and pause.
	EmulatorHigh uint
	EmulatorLow  uint
}

// Open requests the configured lines as inputs.
func Open(c Config) (Bank, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	debug.InfoLog.Printf("open %s lines %v (%s)", c.Driver, c.Lines, c.Terminator)

	switch c.Driver {
	case Emulator:
		return newEmulator(c), nil
	case GPIOMem:
		return openMem(c.Lines, c.Terminator)
	case GPIOD:
		return openLines(c.Chip, c.Lines, c.Terminator)
	default:
		return nil, fmt.Errorf("%w: driver %q", ErrInvalidParam, c.Driver)
	}
}

func (c Config) validate() error {
	if len(c.Lines) == 0 || len(c.Lines) > MaxLines {
		return fmt.Errorf("%w: %d lines, expected 1..%d", ErrInvalidParam, len(c.Lines), MaxLines)
	}

	for i, l := range c.Lines {
		if l < 0 || l > maxOffset {
			return fmt.Errorf("%w: gpio %d out of range", ErrInvalidParam, l)
		}
		if slices.Contains(c.Lines[:i], l) {
			return fmt.Errorf("%w: gpio %d already used", ErrInvalidParam, l)
		}
	}

	switch c.Terminator {
	case "pullup", "pulldown", "none":
	default:
		return fmt.Errorf("%w: terminator %q", ErrInvalidParam, c.Terminator)
	}

	return nil
}

// Mask returns the port mask covering all configured lines.
func (c Config) Mask() byte {
	return byte(1<<len(c.Lines) - 1)
}

// pack sets bit i if levels[i] is not 0.
func pack(levels []int) byte {
	var v byte
	for i, l := range levels {
		if l != 0 {
			v |= 1 << i
		}
	}
	return v
}

// emulator emulates a square wave on all configured lines,
// e.g. to run the service on a development machine.
type emulator struct {
	port.SquareWave
}

func newEmulator(c Config) *emulator {
	return &emulator{port.SquareWave{Mask: c.Mask(), High: c.EmulatorHigh, Low: c.EmulatorLow}}
}

func (e *emulator) Close() error {
	return nil
}
