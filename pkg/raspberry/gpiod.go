//go:build linux
// +build linux

package raspberry

import (
	"github.com/warthog618/gpiod"
	"github.com/womat/debug"
)

// LineBank reads the lines from a gpio character device.
type LineBank struct {
	chip   *gpiod.Chip
	lines  *gpiod.Lines
	values []int
	last   byte
	err    error
}

// openLines requests control of the lines of chip as inputs.
// If granted, control is maintained until the LineBank is closed.
func openLines(chip string, offsets []int, terminator string) (Bank, error) {
	c, err := gpiod.NewChip(chip)
	if err != nil {
		return nil, err
	}

	l, err := c.RequestLines(offsets, lineOptions(terminator)...)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	return &LineBank{chip: c, lines: l, values: make([]int, len(offsets))}, nil
}

// lineOptions requests the lines as inputs with the bias of terminator.
func lineOptions(terminator string) []gpiod.LineReqOption {
	opts := []gpiod.LineReqOption{gpiod.AsInput}
	switch terminator {
	case "pullup":
		opts = append(opts, gpiod.WithPullUp)
	case "pulldown":
		opts = append(opts, gpiod.WithPullDown)
	case "none":
		opts = append(opts, gpiod.WithBiasDisabled)
	}
	return opts
}

// Read returns the level of all lines, line i is bit i.
// If the lines can't be read, the last value is returned.
func (b *LineBank) Read() byte {
	if err := b.lines.Values(b.values); err != nil {
		if b.err == nil {
			debug.ErrorLog.Printf("can't read gpio lines: %v", err)
		}
		b.err = err
		return b.last
	}

	b.err = nil
	b.last = pack(b.values)
	return b.last
}

// Err returns the error of the last Read.
func (b *LineBank) Err() error {
	return b.err
}

// Close releases the lines and the chip.
func (b *LineBank) Close() error {
	if err := b.lines.Close(); err != nil {
		_ = b.chip.Close()
		return err
	}
	return b.chip.Close()
}
