//go:build linux
// +build linux

package raspberry

import (
	"github.com/warthog618/gpio"
)

// MemBank reads the lines directly from the memory mapped gpio registers (/dev/gpiomem).
type MemBank struct {
	pins []*gpio.Pin
}

// openMem maps the gpio memory range and sets the lines as input.
func openMem(lines []int, terminator string) (Bank, error) {
	if err := gpio.Open(); err != nil {
		return nil, err
	}

	b := MemBank{pins: make([]*gpio.Pin, 0, len(lines))}
	for _, l := range lines {
		p := gpio.NewPin(l)
		p.Input()

		switch terminator {
		case "pullup":
			p.PullUp()
		case "pulldown":
			p.PullDown()
		case "none":
			p.PullNone()
		}

		b.pins = append(b.pins, p)
	}

	return &b, nil
}

// Read returns the level of all lines, line i is bit i.
func (b *MemBank) Read() byte {
	var v byte
	for i, p := range b.pins {
		if p.Read() == gpio.High {
			v |= 1 << i
		}
	}
	return v
}

// Close unmaps the gpio memory.
func (b *MemBank) Close() error {
	return gpio.Close()
}
