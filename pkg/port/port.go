// Package port holds the definition of a physical byte-wide input port
package port

// Port is a byte-wide input register.
// Each bit represents the current logic level of one line.
// Reading a port must not change the signal; the value is changed by the external circuit only.
type Port interface {
	Read() byte
}

// Func adapts an ordinary function to the Port interface.
type Func func() byte

// Read calls f.
func (f Func) Read() byte {
	return f()
}

// Replay replays recorded port values, one value per Read.
// After the last value the port keeps that value forever.
type Replay struct {
	values []byte
	next   int
	reads  int
}

// NewReplay creates a port that returns values in order.
func NewReplay(values ...byte) *Replay {
	return &Replay{values: values}
}

// Levels builds a sequence of n equal values, e.g.
//  NewReplay(append(Levels(0, 3), Levels(1, 5)...)...)
func Levels(v byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

// Read returns the next recorded value.
func (r *Replay) Read() byte {
	r.reads++
	if len(r.values) == 0 {
		return 0
	}

	v := r.values[r.next]
	if r.next < len(r.values)-1 {
		r.next++
	}
	return v
}

// Reads returns the number of Read calls since creation or the last Rewind.
func (r *Replay) Reads() int {
	return r.reads
}

// Rewind restarts the replay at the first value.
func (r *Replay) Rewind() {
	r.next = 0
	r.reads = 0
}

// SquareWave emulates a periodic signal on the lines of Mask.
// The lines are asserted (all bits of Mask set) for High reads and released for Low reads.
type SquareWave struct {
	Mask byte
	High uint
	Low  uint

	phase uint
}

// Read returns the emulated level and advances the wave by one read.
func (s *SquareWave) Read() byte {
	period := s.High + s.Low
	if period == 0 {
		return 0
	}

	p := s.phase
	s.phase = (s.phase + 1) % period

	if p < s.High {
		return s.Mask
	}
	return 0
}
