// Package sampler measures pulses of a port periodically and keeps a history of the results.
package sampler

import (
	"runtime"
	"sync"
	"time"

	"github.com/womat/debug"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pulsein/pkg/port"
	"pulsein/pkg/pulse"
)

// Options defines what and how often is measured.
type Options struct {
	// Bit is the mask of the measured line(s).
	Bit byte
	// State is the masked port value of an active pulse.
	State byte
	// MaxLoops is the loop budget of a measurement.
	MaxLoops uint
	// Interval is the pause between two measurements, 0 measures only on demand.
	Interval time.Duration
	// History is the count of samples used for Stats.
	History int
	// Calibration estimates the duration of a width.
	Calibration pulse.Calibration
}

// Sample is a timestamped measurement.
type Sample struct {
	TimeStamp time.Time
	pulse.Result
	// Duration is the calibrated estimate of Width.
	Duration time.Duration
}

// Stats summarizes the samples of the history.
type Stats struct {
	Count        int
	Measured     int
	TimeoutIdle  int
	TimeoutStart int
	TimeoutPulse int
	// width statistics of the measured samples (loop iterations)
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Sampler measures pulses on one port.
// All measurements of the port are serialized, the port must not be used by anybody else.
type Sampler struct {
	port port.Port
	opts Options

	// ml serializes the access to the port.
	ml sync.Mutex
	// rl locks last and history.
	rl      sync.RWMutex
	last    Sample
	history []Sample

	// C receives every periodic sample.
	C chan Sample

	// quit stops the sampler
	quit chan struct{}
	// done signals that run() is stopped
	done chan struct{}

	now func() time.Time
}

// New creates a sampler and starts the periodic measurement if opts.Interval is set.
func New(p port.Port, opts Options) *Sampler {
	if opts.History < 1 {
		opts.History = 1
	}

	s := Sampler{
		port:    p,
		opts:    opts,
		history: make([]Sample, 0, opts.History),
		C:       make(chan Sample),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		now:     time.Now,
	}

	if opts.Interval > 0 {
		go s.run()
	} else {
		close(s.done)
	}

	return &s
}

// Close stops the periodic measurement and closes channel C.
func (s *Sampler) Close() error {
	close(s.quit)

	// wait until run() is terminated
	<-s.done

	close(s.C)
	return nil
}

// run measures in an endless loop until quit is closed.
// The polling goroutine is locked to its thread to keep the loop timing steady.
func (s *Sampler) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	t := time.NewTicker(s.opts.Interval)
	defer t.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-t.C:
		}

		smp := s.Measure()
		debug.TraceLog.Printf("sample: %v width %v", smp.Outcome, smp.Width)

		select {
		case <-s.quit:
			return
		case s.C <- smp:
		}
	}
}

// Measure measures one pulse immediately and adds it to the history.
// It blocks while another measurement is running.
func (s *Sampler) Measure() Sample {
	s.ml.Lock()
	r := pulse.Measure(s.port, s.opts.Bit, s.opts.State, s.opts.MaxLoops)
	s.ml.Unlock()

	smp := Sample{
		TimeStamp: s.now(),
		Result:    r,
		Duration:  s.opts.Calibration.Duration(r.Width),
	}

	s.rl.Lock()
	defer s.rl.Unlock()

	s.last = smp
	if len(s.history) == s.opts.History {
		s.history = slices.Delete(s.history, 0, 1)
	}
	s.history = append(s.history, smp)

	return smp
}

// Last returns the last sample, the time stamp is zero if nothing was measured yet.
func (s *Sampler) Last() Sample {
	s.rl.RLock()
	defer s.rl.RUnlock()

	return s.last
}

// Stats calculates the statistics of the history.
func (s *Sampler) Stats() Stats {
	s.rl.RLock()
	defer s.rl.RUnlock()

	st := Stats{Count: len(s.history)}
	widths := make([]float64, 0, len(s.history))

	for _, smp := range s.history {
		switch smp.Outcome {
		case pulse.Measured:
			st.Measured++
			widths = append(widths, float64(smp.Width))
		case pulse.TimeoutIdle:
			st.TimeoutIdle++
		case pulse.TimeoutStart:
			st.TimeoutStart++
		case pulse.TimeoutPulse:
			st.TimeoutPulse++
		}
	}

	if len(widths) == 0 {
		return st
	}

	st.Mean, st.StdDev = stat.MeanStdDev(widths, nil)
	if len(widths) == 1 {
		st.StdDev = 0
	}
	st.Min = floats.Min(widths)
	st.Max = floats.Max(widths)

	return st
}
