// Package pulse measures the width of a pulse on a byte-wide input port by busy polling.
//
// The width is counted in loop iterations. It is a proxy for wall-clock time
// that depends on the speed of the machine; see Calibration to estimate a duration.
//
// A port must only be polled by one caller at a time.
package pulse

import (
	"errors"
	"fmt"

	"pulsein/pkg/port"
)

var (
	// ErrTimeout matches every timeout error of Result.Err.
	ErrTimeout = errors.New("pulse timeout")

	ErrTimeoutIdle  = fmt.Errorf("%w: previous pulse did not end", ErrTimeout)
	ErrTimeoutStart = fmt.Errorf("%w: pulse did not start", ErrTimeout)
	ErrTimeoutPulse = fmt.Errorf("%w: pulse exceeded the loop budget", ErrTimeout)
)

// Outcome tells how a measurement ended.
type Outcome int

const (
	// Measured indicates a complete pulse.
	Measured Outcome = iota
	// TimeoutIdle indicates that a pulse was already active and did not end in time.
	TimeoutIdle
	// TimeoutStart indicates that no pulse started in time.
	TimeoutStart
	// TimeoutPulse indicates that the pulse lasted for the rest of the loop budget.
	TimeoutPulse
)

var outcomeNames = map[Outcome]string{
	Measured:     "measured",
	TimeoutIdle:  "timeout_idle",
	TimeoutStart: "timeout_start",
	TimeoutPulse: "timeout_pulse",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalText encodes the outcome by name, e.g. for json.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is the result of a measurement.
// Width is 0 unless Outcome is Measured.
type Result struct {
	Outcome Outcome
	Width   uint
}

// Err returns nil for a measured pulse, otherwise the timeout error of the phase which ran out of loops.
func (r Result) Err() error {
	switch r.Outcome {
	case Measured:
		return nil
	case TimeoutIdle:
		return ErrTimeoutIdle
	case TimeoutStart:
		return ErrTimeoutStart
	case TimeoutPulse:
		return ErrTimeoutPulse
	default:
		return fmt.Errorf("%w: %v", ErrTimeout, r.Outcome)
	}
}

// Count returns the number of loop iterations the masked port value was equal to state.
// Only the pulse which starts after a currently active pulse has ended is measured.
// Every timeout returns 0, which cannot be told apart from a pulse of width 0. Use Measure to distinguish them.
func Count(p port.Port, bit, state byte, maxLoops uint) uint {
	return Measure(p, bit, state, maxLoops).Width
}

// Measure measures one pulse in three phases:
//  * wait for a previous pulse to end
//  * wait for the pulse to start
//  * count the loops until the pulse stops
// All phases share the budget maxLoops: the pulse must end before the loops left after
// waiting are used up, so the port is read at most about maxLoops times.
func Measure(p port.Port, bit, state byte, maxLoops uint) Result {
	if maxLoops == 0 {
		return Result{Outcome: TimeoutIdle}
	}

	loops := maxLoops
	for p.Read()&bit == state {
		if loops--; loops == 0 {
			return Result{Outcome: TimeoutIdle}
		}
	}

	for p.Read()&bit != state {
		if loops--; loops == 0 {
			return Result{Outcome: TimeoutStart}
		}
	}

	var width uint
	for p.Read()&bit == state {
		if width++; width == loops {
			return Result{Outcome: TimeoutPulse}
		}
	}

	return Result{Outcome: Measured, Width: width}
}
