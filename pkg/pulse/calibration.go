package pulse

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ErrCalibration is returned if the samples can't be used to calibrate the loop time.
var ErrCalibration = errors.New("invalid calibration samples")

// Calibration converts a width in loop iterations to an estimated duration.
// The estimate is only valid for the machine, build and load it was calibrated with.
type Calibration struct {
	// NanosPerLoop is the time of one measuring loop in nanoseconds.
	NanosPerLoop float64
	// Offset is the constant overhead of a measurement.
	Offset time.Duration
}

// FromCycles calculates the calibration from known instruction timing,
// e.g. 16 cycles per loop and 16 cycles overhead at a clock of 16 MHz.
func FromCycles(cyclesPerLoop, overheadCycles uint, clockHz uint64) Calibration {
	if clockHz == 0 {
		return Calibration{}
	}

	ns := 1e9 / float64(clockHz)
	return Calibration{
		NanosPerLoop: float64(cyclesPerLoop) * ns,
		Offset:       time.Duration(math.Round(float64(overheadCycles) * ns)),
	}
}

// Duration returns the estimated duration of a pulse of width loops.
// A width of 0 is a timeout and returns 0.
func (c Calibration) Duration(width uint) time.Duration {
	if width == 0 || c.NanosPerLoop <= 0 {
		return 0
	}

	d := time.Duration(math.Round(float64(width)*c.NanosPerLoop)) + c.Offset
	if d < 0 {
		return 0
	}
	return d
}

// Fit calibrates the loop time by a linear least squares fit of measured widths
// against the known durations of the same pulses (e.g. from a signal generator).
func Fit(widths []uint, durations []time.Duration) (Calibration, error) {
	if len(widths) != len(durations) || len(widths) < 2 {
		return Calibration{}, ErrCalibration
	}

	x := make([]float64, len(widths))
	y := make([]float64, len(durations))
	for i := range widths {
		x[i] = float64(widths[i])
		y[i] = float64(durations[i])
	}

	if stat.Variance(x, nil) == 0 {
		return Calibration{}, ErrCalibration
	}

	offset, perLoop := stat.LinearRegression(x, y, nil, false)
	if perLoop <= 0 || math.IsNaN(perLoop) {
		return Calibration{}, ErrCalibration
	}

	return Calibration{
		NanosPerLoop: perLoop,
		Offset:       time.Duration(math.Round(offset)),
	}, nil
}
