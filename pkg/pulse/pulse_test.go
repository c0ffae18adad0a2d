package pulse

import (
	"encoding/json"
	"errors"
	"testing"

	"pulsein/pkg/port"
)

func seq(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func TestMeasure(t *testing.T) {
	type testCase struct {
		name     string
		values   []byte
		bit      byte
		state    byte
		maxLoops uint
		want     Result
		reads    int
	}

	var tests = []testCase{
		{"pulse already active never ends", port.Levels(1, 1), 0x01, 0x01, 10, Result{Outcome: TimeoutIdle}, 10},
		{"pulse never starts", port.Levels(0, 1), 0x01, 0x01, 10, Result{Outcome: TimeoutStart}, 11},
		{"complete pulse", seq(port.Levels(0, 3), port.Levels(1, 6), port.Levels(0, 1)), 0x01, 0x01, 100, Result{Outcome: Measured, Width: 5}, 10},
		{"previous pulse is skipped", seq(port.Levels(1, 3), port.Levels(0, 2), port.Levels(1, 4), port.Levels(0, 1)), 0x01, 0x01, 100, Result{Outcome: Measured, Width: 3}, 10},
		{"pulse one loop shorter than budget", seq(port.Levels(0, 1), port.Levels(1, 10), port.Levels(0, 1)), 0x01, 0x01, 10, Result{Outcome: Measured, Width: 9}, 0},
		{"pulse as long as budget", seq(port.Levels(0, 1), port.Levels(1, 11), port.Levels(0, 1)), 0x01, 0x01, 10, Result{Outcome: TimeoutPulse}, 0},
		{"pulse never ends", seq(port.Levels(0, 1), port.Levels(1, 1)), 0x01, 0x01, 10, Result{Outcome: TimeoutPulse}, 12},
		{"waiting shortens the measuring window", seq(port.Levels(0, 8), port.Levels(1, 10), port.Levels(0, 1)), 0x01, 0x01, 10, Result{Outcome: TimeoutPulse}, 12},
		{"pulse fits into the loops left after waiting", seq(port.Levels(0, 8), port.Levels(1, 3), port.Levels(0, 1)), 0x01, 0x01, 10, Result{Outcome: Measured, Width: 2}, 12},
		{"pulse ends before first measuring read", []byte{0, 1, 0}, 0x01, 0x01, 10, Result{Outcome: Measured, Width: 0}, 3},
		{"active low line", seq(port.Levels(0x04, 2), port.Levels(0x00, 5), port.Levels(0x04, 1)), 0x04, 0x00, 100, Result{Outcome: Measured, Width: 4}, 0},
		{"other lines are masked", []byte{0xf0, 0x0e, 0xf1, 0x31, 0x01, 0xf0, 0xff}, 0x01, 0x01, 100, Result{Outcome: Measured, Width: 2}, 0},
		{"multiple bit mask", []byte{0x01, 0x03, 0x03, 0x03, 0x02}, 0x03, 0x03, 100, Result{Outcome: Measured, Width: 2}, 0},
		{"budget zero", port.Levels(0, 1), 0x01, 0x01, 0, Result{Outcome: TimeoutIdle}, 0},
		{"budget one with active pulse", port.Levels(1, 1), 0x01, 0x01, 1, Result{Outcome: TimeoutIdle}, 1},
		{"budget one without pulse", port.Levels(0, 1), 0x01, 0x01, 1, Result{Outcome: TimeoutStart}, 2},
		{"budget one with starting pulse", seq(port.Levels(0, 1), port.Levels(1, 1)), 0x01, 0x01, 1, Result{Outcome: TimeoutPulse}, 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := port.NewReplay(test.values...)

			r := Measure(p, test.bit, test.state, test.maxLoops)
			if r != test.want {
				t.Errorf("Measure() = %+v, want %+v", r, test.want)
			}

			if test.reads > 0 || test.maxLoops == 0 {
				if p.Reads() != test.reads {
					t.Errorf("port was read %d times, want %d", p.Reads(), test.reads)
				}
			}

			p.Rewind()
			if w := Count(p, test.bit, test.state, test.maxLoops); w != test.want.Width {
				t.Errorf("Count() = %d, want %d", w, test.want.Width)
			}
		})
	}
}

func TestCountTimeoutIsZero(t *testing.T) {
	for _, values := range [][]byte{
		port.Levels(1, 1),
		port.Levels(0, 1),
		seq(port.Levels(0, 1), port.Levels(1, 1)),
	} {
		if w := Count(port.NewReplay(values...), 0x01, 0x01, 50); w != 0 {
			t.Errorf("Count(%v) = %d, want 0", values, w)
		}
	}
}

// countLoops is a straight transcription of the three counting loops,
// decrementing one budget in every phase.
func countLoops(p port.Port, bit, state byte, maxLoops uint) uint {
	if maxLoops == 0 {
		return 0
	}

	var width uint
	for p.Read()&bit == state {
		if maxLoops--; maxLoops == 0 {
			return 0
		}
	}
	for p.Read()&bit != state {
		if maxLoops--; maxLoops == 0 {
			return 0
		}
	}
	for p.Read()&bit == state {
		if width++; width == maxLoops {
			return 0
		}
	}
	return width
}

func TestCountMatchesLoopBudget(t *testing.T) {
	for idle := 0; idle < 12; idle++ {
		for high := 1; high < 14; high++ {
			values := seq(port.Levels(0, idle), port.Levels(1, high), port.Levels(0, 1))
			for _, maxLoops := range []uint{0, 1, 2, 5, 10, 20} {
				want := countLoops(port.NewReplay(values...), 0x01, 0x01, maxLoops)
				if w := Count(port.NewReplay(values...), 0x01, 0x01, maxLoops); w != want {
					t.Errorf("idle %d, high %d, maxLoops %d: Count() = %d, want %d", idle, high, maxLoops, w, want)
				}
			}
		}
	}
}

func TestMeasureIsRepeatable(t *testing.T) {
	p := port.NewReplay(0)

	first := Measure(p, 0x01, 0x01, 20)
	firstReads := p.Reads()

	second := Measure(p, 0x01, 0x01, 20)
	secondReads := p.Reads() - firstReads

	if first != second {
		t.Errorf("second call = %+v, first call = %+v", second, first)
	}
	if firstReads != secondReads {
		t.Errorf("second call read %d times, first call %d times", secondReads, firstReads)
	}
}

func TestMeasureSquareWave(t *testing.T) {
	w := &port.SquareWave{Mask: 0x08, High: 7, Low: 13}

	for i := 0; i < 5; i++ {
		r := Measure(w, 0x08, 0x08, 1000)
		if r.Outcome != Measured {
			t.Fatalf("measurement %d: outcome %v", i, r.Outcome)
		}
		// the read which ends the arm phase is part of the pulse but not counted
		if r.Width != 6 {
			t.Errorf("measurement %d: width %d, want 6", i, r.Width)
		}
	}
}

func TestResultErr(t *testing.T) {
	type testCase struct {
		outcome Outcome
		err     error
	}
	var tests = []testCase{
		{Measured, nil},
		{TimeoutIdle, ErrTimeoutIdle},
		{TimeoutStart, ErrTimeoutStart},
		{TimeoutPulse, ErrTimeoutPulse},
	}

	for _, test := range tests {
		err := Result{Outcome: test.outcome}.Err()
		if !errors.Is(err, test.err) {
			t.Errorf("%v: Err() = %v, want %v", test.outcome, err, test.err)
		}
		if test.err != nil && !errors.Is(err, ErrTimeout) {
			t.Errorf("%v: Err() = %v does not match ErrTimeout", test.outcome, err)
		}
	}

	if err := (Result{Outcome: Outcome(42)}).Err(); !errors.Is(err, ErrTimeout) {
		t.Errorf("unknown outcome: Err() = %v", err)
	}
}

func TestOutcomeJSON(t *testing.T) {
	b, err := json.Marshal(Result{Outcome: TimeoutStart})
	if err != nil {
		t.Fatal(err)
	}

	if want := `{"Outcome":"timeout_start","Width":0}`; string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}

	if s := Outcome(7).String(); s != "outcome(7)" {
		t.Errorf("String() = %q", s)
	}
}
