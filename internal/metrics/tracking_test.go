package metrics

import (
	"math"
	"testing"

	"github.com/emtz/motorlab/internal/sim"
)

func constantErrorRun(steps int, dt, e, u float64) *sim.Result {
	res := &sim.Result{}
	for i := 0; i <= steps; i++ {
		res.Times = append(res.Times, float64(i)*dt)
		res.Reference = append(res.Reference, 1.0)
		res.Output = append(res.Output, 1.0-e)
		res.Control = append(res.Control, u)
	}
	return res
}

func TestIAEConstantError(t *testing.T) {
	// Error 0.5 over 1 second integrates to 0.5.
	res := constantErrorRun(100, 0.01, 0.5, 0)
	got := Evaluate(res)["iae"]
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("iae = %v, want 0.5", got)
	}
}

func TestISEWeighsLargeErrors(t *testing.T) {
	small := Evaluate(constantErrorRun(100, 0.01, 0.1, 0))["ise"]
	large := Evaluate(constantErrorRun(100, 0.01, 0.2, 0))["ise"]
	if math.Abs(large/small-4) > 1e-6 {
		t.Errorf("doubling the error should quadruple ise: %v vs %v", small, large)
	}
}

func TestControlEffortAndPeak(t *testing.T) {
	res := &sim.Result{
		Times:     []float64{0, 0.1, 0.2, 0.3},
		Reference: []float64{1, 1, 1, 1},
		Output:    []float64{0, 0.5, 0.9, 1},
		Control:   []float64{255, -100, 50, 0},
	}
	got := Evaluate(res)
	if math.Abs(got["control_effort"]-101.25) > 1e-9 {
		t.Errorf("effort = %v, want 101.25", got["control_effort"])
	}
	if got["peak_drive"] != 255 {
		t.Errorf("peak = %v, want 255", got["peak_drive"])
	}
}

func TestMetricReset(t *testing.T) {
	m := &IAE{}
	m.Observe(1, 0, 0, 0.5)
	if m.Value() == 0 {
		t.Fatal("observe had no effect")
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("reset did not clear the accumulator")
	}
}
