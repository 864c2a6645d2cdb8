// Package sim integrates the identified plant model in closed loop with a
// candidate controller so a design can be judged against recorded test runs
// before it ever reaches the hardware.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/emtz/motorlab/internal/ident"
	"github.com/emtz/motorlab/internal/lti"
)

// PWM saturation limits of the driver board.
const (
	UMin = -255.0
	UMax = 255.0
)

// Step is one level change in the reference schedule.
type Step struct {
	At    float64 `json:"at"`
	Level float64 `json:"level"`
}

// Schedule is a piecewise-constant reference trajectory, steps ordered by
// time.
type Schedule []Step

// At returns the reference level active at time t (zero before the first
// step).
func (s Schedule) At(t float64) float64 {
	level := 0.0
	for _, st := range s {
		if t >= st.At {
			level = st.Level
		} else {
			break
		}
	}
	return level
}

// Config bounds one simulation run.
type Config struct {
	Dt       float64
	Duration float64
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	return nil
}

// Result is the predicted closed-loop trajectory. Read-only once produced.
type Result struct {
	Times     []float64
	Reference []float64
	Output    []float64
	Control   []float64
}

// RunPI simulates the plant under the PI controller with actuator saturation
// and conditional anti-windup. Deterministic for identical inputs.
func RunPI(ctx context.Context, model ident.Model, kp, ki float64, ref Schedule, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	plant, err := newPlantState(model)
	if err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	res := newResult(steps)

	integral := 0.0
	t := 0.0
	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		r := ref.At(t)
		y := plant.output()
		e := r - y

		u := kp*e + ki*integral
		sat := clamp(u, UMin, UMax)
		// Hold the integrator while the actuator is pinned and the error
		// keeps pushing the same way.
		if u == sat || u*e < 0 {
			integral += e * cfg.Dt
		}

		res.append(t, r, y, sat)
		if i == steps {
			break
		}
		plant.step(sat, cfg.Dt)
		t += cfg.Dt
	}
	return res, nil
}

// RunFull simulates the plant under a full-order controller realization,
// with the same saturation as the PI path so the two are comparable.
func RunFull(ctx context.Context, model ident.Model, K lti.SS, ref Schedule, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	plant, err := newPlantState(model)
	if err != nil {
		return nil, err
	}

	nk := K.Order()
	xk := make([]float64, nk)
	dxk := make([]float64, nk)

	steps := int(cfg.Duration / cfg.Dt)
	res := newResult(steps)

	t := 0.0
	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		r := ref.At(t)
		y := plant.output()
		e := r - y

		u := K.D.At(0, 0) * e
		for j := 0; j < nk; j++ {
			u += K.C.At(0, j) * xk[j]
		}
		sat := clamp(u, UMin, UMax)

		res.append(t, r, y, sat)
		if i == steps {
			break
		}

		// Controller state advances on the error input; the plant sees the
		// saturated drive.
		for j := 0; j < nk; j++ {
			dxk[j] = K.B.At(j, 0) * e
			for l := 0; l < nk; l++ {
				dxk[j] += K.A.At(j, l) * xk[l]
			}
		}
		for j := 0; j < nk; j++ {
			xk[j] += cfg.Dt * dxk[j]
		}
		plant.step(sat, cfg.Dt)
		t += cfg.Dt
	}
	return res, nil
}

// SettlingTime is the time after which the output stays within band (a
// fraction, e.g. 0.02) of the last reference level. Returns the full run
// length when the output never settles.
func SettlingTime(res *Result, band float64) float64 {
	if len(res.Times) == 0 {
		return 0
	}
	final := res.Reference[len(res.Reference)-1]
	tol := math.Abs(final) * band
	if tol == 0 {
		tol = band
	}
	settle := 0.0
	for i := range res.Output {
		if math.Abs(res.Output[i]-final) > tol {
			settle = res.Times[i]
		}
	}
	return settle
}

func newResult(steps int) *Result {
	return &Result{
		Times:     make([]float64, 0, steps+1),
		Reference: make([]float64, 0, steps+1),
		Output:    make([]float64, 0, steps+1),
		Control:   make([]float64, 0, steps+1),
	}
}

func (r *Result) append(t, ref, y, u float64) {
	r.Times = append(r.Times, t)
	r.Reference = append(r.Reference, ref)
	r.Output = append(r.Output, y)
	r.Control = append(r.Control, u)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
