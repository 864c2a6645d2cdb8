package ident

import (
	"fmt"
	"math"
)

// DivergenceError reports a fit whose residual exceeded the configured
// threshold, or a regression that produced no usable parameters. The caller
// must treat this as "no model": re-collect data rather than accept the fit.
type DivergenceError struct {
	Residual  float64 // RMS residual relative to the step amplitude
	Threshold float64
	Reason    string
}

func (e *DivergenceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("identification diverged: %s", e.Reason)
	}
	return fmt.Sprintf("identification diverged: relative residual %.4f exceeds %.4f",
		e.Residual, e.Threshold)
}

// StepMetrics are the classical figures derived from a recorded step.
type StepMetrics struct {
	SettlingTime     float64 `json:"settling_time"`      // seconds to stay within the tolerance band
	Overshoot        float64 `json:"overshoot"`          // percent above final value
	SteadyStateError float64 `json:"steady_state_error"` // physical units vs the commanded target
	FinalValue       float64 `json:"final_value"`        // physical units
}

// SettlingBand is the +-2% tolerance band used for settling time.
const SettlingBand = 0.02

// Identifier fits step-response models. Sensor data arrives in ADC counts and
// is converted to physical displacement through the calibration before
// fitting, so K is in physical units per control unit.
type Identifier struct {
	Cal         Calibration
	ResidualTol float64 // max RMS residual relative to step amplitude; 0 means default
}

const defaultResidualTol = 0.05

func NewIdentifier(cal Calibration) *Identifier {
	return &Identifier{Cal: cal, ResidualTol: defaultResidualTol}
}

// Identify fits a model of the requested order (1 or 2) to a single step
// excitation. t and raw must be the same length and span the step from just
// before the edge to steady state; stepInput is the applied control amplitude
// (PWM units). target, in physical units, is the commanded final position
// used for the steady-state error; pass NaN when unknown.
func (id *Identifier) Identify(t, raw []float64, stepInput float64, order int, target float64) (Model, StepMetrics, error) {
	if len(t) != len(raw) {
		return Model{}, StepMetrics{}, fmt.Errorf("time and output length mismatch: %d != %d", len(t), len(raw))
	}
	if len(t) < 10 {
		return Model{}, StepMetrics{}, &DivergenceError{Reason: fmt.Sprintf("only %d samples", len(t))}
	}
	if stepInput == 0 {
		return Model{}, StepMetrics{}, fmt.Errorf("step input amplitude is zero")
	}
	if order != 1 && order != 2 {
		return Model{}, StepMetrics{}, fmt.Errorf("unsupported model order %d", order)
	}

	// Convert to physical units and shift time to the start of the record.
	scale := id.Cal.Scale()
	y := make([]float64, len(raw))
	for i, v := range raw {
		y[i] = v * scale
	}
	ts := make([]float64, len(t))
	for i, v := range t {
		ts[i] = v - t[0]
	}

	y0 := y[0]
	yf := tailMean(y)
	amp := yf - y0
	if math.Abs(amp) < 1e-12 {
		return Model{}, StepMetrics{}, &DivergenceError{Reason: "no output excursion over the record"}
	}

	var m Model
	var err error
	switch order {
	case 1:
		m, err = fitFirstOrder(ts, y, y0, amp, stepInput)
	case 2:
		m, err = fitSecondOrder(ts, y, y0, amp, stepInput)
	}
	if err != nil {
		return Model{}, StepMetrics{}, err
	}

	tol := id.ResidualTol
	if tol <= 0 {
		tol = defaultResidualTol
	}
	res := relativeResidual(m, ts, y, y0, amp)
	if res > tol {
		return Model{}, StepMetrics{}, &DivergenceError{Residual: res, Threshold: tol}
	}

	return m, stepMetrics(ts, y, y0, yf, target), nil
}

// fitFirstOrder log-linearizes 1 - ynorm = exp(-t/tau) and regresses the
// complement, keeping only the informative part of the rise.
func fitFirstOrder(t, y []float64, y0, amp, u float64) (Model, error) {
	var sx, sy, sxx, sxy float64
	n := 0
	for i := range t {
		yn := (y[i] - y0) / amp
		if yn < 0.02 || yn > 0.95 {
			continue
		}
		lx := math.Log(1 - yn)
		sx += t[i]
		sy += lx
		sxx += t[i] * t[i]
		sxy += t[i] * lx
		n++
	}
	if n < 5 {
		return Model{}, &DivergenceError{Reason: "too few samples inside the rise"}
	}
	den := float64(n)*sxx - sx*sx
	if den == 0 {
		return Model{}, &DivergenceError{Reason: "degenerate time axis"}
	}
	slope := (float64(n)*sxy - sx*sy) / den
	if slope >= 0 {
		return Model{}, &DivergenceError{Reason: "non-decaying complement, response is not first-order-like"}
	}
	return Model{Order: 1, K: amp / u, Tau: -1 / slope}, nil
}

// fitSecondOrder matches the first two moments of the complement
// e(t) = 1 - ynorm: integral(e) = tau1 + tau2 and integral(t*e) =
// (tau1+tau2)^2 - tau1*tau2, then recovers the poles from the resulting
// quadratic.
func fitSecondOrder(t, y []float64, y0, amp, u float64) (Model, error) {
	m0, m1 := 0.0, 0.0
	for i := 1; i < len(t); i++ {
		dt := t[i] - t[i-1]
		if dt <= 0 {
			continue
		}
		e0 := 1 - (y[i-1]-y0)/amp
		e1 := 1 - (y[i]-y0)/amp
		m0 += 0.5 * (e0 + e1) * dt
		m1 += 0.5 * (t[i-1]*e0 + t[i]*e1) * dt
	}

	p := m0           // tau1 + tau2
	q := m0*m0 - m1   // tau1 * tau2
	disc := p*p - 4*q // (tau1 - tau2)^2
	if p <= 0 || q <= 0 {
		return Model{}, &DivergenceError{Reason: "moment integrals inconsistent with two stable poles"}
	}
	if disc < 0 {
		// Complex pole pair: the rig is overdamped by construction, so this
		// indicates oscillatory or noisy data the moment method cannot carry.
		return Model{}, &DivergenceError{Reason: "response implies complex poles"}
	}
	r := math.Sqrt(disc)
	tau2 := (p + r) / 2
	tau1 := (p - r) / 2
	if tau1 <= 0 {
		return Model{}, &DivergenceError{Reason: "non-positive fast pole"}
	}
	return Model{Order: 2, K: amp / u, Tau1: tau1, Tau2: tau2}, nil
}

// relativeResidual simulates the fitted model's ideal step and measures the
// RMS mismatch against the record, normalized by the step amplitude.
func relativeResidual(m Model, t, y []float64, y0, amp float64) float64 {
	sum := 0.0
	for i := range t {
		yn := stepValue(m, t[i])
		diff := (y[i]-y0)/amp - yn
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(t)))
}

// stepValue is the normalized unit-step response of the model at time t.
func stepValue(m Model, t float64) float64 {
	if t < 0 {
		return 0
	}
	if m.Order == 2 {
		t1, t2 := m.Tau1, m.Tau2
		if math.Abs(t1-t2) < 1e-12 {
			return 1 - (1+t/t1)*math.Exp(-t/t1)
		}
		return 1 + (t1*math.Exp(-t/t1)-t2*math.Exp(-t/t2))/(t2-t1)
	}
	return 1 - math.Exp(-t/m.Tau)
}

func stepMetrics(t, y []float64, y0, yf, target float64) StepMetrics {
	amp := yf - y0

	// Settling time: first time after which the response stays inside the
	// band around the final value.
	settle := 0.0
	for i := range y {
		if math.Abs(y[i]-yf) > SettlingBand*math.Abs(amp) {
			settle = t[i]
		}
	}

	// (v-yf)/amp is positive exactly when v passes yf in the direction of
	// travel, for either step sign.
	peak := 0.0
	for _, v := range y {
		if over := (v - yf) / amp; over > peak {
			peak = over
		}
	}

	// NaN target means no setpoint was given; carry that through so callers
	// can tell "no error" apart from "not measured".
	sse := math.NaN()
	if !math.IsNaN(target) {
		sse = math.Abs(target - yf)
	}

	return StepMetrics{
		SettlingTime:     settle,
		Overshoot:        peak * 100,
		SteadyStateError: sse,
		FinalValue:       yf,
	}
}

// tailMean averages the last 5% of the record (at least 3 samples) as the
// steady-state value.
func tailMean(y []float64) float64 {
	n := len(y) / 20
	if n < 3 {
		n = 3
	}
	if n > len(y) {
		n = len(y)
	}
	sum := 0.0
	for _, v := range y[len(y)-n:] {
		sum += v
	}
	return sum / float64(n)
}
