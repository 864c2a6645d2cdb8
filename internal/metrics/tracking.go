// Package metrics scores a closed-loop run so competing designs can be
// compared on numbers instead of eyeballed plots.
package metrics

import (
	"math"

	"github.com/emtz/motorlab/internal/sim"
)

// Metric accumulates one figure over a simulated run.
type Metric interface {
	Name() string
	Observe(ref, y, u, dt float64)
	Value() float64
	Reset()
}

// IAE is the integral of absolute tracking error.
type IAE struct {
	sum float64
}

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(ref, y, u, dt float64) {
	m.sum += math.Abs(ref-y) * dt
}

func (m *IAE) Value() float64 { return m.sum }
func (m *IAE) Reset()         { m.sum = 0 }

// ISE is the integral of squared tracking error, punishing large transients
// harder than IAE.
type ISE struct {
	sum float64
}

func (m *ISE) Name() string { return "ise" }

func (m *ISE) Observe(ref, y, u, dt float64) {
	e := ref - y
	m.sum += e * e * dt
}

func (m *ISE) Value() float64 { return m.sum }
func (m *ISE) Reset()         { m.sum = 0 }

// ControlEffort is the mean absolute drive.
type ControlEffort struct {
	sum     float64
	samples int
}

func (m *ControlEffort) Name() string { return "control_effort" }

func (m *ControlEffort) Observe(ref, y, u, dt float64) {
	m.sum += math.Abs(u)
	m.samples++
}

func (m *ControlEffort) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *ControlEffort) Reset() {
	m.sum = 0
	m.samples = 0
}

// PeakDrive is the largest absolute drive seen; a value at the saturation
// limit means the actuator ran out of authority.
type PeakDrive struct {
	peak float64
}

func (m *PeakDrive) Name() string { return "peak_drive" }

func (m *PeakDrive) Observe(ref, y, u, dt float64) {
	if a := math.Abs(u); a > m.peak {
		m.peak = a
	}
}

func (m *PeakDrive) Value() float64 { return m.peak }
func (m *PeakDrive) Reset()         { m.peak = 0 }

// Evaluate runs the standard metric set over a finished run, keyed by
// metric name.
func Evaluate(res *sim.Result) map[string]float64 {
	set := []Metric{&IAE{}, &ISE{}, &ControlEffort{}, &PeakDrive{}}

	for i := range res.Times {
		dt := 0.0
		if i+1 < len(res.Times) {
			dt = res.Times[i+1] - res.Times[i]
		}
		for _, m := range set {
			m.Observe(res.Reference[i], res.Output[i], res.Control[i], dt)
		}
	}

	out := make(map[string]float64, len(set))
	for _, m := range set {
		out[m.Name()] = m.Value()
	}
	return out
}
