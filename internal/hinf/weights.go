// Package hinf designs mixed-sensitivity H-infinity (or H2) controllers for
// the identified rig model and reduces them to the PI form the firmware runs.
package hinf

import (
	"fmt"

	"github.com/emtz/motorlab/internal/lti"
)

// WeightParams are the scalar design knobs behind the three weighting
// filters. All must be strictly positive.
type WeightParams struct {
	Ms   float64 `json:"ms" yaml:"ms"`       // sensitivity peak bound
	Wb   float64 `json:"wb" yaml:"wb"`       // performance bandwidth, rad/s
	Eps  float64 `json:"eps" yaml:"eps"`     // steady-state error bound
	Umax float64 `json:"umax" yaml:"umax"`   // control authority, PWM units
	Wbu  float64 `json:"wbu" yaml:"wbu"`     // control-effort corner, rad/s
	EpsU float64 `json:"epsu" yaml:"epsu"`   // effort weight high-frequency floor
	Wt   float64 `json:"wt" yaml:"wt"`       // robustness crossover, rad/s
	EpsT float64 `json:"epst" yaml:"epst"`   // robustness weight floor
}

// DefaultWeightParams is a moderate starting point for the rig: bandwidth
// 5 rad/s, full PWM authority, robustness corner a decade above.
func DefaultWeightParams() WeightParams {
	return WeightParams{
		Ms: 2.0, Wb: 5.0, Eps: 0.01,
		Umax: 255, Wbu: 0.5, EpsU: 0.01,
		Wt: 50, EpsT: 0.01,
	}
}

// InvalidWeightError rejects a non-positive design scalar before any
// synthesis work happens.
type InvalidWeightError struct {
	Param string
	Value float64
}

func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("invalid weight parameter %s = %g: must be > 0", e.Param, e.Value)
}

// Weights are the three mixed-sensitivity filters. Immutable once built.
type Weights struct {
	W1 lti.TF // performance, penalizes S at low frequency
	W2 lti.TF // control effort, penalizes K*S
	W3 lti.TF // robustness, penalizes T at high frequency
	P  WeightParams
}

// BuildWeights constructs the filters from the design scalars:
//
//	W1(s) = (wb/Ms) / (s + wb*eps)          low-frequency gain 1/(Ms*eps)
//	W2(s) = (1/Umax) (s + wbu) / (epsu*s + wbu)
//	W3(s) = (s + wt*epst) / (epst*s + wt)   unity crossover at wt
//
// W1 is kept strictly proper so the augmented plant has no direct
// disturbance-to-error feedthrough, which the Riccati machinery requires.
func BuildWeights(p WeightParams) (Weights, error) {
	checks := []struct {
		name string
		v    float64
	}{
		{"Ms", p.Ms}, {"Wb", p.Wb}, {"Eps", p.Eps},
		{"Umax", p.Umax}, {"Wbu", p.Wbu}, {"EpsU", p.EpsU},
		{"Wt", p.Wt}, {"EpsT", p.EpsT},
	}
	for _, c := range checks {
		if c.v <= 0 {
			return Weights{}, &InvalidWeightError{Param: c.name, Value: c.v}
		}
	}

	w1 := lti.NewTF([]float64{p.Wb / p.Ms}, []float64{1, p.Wb * p.Eps})
	w2 := lti.NewTF([]float64{1 / p.Umax, p.Wbu / p.Umax}, []float64{p.EpsU, p.Wbu})
	w3 := lti.NewTF([]float64{1, p.Wt * p.EpsT}, []float64{p.EpsT, p.Wt})

	return Weights{W1: w1, W2: w2, W3: w3, P: p}, nil
}
