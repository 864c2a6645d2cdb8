// Package ident fits transfer-function models to recorded step responses and
// derives the classical step metrics used to judge a run.
package ident

import (
	"fmt"

	"github.com/emtz/motorlab/internal/lti"
)

// Calibration converts raw ADC counts to physical displacement.
type Calibration struct {
	ADCMax   float64 // full-scale ADC count, 1023 for a 10-bit converter
	TravelUm float64 // physical travel spanned by the sensor, micrometers
}

// Scale is micrometers per ADC count.
func (c Calibration) Scale() float64 {
	if c.ADCMax <= 0 {
		return 1
	}
	return c.TravelUm / c.ADCMax
}

// Model is an identified plant model, first order {K, Tau} or second order
// {K, Tau1, Tau2} with Tau1 the fast pole.
type Model struct {
	Order int     `json:"order"`
	K     float64 `json:"k"`    // static gain, physical units per control unit
	Tau   float64 `json:"tau"`  // first-order time constant, seconds
	Tau1  float64 `json:"tau1"` // fast pole, seconds
	Tau2  float64 `json:"tau2"` // slow pole, seconds
}

// TF returns the model's transfer function.
func (m Model) TF() lti.TF {
	if m.Order == 2 {
		return lti.SecondOrder(m.K, m.Tau1, m.Tau2)
	}
	return lti.FirstOrder(m.K, m.Tau)
}

func (m Model) String() string {
	if m.Order == 2 {
		return fmt.Sprintf("%.4g/((%.4gs+1)(%.4gs+1))", m.K, m.Tau1, m.Tau2)
	}
	return fmt.Sprintf("%.4g/(%.4gs+1)", m.K, m.Tau)
}

// PoleRatio is Tau2/Tau1 for a second-order model; the fast-dynamics
// reduction is only trustworthy when this is large.
func (m Model) PoleRatio() float64 {
	if m.Order != 2 || m.Tau1 == 0 {
		return 0
	}
	return m.Tau2 / m.Tau1
}

// MinPoleSeparation is the smallest Tau2/Tau1 ratio accepted by the
// fast-dynamics reduction without a warning.
const MinPoleSeparation = 10.0

// IllConditionedReductionError flags a reduction attempted with poorly
// separated poles. The caller may override, but should not do so silently.
type IllConditionedReductionError struct {
	Ratio float64
}

func (e *IllConditionedReductionError) Error() string {
	return fmt.Sprintf("pole ratio tau2/tau1 = %.2f below %.0f: fast-dynamics reduction is ill-conditioned",
		e.Ratio, MinPoleSeparation)
}

// FastEquivalent reduces a second-order model to first order by dropping the
// slow pole and retaining the fast one. Returns the reduced model in every
// case, with an IllConditionedReductionError when the poles are not separated
// enough for the reduction to be trustworthy.
func (m Model) FastEquivalent() (Model, error) {
	if m.Order != 2 {
		return m, nil
	}
	reduced := Model{Order: 1, K: m.K, Tau: m.Tau1}
	if r := m.PoleRatio(); r < MinPoleSeparation {
		return reduced, &IllConditionedReductionError{Ratio: r}
	}
	return reduced, nil
}
