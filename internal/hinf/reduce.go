package hinf

import (
	"math"

	"github.com/emtz/motorlab/internal/ident"
	"github.com/emtz/motorlab/internal/lti"
)

// reduce collapses the full-order controller to PI form by matching the
// integrator slope in the low-frequency band (between the performance
// weight's near-origin pole and the target bandwidth) and the in-phase gain
// near crossover. The reduction is deliberately lossy; callers must
// re-simulate the loop with the reduced gains rather than assume equivalence.
func reduce(ctl *Controller, p WeightParams) {
	// Geometric middle of the integral-action band.
	wlo := p.Wb * math.Sqrt(p.Eps)
	klo := lti.EvalSS(ctl.K, complex(0, wlo))

	// K(jw) ~ Kp - j*Ki/w in the PI band.
	ctl.Ki = -wlo * imag(klo)

	kc := lti.EvalSS(ctl.K, complex(0, p.Wb))
	ctl.Kp = real(kc)
	if ctl.Kp <= 0 {
		// Crossover phase already past -90: fall back to the magnitude with
		// the integral part removed.
		mag2 := real(kc)*real(kc) + imag(kc)*imag(kc)
		ip := ctl.Ki / p.Wb
		if rest := mag2 - ip*ip; rest > 0 {
			ctl.Kp = math.Sqrt(rest)
		} else {
			ctl.Kp = math.Abs(real(klo))
		}
	}
}

// PIStabilizes checks by the Routh conditions whether the PI gains stabilize
// the model's closed loop. Used as a cheap gate before simulation.
func PIStabilizes(model ident.Model, kp, ki float64) bool {
	if ki < 0 || kp < 0 {
		return false
	}
	k := model.K
	switch model.Order {
	case 1:
		// tau s^2 + (1 + k*kp) s + k*ki
		return model.Tau > 0 && 1+k*kp > 0 && k*ki >= 0
	case 2:
		// a3 s^3 + a2 s^2 + a1 s + a0 with
		// a3 = t1 t2, a2 = t1 + t2, a1 = 1 + k kp, a0 = k ki.
		a3 := model.Tau1 * model.Tau2
		a2 := model.Tau1 + model.Tau2
		a1 := 1 + k*kp
		a0 := k * ki
		if a3 <= 0 || a2 <= 0 || a1 <= 0 || a0 < 0 {
			return false
		}
		return a2*a1 > a3*a0
	}
	return false
}
