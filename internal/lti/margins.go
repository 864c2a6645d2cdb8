package lti

import (
	"math"
	"math/cmplx"
)

// Margins holds classical stability margins of an open loop L(s).
type Margins struct {
	GainMarginDB   float64 // at the phase crossover, +Inf when phase never reaches -180
	PhaseMarginDeg float64 // at the gain crossover, +Inf when |L| never reaches 1
	WcGain         float64 // gain-crossover frequency, rad/s
	WcPhase        float64 // phase-crossover frequency, rad/s
}

// LoopMargins scans L over the grid and interpolates the gain and phase
// crossovers. Phase is unwrapped across the scan so a -180 crossing is not
// missed at the atan2 branch cut.
func LoopMargins(L func(complex128) complex128, omega []float64) Margins {
	m := Margins{
		GainMarginDB:   math.Inf(1),
		PhaseMarginDeg: math.Inf(1),
	}
	if len(omega) < 2 {
		return m
	}

	prevMag := cmplx.Abs(L(complex(0, omega[0])))
	prevPh := phaseDeg(L(complex(0, omega[0])))
	unwrapped := prevPh

	for i := 1; i < len(omega); i++ {
		v := L(complex(0, omega[i]))
		magV := cmplx.Abs(v)
		ph := phaseDeg(v)

		d := ph - prevPh
		for d > 180 {
			d -= 360
		}
		for d < -180 {
			d += 360
		}
		next := unwrapped + d

		// Gain crossover: |L| falls through 1.
		if math.IsInf(m.PhaseMarginDeg, 1) && (prevMag-1)*(magV-1) <= 0 && prevMag != magV {
			f := (1 - prevMag) / (magV - prevMag)
			phC := unwrapped + f*(next-unwrapped)
			m.PhaseMarginDeg = 180 + phC
			m.WcGain = omega[i-1] + f*(omega[i]-omega[i-1])
		}

		// Phase crossover: unwrapped phase passes -180.
		if math.IsInf(m.GainMarginDB, 1) && (unwrapped+180)*(next+180) <= 0 && unwrapped != next {
			f := (-180 - unwrapped) / (next - unwrapped)
			magC := prevMag + f*(magV-prevMag)
			if magC > 0 {
				m.GainMarginDB = -20 * math.Log10(magC)
			}
			m.WcPhase = omega[i-1] + f*(omega[i]-omega[i-1])
		}

		prevMag, prevPh, unwrapped = magV, ph, next
	}
	return m
}

func phaseDeg(v complex128) float64 {
	return cmplx.Phase(v) * 180 / math.Pi
}
