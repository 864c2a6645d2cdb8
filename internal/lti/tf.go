// Package lti provides the small linear-systems toolbox shared by
// identification, synthesis and simulation: rational transfer functions,
// state-space realizations and frequency-domain evaluation.
package lti

import (
	"math"
	"math/cmplx"
)

// TF is a SISO rational transfer function in s. Coefficients are ordered
// highest power first, so Num = {2, 1} and Den = {1, 3} is (2s+1)/(s+3).
type TF struct {
	Num []float64
	Den []float64
}

func NewTF(num, den []float64) TF {
	return TF{Num: trimPoly(num), Den: trimPoly(den)}
}

// FirstOrder returns k/(tau*s + 1).
func FirstOrder(k, tau float64) TF {
	return TF{Num: []float64{k}, Den: []float64{tau, 1}}
}

// SecondOrder returns k/((tau1*s + 1)(tau2*s + 1)).
func SecondOrder(k, tau1, tau2 float64) TF {
	return TF{Num: []float64{k}, Den: []float64{tau1 * tau2, tau1 + tau2, 1}}
}

// PI returns the proportional-plus-integral controller (kp*s + ki)/s.
func PI(kp, ki float64) TF {
	return TF{Num: []float64{kp, ki}, Den: []float64{1, 0}}
}

// Eval evaluates the transfer function at a complex frequency via Horner's
// rule on both polynomials.
func (g TF) Eval(s complex128) complex128 {
	return polyEval(g.Num, s) / polyEval(g.Den, s)
}

// Gain is the DC gain num(0)/den(0); infinite for integrating systems.
func (g TF) Gain() float64 {
	n := g.Num[len(g.Num)-1]
	d := g.Den[len(g.Den)-1]
	if d == 0 {
		return math.Inf(1) * sign(n)
	}
	return n / d
}

// Series returns g*h.
func (g TF) Series(h TF) TF {
	return NewTF(polyMul(g.Num, h.Num), polyMul(g.Den, h.Den))
}

// Order is the degree of the denominator.
func (g TF) Order() int { return len(g.Den) - 1 }

// Proper reports whether deg(num) <= deg(den).
func (g TF) Proper() bool { return len(g.Num) <= len(g.Den) }

func polyEval(p []float64, s complex128) complex128 {
	acc := complex(0, 0)
	for _, c := range p {
		acc = acc*s + complex(c, 0)
	}
	return acc
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, ai := range a {
		for j, bj := range b {
			out[i+j] += ai * bj
		}
	}
	return out
}

func trimPoly(p []float64) []float64 {
	i := 0
	for i < len(p)-1 && p[i] == 0 {
		i++
	}
	return p[i:]
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// LogSpace returns n logarithmically spaced frequencies between lo and hi
// rad/s, inclusive.
func LogSpace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	llo, lhi := math.Log10(lo), math.Log10(hi)
	for i := range out {
		out[i] = math.Pow(10, llo+(lhi-llo)*float64(i)/float64(n-1))
	}
	return out
}

// PeakGain is the largest magnitude of g over the frequency grid, an
// approximation of the H-infinity norm for stable g.
func PeakGain(g func(complex128) complex128, omega []float64) float64 {
	peak := 0.0
	for _, w := range omega {
		m := cmplx.Abs(g(complex(0, w)))
		if m > peak {
			peak = m
		}
	}
	return peak
}
