package hinf

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func TestBuildWeightsShapes(t *testing.T) {
	p := DefaultWeightParams()
	w, err := BuildWeights(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// W1 low-frequency gain 1/(Ms*eps).
	lf := cmplx.Abs(w.W1.Eval(complex(0, p.Wb*p.Eps/100)))
	want := 1 / (p.Ms * p.Eps)
	if math.Abs(lf-want)/want > 0.01 {
		t.Errorf("W1 low-frequency gain = %v, want %v", lf, want)
	}

	// W2 static gain 1/Umax.
	if g := w.W2.Gain(); math.Abs(g-1/p.Umax)/(1/p.Umax) > 1e-9 {
		t.Errorf("W2 DC gain = %v, want %v", g, 1/p.Umax)
	}

	// W3 crosses unity at Wt and floors at EpsT.
	if m := cmplx.Abs(w.W3.Eval(complex(0, p.Wt))); math.Abs(m-1) > 0.01 {
		t.Errorf("|W3(j*wt)| = %v, want 1", m)
	}
	if g := w.W3.Gain(); math.Abs(g-p.EpsT) > 1e-9 {
		t.Errorf("W3 DC gain = %v, want %v", g, p.EpsT)
	}
	hf := cmplx.Abs(w.W3.Eval(complex(0, p.Wt*1e4)))
	if math.Abs(hf-1/p.EpsT)/(1/p.EpsT) > 0.01 {
		t.Errorf("W3 high-frequency gain = %v, want %v", hf, 1/p.EpsT)
	}
}

func TestBuildWeightsRejectsNonPositive(t *testing.T) {
	base := DefaultWeightParams()

	mutations := []struct {
		name string
		mut  func(*WeightParams)
	}{
		{"Ms", func(p *WeightParams) { p.Ms = 0 }},
		{"Wb", func(p *WeightParams) { p.Wb = -1 }},
		{"Eps", func(p *WeightParams) { p.Eps = 0 }},
		{"Umax", func(p *WeightParams) { p.Umax = -255 }},
		{"Wbu", func(p *WeightParams) { p.Wbu = 0 }},
		{"EpsU", func(p *WeightParams) { p.EpsU = 0 }},
		{"Wt", func(p *WeightParams) { p.Wt = 0 }},
		{"EpsT", func(p *WeightParams) { p.EpsT = -0.01 }},
	}

	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			p := base
			m.mut(&p)
			_, err := BuildWeights(p)
			var inv *InvalidWeightError
			if !errors.As(err, &inv) {
				t.Fatalf("expected InvalidWeightError, got %v", err)
			}
			if inv.Param != m.name {
				t.Errorf("offending param = %s, want %s", inv.Param, m.name)
			}
		})
	}
}
