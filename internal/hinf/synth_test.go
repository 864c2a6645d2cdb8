package hinf

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/emtz/motorlab/internal/ident"
	"github.com/emtz/motorlab/internal/sim"
)

// The rig model from the bench: 2 physical units per PWM unit, 0.5 s lag.
var benchModel = ident.Model{Order: 1, K: 2.0, Tau: 0.5}

func benchWeights(t *testing.T) Weights {
	t.Helper()
	w, err := BuildWeights(WeightParams{
		Ms: 2.0, Wb: 5.0, Eps: 0.01,
		Umax: 255, Wbu: 0.5, EpsU: 0.01,
		Wt: 50, EpsT: 0.01,
	})
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	return w
}

func TestSynthesizeHinf(t *testing.T) {
	ctl, err := Synthesize(benchModel, benchWeights(t), MethodHinf)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	if ctl.GammaVerified <= 0 {
		t.Fatalf("gamma_verified = %v", ctl.GammaVerified)
	}
	// Achieved norm must stay under the sensitivity target with engineering
	// margin; the verified figure is authoritative over the solver's gamma.
	if ctl.GammaVerified >= 2.0*1.5 {
		t.Errorf("gamma_verified = %v, want < 3", ctl.GammaVerified)
	}
	if ctl.Norms.Max() != ctl.GammaVerified {
		t.Errorf("gamma_verified %v != max norm %v", ctl.GammaVerified, ctl.Norms.Max())
	}

	if ctl.Kp <= 0 || ctl.Ki <= 0 {
		t.Fatalf("reduced PI = (%v, %v), want positive gains", ctl.Kp, ctl.Ki)
	}
	if !PIStabilizes(benchModel, ctl.Kp, ctl.Ki) {
		t.Error("reduced PI fails the stability gate")
	}

	if !math.IsInf(ctl.Margins.PhaseMarginDeg, 1) && ctl.Margins.PhaseMarginDeg < 20 {
		t.Errorf("phase margin = %v deg, dangerously low", ctl.Margins.PhaseMarginDeg)
	}
}

func TestSynthesizeH2(t *testing.T) {
	ctl, err := Synthesize(benchModel, benchWeights(t), MethodH2)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !math.IsInf(ctl.Gamma, 1) {
		t.Errorf("h2 solver gamma = %v, want +Inf placeholder", ctl.Gamma)
	}
	if ctl.GammaVerified <= 0 || math.IsInf(ctl.GammaVerified, 1) {
		t.Errorf("gamma_verified = %v, want finite positive", ctl.GammaVerified)
	}
	if !PIStabilizes(benchModel, ctl.Kp, ctl.Ki) {
		t.Error("reduced PI fails the stability gate")
	}
}

func TestSynthesizeRejectsBadUmax(t *testing.T) {
	w := benchWeights(t)
	w.P.Umax = 0 // sneak past BuildWeights

	_, err := Synthesize(benchModel, w, MethodHinf)
	var inv *InvalidWeightError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidWeightError, got %v", err)
	}
	if inv.Param != "Umax" {
		t.Errorf("offending param = %s, want Umax", inv.Param)
	}
}

func TestSynthesizeSecondOrderModel(t *testing.T) {
	m := ident.Model{Order: 2, K: 1.2, Tau1: 0.05, Tau2: 0.6}
	ctl, err := Synthesize(m, benchWeights(t), MethodHinf)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !PIStabilizes(m, ctl.Kp, ctl.Ki) {
		t.Error("reduced PI fails the stability gate on the second-order model")
	}
}

func TestReducedControllerClosedLoopBounded(t *testing.T) {
	ctl, err := Synthesize(benchModel, benchWeights(t), MethodHinf)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	ref := sim.Schedule{{At: 0, Level: 1}}
	cfg := sim.Config{Dt: 0.001, Duration: 10}
	res, err := sim.RunPI(context.Background(), benchModel, ctl.Kp, ctl.Ki, ref, cfg)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	for i, y := range res.Output {
		if math.IsNaN(y) || math.Abs(y) > 100 {
			t.Fatalf("output diverged at step %d: %v", i, y)
		}
	}
	final := res.Output[len(res.Output)-1]
	if math.Abs(final-1) > 0.05 {
		t.Errorf("final output = %v, want ~1 (integral action)", final)
	}
}

func TestReductionComparableToFullOrder(t *testing.T) {
	ctl, err := Synthesize(benchModel, benchWeights(t), MethodHinf)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	ref := sim.Schedule{{At: 0, Level: 1}}
	cfg := sim.Config{Dt: 0.0005, Duration: 10}

	reduced, err := sim.RunPI(context.Background(), benchModel, ctl.Kp, ctl.Ki, ref, cfg)
	if err != nil {
		t.Fatalf("reduced run: %v", err)
	}
	full, err := sim.RunFull(context.Background(), benchModel, ctl.K, ref, cfg)
	if err != nil {
		t.Fatalf("full run: %v", err)
	}

	tr := sim.SettlingTime(reduced, 0.02)
	tf := sim.SettlingTime(full, 0.02)
	// The reduction is lossy by design; demand the same order of magnitude,
	// not equality.
	if tr > 5*tf+1 || tf > 5*tr+1 {
		t.Errorf("settling times diverge: reduced %v s, full %v s", tr, tf)
	}
}
