package hinf

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/emtz/motorlab/internal/ident"
	"github.com/emtz/motorlab/internal/lti"
)

const verifyGridPoints = 600

// verifyGrid spans well below the slowest weight corner to well above the
// fastest one.
func verifyGrid(model ident.Model, p WeightParams) []float64 {
	lo := math.Min(p.Wb*p.Eps, p.Wbu) / 100
	hi := math.Max(p.Wt, p.Wb) * 1000
	if model.Order == 2 && model.Tau1 > 0 {
		hi = math.Max(hi, 100/model.Tau1)
	}
	if lo <= 0 {
		lo = 1e-4
	}
	return lti.LogSpace(lo, hi, verifyGridPoints)
}

// verify computes the achieved weighted norms, the authoritative
// gamma_verified, the classical margins, and checks closed-loop stability of
// the nominal loop. The solver's own gamma is advisory; these figures decide.
func verify(ctl *Controller, model ident.Model, w Weights) error {
	g := model.TF()

	if !closedLoopStable(ctl.K, model) {
		return fmt.Errorf("synthesized controller does not stabilize the nominal plant")
	}

	grid := verifyGrid(model, w.P)
	var n Norms
	for _, omega := range grid {
		s := complex(0, omega)
		gv := g.Eval(s)
		kv := lti.EvalSS(ctl.K, s)
		l := gv * kv
		sens := 1 / (1 + l)

		if m := cmplx.Abs(w.W1.Eval(s) * sens); m > n.W1S {
			n.W1S = m
		}
		if m := cmplx.Abs(w.W2.Eval(s) * kv * sens); m > n.W2KS {
			n.W2KS = m
		}
		if m := cmplx.Abs(w.W3.Eval(s) * l * sens); m > n.W3T {
			n.W3T = m
		}
	}
	ctl.Norms = n
	ctl.GammaVerified = n.Max()

	loop := func(s complex128) complex128 {
		return g.Eval(s) * lti.EvalSS(ctl.K, s)
	}
	ctl.Margins = lti.LoopMargins(loop, grid)
	return nil
}

// closedLoopStable forms the closed loop of plant and full-order controller
// under unity negative feedback and checks that it is Hurwitz.
func closedLoopStable(K lti.SS, model ident.Model) bool {
	g, err := lti.Realize(model.TF())
	if err != nil {
		return false
	}
	ng, nk := g.Order(), K.Order()
	n := ng + nk
	A := mat.NewDense(n, n, nil)

	// Plant driven by u = Ck xk; controller driven by e = -Cg xg.
	for i := 0; i < ng; i++ {
		for j := 0; j < ng; j++ {
			A.Set(i, j, g.A.At(i, j))
		}
		for j := 0; j < nk; j++ {
			A.Set(i, ng+j, g.B.At(i, 0)*K.C.At(0, j))
		}
	}
	for i := 0; i < nk; i++ {
		for j := 0; j < ng; j++ {
			A.Set(ng+i, j, -K.B.At(i, 0)*g.C.At(0, j))
		}
		for j := 0; j < nk; j++ {
			A.Set(ng+i, ng+j, K.A.At(i, j))
		}
	}
	return isHurwitz(A)
}
