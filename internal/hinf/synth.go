package hinf

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/emtz/motorlab/internal/ident"
	"github.com/emtz/motorlab/internal/lti"
)

// Method selects the synthesis norm.
type Method string

const (
	MethodHinf Method = "hinf"
	MethodH2   Method = "h2"
)

// gammaCap bounds the upward search; a problem infeasible at this level has
// no practically stabilizing solution for the given weights.
const gammaCap = 1e6

// InfeasibleError reports that no stabilizing controller exists for the
// requested weights, with a hint at which design knob to relax.
type InfeasibleError struct {
	Gamma float64 // last gamma attempted
	Hint  string
	cause error
}

func (e *InfeasibleError) Error() string {
	msg := fmt.Sprintf("synthesis infeasible up to gamma = %.3g", e.Gamma)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

func (e *InfeasibleError) Unwrap() error { return e.cause }

// Norms are the verified closed-loop peak gains of the three weighted
// transfer functions.
type Norms struct {
	W1S  float64 `json:"w1s"`
	W2KS float64 `json:"w2ks"`
	W3T  float64 `json:"w3t"`
}

// Max is the authoritative achieved gamma.
func (n Norms) Max() float64 {
	return math.Max(n.W1S, math.Max(n.W2KS, n.W3T))
}

// Controller is a synthesized design: the full-order controller, the
// verification figures, and the PI reduction destined for the firmware.
type Controller struct {
	K      lti.SS // full-order controller, maps tracking error to drive
	Method Method

	Gamma         float64 // gamma from the solver iteration, advisory only
	GammaVerified float64 // max of the three verified norms, authoritative
	Norms         Norms
	Margins       lti.Margins

	Kp float64 // reduced PI
	Ki float64
}

// Synthesize designs a controller for the model under the given weights.
// The model must be SISO and stable; second-order models are used as-is.
// Weight scalars are re-validated first so a bad Umax never reaches the
// Riccati machinery.
func Synthesize(model ident.Model, w Weights, method Method) (*Controller, error) {
	if _, err := BuildWeights(w.P); err != nil {
		return nil, err
	}

	p, err := Augment(model, w)
	if err != nil {
		return nil, err
	}

	var K lti.SS
	var gamma float64
	switch method {
	case MethodH2:
		K, err = design(p, math.Inf(1))
		if err != nil {
			return nil, &InfeasibleError{Gamma: math.Inf(1), Hint: hintFor(err), cause: err}
		}
		gamma = math.Inf(1)
	case MethodHinf:
		K, gamma, err = iterate(p)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown synthesis method %q", method)
	}

	ctl := &Controller{K: K, Method: method, Gamma: gamma}
	if err := verify(ctl, model, w); err != nil {
		return nil, err
	}
	reduce(ctl, w.P)
	return ctl, nil
}

// iterate bisects gamma over the feasibility boundary of the two Riccati
// equations and returns the central controller at a small slack above the
// smallest feasible gamma found.
func iterate(p *Plant) (lti.SS, float64, error) {
	feasible := func(g float64) error {
		_, err := design(p, g)
		return err
	}

	hi := 1.0
	var lastErr error
	for {
		lastErr = feasible(hi)
		if lastErr == nil {
			break
		}
		hi *= 2
		if hi > gammaCap {
			return lti.SS{}, 0, &InfeasibleError{Gamma: hi / 2, Hint: hintFor(lastErr), cause: lastErr}
		}
	}

	lo := 0.0
	for i := 0; i < 60 && hi-lo > 1e-3*hi; i++ {
		mid := 0.5 * (lo + hi)
		if feasible(mid) == nil {
			hi = mid
		} else {
			lo = mid
		}
	}

	// A touch of slack over the boundary keeps the central controller away
	// from the singular optimum.
	gamma := hi * 1.02
	K, err := design(p, gamma)
	if err != nil {
		return lti.SS{}, 0, &InfeasibleError{Gamma: gamma, Hint: hintFor(err), cause: err}
	}
	return K, gamma, nil
}

// design solves the state-feedback and observer Riccati equations at one
// gamma (gamma = +Inf gives the H2/LQG design) and assembles the central
// controller. Cross terms from the weight feedthroughs are folded into the
// shifted coefficient matrices in the usual way.
func design(p *Plant, gamma float64) (lti.SS, error) {
	n := p.Order()
	ig2 := 0.0
	if !math.IsInf(gamma, 1) {
		ig2 = 1 / (gamma * gamma)
	}

	r := p.D12.At(1, 0) * p.D12.At(1, 0) // D12'D12, scalar by construction
	if r <= 0 {
		return lti.SS{}, fmt.Errorf("control channel has no penalty (D12 = 0)")
	}

	// s12 = C1'D12; shifted A and Q absorb the cross term.
	s12 := mat.NewDense(n, 1, nil)
	s12.Mul(p.C1.T(), p.D12)

	Abar := mat.NewDense(n, n, nil)
	Abar.Mul(p.B2, s12.T())
	Abar.Scale(-1/r, Abar)
	Abar.Add(Abar, p.A)

	Qx := mat.NewDense(n, n, nil)
	Qx.Mul(p.C1.T(), p.C1)
	var s12s12 mat.Dense
	s12s12.Mul(s12, s12.T())
	s12s12.Scale(1/r, &s12s12)
	Qx.Sub(Qx, &s12s12)

	Sx := mat.NewDense(n, n, nil)
	Sx.Mul(p.B2, p.B2.T())
	Sx.Scale(1/r, Sx)
	if ig2 > 0 {
		var b1b1 mat.Dense
		b1b1.Mul(p.B1, p.B1.T())
		b1b1.Scale(ig2, &b1b1)
		Sx.Sub(Sx, &b1b1)
	}

	X, err := solveRiccati(Abar, Sx, Qx)
	if err != nil {
		return lti.SS{}, fmt.Errorf("state-feedback riccati: %w", err)
	}
	if minEigSym(X) < -1e-7*(1+mat.Norm(X, 2)) {
		return lti.SS{}, fmt.Errorf("state-feedback riccati: solution not positive semidefinite")
	}

	// Observer side: with D21 = 1 the shifted dynamics are driven by
	// s21 = B1 D21' and the dual Riccati.
	s21 := mat.NewDense(n, 1, nil)
	s21.Copy(p.B1)

	Ae := mat.NewDense(n, n, nil)
	Ae.Mul(s21, p.C2)
	Ae.Sub(p.A, Ae)

	Qy := mat.NewDense(n, n, nil)
	Qy.Mul(p.B1, p.B1.T())
	var s21s21 mat.Dense
	s21s21.Mul(s21, s21.T())
	Qy.Sub(Qy, &s21s21)

	Sy := mat.NewDense(n, n, nil)
	Sy.Mul(p.C2.T(), p.C2)
	if ig2 > 0 {
		var c1c1 mat.Dense
		c1c1.Mul(p.C1.T(), p.C1)
		c1c1.Scale(ig2, &c1c1)
		Sy.Sub(Sy, &c1c1)
	}

	var aet mat.Dense
	aet.CloneFrom(Ae.T())
	Y, err := solveRiccati(&aet, Sy, Qy)
	if err != nil {
		return lti.SS{}, fmt.Errorf("observer riccati: %w", err)
	}
	if minEigSym(Y) < -1e-7*(1+mat.Norm(Y, 2)) {
		return lti.SS{}, fmt.Errorf("observer riccati: solution not positive semidefinite")
	}

	// Coupling condition rho(XY) < gamma^2.
	if ig2 > 0 {
		var xy mat.Dense
		xy.Mul(X, Y)
		if rho := spectralRadius(&xy); rho*ig2 >= 1 {
			return lti.SS{}, fmt.Errorf("spectral radius coupling: rho(XY) = %.3g >= gamma^2", rho)
		}
	}

	// F = -(1/r)(B2'X + D12'C1), L = -(Y C2' + B1 D21').
	F := mat.NewDense(1, n, nil)
	F.Mul(p.B2.T(), X)
	F.Add(F, s12.T())
	F.Scale(-1/r, F)

	L := mat.NewDense(n, 1, nil)
	L.Mul(Y, p.C2.T())
	L.Add(L, s21)
	L.Scale(-1, L)

	// Z = (I - gamma^-2 Y X)^-1 and the central controller.
	Z := eyeDense(n)
	if ig2 > 0 {
		var yx mat.Dense
		yx.Mul(Y, X)
		yx.Scale(-ig2, &yx)
		yx.Add(&yx, eyeDense(n))
		var zinv mat.Dense
		if err := zinv.Inverse(&yx); err != nil {
			return lti.SS{}, fmt.Errorf("coupling matrix singular: %w", err)
		}
		Z.Copy(&zinv)
	}

	var ZL mat.Dense
	ZL.Mul(Z, L)

	// C2eff = C2 + gamma^-2 D21 B1' X accounts for the worst-case input the
	// observer must anticipate.
	C2eff := mat.NewDense(1, n, nil)
	C2eff.Copy(p.C2)
	if ig2 > 0 {
		var bx mat.Dense
		bx.Mul(p.B1.T(), X)
		bx.Scale(ig2, &bx)
		C2eff.Add(C2eff, &bx)
	}

	Ak := mat.NewDense(n, n, nil)
	if ig2 > 0 {
		var b1b1x mat.Dense
		b1b1x.Mul(p.B1, p.B1.T())
		var tmp mat.Dense
		tmp.Mul(&b1b1x, X)
		tmp.Scale(ig2, &tmp)
		Ak.Add(Ak, &tmp)
	}
	var b2f mat.Dense
	b2f.Mul(p.B2, F)
	Ak.Add(Ak, &b2f)
	var zlc mat.Dense
	zlc.Mul(&ZL, C2eff)
	Ak.Add(Ak, &zlc)
	Ak.Add(Ak, p.A)

	Bk := mat.NewDense(n, 1, nil)
	Bk.Scale(-1, &ZL)

	Ck := mat.NewDense(1, n, nil)
	Ck.Copy(F)

	if !isHurwitz(Ak) {
		return lti.SS{}, fmt.Errorf("central controller is internally unstable")
	}

	return lti.SS{A: Ak, B: Bk, C: Ck, D: mat.NewDense(1, 1, nil)}, nil
}

// hintFor maps the failing stage to the weight most likely responsible.
func hintFor(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "state-feedback"):
		return "performance demand exceeds control authority; relax Wb or Ms, or raise Umax"
	case strings.Contains(msg, "spectral radius"):
		return "performance and robustness targets conflict; widen the gap between Wb and Wt"
	case strings.Contains(msg, "observer"):
		return "robustness weight is too aggressive; relax Wt or EpsT"
	}
	return "relax the bandwidth/robustness trade-off and retry"
}

func eyeDense(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
