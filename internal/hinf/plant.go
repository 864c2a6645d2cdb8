package hinf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/emtz/motorlab/internal/ident"
	"github.com/emtz/motorlab/internal/lti"
)

// Plant is the augmented generalized plant in the standard partition
//
//	dx = A x + B1 w + B2 u
//	z  = C1 x + D11 w + D12 u     (z = [W1*e; W2*u; W3*G*u], e = w - G*u)
//	y  = C2 x + D21 w + D22 u     (y = e, the measured tracking error)
//
// with one exogenous input w, one control u, three weighted outputs and one
// measurement. D11 is structurally zero because W1 is strictly proper.
type Plant struct {
	A   *mat.Dense
	B1  *mat.Dense
	B2  *mat.Dense
	C1  *mat.Dense
	C2  *mat.Dense
	D12 *mat.Dense
	D21 *mat.Dense

	NG int // plant states, leading block of x
	G  lti.SS
}

// Order is the augmented state dimension.
func (p *Plant) Order() int {
	n, _ := p.A.Dims()
	return n
}

// Augment assembles the mixed-sensitivity generalized plant from the model
// and the weighting filters.
func Augment(model ident.Model, w Weights) (*Plant, error) {
	g, err := lti.Realize(model.TF())
	if err != nil {
		return nil, fmt.Errorf("realize plant: %w", err)
	}
	if g.D.At(0, 0) != 0 {
		return nil, fmt.Errorf("plant model must be strictly proper")
	}
	w1, err := lti.Realize(w.W1)
	if err != nil {
		return nil, fmt.Errorf("realize W1: %w", err)
	}
	if w1.D.At(0, 0) != 0 {
		return nil, fmt.Errorf("performance weight must be strictly proper")
	}
	w2, err := lti.Realize(w.W2)
	if err != nil {
		return nil, fmt.Errorf("realize W2: %w", err)
	}
	if w2.D.At(0, 0) == 0 {
		return nil, fmt.Errorf("effort weight needs a direct term for a well-posed design")
	}
	w3, err := lti.Realize(w.W3)
	if err != nil {
		return nil, fmt.Errorf("realize W3: %w", err)
	}

	ng, n1, n2, n3 := g.Order(), w1.Order(), w2.Order(), w3.Order()
	n := ng + n1 + n2 + n3
	og, o1, o2, o3 := 0, ng, ng+n1, ng+n1+n2

	A := mat.NewDense(n, n, nil)
	setBlock(A, og, og, g.A)
	setBlock(A, o1, o1, w1.A)
	setBlock(A, o2, o2, w2.A)
	setBlock(A, o3, o3, w3.A)
	// W1 is driven by e = w - Cg xg, W3 by the plant output Cg xg.
	for i := 0; i < n1; i++ {
		for j := 0; j < ng; j++ {
			A.Set(o1+i, og+j, -w1.B.At(i, 0)*g.C.At(0, j))
		}
	}
	for i := 0; i < n3; i++ {
		for j := 0; j < ng; j++ {
			A.Set(o3+i, og+j, w3.B.At(i, 0)*g.C.At(0, j))
		}
	}

	B1 := mat.NewDense(n, 1, nil)
	for i := 0; i < n1; i++ {
		B1.Set(o1+i, 0, w1.B.At(i, 0))
	}

	B2 := mat.NewDense(n, 1, nil)
	for i := 0; i < ng; i++ {
		B2.Set(og+i, 0, g.B.At(i, 0))
	}
	for i := 0; i < n2; i++ {
		B2.Set(o2+i, 0, w2.B.At(i, 0))
	}

	C1 := mat.NewDense(3, n, nil)
	for j := 0; j < n1; j++ {
		C1.Set(0, o1+j, w1.C.At(0, j))
	}
	for j := 0; j < n2; j++ {
		C1.Set(1, o2+j, w2.C.At(0, j))
	}
	for j := 0; j < n3; j++ {
		C1.Set(2, o3+j, w3.C.At(0, j))
	}
	// z3 also sees the plant output through W3's direct term.
	d3 := w3.D.At(0, 0)
	for j := 0; j < ng; j++ {
		C1.Set(2, og+j, d3*g.C.At(0, j))
	}

	C2 := mat.NewDense(1, n, nil)
	for j := 0; j < ng; j++ {
		C2.Set(0, og+j, -g.C.At(0, j))
	}

	D12 := mat.NewDense(3, 1, []float64{0, w2.D.At(0, 0), 0})
	D21 := mat.NewDense(1, 1, []float64{1})

	return &Plant{
		A: A, B1: B1, B2: B2,
		C1: C1, C2: C2, D12: D12, D21: D21,
		NG: ng, G: g,
	}, nil
}

func setBlock(dst *mat.Dense, r, c int, src *mat.Dense) {
	rows, cols := src.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst.Set(r+i, c+j, src.At(i, j))
		}
	}
}
