package lti

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SS is a state-space realization dx = Ax + Bu, y = Cx + Du. B, C and D may
// be multi-column for the generalized-plant partitions; controllers and
// weights here are SISO.
type SS struct {
	A *mat.Dense
	B *mat.Dense
	C *mat.Dense
	D *mat.Dense
}

// Order is the number of states.
func (s SS) Order() int {
	if s.A == nil {
		return 0
	}
	r, _ := s.A.Dims()
	return r
}

// Realize builds the controllable canonical realization of a proper SISO
// transfer function. The denominator is normalized to be monic.
func Realize(g TF) (SS, error) {
	if !g.Proper() {
		return SS{}, fmt.Errorf("transfer function is improper: deg(num)=%d > deg(den)=%d",
			len(g.Num)-1, len(g.Den)-1)
	}
	n := len(g.Den) - 1
	lead := g.Den[0]
	if lead == 0 {
		return SS{}, fmt.Errorf("zero leading denominator coefficient")
	}

	den := make([]float64, n+1)
	for i, c := range g.Den {
		den[i] = c / lead
	}
	num := make([]float64, n+1)
	off := n + 1 - len(g.Num)
	for i, c := range g.Num {
		num[off+i] = c / lead
	}

	// Direct term and strictly proper remainder num - d*den.
	d := num[0]
	rem := make([]float64, n)
	for i := 0; i < n; i++ {
		rem[i] = num[i+1] - d*den[i+1]
	}

	if n == 0 {
		return SS{
			A: mat.NewDense(0, 0, nil), B: mat.NewDense(0, 1, nil),
			C: mat.NewDense(1, 0, nil), D: mat.NewDense(1, 1, []float64{d}),
		}, nil
	}

	A := mat.NewDense(n, n, nil)
	for i := 0; i < n-1; i++ {
		A.Set(i, i+1, 1)
	}
	for j := 0; j < n; j++ {
		A.Set(n-1, j, -den[n-j])
	}
	B := mat.NewDense(n, 1, nil)
	B.Set(n-1, 0, 1)
	C := mat.NewDense(1, n, nil)
	for j := 0; j < n; j++ {
		C.Set(0, j, rem[n-1-j])
	}
	D := mat.NewDense(1, 1, []float64{d})
	return SS{A: A, B: B, C: C, D: D}, nil
}

// FromSS converts a SISO realization back to a transfer function using the
// Faddeev-LeVerrier recursion for the resolvent (sI - A)^-1.
func FromSS(s SS) TF {
	n := s.Order()
	d0 := s.D.At(0, 0)
	if n == 0 {
		return TF{Num: []float64{d0}, Den: []float64{1}}
	}

	// charpoly a[0..n], a[0]=1; N_k matrices give C*adj(sI-A)*B coefficients.
	a := make([]float64, n+1)
	a[0] = 1
	num := make([]float64, n) // coefficients of C adj(sI-A) B, degree n-1 down to 0

	Nk := eye(n) // N_1 = I
	var tmp mat.Dense
	for k := 1; k <= n; k++ {
		// num coefficient for s^(n-k): C*N_k*B
		var cb mat.Dense
		cb.Mul(s.C, Nk)
		var cnb mat.Dense
		cnb.Mul(&cb, s.B)
		num[k-1] = cnb.At(0, 0)

		tmp.Mul(s.A, Nk)
		a[k] = -traceOf(&tmp) / float64(k)
		if k < n {
			next := mat.NewDense(n, n, nil)
			next.Copy(&tmp)
			for i := 0; i < n; i++ {
				next.Set(i, i, next.At(i, i)+a[k])
			}
			Nk = next
		}
	}

	// Full numerator: C adj B + D * charpoly.
	full := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		full[i] = d0 * a[i]
	}
	for i := 0; i < n; i++ {
		full[i+1] += num[i]
	}
	return NewTF(full, a)
}

// EvalSS evaluates C(sI-A)^-1 B + D for a SISO realization at one frequency.
func EvalSS(s SS, z complex128) complex128 {
	n := s.Order()
	if n == 0 {
		return complex(s.D.At(0, 0), 0)
	}
	// (zI - A) x = B, solved densely in complex arithmetic.
	m := make([][]complex128, n)
	rhs := make([]complex128, n)
	for i := 0; i < n; i++ {
		m[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			m[i][j] = -complex(s.A.At(i, j), 0)
			if i == j {
				m[i][j] += z
			}
		}
		rhs[i] = complex(s.B.At(i, 0), 0)
	}
	x, err := SolveComplex(m, rhs)
	if err != nil {
		return complex(s.D.At(0, 0), 0)
	}
	acc := complex(s.D.At(0, 0), 0)
	for j := 0; j < n; j++ {
		acc += complex(s.C.At(0, j), 0) * x[j]
	}
	return acc
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func traceOf(m *mat.Dense) float64 {
	r, _ := m.Dims()
	t := 0.0
	for i := 0; i < r; i++ {
		t += m.At(i, i)
	}
	return t
}
