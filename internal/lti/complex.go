package lti

import (
	"fmt"
	"math/cmplx"
)

// SolveComplex solves the dense complex system m*x = rhs by Gaussian
// elimination with partial pivoting. Systems here are tiny (plant plus weight
// states), so a direct elimination is used; gonum's dense types do not carry
// a complex solver.
func SolveComplex(m [][]complex128, rhs []complex128) ([]complex128, error) {
	n := len(m)
	a := make([][]complex128, n)
	for i := range m {
		a[i] = append([]complex128(nil), m[i]...)
	}
	b := append([]complex128(nil), rhs...)

	for col := 0; col < n; col++ {
		piv := col
		for r := col + 1; r < n; r++ {
			if cmplx.Abs(a[r][col]) > cmplx.Abs(a[piv][col]) {
				piv = r
			}
		}
		if cmplx.Abs(a[piv][col]) < 1e-300 {
			return nil, fmt.Errorf("singular complex system at column %d", col)
		}
		a[col], a[piv] = a[piv], a[col]
		b[col], b[piv] = b[piv], b[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	x := make([]complex128, n)
	for i := n - 1; i >= 0; i-- {
		acc := b[i]
		for j := i + 1; j < n; j++ {
			acc -= a[i][j] * x[j]
		}
		x[i] = acc / a[i][i]
	}
	return x, nil
}

// SolveComplexMulti solves m*X = RHS for several right-hand sides.
func SolveComplexMulti(m [][]complex128, rhs [][]complex128) ([][]complex128, error) {
	if len(rhs) == 0 {
		return nil, nil
	}
	cols := len(rhs[0])
	out := make([][]complex128, len(m))
	for i := range out {
		out[i] = make([]complex128, cols)
	}
	col := make([]complex128, len(m))
	for c := 0; c < cols; c++ {
		for r := range m {
			col[r] = rhs[r][c]
		}
		x, err := SolveComplex(m, col)
		if err != nil {
			return nil, err
		}
		for r := range x {
			out[r][c] = x[r]
		}
	}
	return out, nil
}
