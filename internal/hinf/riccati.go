package hinf

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/emtz/motorlab/internal/lti"
)

// solveRiccati returns the stabilizing solution X of
//
//	A'X + XA - X S X + Q = 0
//
// via the eigendecomposition of the Hamiltonian [A -S; -Q -A']: the stable
// invariant subspace [U1; U2] yields X = U2 U1^-1. S may be sign-indefinite,
// which is how the gamma-dependent H-infinity quadratic term enters. Fails
// when the Hamiltonian has eigenvalues on the imaginary axis or the subspace
// does not project onto the state space, both of which signal that no
// stabilizing solution exists at this gamma.
func solveRiccati(A, S, Q *mat.Dense) (*mat.Dense, error) {
	n, _ := A.Dims()
	h := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			h.Set(i, j, A.At(i, j))
			h.Set(i, n+j, -S.At(i, j))
			h.Set(n+i, j, -Q.At(i, j))
			h.Set(n+i, n+j, -A.At(j, i))
		}
	}

	var eig mat.Eigen
	if ok := eig.Factorize(h, mat.EigenRight); !ok {
		return nil, fmt.Errorf("hamiltonian eigendecomposition failed")
	}
	values := eig.Values(nil)
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	scale := 0.0
	for _, v := range values {
		if m := cmplx.Abs(v); m > scale {
			scale = m
		}
	}
	axisTol := 1e-8 * (1 + scale)

	stable := make([]int, 0, n)
	for i, v := range values {
		if real(v) < -axisTol {
			stable = append(stable, i)
		} else if math.Abs(real(v)) <= axisTol {
			return nil, fmt.Errorf("hamiltonian eigenvalue on the imaginary axis (%.3g%+.3gi)", real(v), imag(v))
		}
	}
	if len(stable) != n {
		return nil, fmt.Errorf("stable subspace dimension %d, want %d", len(stable), n)
	}

	// X * U1 = U2, solved as U1^T X^T = U2^T in complex arithmetic.
	u1t := make([][]complex128, n)
	u2t := make([][]complex128, n)
	for i := 0; i < n; i++ {
		u1t[i] = make([]complex128, n)
		u2t[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			u1t[i][j] = vecs.At(j, stable[i])
			u2t[i][j] = vecs.At(n+j, stable[i])
		}
	}
	xt, err := lti.SolveComplexMulti(u1t, u2t)
	if err != nil {
		return nil, fmt.Errorf("stable subspace is deficient: %w", err)
	}

	X := mat.NewDense(n, n, nil)
	imagMax := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := xt[j][i]
			if m := math.Abs(imag(v)); m > imagMax {
				imagMax = m
			}
			X.Set(i, j, real(v))
		}
	}
	if imagMax > 1e-6*(1+mat.Norm(X, 2)) {
		return nil, fmt.Errorf("riccati solution has imaginary residue %.3g", imagMax)
	}

	// Symmetrize away the eigenvector roundoff.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := 0.5 * (X.At(i, j) + X.At(j, i))
			X.Set(i, j, v)
			X.Set(j, i, v)
		}
	}
	return X, nil
}

// minEigSym is the smallest eigenvalue of a symmetric matrix.
func minEigSym(X *mat.Dense) float64 {
	n, _ := X.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(X.At(i, j)+X.At(j, i)))
		}
	}
	var es mat.EigenSym
	if ok := es.Factorize(sym, false); !ok {
		return math.Inf(-1)
	}
	vals := es.Values(nil)
	min := math.Inf(1)
	for _, v := range vals {
		if v < min {
			min = v
		}
	}
	return min
}

// spectralRadius is the largest eigenvalue modulus of a (generally
// nonsymmetric) matrix.
func spectralRadius(M *mat.Dense) float64 {
	var eig mat.Eigen
	if ok := eig.Factorize(M, mat.EigenNone); !ok {
		return math.Inf(1)
	}
	r := 0.0
	for _, v := range eig.Values(nil) {
		if m := cmplx.Abs(v); m > r {
			r = m
		}
	}
	return r
}

// isHurwitz reports whether every eigenvalue of M has negative real part.
func isHurwitz(M *mat.Dense) bool {
	var eig mat.Eigen
	if ok := eig.Factorize(M, mat.EigenNone); !ok {
		return false
	}
	for _, v := range eig.Values(nil) {
		if real(v) >= 0 {
			return false
		}
	}
	return true
}
