// Package spectral estimates and normalizes the spectral radius of reservoir
// connectivity matrices.
//
// Eigenvalues are estimated with an explicitly restarted Arnoldi iteration:
// only matrix-vector products with the (usually sparse) reservoir matrix are
// needed, and the dense eigen decomposition is limited to the small upper
// Hessenberg projection.
package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/sparse"
)

const (
	DefaultNev         = 6
	DefaultMaxRestarts = 300
	DefaultTol         = 1e-10
	minKrylovDim       = 20
	breakdownTol       = 1e-12
	startSeed          = 1
)

var (
	ErrNoConvergence = errors.New("spectral: eigenvalue solver did not converge")
	ErrNotSquare     = errors.New("spectral: matrix is not square")
)

// Estimator returns eigenvalue estimates of a square matrix. When the
// iteration budget runs out it still returns its latest estimates, together
// with an error wrapping ErrNoConvergence.
type Estimator interface {
	Estimate(m mat.Matrix) ([]complex128, error)
}

// Arnoldi computes the Nev largest-magnitude eigenvalues. Zero fields take
// the package defaults; KrylovDim defaults to max(2*Nev+1, 20) and a negative
// MaxRestarts allows only the initial factorization.
type Arnoldi struct {
	Nev         int
	KrylovDim   int
	MaxRestarts int
	Tol         float64
}

// Estimate returns up to Nev eigenvalues ordered by decreasing magnitude.
func (a Arnoldi) Estimate(m mat.Matrix) ([]complex128, error) {
	n, c := m.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: %dx%d", ErrNotSquare, n, c)
	}
	if n == 0 {
		return nil, nil
	}

	nev, ncv, maxRestarts, tol := a.params(n)
	apply := operator(m)
	rng := rand.New(rand.NewSource(startSeed))

	v0 := randomUnit(rng, n)
	var last []complex128
	for restart := 0; restart <= maxRestarts; restart++ {
		f, err := factorize(apply, v0, ncv)
		if err != nil {
			return last, err
		}
		ritz, err := f.ritz(nev)
		if err != nil {
			return last, err
		}
		last = ritz.values

		if f.exact(n) || ritz.converged(f.beta, tol) {
			return last, nil
		}

		v0 = f.restartVector(ritz)
		if v0 == nil {
			v0 = randomUnit(rng, n)
		}
	}
	return last, fmt.Errorf("%w after %d restarts", ErrNoConvergence, maxRestarts)
}

func (a Arnoldi) params(n int) (nev, ncv, maxRestarts int, tol float64) {
	nev = a.Nev
	if nev <= 0 {
		nev = DefaultNev
	}
	nev = min(nev, n)

	ncv = a.KrylovDim
	if ncv <= 0 {
		ncv = max(2*nev+1, minKrylovDim)
	}
	ncv = min(max(ncv, nev+1), n)

	maxRestarts = a.MaxRestarts
	if maxRestarts < 0 {
		maxRestarts = 0
	} else if maxRestarts == 0 {
		maxRestarts = DefaultMaxRestarts
	}

	tol = a.Tol
	if tol <= 0 {
		tol = DefaultTol
	}
	return nev, ncv, maxRestarts, tol
}

// operator returns dst = m·x without materializing anything for CSR input.
func operator(m mat.Matrix) func(dst, x []float64) {
	if csr, ok := m.(*sparse.CSR); ok {
		return csr.MulVecTo
	}
	n, _ := m.Dims()
	return func(dst, x []float64) {
		out := mat.NewVecDense(n, dst)
		out.MulVec(m, mat.NewVecDense(n, x))
	}
}

func randomUnit(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()*2 - 1
	}
	floats.Scale(1/floats.Norm(v, 2), v)
	return v
}

// factorization is an Arnoldi decomposition A·V_k = V_k·H_k + beta·v_{k+1}·e_kᵀ.
type factorization struct {
	basis     [][]float64
	h         *mat.Dense
	steps     int
	beta      float64
	breakdown bool
}

func factorize(apply func(dst, x []float64), v0 []float64, ncv int) (*factorization, error) {
	n := len(v0)
	basis := make([][]float64, 0, ncv)
	basis = append(basis, append([]float64(nil), v0...))
	h := mat.NewDense(ncv+1, ncv, nil)

	w := make([]float64, n)
	f := &factorization{h: h}
	for j := 0; j < ncv; j++ {
		apply(w, basis[j])
		norm := floats.Norm(w, 2)
		if math.IsNaN(norm) || math.IsInf(norm, 0) {
			return nil, fmt.Errorf("spectral: non-finite operator output at step %d", j)
		}

		// modified Gram-Schmidt, second pass for re-orthogonalization
		for pass := 0; pass < 2; pass++ {
			for i := 0; i <= j; i++ {
				d := floats.Dot(w, basis[i])
				h.Set(i, j, h.At(i, j)+d)
				floats.AddScaled(w, -d, basis[i])
			}
		}

		beta := floats.Norm(w, 2)
		h.Set(j+1, j, beta)
		f.steps = j + 1
		f.beta = beta
		if beta <= breakdownTol*norm || beta == 0 {
			f.breakdown = true
			break
		}
		if j+1 < ncv {
			next := append([]float64(nil), w...)
			floats.Scale(1/beta, next)
			basis = append(basis, next)
		}
	}
	f.basis = basis[:f.steps]
	return f, nil
}

// exact reports whether the Krylov subspace is invariant, in which case the
// Ritz values are eigenvalues of the full matrix.
func (f *factorization) exact(n int) bool {
	return f.breakdown || f.steps == n
}

type ritzPairs struct {
	values  []complex128
	vectors [][]complex128
}

func (f *factorization) ritz(nev int) (ritzPairs, error) {
	k := f.steps
	hk := mat.NewDense(k, k, nil)
	hk.Copy(f.h.Slice(0, k, 0, k))

	var eig mat.Eigen
	if ok := eig.Factorize(hk, mat.EigenRight); !ok {
		return ritzPairs{}, fmt.Errorf("%w: hessenberg eigen decomposition failed", ErrNoConvergence)
	}
	values := eig.Values(nil)
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cmplx.Abs(values[order[a]]) > cmplx.Abs(values[order[b]])
	})

	want := min(nev, k)
	out := ritzPairs{
		values:  make([]complex128, want),
		vectors: make([][]complex128, want),
	}
	for w := 0; w < want; w++ {
		idx := order[w]
		out.values[w] = values[idx]
		y := make([]complex128, k)
		var norm float64
		for i := range y {
			y[i] = vecs.At(i, idx)
			norm += real(y[i])*real(y[i]) + imag(y[i])*imag(y[i])
		}
		if norm = math.Sqrt(norm); norm > 0 {
			for i := range y {
				y[i] /= complex(norm, 0)
			}
		}
		out.vectors[w] = y
	}
	return out, nil
}

// converged applies the Arnoldi residual bound |beta|·|e_kᵀ y| to every
// wanted Ritz pair.
func (r ritzPairs) converged(beta, tol float64) bool {
	floor := math.Pow(math.Nextafter(1, 2)-1, 2.0/3.0)
	for i, y := range r.vectors {
		residual := beta * cmplx.Abs(y[len(y)-1])
		if residual > tol*math.Max(cmplx.Abs(r.values[i]), floor) {
			return false
		}
	}
	return true
}

// restartVector combines the wanted Ritz vectors into the next start vector.
// Real and imaginary parts are both kept so that complex conjugate pairs
// stay represented in the new Krylov subspace.
func (f *factorization) restartVector(r ritzPairs) []float64 {
	k := f.steps
	coef := make([]float64, k)
	for _, y := range r.vectors {
		for i := 0; i < k; i++ {
			coef[i] += real(y[i]) + imag(y[i])
		}
	}
	v := make([]float64, len(f.basis[0]))
	for i := 0; i < k; i++ {
		floats.AddScaled(v, coef[i], f.basis[i])
	}
	norm := floats.Norm(v, 2)
	if norm == 0 || math.IsNaN(norm) {
		return nil
	}
	floats.Scale(1/norm, v)
	return v
}

// SpectralRadius returns max |λ| over the given estimates.
func SpectralRadius(values []complex128) float64 {
	var radius float64
	for _, v := range values {
		radius = math.Max(radius, cmplx.Abs(v))
	}
	return radius
}
