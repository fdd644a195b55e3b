package utils

import (
	"math"
	"math/rand/v2"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/manningwu07/pcadata/generator"
)

func ToDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

// MatrixNorm is the Frobenius norm.
func MatrixNorm(m mat.Matrix) float64 {
	return mat.Norm(m, 2)
}

// Orthonormalize returns an N x K matrix with orthonormal columns spanning
// the same space as the columns of basis. basis must have rows >= cols and
// full column rank.
func Orthonormalize(basis mat.Matrix) (*mat.Dense, error) {
	n, k, err := generator.Shape(basis)
	if err != nil {
		return nil, err
	}
	if k > n {
		return nil, errors.Wrapf(generator.ErrShapeMismatch, "cannot orthonormalize %dx%d basis", n, k)
	}

	var qr mat.QR
	qr.Factorize(basis)

	var r mat.Dense
	qr.RTo(&r)
	tol := 1e-12 * mat.Norm(basis, math.Inf(1))
	for i := 0; i < k; i++ {
		if math.Abs(r.At(i, i)) <= tol {
			return nil, errors.Wrapf(generator.ErrShapeMismatch, "basis column %d is linearly dependent", i)
		}
	}

	var q mat.Dense
	qr.QTo(&q)
	return mat.DenseCopyOf(q.Slice(0, n, 0, k)), nil
}

// OrthonormalBasis draws a random N x K basis with orthonormal columns.
func OrthonormalBasis(src rand.Source, n, k int) (*mat.Dense, error) {
	if src == nil {
		return nil, errors.Wrap(generator.ErrInvalidArgument, "random source is nil")
	}
	if n <= 0 || k <= 0 || k > n {
		return nil, errors.Wrapf(generator.ErrInvalidArgument, "need 0 < rank <= dims, got dims=%d rank=%d", n, k)
	}
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, n*k)
	for i := range data {
		data[i] = norm.Rand()
	}
	return Orthonormalize(mat.NewDense(n, k, data))
}

// ColumnSpaceResidual returns the Frobenius norm of the part of x that lies
// outside the column space of basis.
func ColumnSpaceResidual(basis, x mat.Matrix) (float64, error) {
	q, err := Orthonormalize(basis)
	if err != nil {
		return 0, err
	}
	n, _ := q.Dims()
	xr, xc := x.Dims()
	if xr != n {
		return 0, errors.Wrapf(generator.ErrShapeMismatch, "x has %d rows, basis has %d", xr, n)
	}

	// x - Q Qᵀ x
	var coords, proj mat.Dense
	coords.Mul(q.T(), x)
	proj.Mul(q, &coords)
	resid := mat.NewDense(xr, xc, nil)
	resid.Sub(x, &proj)
	return MatrixNorm(resid), nil
}
