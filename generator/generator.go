// Package generator synthesizes points lying near a linear subspace, for
// exercising principal component analysis.
package generator

import (
	"math"
	"math/rand/v2"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generator draws synthetic PCA data from a single random source.
// It is not safe for concurrent use; give each goroutine its own.
type Generator struct {
	src rand.Source
}

// New returns a Generator drawing from src.
func New(src rand.Source) *Generator {
	return &Generator{src: src}
}

// Generate is MakePCAData using the Generator's source.
func (g *Generator) Generate(basis mat.Matrix, numpts int, sigma float64) (*mat.Dense, error) {
	return MakePCAData(g.src, basis, numpts, sigma)
}

// MakePCAData returns an N x numpts matrix whose columns are random points
// near the subspace spanned by the columns of basis (N x K):
//
//	X = basis*C + E
//
// where C (K x numpts) is standard normal and E (N x numpts) is normal with
// standard deviation sigma. The result is not zero-centered.
//
// C is drawn in full before E, both in row-major order, so calls with the
// same source state that differ only in sigma share the same C.
func MakePCAData(src rand.Source, basis mat.Matrix, numpts int, sigma float64) (*mat.Dense, error) {
	if src == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "random source is nil")
	}
	if numpts <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "numpts must be positive, got %d", numpts)
	}
	if sigma < 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, errors.Wrapf(ErrInvalidArgument, "sigma must be finite and non-negative, got %v", sigma)
	}
	n, k, err := Shape(basis)
	if err != nil {
		return nil, err
	}

	coeffs := mat.NewDense(k, numpts, nil)
	fill(coeffs, distuv.Normal{Mu: 0, Sigma: 1, Src: src})

	noise := mat.NewDense(n, numpts, nil)
	fill(noise, distuv.Normal{Mu: 0, Sigma: sigma, Src: src})

	x := mat.NewDense(n, numpts, nil)
	x.Mul(basis, coeffs)
	x.Add(x, noise)
	return x, nil
}

// fill overwrites m with draws from r in row-major order.
func fill(m *mat.Dense, r distuv.Rander) {
	raw := m.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j := range row {
			row[j] = r.Rand()
		}
	}
}

// Shape returns the dimensions of m, or ErrShapeMismatch if m is nil (typed
// or untyped) or has no rows or columns.
func Shape(m mat.Matrix) (r, c int, err error) {
	if m == nil {
		return 0, 0, errors.Wrap(ErrShapeMismatch, "matrix is nil")
	}
	defer func() {
		// typed nil receivers such as (*mat.Dense)(nil) panic in Dims
		if recover() != nil {
			r, c = 0, 0
			err = errors.Wrap(ErrShapeMismatch, "matrix is nil")
		}
	}()
	r, c = m.Dims()
	if r == 0 || c == 0 {
		return r, c, errors.Wrapf(ErrShapeMismatch, "matrix is %dx%d", r, c)
	}
	return r, c, nil
}

// FromRows builds a dense matrix from row slices. The rows must be
// non-empty and all of the same length.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "no rows")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "no columns")
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, errors.Wrapf(ErrShapeMismatch, "row %d has %d columns, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
