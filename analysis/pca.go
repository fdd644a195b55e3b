// Package analysis runs the PCA side of the exercise on generated points:
// centering, principal directions and comparison against a known subspace.
package analysis

import (
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/manningwu07/pcadata/generator"
	"github.com/manningwu07/pcadata/utils"
)

// Result holds the outcome of PrincipalComponents.
type Result struct {
	// Directions is N x K; column i is the i-th principal direction.
	Directions *mat.Dense
	// Variances holds all N (or numpts-1, if smaller) component variances,
	// largest first.
	Variances []float64
}

// Explained returns the fraction of total variance carried by the first k
// components.
func (r *Result) Explained(k int) float64 {
	total := floats.Sum(r.Variances)
	if total == 0 {
		return 0
	}
	if k > len(r.Variances) {
		k = len(r.Variances)
	}
	return floats.Sum(r.Variances[:k]) / total
}

// Center returns a copy of x with the per-row mean removed, and that mean.
// Points are the columns of x.
func Center(x *mat.Dense) (*mat.Dense, []float64) {
	r, c := x.Dims()
	out := mat.DenseCopyOf(x)
	mean := make([]float64, r)
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		mean[i] = floats.Sum(row) / float64(c)
		floats.AddConst(-mean[i], row)
	}
	return out, mean
}

// PrincipalComponents computes the top-k principal directions of the points
// stored in the columns of x. Centering is handled internally.
func PrincipalComponents(x mat.Matrix, k int) (*Result, error) {
	n, m := x.Dims()
	if n == 0 || m < 2 {
		return nil, errors.Wrapf(generator.ErrShapeMismatch, "need at least 2 points, got %dx%d", n, m)
	}
	if k <= 0 || k > n {
		return nil, errors.Wrapf(generator.ErrInvalidArgument, "rank must be in [1, %d], got %d", n, k)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x.T(), nil); !ok {
		return nil, errors.New("principal component decomposition failed")
	}
	vars := pc.VarsTo(nil)
	if k > len(vars) {
		return nil, errors.Wrapf(generator.ErrInvalidArgument, "rank %d exceeds %d available components", k, len(vars))
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	return &Result{
		Directions: mat.DenseCopyOf(vecs.Slice(0, n, 0, k)),
		Variances:  vars,
	}, nil
}

// SubspaceDistance compares the column spaces of a and b, which must have the
// same shape. It returns sqrt(sum sin²θ) over their principal angles: 0 for
// identical subspaces, sqrt(K) for orthogonal ones.
func SubspaceDistance(a, b mat.Matrix) (float64, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return 0, errors.Wrapf(generator.ErrShapeMismatch, "%dx%d vs %dx%d", ar, ac, br, bc)
	}
	qa, err := utils.Orthonormalize(a)
	if err != nil {
		return 0, err
	}
	qb, err := utils.Orthonormalize(b)
	if err != nil {
		return 0, err
	}

	var pa, pb mat.Dense
	pa.Mul(qa, qa.T())
	pb.Mul(qb, qb.T())
	pa.Sub(&pa, &pb)
	return utils.MatrixNorm(&pa) / math.Sqrt2, nil
}
