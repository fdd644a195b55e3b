package analysis

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/manningwu07/pcadata/generator"
	"github.com/manningwu07/pcadata/utils"
)

func TestCenter(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		10, 10, 40,
	})
	c, mean := Center(x)
	assert.Equal(t, []float64{2, 20}, mean)
	assert.True(t, mat.Equal(c, mat.NewDense(2, 3, []float64{
		-1, 0, 1,
		-10, -10, 20,
	})))
	// input untouched
	assert.Equal(t, 1.0, x.At(0, 0))
}

func TestRecoversSubspace(t *testing.T) {
	src := rand.NewPCG(2021, 369)
	basis, err := utils.OrthonormalBasis(src, 8, 3)
	require.NoError(t, err)

	x, err := generator.MakePCAData(src, basis, 2000, 0.01)
	require.NoError(t, err)
	centered, _ := Center(x)

	res, err := PrincipalComponents(centered, 3)
	require.NoError(t, err)
	r, c := res.Directions.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 3, c)
	assert.Len(t, res.Variances, 8)
	assert.True(t, floats.Equal(res.Variances, sortedDesc(res.Variances)))
	assert.Greater(t, res.Explained(3), 0.999)

	dist, err := SubspaceDistance(basis, res.Directions)
	require.NoError(t, err)
	assert.Less(t, dist, 0.01)
}

func sortedDesc(v []float64) []float64 {
	out := append([]float64(nil), v...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] > out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func TestSubspaceDistance(t *testing.T) {
	xy := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 0, 0})
	skewed := mat.NewDense(3, 2, []float64{1, 1, 1, -1, 0, 0})
	yz := mat.NewDense(3, 2, []float64{0, 0, 1, 0, 0, 1})
	xOnly := mat.NewDense(3, 1, []float64{1, 0, 0})
	zOnly := mat.NewDense(3, 1, []float64{0, 0, 1})

	d, err := SubspaceDistance(xy, skewed)
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 1e-12)

	d, err = SubspaceDistance(xy, yz)
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-12) // one shared direction, one orthogonal

	d, err = SubspaceDistance(xOnly, zOnly)
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-12)

	_, err = SubspaceDistance(xy, xOnly)
	assert.True(t, errors.Is(err, generator.ErrShapeMismatch))
}

func TestPrincipalComponentsErrors(t *testing.T) {
	x := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		0, 1, 0, 1,
		5, 5, 5, 6,
	})
	_, err := PrincipalComponents(x, 0)
	assert.True(t, errors.Is(err, generator.ErrInvalidArgument))
	_, err = PrincipalComponents(x, 4)
	assert.True(t, errors.Is(err, generator.ErrInvalidArgument))
	_, err = PrincipalComponents(mat.NewDense(3, 1, []float64{1, 2, 3}), 1)
	assert.True(t, errors.Is(err, generator.ErrShapeMismatch))
}

func TestExplained(t *testing.T) {
	r := &Result{Variances: []float64{3, 1, 0}}
	assert.InDelta(t, 0.75, r.Explained(1), 1e-15)
	assert.InDelta(t, 1.0, r.Explained(10), 1e-15)
	assert.Equal(t, 0.0, (&Result{Variances: []float64{0, 0}}).Explained(1))
	assert.False(t, math.IsNaN(r.Explained(0)))
}
