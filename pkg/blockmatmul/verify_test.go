package blockmatmul_test

import (
	"slices"
	"testing"

	bmm "github.com/gomlx/blockmatmul/pkg/blockmatmul"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDenseProduct(t *testing.T) {
	cfg, err := bmm.NewConfig(2, 2, 1, 1)
	require.NoError(t, err)
	product, err := bmm.DenseProduct(cfg, exampleA, exampleB)
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{17, 23, 39, 53}), product))

	_, err = bmm.DenseProduct(cfg, append(slices.Clone(exampleA), bmm.Entry{Row: 1, Col: 3}), exampleB)
	require.ErrorIs(t, err, bmm.ErrDimensionMismatch)
	_, err = bmm.DenseProduct(bmm.Config{}, exampleA, exampleB)
	require.ErrorIs(t, err, bmm.ErrInvalidConfig)
}

func TestVerifyProduct(t *testing.T) {
	cfg, err := bmm.NewConfig(2, 2, 1, 1)
	require.NoError(t, err)
	require.NoError(t, bmm.VerifyProduct(cfg, exampleA, exampleB, exampleC, 0))

	wrong := slices.Clone(exampleC)
	wrong[3].Value = 53.01
	require.Error(t, bmm.VerifyProduct(cfg, exampleA, exampleB, wrong, 0))
	require.NoError(t, bmm.VerifyProduct(cfg, exampleA, exampleB, wrong, 0.01+1e-9))

	require.Error(t, bmm.VerifyProduct(cfg, exampleA, exampleB, exampleC[:3], 0))

	duplicated := slices.Clone(exampleC)
	duplicated[3] = duplicated[0]
	require.ErrorIs(t, bmm.VerifyProduct(cfg, exampleA, exampleB, duplicated, 0), bmm.ErrDuplicateEntry)

	outside := slices.Clone(exampleC)
	outside[3].Row = 3
	require.ErrorIs(t, bmm.VerifyProduct(cfg, exampleA, exampleB, outside, 0), bmm.ErrDimensionMismatch)
}
