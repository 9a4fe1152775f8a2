package blockmatmul_test

import (
	"fmt"
	"math"
	"testing"

	bmm "github.com/gomlx/blockmatmul/pkg/blockmatmul"
	"github.com/stretchr/testify/assert"
)

func TestRoundHalfUp(t *testing.T) {
	for _, tc := range []struct {
		v      float64
		places int
		want   float64
	}{
		{1.005, 2, 1.01},
		{1.004999, 2, 1.00},
		{-1.005, 2, -1.01},
		{2.675, 2, 2.68},
		{0.995, 2, 1.00},
		{9.999, 2, 10},
		{-9.995, 2, -10},
		{0.1 + 0.2, 2, 0.3},
		{17, 2, 17},
		{1.25, 1, 1.3},
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{2.4999, 0, 2},
		{123.456, 5, 123.456},
		{1e21, 2, 1e21},
	} {
		t.Run(fmt.Sprintf("%g@%d", tc.v, tc.places), func(t *testing.T) {
			assert.Equal(t, tc.want, bmm.RoundHalfUp(tc.v, tc.places))
		})
	}

	// Values whose shortest representation has many digits.
	x, y := 0.1, 0.2
	assert.Equal(t, 0.3, bmm.RoundHalfUp(x+y, 2))
	assert.Equal(t, 0.30000000000000004, bmm.RoundHalfUp(x+y, 17))

	// No negative zero.
	assert.False(t, math.Signbit(bmm.RoundHalfUp(-0.004, 2)))
	assert.False(t, math.Signbit(bmm.RoundHalfUp(-0.001, 2)))
	assert.True(t, math.IsNaN(bmm.RoundHalfUp(math.NaN(), 2)))
	assert.True(t, math.IsInf(bmm.RoundHalfUp(math.Inf(-1), 2), -1))
	assert.Equal(t, 1.234, bmm.RoundHalfUp(1.234, -1))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "17.00", bmm.FormatValue(17))
	assert.Equal(t, "1.01", bmm.FormatValue(1.005))
	assert.Equal(t, "1.00", bmm.FormatValue(1.004999))
	assert.Equal(t, "-1.01", bmm.FormatValue(-1.005))
	assert.Equal(t, "0.00", bmm.FormatValue(-0.001))
	assert.Equal(t, "1234567.89", bmm.FormatValue(1234567.885))
}
