package blockmatmul_test

import (
	"slices"
	"testing"

	bmm "github.com/gomlx/blockmatmul/pkg/blockmatmul"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// joinAll joins every group and returns all cells sorted by row and column.
func joinAll(t *testing.T, cfg bmm.Config, g *groupingEmitter) []bmm.Entry {
	var output []bmm.Entry
	for key, values := range g.groups {
		cells, err := bmm.JoinBlock(cfg, key, values)
		require.NoError(t, err, "block %s", key)
		output = append(output, cells...)
	}
	slices.SortFunc(output, bmm.CompareEntries)
	return output
}

func TestJoinBlock_Example(t *testing.T) {
	cfg, err := bmm.NewConfig(2, 2, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.NumBlocks())
	g, err := emitAll(cfg, exampleA, exampleB)
	require.NoError(t, err)
	require.Len(t, g.groups, 4)
	assert.Equal(t, exampleC, joinAll(t, cfg, g))

	cells, err := bmm.JoinBlock(cfg, bmm.BlockKey{Row: 1, Col: 2}, g.groups[bmm.BlockKey{Row: 1, Col: 2}])
	require.NoError(t, err)
	assert.Equal(t, []bmm.Entry{{Row: 1, Col: 2, Value: 23}}, cells)
}

func TestJoinBlock_ClippedBoundary(t *testing.T) {
	// I=5, K=3, J=4 with 2x3 blocks: the last blocks have 1 row and 1 column.
	cfg, err := bmm.NewConfig(5, 3, 2, 3)
	require.NoError(t, err)
	cfg, err = cfg.WithCols(4)
	require.NoError(t, err)
	a := denseEntries(5, 3, func(r, c int) float64 { return float64(r*10 + c) })
	b := denseEntries(3, 4, func(r, c int) float64 { return float64(r) - float64(c)/2 })
	g, err := emitAll(cfg, a, b)
	require.NoError(t, err)

	sizes := map[bmm.BlockKey]int{
		{Row: 1, Col: 1}: 6, {Row: 1, Col: 2}: 2,
		{Row: 2, Col: 1}: 6, {Row: 2, Col: 2}: 2,
		{Row: 3, Col: 1}: 3, {Row: 3, Col: 2}: 1,
	}
	for key, size := range sizes {
		cells, err := bmm.JoinBlock(cfg, key, g.groups[key])
		require.NoError(t, err)
		require.Len(t, cells, size, "block %s", key)
		for _, cell := range cells {
			assert.LessOrEqual(t, cell.Row, cfg.Rows())
			assert.LessOrEqual(t, cell.Col, cfg.Cols())
		}
	}
	cells, err := bmm.JoinBlock(cfg, bmm.BlockKey{Row: 3, Col: 2}, g.groups[bmm.BlockKey{Row: 3, Col: 2}])
	require.NoError(t, err)
	// Row 5 of A is (51, 52, 53), column 4 of B is (-1, 0, 1).
	assert.Equal(t, []bmm.Entry{{Row: 5, Col: 4, Value: 2}}, cells)
	assert.Equal(t, referenceProduct(5, 3, 4, a, b), joinAll(t, cfg, g))
}

func TestJoinBlock_RowMajorOutput(t *testing.T) {
	cfg, err := bmm.NewConfig(4, 2, 3, 3)
	require.NoError(t, err)
	a := denseEntries(4, 2, func(r, c int) float64 { return 1 })
	b := denseEntries(2, 2, func(r, c int) float64 { return 1 })
	g, err := emitAll(cfg, a, b)
	require.NoError(t, err)
	cells, err := bmm.JoinBlock(cfg, bmm.BlockKey{Row: 1, Col: 1}, g.groups[bmm.BlockKey{Row: 1, Col: 1}])
	require.NoError(t, err)
	assert.True(t, slices.IsSortedFunc(cells, bmm.CompareEntries))
	assert.Len(t, cells, 6)
}

func TestJoinBlock_OrderAndIdempotence(t *testing.T) {
	cfg, err := bmm.NewConfig(3, 4, 2, 2)
	require.NoError(t, err)
	a := denseEntries(3, 4, func(r, c int) float64 { return float64(r)*0.1 + float64(c)*0.01 })
	b := denseEntries(4, 4, func(r, c int) float64 { return float64(r*c) / 3 })
	g, err := emitAll(cfg, a, b)
	require.NoError(t, err)

	key := bmm.BlockKey{Row: 2, Col: 1}
	values := g.groups[key]
	first, err := bmm.JoinBlock(cfg, key, values)
	require.NoError(t, err)
	second, err := bmm.JoinBlock(cfg, key, values)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	reversed := slices.Clone(values)
	slices.Reverse(reversed)
	third, err := bmm.JoinBlock(cfg, key, reversed)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestJoinBlock_Rounding(t *testing.T) {
	cfg, err := bmm.NewConfig(1, 1, 1, 1)
	require.NoError(t, err)
	for _, tc := range []struct {
		a, b, want float64
	}{
		{1.005, 1, 1.01},
		{1.004999, 1, 1.00},
		{-1.005, 1, -1.01},
		{0.5, 0.01, 0.01},
	} {
		values := []bmm.TaggedEntry{
			{Source: bmm.SourceA, Entry: bmm.Entry{Row: 1, Col: 1, Value: tc.a}},
			{Source: bmm.SourceB, Entry: bmm.Entry{Row: 1, Col: 1, Value: tc.b}},
		}
		cells, err := bmm.JoinBlock(cfg, bmm.BlockKey{Row: 1, Col: 1}, values)
		require.NoError(t, err)
		assert.Equal(t, []bmm.Entry{{Row: 1, Col: 1, Value: tc.want}}, cells, "%g·%g", tc.a, tc.b)
	}
}

// removeEntries returns the values without the entries of source for which drop returns true.
func removeEntries(values []bmm.TaggedEntry, source bmm.Source, drop func(e bmm.Entry) bool) []bmm.TaggedEntry {
	return slices.DeleteFunc(slices.Clone(values), func(v bmm.TaggedEntry) bool {
		return v.Source == source && drop(v.Entry)
	})
}

func TestJoinBlock_Missing(t *testing.T) {
	cfg, err := bmm.NewConfig(2, 3, 2, 2)
	require.NoError(t, err)
	a := denseEntries(2, 3, func(r, c int) float64 { return float64(r + c) })
	b := denseEntries(3, 3, func(r, c int) float64 { return 1 })
	g, err := emitAll(cfg, a, b)
	require.NoError(t, err)
	key := bmm.BlockKey{Row: 1, Col: 1}
	values := g.groups[key]

	t.Run("missing A entry", func(t *testing.T) {
		partial := removeEntries(values, bmm.SourceA, func(e bmm.Entry) bool { return e.Row == 1 && e.Col == 2 })
		_, err := bmm.JoinBlock(cfg, key, partial)
		require.ErrorIs(t, err, bmm.ErrMissingEntry)
		assert.Contains(t, err.Error(), "A entry (1,2)")
		assert.Contains(t, err.Error(), "block (1,1)")

		cells, err := bmm.JoinBlock(cfg.WithMissingPolicy(bmm.ZeroFill), key, partial)
		require.NoError(t, err)
		// Row 1 of A becomes (2, 0, 4), all of B is 1.
		assert.Equal(t, []bmm.Entry{{1, 1, 6}, {1, 2, 6}, {2, 1, 12}, {2, 2, 12}}, cells)
	})

	t.Run("missing B entry", func(t *testing.T) {
		partial := removeEntries(values, bmm.SourceB, func(e bmm.Entry) bool { return e.Row == 3 && e.Col == 2 })
		_, err := bmm.JoinBlock(cfg, key, partial)
		require.ErrorIs(t, err, bmm.ErrMissingEntry)
		assert.Contains(t, err.Error(), "B entry (3,2)")
	})

	t.Run("missing inner index", func(t *testing.T) {
		partial := removeEntries(values, bmm.SourceA, func(e bmm.Entry) bool { return e.Col == 3 })
		partial = removeEntries(partial, bmm.SourceB, func(e bmm.Entry) bool { return e.Row == 3 })
		_, err := bmm.JoinBlock(cfg, key, partial)
		require.ErrorIs(t, err, bmm.ErrDimensionMismatch)
		assert.Contains(t, err.Error(), "missing [3]")

		cells, err := bmm.JoinBlock(cfg.WithMissingPolicy(bmm.ZeroFill), key, partial)
		require.NoError(t, err)
		assert.Equal(t, []bmm.Entry{{1, 1, 5}, {1, 2, 5}, {2, 1, 7}, {2, 2, 7}}, cells)
	})

	t.Run("empty group", func(t *testing.T) {
		_, err := bmm.JoinBlock(cfg, key, nil)
		require.ErrorIs(t, err, bmm.ErrDimensionMismatch)
		cells, err := bmm.JoinBlock(cfg.WithMissingPolicy(bmm.ZeroFill), key, nil)
		require.NoError(t, err)
		assert.Equal(t, []bmm.Entry{{1, 1, 0}, {1, 2, 0}, {2, 1, 0}, {2, 2, 0}}, cells)
	})
}

func TestJoinBlock_InvalidEntries(t *testing.T) {
	cfg, err := bmm.NewConfig(4, 2, 2, 1)
	require.NoError(t, err)
	key := bmm.BlockKey{Row: 1, Col: 1}
	a := func(row, col int) bmm.TaggedEntry {
		return bmm.TaggedEntry{Source: bmm.SourceA, Entry: bmm.Entry{Row: row, Col: col, Value: 1}}
	}
	b := func(row, col int) bmm.TaggedEntry {
		return bmm.TaggedEntry{Source: bmm.SourceB, Entry: bmm.Entry{Row: row, Col: col, Value: 1}}
	}

	for name, tc := range map[string]struct {
		key     bmm.BlockKey
		values  []bmm.TaggedEntry
		wantErr error
	}{
		"A row of another block":  {key, []bmm.TaggedEntry{a(3, 1)}, bmm.ErrDimensionMismatch},
		"A inner out of range":    {key, []bmm.TaggedEntry{a(1, 3)}, bmm.ErrDimensionMismatch},
		"B column of other block": {key, []bmm.TaggedEntry{b(1, 2)}, bmm.ErrDimensionMismatch},
		"B inner out of range":    {key, []bmm.TaggedEntry{b(3, 1)}, bmm.ErrDimensionMismatch},
		"duplicate A":             {key, []bmm.TaggedEntry{a(1, 1), a(1, 1)}, bmm.ErrDuplicateEntry},
		"duplicate B":             {key, []bmm.TaggedEntry{b(2, 1), b(2, 1)}, bmm.ErrDuplicateEntry},
		"key out of grid":         {bmm.BlockKey{Row: 3, Col: 1}, nil, bmm.ErrDimensionMismatch},
		"invalid config":          {key, nil, bmm.ErrInvalidConfig},
	} {
		t.Run(name, func(t *testing.T) {
			joinCfg := cfg
			if tc.wantErr == bmm.ErrInvalidConfig {
				joinCfg = bmm.Config{}
			}
			_, err := bmm.JoinBlock(joinCfg, tc.key, tc.values)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err = bmm.JoinBlock(cfg, key, []bmm.TaggedEntry{{Source: 7, Entry: bmm.Entry{Row: 1, Col: 1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}
