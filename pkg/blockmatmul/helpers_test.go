package blockmatmul_test

import (
	"math/rand/v2"

	bmm "github.com/gomlx/blockmatmul/pkg/blockmatmul"
)

// denseEntries returns all entries of a rows×cols matrix, in row-major order.
func denseEntries(rows, cols int, valueFn func(row, col int) float64) []bmm.Entry {
	entries := make([]bmm.Entry, 0, rows*cols)
	for row := 1; row <= rows; row++ {
		for col := 1; col <= cols; col++ {
			entries = append(entries, bmm.Entry{Row: row, Col: col, Value: valueFn(row, col)})
		}
	}
	return entries
}

// randomEntries returns a dense matrix with values in [-10, 10) and 3 decimal places.
func randomEntries(rng *rand.Rand, rows, cols int) []bmm.Entry {
	return denseEntries(rows, cols, func(_, _ int) float64 {
		return float64(rng.IntN(20_000)-10_000) / 1000
	})
}

// referenceProduct computes the rounded product of dense A (rows×inner) and B (inner×cols)
// with a plain triple loop.
func referenceProduct(rows, inner, cols int, a, b []bmm.Entry) []bmm.Entry {
	at := func(entries []bmm.Entry, numCols, row, col int) float64 {
		return entries[(row-1)*numCols+col-1].Value
	}
	return denseEntries(rows, cols, func(i, j int) float64 {
		var sum float64
		for k := 1; k <= inner; k++ {
			sum += at(a, inner, i, k) * at(b, cols, k, j)
		}
		return bmm.RoundHalfUp(sum, 2)
	})
}

// groupingEmitter collects emitted values by key, as the shuffle would.
type groupingEmitter struct {
	groups  map[bmm.BlockKey][]bmm.TaggedEntry
	emitted int
}

func newGroupingEmitter() *groupingEmitter {
	return &groupingEmitter{groups: make(map[bmm.BlockKey][]bmm.TaggedEntry)}
}

func (g *groupingEmitter) Emit(key bmm.BlockKey, value bmm.TaggedEntry) error {
	g.groups[key] = append(g.groups[key], value)
	g.emitted++
	return nil
}

// emitAll sends every entry of a and b through their emitters.
func emitAll(cfg bmm.Config, a, b []bmm.Entry) (*groupingEmitter, error) {
	g := newGroupingEmitter()
	for _, e := range a {
		if err := bmm.EmitRowBlock(cfg, e, g); err != nil {
			return nil, err
		}
	}
	for _, e := range b {
		if err := bmm.EmitColumnBlock(cfg, e, g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// exampleA and exampleB are A = [[1,2],[3,4]] and B = [[5,7],[6,8]], whose transpose has
// rows (5,6) and (7,8). Their product is [[17,23],[39,53]].
var (
	exampleA = []bmm.Entry{{1, 1, 1}, {1, 2, 2}, {2, 1, 3}, {2, 2, 4}}
	exampleB = []bmm.Entry{{1, 1, 5}, {2, 1, 6}, {1, 2, 7}, {2, 2, 8}}
	exampleC = []bmm.Entry{{1, 1, 17}, {1, 2, 23}, {2, 1, 39}, {2, 2, 53}}
)
