package blockmatmul

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// BlockKey identifies an output block by its row-block index m (Row) and column-block
// index n (Col), both starting from 1.
type BlockKey struct {
	Row, Col int
}

// Compare orders keys by row-block, then by column-block.
func (k BlockKey) Compare(other BlockKey) int {
	if c := cmp.Compare(k.Row, other.Row); c != 0 {
		return c
	}
	return cmp.Compare(k.Col, other.Col)
}

// Hash returns the 64-bit FNV-1a hash of both indices, encoded as big-endian 64-bit integers.
func (k BlockKey) Hash() uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(k.Row))
	binary.BigEndian.PutUint64(buf[8:], uint64(k.Col))
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// Partition returns the partition in [0, numPartitions) the key is assigned to.
func (k BlockKey) Partition(numPartitions int) int {
	return int(k.Hash() % uint64(numPartitions))
}

// In returns whether the key is one of the M·N blocks of cfg.
func (k BlockKey) In(cfg Config) bool {
	return k.Row >= 1 && k.Row <= cfg.M() && k.Col >= 1 && k.Col <= cfg.N()
}

// String implements fmt.Stringer.
func (k BlockKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.Row, k.Col)
}
