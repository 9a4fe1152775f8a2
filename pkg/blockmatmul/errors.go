package blockmatmul

import "github.com/pkg/errors"

// Errors returned by this package are wrapped around these, with the context (block key,
// row, column, input line) needed to locate the problem. Use errors.Is to test for them.
var (
	// ErrInvalidConfig is returned for non-positive dimensions or block sizes.
	ErrInvalidConfig = errors.New("blockmatmul: invalid configuration")

	// ErrParse is returned for a malformed input record.
	ErrParse = errors.New("blockmatmul: malformed record")

	// ErrDimensionMismatch is returned for entries outside the configured dimensions, or when
	// the inner indices present in a block don't cover the inner dimension.
	ErrDimensionMismatch = errors.New("blockmatmul: dimension mismatch")

	// ErrMissingEntry is returned when a block lacks an entry of A or B it needs.
	ErrMissingEntry = errors.New("blockmatmul: missing matrix entry")

	// ErrDuplicateEntry is returned when the same cell of A or B appears twice in a block.
	ErrDuplicateEntry = errors.New("blockmatmul: duplicate matrix entry")
)
