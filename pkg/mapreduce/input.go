package mapreduce

import (
	"context"

	"github.com/pkg/errors"
)

// SliceInput is an in-memory Input.
type SliceInput[I any] struct {
	name   string
	splits [][]I
}

var _ Input[Line] = (*SliceInput[Line])(nil)

// NewSliceInput divides records into numSplits contiguous splits of about the same size.
// numSplits is clipped to [1, len(records)], and there is always at least one (possibly empty) split.
func NewSliceInput[I any](name string, records []I, numSplits int) *SliceInput[I] {
	numSplits = min(numSplits, len(records))
	numSplits = max(numSplits, 1)
	in := &SliceInput[I]{name: name, splits: make([][]I, numSplits)}
	splitSize := (len(records) + numSplits - 1) / numSplits
	for ii := range numSplits {
		start := min(ii*splitSize, len(records))
		end := min(start+splitSize, len(records))
		in.splits[ii] = records[start:end]
	}
	return in
}

// NewLinesInput creates an in-memory input of text lines, numbered from 1 and with the origin set to name.
func NewLinesInput(name string, lines []string, numSplits int) *SliceInput[Line] {
	records := make([]Line, len(lines))
	for ii, text := range lines {
		records[ii] = Line{Origin: name, Number: ii + 1, Text: text}
	}
	return NewSliceInput(name, records, numSplits)
}

// Name implements Input.
func (in *SliceInput[I]) Name() string { return in.name }

// NumSplits implements Input.
func (in *SliceInput[I]) NumSplits() int { return len(in.splits) }

// ReadSplit implements Input.
func (in *SliceInput[I]) ReadSplit(ctx context.Context, split int, fn func(record I) error) error {
	if split < 0 || split >= len(in.splits) {
		return errors.Errorf("input %q has %d splits, split %d requested", in.name, len(in.splits), split)
	}
	for _, record := range in.splits[split] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}
