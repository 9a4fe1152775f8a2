// Package xslices provide generic helpers for slices missing in the standard slices package.
package xslices

import (
	"flag"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Map executes the given function sequentially for every element on in, and returns a mapped slice.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// Flag creates a flag for a comma-separated list of T with the given name, description and default value.
// It takes as input a parser for an individual T value. Empty elements (e.g. "a,,b") are skipped.
func Flag[T any](name string, defaultValue []T, usage string,
	parserFn func(valueStr string) (T, error)) *[]T {
	f := &sliceFlag[T]{
		parsed:   defaultValue,
		parserFn: parserFn,
	}
	flag.Var(f, name, usage)
	return &f.parsed
}

// sliceFlag implements flag.Value for a list of T.
type sliceFlag[T any] struct {
	parsed   []T
	parserFn func(valueStr string) (T, error)
}

func (f *sliceFlag[T]) String() string {
	if f == nil {
		return ""
	}
	return strings.Join(Map(f.parsed, func(e T) string { return fmt.Sprint(e) }), ",")
}

func (f *sliceFlag[T]) Set(listStr string) error {
	f.parsed = make([]T, 0)
	for _, part := range strings.Split(listStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := f.parserFn(part)
		if err != nil {
			return errors.WithMessagef(err, "invalid element %q", part)
		}
		f.parsed = append(f.parsed, value)
	}
	return nil
}
