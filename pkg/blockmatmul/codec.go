// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package blockmatmul

import (
	"math"
	"strconv"
	"strings"

	"github.com/gomlx/blockmatmul/pkg/mapreduce"
	"github.com/pkg/errors"
)

// ParseEntry parses a matrix record "<row> <column>\t<value>".
//
// Fields may be separated by any run of spaces or tabs. Row and column must be positive integers
// and the value a finite number, otherwise it returns ErrParse.
func ParseEntry(text string) (Entry, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return Entry{}, errors.Wrapf(ErrParse, "expected \"<row> <column>\\t<value>\", got %q", text)
	}
	row, err := parseIndex(fields[0])
	if err != nil {
		return Entry{}, errors.WithMessagef(err, "row of %q", text)
	}
	col, err := parseIndex(fields[1])
	if err != nil {
		return Entry{}, errors.WithMessagef(err, "column of %q", text)
	}
	value, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return Entry{}, errors.Wrapf(ErrParse, "value of %q is not a finite number", text)
	}
	return Entry{Row: row, Col: col, Value: value}, nil
}

func parseIndex(field string) (int, error) {
	idx, err := strconv.Atoi(field)
	if err != nil || idx < 1 {
		return 0, errors.Wrapf(ErrParse, "%q is not a positive integer", field)
	}
	return idx, nil
}

// FormatEntry formats an output cell as "<row> <column>\t<value>", with the value rounded
// half-up to exactly OutputDecimals decimal places.
func FormatEntry(e Entry) string {
	return strconv.Itoa(e.Row) + " " + strconv.Itoa(e.Col) + "\t" + FormatValue(e.Value)
}

// EncodeEntry formats an input entry as "<row> <column>\t<value>", with the shortest
// representation of the value that parses back to the same float64.
func EncodeEntry(e Entry) string {
	return strconv.Itoa(e.Row) + " " + strconv.Itoa(e.Col) + "\t" + strconv.FormatFloat(e.Value, 'g', -1, 64)
}

// TaggedCodec serializes TaggedEntry values as "<tag>,<row>,<column>,<value>", where tag
// is 0 for A and 1 for B. The value is encoded without loss of precision.
type TaggedCodec struct{}

var _ mapreduce.Codec[TaggedEntry] = TaggedCodec{}

// Encode implements mapreduce.Codec.
func (TaggedCodec) Encode(t TaggedEntry) ([]byte, error) {
	if t.Source != SourceA && t.Source != SourceB {
		return nil, errors.Errorf("cannot encode %s: unknown source", t)
	}
	buf := make([]byte, 0, 32)
	buf = strconv.AppendUint(buf, uint64(t.Source), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(t.Row), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(t.Col), 10)
	buf = append(buf, ',')
	buf = strconv.AppendFloat(buf, t.Value, 'g', -1, 64)
	return buf, nil
}

// Decode implements mapreduce.Codec.
func (TaggedCodec) Decode(data []byte) (TaggedEntry, error) {
	fields := strings.Split(string(data), ",")
	if len(fields) != 4 {
		return TaggedEntry{}, errors.Wrapf(ErrParse, "tagged entry %q must have 4 comma-separated fields", data)
	}
	var t TaggedEntry
	switch fields[0] {
	case "0":
		t.Source = SourceA
	case "1":
		t.Source = SourceB
	default:
		return TaggedEntry{}, errors.Wrapf(ErrParse, "tagged entry %q has unknown tag %q", data, fields[0])
	}
	var err error
	if t.Row, err = parseIndex(fields[1]); err != nil {
		return TaggedEntry{}, errors.WithMessagef(err, "tagged entry %q", data)
	}
	if t.Col, err = parseIndex(fields[2]); err != nil {
		return TaggedEntry{}, errors.WithMessagef(err, "tagged entry %q", data)
	}
	if t.Value, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return TaggedEntry{}, errors.Wrapf(ErrParse, "tagged entry %q has an invalid value", data)
	}
	return t, nil
}
