// Package matrixio reads and writes matrices stored as text, one entry per line:
//
//	<row> <column>\t<value>
//
// Row and column indices start from 1. Input files can be given individually or as
// directories holding the parts of a matrix.
package matrixio

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/gomlx/blockmatmul/pkg/blockmatmul"
	"github.com/gomlx/blockmatmul/pkg/mapreduce"
	"github.com/gomlx/blockmatmul/pkg/support/fsutil"
	"github.com/pkg/errors"
)

// maxLineSize is the longest line accepted by the readers.
const maxLineSize = 1 << 20

// FileInput is a mapreduce.Input reading text lines from files, with one split per file.
type FileInput struct {
	name  string
	files []string
}

var _ mapreduce.Input[mapreduce.Line] = (*FileInput)(nil)

// OpenInput lists the files of the given paths: directories are expanded to the regular files
// inside them, sorted by name. The files are only opened when their split is read.
//
// It returns an error if a path doesn't exist or if there are no files at all.
func OpenInput(paths ...string) (*FileInput, error) {
	files, err := fsutil.ListFiles(paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no input files found in %q", paths)
	}
	return &FileInput{name: strings.Join(paths, ","), files: files}, nil
}

// Name implements mapreduce.Input.
func (in *FileInput) Name() string { return in.name }

// NumSplits implements mapreduce.Input.
func (in *FileInput) NumSplits() int { return len(in.files) }

// Files returns the files read by each split.
func (in *FileInput) Files() []string { return in.files }

// ReadSplit implements mapreduce.Input: it calls fn for every line of the split's file,
// numbered from 1, with the file path as origin.
func (in *FileInput) ReadSplit(ctx context.Context, split int, fn func(record mapreduce.Line) error) error {
	if split < 0 || split >= len(in.files) {
		return errors.Errorf("input %q has %d files, split %d requested", in.name, len(in.files), split)
	}
	path := in.files[split]
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %q", path)
	}
	defer func() { _ = f.Close() }()
	return scanLines(ctx, f, path, fn)
}

// Entries reads and parses all entries of the input, in file order.
// Blank lines are skipped.
func (in *FileInput) Entries(ctx context.Context) ([]blockmatmul.Entry, error) {
	var entries []blockmatmul.Entry
	for split := range in.files {
		err := in.ReadSplit(ctx, split, func(line mapreduce.Line) error {
			return appendEntry(&entries, line)
		})
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func scanLines(ctx context.Context, r io.Reader, origin string, fn func(record mapreduce.Line) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var number int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		number++
		if err := fn(mapreduce.Line{Origin: origin, Number: number, Text: scanner.Text()}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "failed reading %s after line %d", origin, number)
	}
	return nil
}

func appendEntry(entries *[]blockmatmul.Entry, line mapreduce.Line) error {
	if strings.TrimSpace(line.Text) == "" {
		return nil
	}
	entry, err := blockmatmul.ParseEntry(line.Text)
	if err != nil {
		return errors.WithMessagef(err, "line %s", line)
	}
	*entries = append(*entries, entry)
	return nil
}

// ReadEntries parses all entries read from r. Blank lines are skipped, and origin is used
// to identify the lines in error messages.
func ReadEntries(r io.Reader, origin string) ([]blockmatmul.Entry, error) {
	var entries []blockmatmul.Entry
	err := scanLines(context.Background(), r, origin, func(line mapreduce.Line) error {
		return appendEntry(&entries, line)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteEntries writes the entries to w, one per line, formatted with blockmatmul.FormatEntry.
func WriteEntries(w io.Writer, entries []blockmatmul.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := bw.WriteString(blockmatmul.FormatEntry(e)); err != nil {
			return errors.Wrap(err, "failed to write entry")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "failed to write entry")
		}
	}
	return errors.Wrap(bw.Flush(), "failed to flush entries")
}

// WriteFile creates (or truncates) the file at path and writes the entries to it.
func WriteFile(path string, entries []blockmatmul.Entry) error {
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", path)
	}
	if err = WriteEntries(f, entries); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "writing %q", path)
	}
	return errors.Wrapf(f.Close(), "failed to close %q", path)
}
