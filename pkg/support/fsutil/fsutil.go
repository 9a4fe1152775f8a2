// Package fsutil contains utilities for locating files given on the command line.
package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ExpandHome replaces a leading "~" or "~user" in path by the corresponding home directory.
// Paths not starting with "~" are returned unchanged.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	userName, rest, _ := strings.Cut(path[1:], string(filepath.Separator))
	var usr *user.User
	var err error
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to lookup home directory for path %q", path)
	}
	return filepath.Join(usr.HomeDir, rest), nil
}

// ListFiles expands the given paths into a list of regular files.
//
// A directory is replaced by the regular files directly inside it, sorted by name; hidden files
// (starting with "." or "_") and subdirectories are skipped. Files are kept in the order given.
// It returns an error if any path does not exist.
func ListFiles(paths ...string) ([]string, error) {
	var files []string
	for _, path := range paths {
		path, err := ExpandHome(path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to stat %q", path)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		dirEntries, err := os.ReadDir(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list directory %q", path)
		}
		var dirFiles []string
		for _, entry := range dirEntries {
			name := entry.Name()
			if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				continue
			}
			dirFiles = append(dirFiles, filepath.Join(path, name))
		}
		slices.Sort(dirFiles)
		files = append(files, dirFiles...)
	}
	return files, nil
}
