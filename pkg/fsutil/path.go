// Package fsutil provides small filesystem helpers shared across the CLI.
package fsutil

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ExpandHomePath expands a path beginning with ~/ to the user's home directory
// and converts relative paths to absolute paths.
func ExpandHomePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		usr, err := user.Current()
		if err != nil {
			return "", fmt.Errorf("failed to get current user: %w", err)
		}

		path = filepath.Join(usr.HomeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to convert to absolute path: %w", err)
		}

		return absPath, nil
	}

	return path, nil
}

// EnsureDir creates the directory (and parents) with the given permissions if
// it does not already exist.
func EnsureDir(path string, perm os.FileMode) error {
	err := os.MkdirAll(path, perm)
	if err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}

	return nil
}

// IsDirWritable reports whether the directory containing path can be written
// to by the current user. The path itself does not need to exist.
func IsDirWritable(path string) bool {
	dir := filepath.Dir(path)

	probe, err := os.CreateTemp(dir, ".writecheck-*")
	if err != nil {
		return false
	}

	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return true
}
