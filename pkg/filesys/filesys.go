// Package filesys provides the small set of filesystem helpers barreldb's
// directory lifecycle and backup path need: creating the data directory
// on Open and copying individual files during Backup.
package filesys

import (
	"errors"
	"os"
)

var (
	// ErrIsNotDir is returned by CreateDir when the target path exists
	// and is a regular file rather than a directory.
	ErrIsNotDir = errors.New("path isn't a directory")
)

// CreateDir creates a directory at dirPath with the given permissions.
//
// If 'force' is false and the path is anything but missing, it returns
// the stat result unchanged: nil when the path exists (nothing is created
// or checked), or the stat error otherwise.
//
// If 'force' is true and the path exists, it returns ErrIsNotDir when
// the existing path is a file, and otherwise proceeds without error.
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		return err
	}
	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}
	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}
	return os.Chmod(dirPath, permission)
}

// CopyFile copies a single file from sourcePath to destPath, preserving
// the source file's permission bits rather than hardcoding them, since
// Backup is expected to reproduce segment and marker files faithfully.
func CopyFile(sourcePath, destPath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}

	input, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, input, info.Mode())
}

// Exists reports whether a file or directory at path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
