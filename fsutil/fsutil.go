// Package fsutil decides and prepares on-disk paths for artists and albums.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir and any missing parents. Each directory it creates
// takes its parent's permission bits. An existing directory is left alone.
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("no directory given")
	}
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("'%s' exists and is not a directory", dir)
		}
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error checking directory '%s': %w", dir, err)
	}

	if err := EnsureDir(filepath.Dir(dir)); err != nil {
		return err
	}
	if err := os.Mkdir(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("error creating directory '%s': %w", dir, err)
	}
	return ChmodAsParent(dir)
}

// ChmodAsParent gives path its parent directory's permission bits. Files
// lose the execute bits.
func ChmodAsParent(path string) error {
	parent, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("error reading parent of '%s': %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error reading '%s': %w", path, err)
	}

	mode := parent.Mode().Perm()
	if !info.IsDir() {
		mode &^= 0o111
	}
	if info.Mode().Perm() == mode {
		return nil
	}
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("error setting permissions on '%s': %w", path, err)
	}
	return nil
}

// WriteFile writes bs to path, creating the parent directory as needed.
func WriteFile(path string, bs []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, bs, 0o644); err != nil {
		return fmt.Errorf("error writing '%s': %w", path, err)
	}
	return ChmodAsParent(path)
}

// Exists reports whether anything is at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var unsafe = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "",
	"?", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
	"\x00", "",
)

// SafeName turns an artist or album name into a single path element.
func SafeName(name string) string {
	name = strings.TrimSpace(unsafe.Replace(name))
	name = strings.Trim(name, ". ")
	if name == "" {
		return "_"
	}
	return name
}

// Join places name under dir as a safe path element.
func Join(dir, name string) string {
	return filepath.Join(dir, SafeName(name))
}

// Within reports whether path is root or somewhere inside it. Both must be
// absolute.
func Within(path, root string) bool {
	if !filepath.IsAbs(path) || !filepath.IsAbs(root) {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Rebase moves path from under oldRoot to under newRoot. It reports false
// when path is not inside oldRoot.
func Rebase(path, oldRoot, newRoot string) (string, bool) {
	if path == "" || oldRoot == "" {
		return "", false
	}
	rel, err := filepath.Rel(filepath.Clean(oldRoot), filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(newRoot, rel), true
}
