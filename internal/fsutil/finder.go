// Package fsutil walks document trees. Hidden directories (".git",
// ".cache", ...) below the root are never entered.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension returns every file under root whose name ends with
// extension, sorted by path.
func FindFilesByExtension(root string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := walk(root, func(path string, d fs.DirEntry) error {
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Dirs returns root and every directory below it, in walk order.
func Dirs(root string) ([]string, error) {
	var dirs []string
	err := walk(root, func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

func walk(root string, visit func(path string, d fs.DirEntry) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root && IsHidden(d.Name()) {
			return filepath.SkipDir
		}
		return visit(path, d)
	})
}

// IsHidden reports whether a file or directory name is a dot name.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
