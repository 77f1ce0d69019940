// Package artifact collects output files in memory and writes them to the
// output directory only once everything has been rendered.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrDuplicate = errors.New("artifact: duplicate file name")
	ErrBadName   = errors.New("artifact: file name must be a plain base name")
)

// File is one rendered output.
type File struct {
	Name string
	Data []byte
}

// Bundle is an ordered set of files with unique names.
type Bundle struct {
	files []File
	seen  map[string]bool
}

// Add appends a file. Names are relative to the output directory and may not
// contain a path separator.
func (b *Bundle) Add(name string, data []byte) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	if b.seen == nil {
		b.seen = make(map[string]bool)
	}
	if b.seen[name] {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	b.seen[name] = true
	b.files = append(b.files, File{Name: name, Data: data})
	return nil
}

func (b *Bundle) Len() int { return len(b.files) }

// Files returns the files in insertion order.
func (b *Bundle) Files() []File { return append([]File(nil), b.files...) }

// Commit writes every file into dir, creating it if needed. Each file goes to
// a temporary name first and is renamed into place, so a reader never sees
// a half-written file. It returns the written paths.
func (b *Bundle) Commit(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(b.files))
	for _, f := range b.files {
		path := filepath.Join(dir, f.Name)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, f.Data, 0o644); err != nil {
			return paths, err
		}
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
