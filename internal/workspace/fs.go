// Package workspace provides the file-system collaborator the patch
// applier works through: path resolution against a project root, safe
// whole-file reads and atomic writes, and optional gitignore filtering.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// FileSystem is the contract consumed by the converter's apply path.
// Paths are relative to a project root; implementations resolve them.
type FileSystem interface {
	Exists(path string) bool
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
	Remove(path string) error
}

// Dir is a FileSystem rooted at a directory on the local disk.
type Dir struct {
	root string
	gi   *ignore.GitIgnore
}

// NewDir creates a Dir rooted at root, made absolute.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute project root.
func (d *Dir) Root() string {
	return d.root
}

// LoadGitignore compiles the root's .gitignore, if present, so Ignored
// can filter patched paths. A missing file is not an error.
func (d *Dir) LoadGitignore() error {
	path := filepath.Join(d.root, ".gitignore")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return fmt.Errorf("compile gitignore: %w", err)
	}
	d.gi = gi
	return nil
}

// Ignored reports whether the relative path is matched by the loaded
// gitignore. With no gitignore loaded nothing is ignored.
func (d *Dir) Ignored(path string) bool {
	if d.gi == nil {
		return false
	}
	return d.gi.MatchesPath(path)
}

// Resolve turns a patch-relative path into an absolute one, rejecting
// escapes from the root.
func (d *Dir) Resolve(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(d.root, abs)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(d.root, abs)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes project root: %s", path)
	}
	return abs, nil
}

// Exists reports whether the path resolves to an existing file.
func (d *Dir) Exists(path string) bool {
	abs, err := d.Resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// ReadFile reads the whole file as a string.
func (d *Dir) ReadFile(path string) (string, error) {
	abs, err := d.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

// WriteFile writes content atomically: temp file in the target
// directory, then rename. Parent directories are created as needed and
// an existing file keeps its permissions.
func (d *Dir) WriteFile(path, content string) error {
	abs, err := d.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".rejig-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if info, statErr := os.Stat(abs); statErr == nil {
		_ = os.Chmod(tmpPath, info.Mode())
	} else {
		_ = os.Chmod(tmpPath, 0644)
	}

	if err := os.Rename(tmpPath, abs); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// Remove deletes the file at path.
func (d *Dir) Remove(path string) error {
	abs, err := d.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
