// Package security confines tool-supplied paths to the work directory.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideDirectory is returned for paths that escape the work directory.
	ErrOutsideDirectory = errors.New("path is outside configured directory")
	// ErrEmptyPath is returned when no path was supplied.
	ErrEmptyPath = errors.New("path cannot be empty")
)

// PathValidator provides security validation for file paths
type PathValidator struct {
	configuredDirectory string
}

// NewPathValidator creates a new path validator for the given directory
func NewPathValidator(configuredDirectory string) (*PathValidator, error) {
	if configuredDirectory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	// The directory may not exist yet; it is created on first write.
	return &PathValidator{
		configuredDirectory: filepath.Clean(abs),
	}, nil
}

// Directory returns the configured directory as an absolute path.
func (v *PathValidator) Directory() string {
	return v.configuredDirectory
}

// Resolve turns path into a cleaned absolute path, joining relative paths
// onto the configured directory, and checks that it stays inside it.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.configuredDirectory, path)
	}
	abs := filepath.Clean(path)

	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// ValidatePath checks if a path is within the configured directory
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	isWithin, err := v.IsPathWithinDirectory(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !isWithin {
		return fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}
	return nil
}

// IsPathWithinDirectory checks if a path is within the configured
// directory. Symlinks are resolved on both sides when they exist.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)
	cleanDir := v.configuredDirectory

	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	realPath := resolveExisting(cleanPath)

	within := func(p string) bool {
		return isUnder(p, cleanDir) || isUnder(p, realDir)
	}
	return within(cleanPath) && within(realPath), nil
}

// ValidateDirectory checks that dirPath is inside the configured
// directory and, when it exists, is a directory.
func (v *PathValidator) ValidateDirectory(dirPath string) error {
	if err := v.ValidatePath(dirPath); err != nil {
		return err
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of
// path so that files which do not exist yet are still checked against
// their real parent directory.
func resolveExisting(path string) string {
	rest := ""
	cur := path
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			if rest == "" {
				return resolved
			}
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

func isUnder(path, dir string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
