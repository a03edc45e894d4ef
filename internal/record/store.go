package record

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Supported record formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const (
	recordIndent = 4
	dirPerm      = 0o750
	filePerm     = 0o640
)

// Store loads and saves records on a filesystem.
type Store struct {
	fs afero.Fs
}

// NewStore creates a store backed by fs. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// FormatFor picks the record format from the file extension.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// IsRecordFile reports whether name has a record file extension.
func IsRecordFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads a record. Any subset of keys may be absent.
func (s *Store) Load(path string) (Record, error) {
	if path == "" {
		return Record{}, fmt.Errorf("record path cannot be empty")
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open record: %w", err)
	}
	defer f.Close()

	rec, err := decode(f, FormatFor(path))
	if err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", path, err)
	}
	return rec, nil
}

// Save writes rec to path, creating parent directories as needed.
func (s *Store) Save(path string, rec Record) error {
	if path == "" {
		return fmt.Errorf("record path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create record directory: %w", err)
		}
	}

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}

	if rec.ImagePaths == nil {
		rec.ImagePaths = []string{}
	}

	encErr := encode(f, FormatFor(path), rec)
	closeErr := f.Close()
	if encErr != nil {
		return fmt.Errorf("encode record %s: %w", path, encErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close record %s: %w", path, closeErr)
	}
	return nil
}

func decode(r io.Reader, format string) (Record, error) {
	var rec Record
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&rec); err != nil && err != io.EOF {
			return Record{}, err
		}
	default:
		if err := json.NewDecoder(r).Decode(&rec); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

func encode(w io.Writer, format string, rec Record) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(recordIndent)
		if err := enc.Encode(rec); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", strings.Repeat(" ", recordIndent))
		return enc.Encode(rec)
	}
}
