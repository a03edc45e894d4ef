package record

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Entry is a record file found by List.
type Entry struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// List returns the record files below dir whose names match query,
// sorted by path. Hidden directories are skipped and unreadable entries
// are ignored.
func (s *Store) List(dir, query string) ([]Entry, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	entries := []Entry{}
	err := s.Walk(dir, func(path string, info os.FileInfo) {
		if IsRecordFile(info.Name()) && MatchesQuery(info.Name(), query) {
			entries = append(entries, Entry{
				Path:    path,
				Name:    info.Name(),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Walk calls fn for every regular file below dir, skipping hidden
// directories.
func (s *Store) Walk(dir string, fn func(path string, info os.FileInfo)) error {
	exists, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return fmt.Errorf("stat directory: %w", err)
	}
	if !exists {
		return fmt.Errorf("directory does not exist: %s", dir)
	}

	root := filepath.Clean(dir)
	err = afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // Intentionally continue on file errors
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		fn(path, info)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error walking directory: %w", err)
	}
	return nil
}

// Fs returns the filesystem the store works on.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// MatchesQuery performs fuzzy matching on a file name: a case-insensitive
// substring match, or every query word appearing in some name word.
func MatchesQuery(filename, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	fileName := strings.ToLower(filename)
	if strings.Contains(fileName, query) {
		return true
	}

	words := splitIntoWords(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	queryWords := splitIntoWords(query)
	if len(queryWords) == 0 {
		return false
	}

	for _, queryWord := range queryWords {
		found := false
		for _, word := range words {
			if strings.Contains(word, queryWord) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// splitIntoWords splits a string into words using common separators
func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
