package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/a3tai/instruction-pdf/internal/record"
)

// Search lists records and generated documents
type Search struct {
	validator *Validator
	store     *record.Store
}

// NewSearch creates a new search handler over the store's filesystem
func NewSearch(validator *Validator, store *record.Store) *Search {
	return &Search{
		validator: validator,
		store:     store,
	}
}

// fileKind classifies a file name; "" means the file is not listed.
func fileKind(name string) string {
	switch {
	case record.IsRecordFile(name):
		return KindRecord
	case isPDFFile(name):
		return KindPDF
	}
	return ""
}

func kindMatches(want, got string) bool {
	return got != "" && (want == "" || want == KindAll || want == got)
}

// ListFiles walks the directory and returns matching records and PDFs,
// sorted by path. Hidden directories are skipped.
func (s *Search) ListFiles(req ListFilesRequest) (*ListFilesResult, error) {
	if req.Directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	switch req.Kind {
	case "", KindAll, KindRecord, KindPDF:
	default:
		return nil, fmt.Errorf("invalid kind %q (expected %s, %s or %s)", req.Kind, KindRecord, KindPDF, KindAll)
	}

	absDirectory, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	files := []FileInfo{}

	if kindMatches(req.Kind, KindRecord) {
		entries, err := s.store.List(absDirectory, req.Query)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			files = append(files, FileInfo{
				Path:         e.Path,
				Name:         e.Name,
				Kind:         KindRecord,
				Size:         e.Size,
				ModifiedTime: e.ModTime.Format("2006-01-02 15:04:05"),
			})
		}
	}

	if kindMatches(req.Kind, KindPDF) {
		err := s.store.Walk(absDirectory, func(path string, info os.FileInfo) {
			if !isPDFFile(info.Name()) || !record.MatchesQuery(info.Name(), req.Query) {
				return
			}
			// Quick validation without opening the file
			if s.validator.ValidateFileInfo(path, info) != nil {
				return
			}
			files = append(files, newFileInfo(path, KindPDF, info))
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return &ListFilesResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   absDirectory,
		SearchQuery: req.Query,
	}, nil
}

func newFileInfo(path, kind string, info os.FileInfo) FileInfo {
	return FileInfo{
		Path:         path,
		Name:         info.Name(),
		Kind:         kind,
		Size:         info.Size(),
		ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
	}
}
