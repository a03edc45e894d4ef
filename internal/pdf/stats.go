package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/instruction-pdf/internal/pdf/security"
)

// Inspector reports the content and metadata of PDF files
type Inspector struct {
	validator *Validator
	reader    *Reader
}

// NewInspector creates a new PDF inspector with the specified constraints
func NewInspector(validator *Validator, reader *Reader) *Inspector {
	return &Inspector{
		validator: validator,
		reader:    reader,
	}
}

// InspectFile returns page texts, page count and document info of a PDF
func (s *Inspector) InspectFile(req InspectFileRequest) (*InspectFileResult, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(req.Path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", req.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if err := s.validator.ValidateFileInfo(req.Path, fileInfo); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages := r.NumPage()
	if n, err := pageCount(req.Path); err == nil {
		pages = n
	}

	texts, truncated := s.reader.ReadPages(r)

	result := &InspectFileResult{
		Path:         req.Path,
		Size:         fileInfo.Size(),
		Pages:        pages,
		ModifiedDate: fileInfo.ModTime().Format("2006-01-02 15:04:05"),
		PageTexts:    texts,
		Truncated:    truncated,
	}

	s.extractMetadata(r, result)

	return result, nil
}

// extractMetadata safely extracts the trailer Info dictionary
func (s *Inspector) extractMetadata(r *pdf.Reader, result *InspectFileResult) {
	defer func() {
		// Metadata is optional; keep the basic result on parser panics.
		_ = recover()
	}()

	trailer := r.Trailer()
	if trailer.IsNull() {
		return
	}

	if encrypt := trailer.Key("Encrypt"); !encrypt.IsNull() {
		result.Encrypted = true
		perms := security.NewPermissions(int32(encrypt.Key("P").Int64()))
		result.Permissions = perms.GetAllowedOperations()
	}

	info := trailer.Key("Info")
	if info.IsNull() {
		return
	}

	fields := []struct {
		key string
		dst *string
	}{
		{"Title", &result.Title},
		{"Author", &result.Author},
		{"Creator", &result.Creator},
		{"Producer", &result.Producer},
		{"CreationDate", &result.CreatedDate},
	}
	for _, field := range fields {
		if v := info.Key(field.key); !v.IsNull() {
			if str := strings.TrimSpace(v.Text()); str != "" {
				*field.dst = str
			}
		}
	}
}
