package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/a3tai/instruction-pdf/internal/document"
	"github.com/a3tai/instruction-pdf/internal/pdf/security"
	"github.com/a3tai/instruction-pdf/internal/record"
)

// maxTextSize bounds the text returned by InspectFile.
const maxTextSize = 10 * 1024 * 1024

// ServiceConfig holds the collaborators and settings of a Service.
type ServiceConfig struct {
	MaxFileSize int64
	Directory   string
	Identity    string
	Verify      bool

	Assembler *document.Assembler
	Store     *record.Store
	Logger    *slog.Logger
	Details   ServerDetails

	// Now returns the generation time; defaults to time.Now.
	Now func() time.Time
}

// Service orchestrates record storage, document generation and checks
// of generated files
type Service struct {
	maxFileSize   int64
	identity      string
	verify        bool
	assembler     *document.Assembler
	store         *record.Store
	validator     *Validator
	inspector     *Inspector
	search        *Search
	info          *ServerInfo
	pathValidator *security.PathValidator
	logger        *slog.Logger
	now           func() time.Time
}

// NewService creates a new service with all components
func NewService(cfg ServiceConfig) (*Service, error) {
	pathValidator, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	assembler := cfg.Assembler
	if assembler == nil {
		assembler = document.NewAssembler(
			document.WithLogger(logger),
			document.WithImageSource(document.NewImageLoader(cfg.MaxFileSize)),
		)
	}
	assembler = assembler.With(document.WithImageSource(confinedImages{
		next:  assembler.ImageSource(),
		paths: pathValidator,
	}))
	store := cfg.Store
	if store == nil {
		store = record.NewStore(nil)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	validator := NewValidator(cfg.MaxFileSize)
	s := &Service{
		maxFileSize:   cfg.MaxFileSize,
		identity:      cfg.Identity,
		verify:        cfg.Verify,
		assembler:     assembler,
		store:         store,
		validator:     validator,
		inspector:     NewInspector(validator, NewReader(maxTextSize)),
		search:        NewSearch(validator, store),
		pathValidator: pathValidator,
		logger:        logger,
		now:           now,
	}
	s.info = NewServerInfo(s, cfg.Details)
	return s, nil
}

// Directory returns the work directory.
func (s *Service) Directory() string {
	return s.pathValidator.Directory()
}

// resolve confines a tool-supplied path to the work directory.
func (s *Service) resolve(path string) (string, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return resolved, nil
}

// Generate renders one instruction document. Validation and path errors
// are returned as errors; a failed render is a result with Success=false.
func (s *Service) Generate(req GenerateRequest) (*GenerateResult, error) {
	var rec record.Record
	if req.RecordPath != "" {
		path, err := s.resolve(req.RecordPath)
		if err != nil {
			return nil, err
		}
		if rec, err = s.store.Load(path); err != nil {
			return nil, err
		}
	}
	if req.Record != nil {
		rec = rec.Merge(*req.Record)
	}
	if len(req.ImagePaths) > 0 {
		rec.ImagePaths = append([]string(nil), req.ImagePaths...)
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	// Images outside the work directory become placeholder cells.
	images := make([]string, 0, len(rec.ImagePaths))
	for _, p := range rec.ImagePaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.Directory(), p)
		}
		images = append(images, filepath.Clean(p))
	}
	rec.ImagePaths = images

	output := req.OutputPath
	if output == "" {
		output = rec.SuggestedBaseName() + "_instruction.pdf"
	}
	output, err := s.resolve(output)
	if err != nil {
		return nil, err
	}
	if !isPDFFile(output) {
		return nil, fmt.Errorf("output file must have a .pdf extension: %s", output)
	}

	rec = rec.Stamp(s.now(), s.identity)

	result := &GenerateResult{Path: output, Images: len(images)}
	if !s.assembler.Assemble(output, rec, images) {
		result.Message = "document generation failed, see server log for details"
		return result, nil
	}
	s.info.Invalidate()

	result.Success = true
	if info, err := os.Stat(output); err == nil {
		result.Size = info.Size()
	}

	if s.verify {
		check, _ := s.validator.ValidateFile(ValidateFileRequest{Path: output})
		if !check.Valid {
			result.Success = false
			result.Message = "generated file failed validation: " + check.Message
			return result, nil
		}
		result.Verified = true
		result.Pages = check.Pages
	}

	return result, nil
}

// LoadRecord reads a stored record
func (s *Service) LoadRecord(req RecordLoadRequest) (*RecordLoadResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Load(path)
	if err != nil {
		return nil, err
	}
	return &RecordLoadResult{Path: path, Format: record.FormatFor(path), Record: rec}, nil
}

// SaveRecord stores a record. The file name defaults to
// {car_make}-{module_no}.json in the work directory.
func (s *Service) SaveRecord(req RecordSaveRequest) (*RecordSaveResult, error) {
	if err := record.ValidateProgramDate(req.Record.ProgramDate); err != nil {
		return nil, err
	}

	name := req.Path
	if name == "" {
		name = req.Record.SuggestedBaseName() + ".json"
	}
	if !record.IsRecordFile(name) {
		return nil, fmt.Errorf("record file must end in .json, .yaml or .yml: %s", name)
	}
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(path, req.Record); err != nil {
		return nil, err
	}
	s.info.Invalidate()
	s.logger.Info("record saved", "path", path)

	result := &RecordSaveResult{Path: path, Format: record.FormatFor(path)}
	if info, err := os.Stat(path); err == nil {
		result.Size = info.Size()
	}
	return result, nil
}

// ListFiles lists records and PDFs below a directory of the work tree
func (s *Service) ListFiles(req ListFilesRequest) (*ListFilesResult, error) {
	dir := s.Directory()
	if req.Directory != "" {
		var err error
		if dir, err = s.resolve(req.Directory); err != nil {
			return nil, err
		}
	}
	if err := s.pathValidator.ValidateDirectory(dir); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	if exists, _ := afero.DirExists(s.store.Fs(), dir); !exists {
		return &ListFilesResult{Files: []FileInfo{}, Directory: dir, SearchQuery: req.Query}, nil
	}

	req.Directory = dir
	return s.search.ListFiles(req)
}

// ValidateFile performs validation on a PDF file
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// InspectFile returns per-page text and document info of a PDF file
func (s *Service) InspectFile(req InspectFileRequest) (*InspectFileResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	req.Path = path
	return s.inspector.InspectFile(req)
}

// ServerInfo returns server information and usage guidance
func (s *Service) ServerInfo(ctx context.Context, _ ServerInfoRequest) (*ServerInfoResult, error) {
	return s.info.GetServerInfo(ctx)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// confinedImages refuses grid images outside the work directory. The
// refusal is reported per image, so the grid draws a placeholder cell.
type confinedImages struct {
	next  document.ImageSource
	paths *security.PathValidator
}

func (c confinedImages) Load(path string) (document.LoadedImage, error) {
	if err := c.paths.ValidatePath(path); err != nil {
		return document.LoadedImage{}, err
	}
	return c.next.Load(path)
}
