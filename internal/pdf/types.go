package pdf

import "github.com/a3tai/instruction-pdf/internal/record"

// FileInfo represents basic information about a file in the work directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Kind         string `json:"kind"` // "record" or "pdf"
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// File kinds reported by listings.
const (
	KindRecord = "record"
	KindPDF    = "pdf"
	KindAll    = "all"
)

// Request types

// GenerateRequest asks for one instruction document. Fields of Record that
// are set override the ones loaded from RecordPath.
type GenerateRequest struct {
	Record     *record.Record `json:"record,omitempty"`
	RecordPath string         `json:"record_path,omitempty"`
	OutputPath string         `json:"output_path,omitempty"`
	ImagePaths []string       `json:"image_paths,omitempty"`
}

// RecordLoadRequest represents a request to load a stored record
type RecordLoadRequest struct {
	Path string `json:"path"`
}

// RecordSaveRequest represents a request to store a record
type RecordSaveRequest struct {
	Path   string        `json:"path,omitempty"`
	Record record.Record `json:"record"`
}

// ListFilesRequest represents a request to list records and documents
type ListFilesRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
	Kind      string `json:"kind"`
}

// ValidateFileRequest represents a request to validate a PDF file
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// InspectFileRequest represents a request to inspect a generated PDF
type InspectFileRequest struct {
	Path string `json:"path"`
}

// ServerInfoRequest represents a request for server information
type ServerInfoRequest struct{}

// Response types

// GenerateResult reports the outcome of a generation. A failed render is
// reported through Success, not as an error.
type GenerateResult struct {
	Path     string `json:"path"`
	Success  bool   `json:"success"`
	Pages    int    `json:"pages,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Images   int    `json:"images"`
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
}

// RecordLoadResult represents the result of loading a record
type RecordLoadResult struct {
	Path   string        `json:"path"`
	Format string        `json:"format"`
	Record record.Record `json:"record"`
}

// RecordSaveResult represents the result of storing a record
type RecordSaveResult struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// ListFilesResult represents the result of listing the work directory
type ListFilesResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// ValidateFileResult represents the result of PDF validation
type ValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// PageText is the plain text of one page.
type PageText struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// InspectFileResult represents the content and metadata of a PDF
type InspectFileResult struct {
	Path         string     `json:"path"`
	Size         int64      `json:"size"`
	Pages        int        `json:"pages"`
	ModifiedDate string     `json:"modified_date"`
	CreatedDate  string     `json:"created_date,omitempty"`
	Title        string     `json:"title,omitempty"`
	Author       string     `json:"author,omitempty"`
	Creator      string     `json:"creator,omitempty"`
	Producer     string     `json:"producer,omitempty"`
	PageTexts    []PageText `json:"page_texts"`
	Truncated    bool       `json:"truncated,omitempty"`
	Encrypted    bool       `json:"encrypted"`
	Permissions  []string   `json:"permissions,omitempty"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	Language          string     `json:"language"`
	Languages         []string   `json:"languages"`
	PageTotal         string     `json:"page_total"`
	EmbeddedFonts     bool       `json:"embedded_fonts"`
	Protected         bool       `json:"protected"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
	SupportedFormats  []string   `json:"supported_formats"`
}

// ToolInfo describes an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
