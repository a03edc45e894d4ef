package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/instruction-pdf/internal/descriptions"
	"github.com/a3tai/instruction-pdf/internal/document"
)

// DirectoryCache provides TTL-based caching for directory contents
type DirectoryCache struct {
	entries map[string]*CacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// CacheEntry represents a cached directory scan result
type CacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
	scanning   bool
}

// LazyDirectoryScanner performs bounded directory scanning
type LazyDirectoryScanner struct {
	maxDepth    int
	fileLimit   int
	timeLimit   time.Duration
	skipHidden  bool
	skipSymlink bool
}

// ScanResult represents the result of a directory scan
type ScanResult struct {
	Files        []FileInfo
	FromCache    bool
	ScanTime     time.Duration
	FilesScanned int
	Truncated    bool
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves cached directory contents if valid
func (c *DirectoryCache) Get(path string) *CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	if !exists || entry.lastUpdate.IsZero() {
		return nil
	}

	if time.Since(entry.lastUpdate) > c.ttl {
		return nil
	}

	return entry
}

// Set stores directory contents in cache
func (c *DirectoryCache) Set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &CacheEntry{
		files:      files,
		lastUpdate: time.Now(),
	}
}

// Invalidate drops the entry for path so the next read rescans.
func (c *DirectoryCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

// TryStartScan marks path as being scanned. It returns false when a scan
// is already running.
func (c *DirectoryCache) TryStartScan(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[path]
	if !exists {
		c.entries[path] = &CacheEntry{scanning: true}
		return true
	}
	if entry.scanning {
		return false
	}
	entry.scanning = true
	return true
}

// FinishScan clears the scanning mark of path.
func (c *DirectoryCache) FinishScan(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[path]; exists {
		entry.scanning = false
	}
}

// Clear removes expired entries from cache
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for path, entry := range c.entries {
		if !entry.scanning && now.Sub(entry.lastUpdate) > c.ttl {
			delete(c.entries, path)
		}
	}
}

// NewLazyDirectoryScanner creates a new lazy directory scanner
func NewLazyDirectoryScanner(maxDepth, fileLimit int, timeLimit time.Duration) *LazyDirectoryScanner {
	return &LazyDirectoryScanner{
		maxDepth:    maxDepth,
		fileLimit:   fileLimit,
		timeLimit:   timeLimit,
		skipHidden:  true,
		skipSymlink: true,
	}
}

// ScanDirectory collects records and PDFs below root, honouring the
// depth, file and time limits and ctx cancellation.
func (s *LazyDirectoryScanner) ScanDirectory(ctx context.Context, root string) (*ScanResult, error) {
	startTime := time.Now()
	st := &scanState{visited: make(map[string]bool), start: startTime}

	err := s.scanRecursive(ctx, root, 0, st)

	sort.Slice(st.files, func(i, j int) bool { return st.files[i].Path < st.files[j].Path })
	return &ScanResult{
		Files:        st.files,
		ScanTime:     time.Since(startTime),
		FilesScanned: st.scanned,
		Truncated:    st.truncated,
	}, err
}

type scanState struct {
	visited   map[string]bool
	files     []FileInfo
	scanned   int
	truncated bool
	start     time.Time
}

func (s *LazyDirectoryScanner) limitReached(st *scanState) bool {
	if s.fileLimit > 0 && len(st.files) >= s.fileLimit {
		st.truncated = true
		return true
	}
	if s.timeLimit > 0 && time.Since(st.start) > s.timeLimit {
		st.truncated = true
		return true
	}
	return false
}

func (s *LazyDirectoryScanner) scanRecursive(ctx context.Context, path string, depth int, st *scanState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxDepth > 0 && depth >= s.maxDepth {
		return nil
	}
	if s.limitReached(st) {
		return nil
	}

	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil //nolint:nilerr // Skip paths we cannot resolve
	}
	if st.visited[realPath] {
		return nil
	}
	st.visited[realPath] = true

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil //nolint:nilerr // Skip directories we can't read
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := filepath.Join(path, entry.Name())
		st.scanned++

		if s.skipHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if s.skipSymlink && entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			if err := s.scanRecursive(ctx, entryPath, depth+1, st); err != nil {
				return err
			}
			continue
		}

		kind := fileKind(entry.Name())
		if kind == "" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		st.files = append(st.files, newFileInfo(entryPath, kind, info))

		if s.limitReached(st) {
			return nil
		}
	}

	return nil
}

// ServerDetails is the static part of the server info.
type ServerDetails struct {
	ServerName    string
	Version       string
	Language      string
	PageTotal     string
	EmbeddedFonts bool
	Protected     bool
}

// ServerInfo builds server info with cached directory contents
type ServerInfo struct {
	cache   *DirectoryCache
	scanner *LazyDirectoryScanner
	details ServerDetails
	service *Service
}

// NewServerInfo creates a new server info handler
func NewServerInfo(service *Service, details ServerDetails) *ServerInfo {
	return &ServerInfo{
		cache:   NewDirectoryCache(5 * time.Minute),             // 5-minute cache TTL
		scanner: NewLazyDirectoryScanner(5, 100, 3*time.Second), // max 5 levels, 100 files, 3 second limit
		details: details,
		service: service,
	}
}

// GetServerInfo returns server information and the work directory contents
func (p *ServerInfo) GetServerInfo(ctx context.Context) (*ServerInfoResult, error) {
	dir := p.service.pathValidator.Directory()

	files := []FileInfo{}
	if cached := p.cache.Get(dir); cached != nil {
		files = cached.files
	} else if p.cache.TryStartScan(dir) {
		scanCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		scanResult, err := p.scanner.ScanDirectory(scanCtx, dir)
		cancel()
		p.cache.FinishScan(dir)

		if err == nil {
			files = scanResult.Files
			p.cache.Set(dir, files)
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return &ServerInfoResult{
		ServerName:        p.details.ServerName,
		Version:           p.details.Version,
		DefaultDirectory:  dir,
		MaxFileSize:       p.service.maxFileSize,
		Language:          p.details.Language,
		Languages:         document.Languages(),
		PageTotal:         p.details.PageTotal,
		EmbeddedFonts:     p.details.EmbeddedFonts,
		Protected:         p.details.Protected,
		AvailableTools:    p.getAvailableTools(),
		DirectoryContents: files,
		UsageGuidance:     p.getUsageGuidance(),
		SupportedFormats:  document.SupportedImageFormats(),
	}, nil
}

// Invalidate forgets the cached directory contents.
func (p *ServerInfo) Invalidate() {
	p.cache.Invalidate(p.service.pathValidator.Directory())
}

// getAvailableTools returns the list of available tools
func (p *ServerInfo) getAvailableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        descriptions.ToolGenerate,
			Description: descriptions.GetToolDescription(descriptions.ToolGenerate),
			Usage:       "Use this tool to render a record and its photos into the two-page instruction PDF.",
			Parameters: "record_path (optional): stored record to render, " +
				"car_make, module_no, year, revision, program_no, program_date, connection_description, " +
				"full_description (optional): inline fields overriding the stored record, " +
				"image_paths (optional): photos for the grid, output_path (optional): PDF to write",
		},
		{
			Name:        descriptions.ToolRecordLoad,
			Description: descriptions.GetToolDescription(descriptions.ToolRecordLoad),
			Usage:       "Use this tool to read a stored record.",
			Parameters:  "path (required): record file (.json, .yaml or .yml)",
		},
		{
			Name:        descriptions.ToolRecordSave,
			Description: descriptions.GetToolDescription(descriptions.ToolRecordSave),
			Usage:       "Use this tool to persist a record for later generation.",
			Parameters:  "record fields, path (optional): defaults to {car_make}-{module_no}.json",
		},
		{
			Name:        descriptions.ToolRecordList,
			Description: descriptions.GetToolDescription(descriptions.ToolRecordList),
			Usage:       "Use this tool to find records and generated PDFs.",
			Parameters:  "directory (optional), query (optional): fuzzy file name match, kind (optional): record, pdf or all",
		},
		{
			Name:        descriptions.ToolPDFValidate,
			Description: descriptions.GetToolDescription(descriptions.ToolPDFValidate),
			Usage:       "Use this tool to check a generated PDF before sharing it.",
			Parameters:  "path (required): PDF file",
		},
		{
			Name:        descriptions.ToolPDFInspect,
			Description: descriptions.GetToolDescription(descriptions.ToolPDFInspect),
			Usage:       "Use this tool to read back the text of each page and the document info.",
			Parameters:  "path (required): PDF file",
		},
		{
			Name:        descriptions.ToolServerInfo,
			Description: descriptions.GetToolDescription(descriptions.ToolServerInfo),
			Usage:       "Use this tool to get server capabilities and the current directory contents.",
			Parameters:  "No parameters required",
		},
	}
}

// getUsageGuidance returns usage guidance
func (p *ServerInfo) getUsageGuidance() string {
	maxFileSizeMB := p.service.maxFileSize / (1024 * 1024)

	return fmt.Sprintf(`Instruction PDF Server Usage Guide:

1. PREPARE THE RECORD:
   - Use '%[1]s' to find existing records and instructions
   - Use '%[2]s' to review a record, '%[3]s' to store a new or edited one

2. GENERATE:
   - Use '%[4]s' with a record_path and/or inline fields
   - car_make is required; program_date must be YYYY-MM-DD
   - Photos are laid out three per row; missing or unreadable files become placeholders

3. CHECK THE RESULT:
   - Use '%[5]s' to verify the PDF structure and page count
   - Use '%[6]s' to read back the text of each page

IMPORTANT NOTES:
- Relative paths resolve inside the work directory; paths outside it are rejected
- Images and PDFs up to %[7]dMB are accepted
- Directory contents in this response are cached for 5 minutes and limited to 100 files`,
		descriptions.ToolRecordList, descriptions.ToolRecordLoad, descriptions.ToolRecordSave,
		descriptions.ToolGenerate, descriptions.ToolPDFValidate, descriptions.ToolPDFInspect,
		maxFileSizeMB)
}

// ClearCache clears expired cache entries
func (p *ServerInfo) ClearCache() {
	p.cache.Clear()
}
