package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/instruction-pdf/internal/config"
	"github.com/a3tai/instruction-pdf/internal/descriptions"
	"github.com/a3tai/instruction-pdf/internal/pdf"
	"github.com/a3tai/instruction-pdf/internal/record"
)

const shutdownTimeout = 5 * time.Second

// recordFields are the record keys accepted as tool arguments.
var recordFields = []struct {
	name        string
	description string
	set         func(r *record.Record, v string)
}{
	{"car_make", "Vehicle make and model, e.g. 'VW Passat B8'", func(r *record.Record, v string) { r.CarMake = v }},
	{"module_no", "Alarm module number", func(r *record.Record, v string) { r.ModuleNo = v }},
	{"year", "Model year or range", func(r *record.Record, v string) { r.Year = v }},
	{"revision", "Document revision", func(r *record.Record, v string) { r.Revision = v }},
	{"program_no", "Firmware program number", func(r *record.Record, v string) { r.ProgramNo = v }},
	{"program_date", "Firmware program date (YYYY-MM-DD)", func(r *record.Record, v string) { r.ProgramDate = v }},
	{
		"connection_description", "Connection instructions, one paragraph per line",
		func(r *record.Record, v string) { r.ConnectionDescription = v },
	},
	{
		"full_description", "Additional description and indicators, one paragraph per line",
		func(r *record.Record, v string) { r.FullDescription = v },
	},
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *pdf.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *pdf.Service, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

func withRecordFields() []mcp.ToolOption {
	opts := make([]mcp.ToolOption, 0, len(recordFields))
	for _, f := range recordFields {
		opts = append(opts, mcp.WithString(f.name, mcp.Description(f.description)))
	}
	return opts
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	generateOpts := []mcp.ToolOption{
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolGenerate)),
		mcp.WithString("record_path",
			mcp.Description("Stored record to render; inline fields override its values"),
		),
		mcp.WithString("output_path",
			mcp.Description("PDF to write (default {car_make}-{module_no}_instruction.pdf)"),
		),
		mcp.WithArray("image_paths",
			mcp.Description("Photos for the image grid, replacing the record's image_paths"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	}
	generateOpts = append(generateOpts, withRecordFields()...)
	s.mcpServer.AddTool(mcp.NewTool(descriptions.ToolGenerate, generateOpts...), s.handleGenerate)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolRecordLoad,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolRecordLoad)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Record file (.json, .yaml or .yml)"),
		),
	), s.handleRecordLoad)

	saveOpts := []mcp.ToolOption{
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolRecordSave)),
		mcp.WithString("path",
			mcp.Description("Record file to write (default {car_make}-{module_no}.json)"),
		),
		mcp.WithArray("image_paths",
			mcp.Description("Photos referenced by the record"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	}
	saveOpts = append(saveOpts, withRecordFields()...)
	s.mcpServer.AddTool(mcp.NewTool(descriptions.ToolRecordSave, saveOpts...), s.handleRecordSave)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolRecordList,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolRecordList)),
		mcp.WithString("directory",
			mcp.Description("Directory to search (uses the work directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
		mcp.WithString("kind",
			mcp.Description("File kind to list"),
			mcp.Enum(pdf.KindAll, pdf.KindRecord, pdf.KindPDF),
		),
	), s.handleRecordList)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolPDFValidate,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolPDFValidate)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF file to check"),
		),
	), s.handlePDFValidate)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolPDFInspect,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolPDFInspect)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF file to inspect"),
		),
	), s.handlePDFInspect)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
	), s.handleServerInfo)
}

// stringArg returns a string argument or "" when it is absent.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// stringSliceArg accepts a JSON array of strings or a single string.
func stringSliceArg(args map[string]any, key string) ([]string, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s must be an array of strings", key)
}

// recordFromArguments collects the record fields present in args. The
// second return value is false when no field was given.
func recordFromArguments(args map[string]any) (record.Record, bool, error) {
	var rec record.Record
	found := false
	for _, f := range recordFields {
		if v := stringArg(args, f.name); v != "" {
			f.set(&rec, v)
			found = true
		}
	}
	images, err := stringSliceArg(args, "image_paths")
	if err != nil {
		return record.Record{}, false, err
	}
	if len(images) > 0 {
		rec.ImagePaths = images
		found = true
	}
	return rec, found, nil
}

// Handler functions
func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	s.logger.Debug("tool call", "tool", descriptions.ToolGenerate)

	rec, found, err := recordFromArguments(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.GenerateRequest{
		RecordPath: stringArg(args, "record_path"),
		OutputPath: stringArg(args, "output_path"),
		ImagePaths: rec.ImagePaths,
	}
	if found {
		req.Record = &rec
	}

	result, err := s.service.Generate(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !result.Success {
		return mcp.NewToolResultError(fmt.Sprintf("Instruction generation failed for %s: %s",
			result.Path, result.Message)), nil
	}

	return mcp.NewToolResultText(s.formatGenerateResult(result)), nil
}

func (s *Server) handleRecordLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.LoadRecord(pdf.RecordLoadRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body, err := json.MarshalIndent(result.Record, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode record: %v", err)), nil
	}

	responseText := fmt.Sprintf("Record: %s (%s)\n\n%s", result.Path, result.Format, body)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleRecordSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	rec, found, err := recordFromArguments(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultError("at least one record field is required"), nil
	}

	result, err := s.service.SaveRecord(pdf.RecordSaveRequest{
		Path:   stringArg(args, "path"),
		Record: rec,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Record saved: %s\nFormat: %s\nSize: %d bytes\n", result.Path, result.Format, result.Size)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleRecordList(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	req := pdf.ListFilesRequest{
		Directory: stringArg(args, "directory"),
		Query:     stringArg(args, "query"),
		Kind:      stringArg(args, "kind"),
	}

	result, err := s.service.ListFiles(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No records or PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatListFilesResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ValidateFile(pdf.ValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.InspectFile(pdf.InspectFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatInspectFileResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ServerInfo(ctx, pdf.ServerInfoRequest{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatGenerateResult(result *pdf.GenerateResult) string {
	text := fmt.Sprintf("Instruction generated: %s\n", result.Path)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	text += fmt.Sprintf("Images: %d\n", result.Images)
	if result.Verified {
		text += fmt.Sprintf("Verified: %d pages\n", result.Pages)
	}
	return text
}

func (s *Server) formatListFilesResult(result *pdf.ListFilesResult) string {
	text := fmt.Sprintf("Found %d file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s [%s]\n", i+1, file.Name, file.Kind)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatInspectFileResult(result *pdf.InspectFileResult) string {
	text := "PDF File Inspection\n"
	text += fmt.Sprintf("File: %s\n", result.Path)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	text += fmt.Sprintf("Modified: %s\n", result.ModifiedDate)

	if result.Title != "" {
		text += fmt.Sprintf("Title: %s\n", result.Title)
	}
	if result.Author != "" {
		text += fmt.Sprintf("Author: %s\n", result.Author)
	}
	if result.Creator != "" {
		text += fmt.Sprintf("Creator: %s\n", result.Creator)
	}
	if result.Producer != "" {
		text += fmt.Sprintf("Producer: %s\n", result.Producer)
	}
	if result.CreatedDate != "" {
		text += fmt.Sprintf("Created: %s\n", result.CreatedDate)
	}
	if result.Encrypted {
		text += fmt.Sprintf("Encrypted: yes (allowed: %s)\n", strings.Join(result.Permissions, ", "))
	}

	for _, page := range result.PageTexts {
		text += fmt.Sprintf("\n--- Page %d ---\n%s\n", page.Number, strings.TrimSpace(page.Text))
	}
	if result.Truncated {
		text += "\n⚠️  Text truncated at the size limit\n"
	}

	return text
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Work Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🌐 Language: %s (available: %s)\n", result.Language, strings.Join(result.Languages, ", "))
	text += fmt.Sprintf("🔢 Page Total: %s\n", result.PageTotal)
	text += fmt.Sprintf("🔤 Embedded Fonts: %t\n", result.EmbeddedFonts)
	text += fmt.Sprintf("🔒 Protected Output: %t\n\n", result.Protected)

	// Directory contents
	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s [%s] (%d bytes)\n", i+1, file.Name, file.Kind, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No records or PDF files found in the work directory\n\n"
	}

	// Available tools
	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	// Supported formats
	if len(result.SupportedFormats) > 0 {
		text += "\n🖼️  Supported Image Formats:\n"
		for _, format := range result.SupportedFormats {
			text += fmt.Sprintf("  • %s\n", format)
		}
	}

	// Usage guidance
	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode and blocks until ctx
// is done or the transport fails.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx, stdin, stdout)
}

// runStdioMode serves MCP over the given streams
func (s *Server) runStdioMode(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s.logger.Debug("starting MCP server in stdio mode", "directory", s.config.Directory)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(io.Discard, "", 0))
	if s.config.IsDebug() {
		stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	}

	if err := stdio.Listen(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server in SSE mode", "address", addr, "directory", s.config.Directory)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down SSE server: %w", err)
	}
	return nil
}
