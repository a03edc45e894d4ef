package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/instruction-pdf/internal/config"
	"github.com/a3tai/instruction-pdf/internal/document"
	"github.com/a3tai/instruction-pdf/internal/mcp"
	"github.com/a3tai/instruction-pdf/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the run mode
func setupLogging(cfg *config.Config, stderr io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	var logger *slog.Logger
	switch {
	case cfg.IsStdioMode() && !cfg.IsDebug():
		// stdout carries the MCP protocol; stay silent unless debugging
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	case cfg.IsServerMode():
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level, AddSource: true}))
	default:
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	}

	slog.SetDefault(logger)
	return logger
}

// newService wires the document assembler into the service layer
func newService(cfg *config.Config, logger *slog.Logger) (*pdf.Service, error) {
	styles := document.BuildStyles(document.DefaultFontSource(cfg.FontDir), logger)
	perms, protected := cfg.Protection()

	assembler := document.NewAssembler(
		document.WithProtection(perms.Flags(), cfg.OwnerPassword),
		document.WithStyles(styles),
		document.WithLabels(cfg.Labels()),
		document.WithLogger(logger),
		document.WithPageTotal(cfg.PageTotalMode()),
		document.WithQRTag(cfg.QRTag),
		document.WithCreator(cfg.ServerName+" "+cfg.Version),
		document.WithImageSource(document.NewImageLoader(cfg.MaxFileSize)),
	)

	return pdf.NewService(pdf.ServiceConfig{
		MaxFileSize: cfg.MaxFileSize,
		Directory:   cfg.Directory,
		Identity:    cfg.Identity,
		Verify:      cfg.Verify,
		Assembler:   assembler,
		Logger:      logger,
		Details: pdf.ServerDetails{
			ServerName:    cfg.ServerName,
			Version:       cfg.Version,
			Language:      cfg.Language,
			PageTotal:     cfg.PageTotal,
			EmbeddedFonts: styles.Embedded(),
			Protected:     protected,
		},
	})
}

// absPaths makes command line paths absolute so they resolve against the
// working directory rather than the work directory.
func absPaths(paths ...string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			out = append(out, p)
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// runGenerateMode renders the configured record once
func runGenerateMode(cfg *config.Config, service *pdf.Service, stdout, stderr io.Writer) int {
	paths, err := absPaths(cfg.Record, cfg.Output)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	images, err := absPaths(cfg.Images...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	result, err := service.Generate(pdf.GenerateRequest{
		RecordPath: paths[0],
		OutputPath: paths[1],
		ImagePaths: images,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !result.Success {
		fmt.Fprintf(stderr, "Error: %s: %s\n", result.Path, result.Message)
		return 1
	}

	fmt.Fprintf(stdout, "Instruction generated: %s\n", result.Path)
	if result.Verified {
		fmt.Fprintf(stdout, "Pages: %d\n", result.Pages)
	}
	return 0
}

// run executes the program and returns the process exit code
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(stdout)
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, stderr)
	logger.Debug("starting", "config", cfg.String())

	service, err := newService(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create service: %v\n", err)
		return 1
	}

	if cfg.IsGenerateMode() {
		return runGenerateMode(cfg, service, stdout, stderr)
	}

	server, err := mcp.NewServer(cfg, service, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create MCP server: %v\n", err)
		return 1
	}

	if err := server.Run(ctx, stdin, stdout); err != nil {
		logger.Error("server error", "error", err)
		return 1
	}

	logger.Info("server stopped")
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Instruction PDF\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
