package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/instruction-pdf/internal/document"
	"github.com/a3tai/instruction-pdf/internal/pdf/security"
)

const (
	// Mode constants
	ModeStdio    = "stdio"
	ModeServer   = "server"
	ModeGenerate = "generate"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 20 * 1024 * 1024 // 20MB
	DefaultFontDir     = "fonts"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "INSTRUCTION_PDF"
)

// ErrVersionRequested is returned by Load when --version is given.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the instruction generator
type Config struct {
	// Server configuration
	Mode string // "stdio", "server" or "generate"
	Host string
	Port int

	// Work directory; tool paths are confined to it
	Directory string

	// One-shot generation
	Record string
	Output string
	Images []string

	// Document configuration
	FontDir   string
	Identity  string
	Language  string
	PageTotal string
	QRTag     bool
	Verify    bool

	// Output protection; enabled by a non-empty owner password
	OwnerPassword string
	Permissions   []string

	// Application configuration
	ConfigFile  string
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum image and PDF size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeStdio, // Default to stdio mode for MCP compatibility
		Host:        DefaultHost,
		Port:        DefaultPort,
		FontDir:     DefaultFontDir,
		Language:    document.DefaultLanguage,
		PageTotal:   string(document.PageTotalFixed),
		Verify:      true,
		Permissions: []string{"print", "copy"},
		Version:     "1.0.0",
		ServerName:  "instruction-pdf",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process arguments and environment.
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:], os.Stderr)
}

// Load builds a configuration from args, INSTRUCTION_PDF_* environment
// variables and an optional config file. Flags win over the environment,
// which wins over the file.
func Load(args []string, usageOut io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	if checkVersionFlag(args) {
		return nil, ErrVersionRequested
	}

	v := viper.New()
	setupViperEnvironment(v, cfg)

	flags := pflag.NewFlagSet(cfg.ServerName, pflag.ContinueOnError)
	flags.SetOutput(usageOut)
	defineCommandLineFlags(flags, cfg)
	setupUsageMessage(flags, usageOut)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("fonts", cfg.FontDir)
	v.SetDefault("identity", cfg.Identity)
	v.SetDefault("language", cfg.Language)
	v.SetDefault("pagetotal", cfg.PageTotal)
	v.SetDefault("qr", cfg.QRTag)
	v.SetDefault("verify", cfg.Verify)
	v.SetDefault("permissions", cfg.Permissions)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("mode", cfg.Mode, "Run mode: 'stdio' for MCP standard I/O, 'server' for MCP over HTTP/SSE, "+
		"'generate' to render one record and exit")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("dir", cfg.Directory, "Work directory for records, photos and generated PDFs "+
		"(default: current directory, or the record's directory in generate mode)")
	flags.String("record", cfg.Record, "Record file to render (generate mode)")
	flags.String("output", cfg.Output, "Output PDF path (generate mode, default {make}-{module}_instruction.pdf)")
	flags.StringSlice("images", cfg.Images, "Photos for the grid, overriding the record's image_paths (generate mode)")
	flags.String("fonts", cfg.FontDir, "Directory holding the embedded font family")
	flags.String("identity", cfg.Identity, "Operator identity printed in the footer")
	flags.String("language", cfg.Language, "Label language ("+strings.Join(document.Languages(), ", ")+")")
	flags.String("pagetotal", cfg.PageTotal, "Page total in the page number: 'fixed' or 'computed'")
	flags.Bool("qr", cfg.QRTag, "Print a QR tag with the record identity in the header")
	flags.Bool("verify", cfg.Verify, "Validate generated PDFs after writing them")
	flags.String("ownerpassword", cfg.OwnerPassword, "Encrypt generated PDFs with this owner password")
	flags.StringSlice("permissions", cfg.Permissions, "Reader permissions of encrypted PDFs ("+
		strings.Join(security.PermissionNames(), ", ")+" or none)")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum image and PDF file size in bytes")
	flags.String("config", cfg.ConfigFile, "Optional config file (YAML, JSON or TOML)")
	flags.Bool("version", false, "Print version information and exit")
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet, out io.Writer) {
	name := flags.Name()
	flags.Usage = func() {
		fmt.Fprintf(out, "Usage of %s:\n", name)
		fmt.Fprintf(out, "\nInstruction PDF - renders vehicle connection instructions as PDF documents\n\n")
		fmt.Fprintf(out, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s                                          "+
			"# MCP stdio mode, current directory (default)\n", name)
		fmt.Fprintf(out, "  %s --dir=/srv/instructions                  "+
			"# MCP stdio mode with custom work directory\n", name)
		fmt.Fprintf(out, "  %s --mode=server --port=8081                "+
			"# MCP over HTTP/SSE\n", name)
		fmt.Fprintf(out, "  %s --mode=generate --record=vw-005540.json  "+
			"# render one record and exit\n", name)
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  %s_MODE         Run mode\n", envPrefix)
		fmt.Fprintf(out, "  %s_DIR          Work directory\n", envPrefix)
		fmt.Fprintf(out, "  %s_IDENTITY     Footer identity\n", envPrefix)
		fmt.Fprintf(out, "  %s_LANGUAGE     Label language\n", envPrefix)
		fmt.Fprintf(out, "  %s_FONTS        Font directory\n", envPrefix)
		fmt.Fprintf(out, "  %s_LOGLEVEL     Log level\n", envPrefix)
		fmt.Fprintf(out, "  %s_MAXFILESIZE  Maximum file size\n", envPrefix)
		fmt.Fprintf(out, "  %s_OWNERPASSWORD  Owner password of protected PDFs\n", envPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.Directory = v.GetString("dir")
	cfg.Record = v.GetString("record")
	cfg.Output = v.GetString("output")
	cfg.Images = v.GetStringSlice("images")
	cfg.FontDir = v.GetString("fonts")
	cfg.Identity = v.GetString("identity")
	cfg.Language = v.GetString("language")
	cfg.PageTotal = v.GetString("pagetotal")
	cfg.QRTag = v.GetBool("qr")
	cfg.Verify = v.GetBool("verify")
	cfg.OwnerPassword = v.GetString("ownerpassword")
	cfg.Permissions = v.GetStringSlice("permissions")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.ConfigFile = v.GetString("config")
}

// Validate checks the configuration and fills in derived values: the
// work directory defaults to the record's directory in generate mode and
// to the current directory otherwise, and is created when missing.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeStdio, ModeServer, ModeGenerate:
	default:
		return errors.New("mode must be one of 'stdio', 'server' or 'generate'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Mode == ModeGenerate && c.Record == "" {
		return errors.New("generate mode requires --record")
	}

	if _, err := document.LabelsFor(c.Language); err != nil {
		return err
	}
	if _, err := document.ParsePageTotalMode(c.PageTotal); err != nil {
		return err
	}
	if _, err := security.ParsePermissions(c.Permissions); err != nil {
		return err
	}

	if err := c.resolveDirectory(); err != nil {
		return err
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

func (c *Config) resolveDirectory() error {
	if c.Directory == "" {
		if c.Mode == ModeGenerate {
			c.Directory = filepath.Dir(c.Record)
		} else {
			wd, err := os.Getwd()
			if err != nil {
				wd = "."
			}
			c.Directory = wd
		}
	}

	if abs, err := filepath.Abs(c.Directory); err == nil {
		c.Directory = abs
	}

	// Check if the work directory exists, create if it doesn't
	if _, err := os.Stat(c.Directory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create work directory %s: %w", c.Directory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access work directory %s: %w", c.Directory, err)
	}
	return nil
}

// Labels returns the label set of the configured language.
func (c *Config) Labels() document.Labels {
	labels, err := document.LabelsFor(c.Language)
	if err != nil {
		return document.English()
	}
	return labels
}

// PageTotalMode returns the parsed page total mode.
func (c *Config) PageTotalMode() document.PageTotalMode {
	mode, err := document.ParsePageTotalMode(c.PageTotal)
	if err != nil {
		return document.PageTotalFixed
	}
	return mode
}

// Protection returns the reader permissions and whether output
// protection is enabled.
func (c *Config) Protection() (security.Permissions, bool) {
	perms, err := security.ParsePermissions(c.Permissions)
	if err != nil {
		return security.Permissions{}, c.OwnerPassword != ""
	}
	return perms, c.OwnerPassword != ""
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Directory: %s, Language: %s, PageTotal: %s, "+
		"LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.Directory, c.Language, c.PageTotal, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsGenerateMode returns true for one-shot generation
func (c *Config) IsGenerateMode() bool {
	return c.Mode == ModeGenerate
}
