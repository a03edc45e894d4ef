package document

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// Font families.
const (
	EmbeddedFamily = "InstructionSans"
	FallbackFamily = "Helvetica"
)

// Default font file names looked up in the font directory.
const (
	DefaultRegularFont = "arial.ttf"
	DefaultBoldFont    = "arialbd.ttf"
)

// Text alignments understood by the layout engine.
const (
	AlignLeft   = "L"
	AlignCenter = "C"
)

// Style is an immutable paragraph style. Variants are built by copying a
// base style and overriding fields through the With helpers.
type Style struct {
	Name       string
	Family     string
	Bold       bool
	Size       float64
	Leading    float64
	SpaceAfter float64
	Align      string
}

// Named returns a copy of s with a new name.
func (s Style) Named(name string) Style {
	s.Name = name
	return s
}

// WithSize returns a copy of s at size pt with the default 1.2 leading.
func (s Style) WithSize(size float64) Style {
	s.Size = size
	s.Leading = size * 1.2
	return s
}

// WithBold returns a copy of s with the bold flag set to bold.
func (s Style) WithBold(bold bool) Style {
	s.Bold = bold
	return s
}

// WithAlign returns a copy of s with the given alignment.
func (s Style) WithAlign(align string) Style {
	s.Align = align
	return s
}

// WithSpaceAfter returns a copy of s with trailing space.
func (s Style) WithSpaceAfter(space float64) Style {
	s.SpaceAfter = space
	return s
}

func (s Style) fontStyle() string {
	if s.Bold {
		return "B"
	}
	return ""
}

// FontSource locates the embedded font family on disk.
type FontSource struct {
	Dir     string
	Regular string
	Bold    string
}

// DefaultFontSource looks for the default font files in dir.
func DefaultFontSource(dir string) FontSource {
	return FontSource{Dir: dir, Regular: DefaultRegularFont, Bold: DefaultBoldFont}
}

// StyleSet is the fixed set of named styles. It is immutable after
// BuildStyles and may be shared between renders.
type StyleSet struct {
	Body       Style
	Heading    Style
	Detail     Style
	DetailBold Style

	embedded  bool
	regular   []byte
	bold      []byte
	translate func(string) string
}

// BuildStyles builds the style set, registering the embedded font family
// when it can be loaded and falling back to Helvetica otherwise.
func BuildStyles(src FontSource, logger *slog.Logger) StyleSet {
	if logger == nil {
		logger = slog.Default()
	}

	family := FallbackFamily
	set := StyleSet{}

	regular, bold, err := loadFonts(src)
	if err == nil {
		err = probeFonts(regular, bold)
	}
	switch {
	case err == nil:
		family = EmbeddedFamily
		set.embedded = true
		set.regular = regular
		set.bold = bold
	case src.Dir == "":
		logger.Debug("no font directory configured, using built-in font", "family", FallbackFamily)
	default:
		logger.Warn("could not register embedded fonts, using built-in font",
			"dir", src.Dir, "family", FallbackFamily, "error", err)
	}

	if !set.embedded {
		set.translate = fpdf.New("P", "pt", "A4", "").UnicodeTranslatorFromDescriptor("")
	}

	body := Style{Name: "Body", Family: family, Align: AlignLeft}.WithSize(10)
	set.Body = body
	set.Heading = body.Named("Heading").WithSize(14).WithBold(true).WithSpaceAfter(12).WithAlign(AlignCenter)
	set.Detail = body.Named("Detail").WithSize(7)
	set.DetailBold = set.Detail.Named("DetailBold").WithBold(true)

	return set
}

// Embedded reports whether the embedded font family is in use.
func (s StyleSet) Embedded() bool {
	return s.embedded
}

// Text converts s into the encoding the active fonts expect.
func (s StyleSet) Text(str string) string {
	if s.translate == nil {
		return str
	}
	return s.translate(str)
}

// Register installs the embedded faces into pdf. It is a no-op for the
// built-in fallback family.
func (s StyleSet) Register(pdf *fpdf.Fpdf) {
	if !s.embedded {
		return
	}
	pdf.AddUTF8FontFromBytes(EmbeddedFamily, "", s.regular)
	pdf.AddUTF8FontFromBytes(EmbeddedFamily, "B", s.bold)
}

func loadFonts(src FontSource) ([]byte, []byte, error) {
	if src.Dir == "" {
		return nil, nil, fmt.Errorf("no font directory")
	}
	regular, err := os.ReadFile(filepath.Join(src.Dir, src.Regular))
	if err != nil {
		return nil, nil, fmt.Errorf("read regular font: %w", err)
	}
	bold, err := os.ReadFile(filepath.Join(src.Dir, src.Bold))
	if err != nil {
		return nil, nil, fmt.Errorf("read bold font: %w", err)
	}
	return regular, bold, nil
}

// probeFonts registers the faces on a throwaway document so that broken
// font files are detected before any real render.
func probeFonts(regular, bold []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("font parser panic: %v", r)
		}
	}()

	probe := fpdf.New("P", "pt", "A4", "")
	probe.AddUTF8FontFromBytes(EmbeddedFamily, "", regular)
	probe.AddUTF8FontFromBytes(EmbeddedFamily, "B", bold)
	if probe.Err() {
		return probe.Error()
	}
	probe.AddPage()
	probe.SetFont(EmbeddedFamily, "B", 10)
	probe.SetFont(EmbeddedFamily, "", 10)
	return probe.Error()
}
