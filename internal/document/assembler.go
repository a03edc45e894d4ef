package document

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/a3tai/instruction-pdf/internal/record"
)

// Story spacing, in points.
const (
	storyLeadSpace      = 10.0
	storyParagraphSpace = 8.0
	storySectionSpace   = 15.0
)

// DefaultCreator is written to the PDF creator field.
const DefaultCreator = "instruction-pdf"

// Assembler composes instruction documents. An Assembler holds no per
// render state and may be reused.
type Assembler struct {
	styles    StyleSet
	labels    Labels
	geom      Geometry
	logger    *slog.Logger
	pageTotal PageTotalMode
	qrTag     bool
	creator   string
	images    ImageSource

	protect       bool
	protectFlags  byte
	ownerPassword string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithStyles sets the style set. The default is BuildStyles with no font
// directory.
func WithStyles(s StyleSet) Option {
	return func(a *Assembler) { a.styles = s }
}

// WithLabels sets the printed label set.
func WithLabels(l Labels) Option {
	return func(a *Assembler) { a.labels = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// WithPageTotal sets how the page total is printed.
func WithPageTotal(m PageTotalMode) Option {
	return func(a *Assembler) { a.pageTotal = m }
}

// WithQRTag enables the QR tag in the header.
func WithQRTag(enabled bool) Option {
	return func(a *Assembler) { a.qrTag = enabled }
}

// WithCreator sets the PDF creator field.
func WithCreator(creator string) Option {
	return func(a *Assembler) { a.creator = creator }
}

// WithImageSource sets the loader used for grid images.
func WithImageSource(src ImageSource) Option {
	return func(a *Assembler) { a.images = src }
}

// WithProtection encrypts generated documents. flags holds the granted
// reader permissions as P-entry bits (print 4, modify 8, copy 16,
// annotate 32); the documents open without a user password.
func WithProtection(flags byte, ownerPassword string) Option {
	return func(a *Assembler) {
		a.protect = ownerPassword != ""
		a.protectFlags = flags
		a.ownerPassword = ownerPassword
	}
}

// NewAssembler creates an assembler for A4 instructions.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		labels:    English(),
		geom:      A4(),
		logger:    slog.Default(),
		pageTotal: PageTotalFixed,
		creator:   DefaultCreator,
		images:    NewImageLoader(0),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.styles.Body.Family == "" {
		a.styles = BuildStyles(FontSource{}, a.logger)
	}
	return a
}

// With returns a copy of the assembler with opts applied on top of its
// current settings.
func (a *Assembler) With(opts ...Option) *Assembler {
	cp := *a
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// ImageSource returns the loader used for grid images.
func (a *Assembler) ImageSource() ImageSource {
	return a.images
}

// Geometry returns the page geometry in use.
func (a *Assembler) Geometry() Geometry {
	return a.geom
}

// BuildStory returns the content stream for rec. It does not touch the
// document and has no side effects besides reading image files.
func (a *Assembler) BuildStory(rec record.Record, paths []string) []Block {
	story := []Block{
		Spacer{Height: storyLeadSpace},
		Paragraph{Text: a.labels.ConnectionHeading, Style: a.styles.Heading},
	}
	story = a.appendLines(story, rec.ConnectionDescription)
	story = append(story,
		Spacer{Height: storySectionSpace},
		ComposeGrid(paths, a.images, a.styles, a.labels, a.geom),
		Spacer{Height: storySectionSpace},
		PageBreak{},
		Spacer{Height: storyLeadSpace},
		Paragraph{Text: a.labels.FullHeading, Style: a.styles.Heading},
	)
	return a.appendLines(story, rec.FullDescription)
}

func (a *Assembler) appendLines(story []Block, text string) []Block {
	for _, line := range record.NonBlankLines(text) {
		story = append(story,
			Paragraph{Text: line, Style: a.styles.Body},
			Spacer{Height: storyParagraphSpace},
		)
	}
	return story
}

// Render lays out the instruction and writes the PDF to w.
func (a *Assembler) Render(w io.Writer, rec record.Record, paths []string) error {
	var qr *LoadedImage
	if a.qrTag {
		tag, err := NewQRTag(rec)
		if err != nil {
			a.logger.Warn("qr tag disabled for this document", "error", err)
		} else {
			qr = &tag
		}
	}

	story := a.BuildStory(rec, paths)

	c := newCanvas(a.styles, a.geom, a.logger)
	pdf := c.pdf
	pdf.SetTitle(strings.TrimSpace(rec.CarMake+" "+rec.ModuleNo), true)
	pdf.SetAuthor(rec.UserEmail, true)
	pdf.SetCreator(a.creator, true)
	if a.protect {
		pdf.SetProtection(a.protectFlags, "", a.ownerPassword)
	}
	if a.pageTotal == PageTotalComputed {
		pdf.AliasNbPages(pageCountAlias)
	}

	decorator := NewPageDecorator(rec, a.styles, a.labels, a.geom, a.pageTotal, qr)
	pdf.SetHeaderFuncMode(func() { decorator.Decorate(c) }, true)

	newFlow(c, a.labels).run(story)
	if pdf.Err() {
		return fmt.Errorf("layout: %w", pdf.Error())
	}

	a.logger.Debug("document laid out", "pages", pdf.PageNo(), "blocks", len(story))
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Assemble renders the instruction into outputPath and reports success.
// Errors and panics are logged, never returned; a partially written file
// is left in place on failure.
func (a *Assembler) Assemble(outputPath string, rec record.Record, paths []string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("document generation panicked", "output", outputPath, "panic", r)
			ok = false
		}
	}()

	if err := a.assemble(outputPath, rec, paths); err != nil {
		a.logger.Error("document generation failed", "output", outputPath, "error", err)
		return false
	}
	a.logger.Info("document generated", "output", outputPath, "images", len(paths))
	return true
}

func (a *Assembler) assemble(outputPath string, rec record.Record, paths []string) (err error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := a.Render(w, rec, paths); err != nil {
		return err
	}
	return w.Flush()
}
