package document

import (
	"fmt"
	"strconv"

	"github.com/a3tai/instruction-pdf/internal/record"
)

// Header table layout.
var headerColumns = []float64{11.5 * Cm, 3.5 * Cm, 1.5 * Cm, 1.5 * Cm}

const (
	headerGridWidth = 0.5
	footerWidth     = 10 * Cm
	pageNumberX     = 12 * Cm
	pageNumberWidth = 5 * Cm
	qrTagSize       = 1.2 * Cm
)

// RenderHeader builds the per-page header table: a label row, a value
// row and a version row whose program details span the last three
// columns. Empty fields render as empty cells.
func RenderHeader(rec record.Record, styles StyleSet, labels Labels) TableBlock {
	label := func(s string) TableCell {
		return TableCell{Runs: []Run{{Text: s, Bold: true}}, Style: styles.Detail}
	}
	value := func(s string) TableCell {
		return TableCell{Runs: []Run{{Text: s}}, Style: styles.DetailBold}
	}

	return TableBlock{
		ColWidths: headerColumns,
		GridWidth: headerGridWidth,
		Padding:   Padding{Top: 1, Right: 3, Bottom: 3, Left: 3},
		Rows: []TableRow{
			{Cells: []TableCell{
				label(labels.MakeModel), label(labels.Module), label(labels.Year), label(labels.Revision),
			}},
			{Cells: []TableCell{
				value(rec.CarMake), value(rec.ModuleNo), value(rec.Year), value(rec.Revision),
			}},
			{Cells: []TableCell{
				label(labels.Version),
				{
					Runs: []Run{
						{Text: labels.ProgramNo + " "},
						{Text: rec.ProgramNo, Bold: true},
						{Text: " " + labels.ProgramDate + " "},
						{Text: rec.ProgramDate, Bold: true},
					},
					Style: styles.Detail,
					Span:  3,
				},
			}},
		},
	}
}

// PageTotalMode selects what the page number prints as the total.
type PageTotalMode string

const (
	// PageTotalFixed prints FixedPageTotal on every page.
	PageTotalFixed PageTotalMode = "fixed"
	// PageTotalComputed prints the real page count.
	PageTotalComputed PageTotalMode = "computed"
)

// FixedPageTotal is the known page count of an instruction.
const FixedPageTotal = 2

// pageCountAlias is replaced by the page count when the document is written.
const pageCountAlias = "{nb}"

// ParsePageTotalMode parses a configuration value.
func ParsePageTotalMode(s string) (PageTotalMode, error) {
	switch PageTotalMode(s) {
	case "", PageTotalFixed:
		return PageTotalFixed, nil
	case PageTotalComputed:
		return PageTotalComputed, nil
	}
	return "", fmt.Errorf("invalid page total mode %q (expected %s or %s)", s, PageTotalFixed, PageTotalComputed)
}

// Total is the text printed after the page number.
func (m PageTotalMode) Total() string {
	if m == PageTotalComputed {
		return pageCountAlias
	}
	return strconv.Itoa(FixedPageTotal)
}

// PageState is the per-page information the footer needs.
type PageState struct {
	Number int
	Total  string
}

// PlacedText is a single paragraph drawn at a fixed page position.
type PlacedText struct {
	X, Y  float64
	Width float64
	Text  string
	Style Style
}

// RenderFooter returns the generation footer and the page number, both
// placed in the bottom margin band.
func RenderFooter(rec record.Record, page PageState, styles StyleSet, labels Labels, geom Geometry) (footer, pageNumber PlacedText) {
	generated := orUnknown(rec.GenerationDate, labels)
	identity := orUnknown(rec.UserEmail, labels)

	style := styles.Detail
	y := geom.PageHeight - geom.Margin/2 - style.Leading

	footer = PlacedText{
		X:     geom.Margin,
		Y:     y,
		Width: footerWidth,
		Text:  fmt.Sprintf(labels.Generated, generated, identity),
		Style: style,
	}
	pageNumber = PlacedText{
		X:     geom.Margin + pageNumberX,
		Y:     y,
		Width: pageNumberWidth,
		Text:  fmt.Sprintf(labels.PageNumber, page.Number, page.Total),
		Style: style,
	}
	return footer, pageNumber
}

func orUnknown(s string, labels Labels) string {
	if s == "" {
		return labels.Unknown
	}
	return s
}

// PageDecorator draws the header, footer and page number on every page.
// It is built once per document and never changes afterwards.
type PageDecorator struct {
	rec    record.Record
	styles StyleSet
	labels Labels
	geom   Geometry
	total  PageTotalMode
	header TableBlock
	qr     *LoadedImage
}

// NewPageDecorator captures everything the page chrome needs. qr may be nil.
func NewPageDecorator(rec record.Record, styles StyleSet, labels Labels, geom Geometry, total PageTotalMode, qr *LoadedImage) PageDecorator {
	return PageDecorator{
		rec:    rec,
		styles: styles,
		labels: labels,
		geom:   geom,
		total:  total,
		header: RenderHeader(rec, styles, labels),
		qr:     qr,
	}
}

// Decorate draws the chrome of the current page.
func (d PageDecorator) Decorate(c *canvas) {
	c.saveState()
	defer c.restoreState()

	// The header table sits on the top of the header band.
	height := c.tableHeight(d.header)
	c.drawTable(d.header, d.geom.Margin, d.geom.Margin+d.geom.HeaderHeight-height)

	if d.qr != nil {
		x := d.geom.PageWidth - d.geom.Margin + (d.geom.Margin-qrTagSize)/2
		y := d.geom.Margin + d.geom.HeaderHeight - height
		if err := c.drawSharedImage("qr-tag", *d.qr, x, y, qrTagSize, qrTagSize); err != nil {
			c.logger.Debug("qr tag skipped", "error", err)
		}
	}

	footer, number := RenderFooter(d.rec, PageState{Number: c.pdf.PageNo(), Total: d.total.Total()}, d.styles, d.labels, d.geom)
	c.drawPlaced(footer)
	c.drawPlaced(number)
}
