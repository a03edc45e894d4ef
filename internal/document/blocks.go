package document

import "strings"

// Block is one unit of the content stream laid out by the flow engine.
type Block interface {
	isBlock()
}

// Spacer is vertical blank space.
type Spacer struct {
	Height float64
}

// Paragraph is wrapped text in a single style.
type Paragraph struct {
	Text  string
	Style Style
}

// PageBreak starts a new page.
type PageBreak struct{}

// Run is a piece of text inside a table cell.
type Run struct {
	Text string
	Bold bool
}

// Padding is the inner spacing of table cells.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// TableCell is a cell of a TableBlock. Span is the number of columns the
// cell covers; cells covered by a span are omitted from the row.
type TableCell struct {
	Runs  []Run
	Style Style
	Span  int
}

// Text returns the plain text of the cell.
func (c TableCell) Text() string {
	var b strings.Builder
	for _, r := range c.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func (c TableCell) span() int {
	if c.Span < 1 {
		return 1
	}
	return c.Span
}

// TableRow is one row of a TableBlock.
type TableRow struct {
	Cells []TableCell
}

// TableBlock is a table with fixed column widths.
type TableBlock struct {
	ColWidths []float64
	Rows      []TableRow
	GridWidth float64 // 0 draws no grid
	Padding   Padding
}

// Width is the sum of the column widths.
func (t TableBlock) Width() float64 {
	var w float64
	for _, c := range t.ColWidths {
		w += c
	}
	return w
}

// CellKind tags the outcome of composing one grid cell.
type CellKind int

const (
	CellBlank CellKind = iota
	CellImage
	CellMissing
	CellDecodeError
)

func (k CellKind) String() string {
	switch k {
	case CellImage:
		return "image"
	case CellMissing:
		return "missing"
	case CellDecodeError:
		return "decode_error"
	default:
		return "blank"
	}
}

// GridCell is a cell of the image grid.
type GridCell struct {
	Kind    CellKind
	Path    string
	Image   LoadedImage // set for CellImage
	Width   float64     // scaled size for CellImage
	Height  float64
	Message string // placeholder text for CellMissing and CellDecodeError
}

// GridBlock is the rectangular image grid.
type GridBlock struct {
	Columns    int
	ColWidth   float64
	RowPadding float64
	Rows       [][]GridCell
	Style      Style // placeholder text style
}

func (Spacer) isBlock()     {}
func (Paragraph) isBlock()  {}
func (PageBreak) isBlock()  {}
func (TableBlock) isBlock() {}
func (GridBlock) isBlock()  {}
