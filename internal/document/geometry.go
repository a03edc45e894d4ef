package document

// Cm is one centimetre in points.
const Cm = 72.0 / 2.54

// Grid and image constants.
const (
	GridColumns    = 3
	ImageMaxHeight = 180.0
	imagePadding   = 10.0
	gridRowPadding = 15.0
)

// Geometry is the fixed page layout, in points.
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	Margin       float64
	HeaderHeight float64
	FooterHeight float64
}

// A4 returns the portrait A4 geometry used for every instruction.
func A4() Geometry {
	return Geometry{
		PageWidth:    595.28,
		PageHeight:   841.89,
		Margin:       1.5 * Cm,
		HeaderHeight: 1.0 * Cm,
		FooterHeight: 0.5 * Cm,
	}
}

// ContentWidth is the width of the content frame.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// FrameTop is the y coordinate where flowing content starts on each page.
func (g Geometry) FrameTop() float64 {
	return g.Margin + g.HeaderHeight
}

// FrameBottom is the lowest y coordinate flowing content may reach.
func (g Geometry) FrameBottom() float64 {
	return g.PageHeight - g.Margin - g.FooterHeight
}

// ColumnWidth is the width of one image grid column.
func (g Geometry) ColumnWidth() float64 {
	return g.ContentWidth() / GridColumns
}
