package document

// Grid cell padding around images and placeholders.
const (
	gridCellTopPadding  = 3.0
	gridCellSidePadding = 6.0
)

// cellWidth is the width of cell i of row, spans included.
func (t TableBlock) cellWidth(row TableRow, i int) float64 {
	col := 0
	for j := 0; j < i; j++ {
		col += row.Cells[j].span()
	}
	var w float64
	for k := 0; k < row.Cells[i].span() && col+k < len(t.ColWidths); k++ {
		w += t.ColWidths[col+k]
	}
	return w
}

func (c *canvas) rowHeight(t TableBlock, row TableRow) float64 {
	var content float64
	for i, cell := range row.Cells {
		inner := t.cellWidth(row, i) - t.Padding.Left - t.Padding.Right
		if h := c.textHeight(cell.Runs, cell.Style, inner); h > content {
			content = h
		}
	}
	return t.Padding.Top + content + t.Padding.Bottom
}

func (c *canvas) tableHeight(t TableBlock) float64 {
	var h float64
	for _, row := range t.Rows {
		h += c.rowHeight(t, row)
	}
	return h
}

// drawTable draws every row of t with its top left corner at (x, y).
func (c *canvas) drawTable(t TableBlock, x, y float64) {
	for _, row := range t.Rows {
		y += c.drawTableRow(t, row, x, y)
	}
}

// drawTableRow draws one row, text vertically centred, and returns its height.
func (c *canvas) drawTableRow(t TableBlock, row TableRow, x, y float64) float64 {
	height := c.rowHeight(t, row)
	cx := x
	for i, cell := range row.Cells {
		w := t.cellWidth(row, i)
		inner := w - t.Padding.Left - t.Padding.Right
		textH := c.textHeight(cell.Runs, cell.Style, inner)
		avail := height - t.Padding.Top - t.Padding.Bottom
		c.drawRuns(cell.Runs, cell.Style, cx+t.Padding.Left, y+t.Padding.Top+(avail-textH)/2, inner)
		if t.GridWidth > 0 {
			c.rect(cx, y, w, height, t.GridWidth)
		}
		cx += w
	}
	return height
}

func (c *canvas) gridRowHeight(g GridBlock, row []GridCell) float64 {
	var content float64
	for _, cell := range row {
		var h float64
		switch cell.Kind {
		case CellImage:
			h = cell.Height
		case CellMissing, CellDecodeError:
			h = c.textHeight([]Run{{Text: cell.Message}}, g.Style, g.ColWidth-2*gridCellSidePadding)
		}
		if h > content {
			content = h
		}
	}
	return gridCellTopPadding + content + g.RowPadding
}

// drawGridRow draws one grid row and returns its height. Images the
// layout engine rejects are drawn as decode-error placeholders.
func (c *canvas) drawGridRow(g GridBlock, row []GridCell, x, y float64, labels Labels) float64 {
	height := c.gridRowHeight(g, row)
	for i, cell := range row {
		cx := x + float64(i)*g.ColWidth
		top := y + gridCellTopPadding
		switch cell.Kind {
		case CellImage:
			err := c.drawImage(cell.Image, cx+(g.ColWidth-cell.Width)/2, top, cell.Width, cell.Height)
			if err == nil {
				continue
			}
			c.logger.Warn("image rejected by layout engine", "path", cell.Path, "error", err)
			cell = GridCell{Kind: CellDecodeError, Path: cell.Path, Message: labels.ErrorPrefix + err.Error()}
			fallthrough
		case CellMissing, CellDecodeError:
			c.drawRuns([]Run{{Text: cell.Message}}, g.Style, cx+gridCellSidePadding, top, g.ColWidth-2*gridCellSidePadding)
		}
	}
	return height
}

// flow places blocks top to bottom in the content frame, adding pages
// as needed.
type flow struct {
	c      *canvas
	geom   Geometry
	labels Labels

	y     float64
	dirty bool // current page holds content
}

func newFlow(c *canvas, labels Labels) *flow {
	return &flow{c: c, geom: c.geom, labels: labels}
}

func (f *flow) newPage() {
	f.c.pdf.AddPage()
	f.y = f.geom.FrameTop()
	f.dirty = false
}

// fits reports whether h more points fit on the current page. An empty
// page accepts anything so oversized content cannot loop.
func (f *flow) fits(h float64) bool {
	return !f.dirty || f.y+h <= f.geom.FrameBottom()
}

func (f *flow) ensure(h float64) {
	if !f.fits(h) {
		f.newPage()
	}
}

func (f *flow) run(blocks []Block) {
	f.newPage()
	for _, b := range blocks {
		switch b := b.(type) {
		case Spacer:
			f.y += b.Height
			if f.y > f.geom.FrameBottom() {
				f.y = f.geom.FrameBottom()
			}
		case Paragraph:
			f.paragraph(b)
		case PageBreak:
			if f.dirty {
				f.newPage()
			}
		case TableBlock:
			f.table(b)
		case GridBlock:
			f.grid(b)
		}
	}
}

func (f *flow) paragraph(p Paragraph) {
	width := f.geom.ContentWidth()
	lines := f.c.wrapRuns([]Run{{Text: p.Text}}, p.Style, width)
	for _, line := range lines {
		f.ensure(p.Style.Leading)
		f.c.drawLine(line, p.Style, f.geom.Margin, f.y, width)
		f.y += p.Style.Leading
		f.dirty = true
	}
	f.y += p.Style.SpaceAfter
}

func (f *flow) table(t TableBlock) {
	x := f.geom.Margin + (f.geom.ContentWidth()-t.Width())/2
	for _, row := range t.Rows {
		f.ensure(f.c.rowHeight(t, row))
		f.y += f.c.drawTableRow(t, row, x, f.y)
		f.dirty = true
	}
}

func (f *flow) grid(g GridBlock) {
	x := f.geom.Margin + (f.geom.ContentWidth()-float64(g.Columns)*g.ColWidth)/2
	for _, row := range g.Rows {
		f.ensure(f.c.gridRowHeight(g, row))
		f.y += f.c.drawGridRow(g, row, x, f.y, f.labels)
		f.dirty = true
	}
}
