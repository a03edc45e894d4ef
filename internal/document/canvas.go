package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-pdf/fpdf"
)

// canvas wraps an fpdf document with the active style set. All text goes
// through it so that font selection and encoding stay consistent.
type canvas struct {
	pdf    *fpdf.Fpdf
	styles StyleSet
	geom   Geometry
	logger *slog.Logger

	style   Style
	stack   []drawState
	imageID int
}

type drawState struct {
	style     Style
	lineWidth float64
	draw      [3]int
	text      [3]int
}

func newCanvas(styles StyleSet, geom Geometry, logger *slog.Logger) *canvas {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: geom.PageWidth, Ht: geom.PageHeight},
	})
	pdf.SetCellMargin(0)
	pdf.SetMargins(geom.Margin, geom.FrameTop(), geom.Margin)
	pdf.SetAutoPageBreak(false, 0)
	styles.Register(pdf)

	c := &canvas{pdf: pdf, styles: styles, geom: geom, logger: logger}
	c.style = styles.Body
	return c
}

func (c *canvas) setStyle(s Style) {
	c.style = s
	c.pdf.SetFont(s.Family, s.fontStyle(), s.Size)
}

func (c *canvas) saveState() {
	st := drawState{style: c.style, lineWidth: c.pdf.GetLineWidth()}
	st.draw[0], st.draw[1], st.draw[2] = c.pdf.GetDrawColor()
	st.text[0], st.text[1], st.text[2] = c.pdf.GetTextColor()
	c.stack = append(c.stack, st)
}

func (c *canvas) restoreState() {
	if len(c.stack) == 0 {
		return
	}
	st := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.pdf.SetLineWidth(st.lineWidth)
	c.pdf.SetDrawColor(st.draw[0], st.draw[1], st.draw[2])
	c.pdf.SetTextColor(st.text[0], st.text[1], st.text[2])
	if st.style.Family != "" {
		c.setStyle(st.style)
	}
}

// segment is a measured piece of a wrapped line, already in the
// encoding the active fonts expect.
type segment struct {
	text  string
	bold  bool
	width float64
}

type textLine struct {
	segs  []segment
	width float64
}

func (c *canvas) measure(encoded string, style Style, bold bool) float64 {
	c.setStyle(style.WithBold(style.Bold || bold))
	return c.pdf.GetStringWidth(encoded)
}

// wrapRuns breaks runs into lines no wider than width. Runs of a single
// weight go through the layout engine's line splitter; mixed weights are
// wrapped word by word and each line keeps one segment per weight change.
func (c *canvas) wrapRuns(runs []Run, style Style, width float64) []textLine {
	if bold, ok := uniformWeight(runs); ok {
		var b strings.Builder
		for _, r := range runs {
			b.WriteString(r.Text)
		}
		return c.splitLines(b.String(), style, bold, width)
	}
	return c.wrapMixed(runs, style, width)
}

func uniformWeight(runs []Run) (bold, ok bool) {
	for i, r := range runs {
		if i > 0 && r.Bold != runs[0].Bold {
			return false, false
		}
	}
	return len(runs) > 0 && runs[0].Bold, true
}

// splitLines wraps text in one weight. Embedded fonts are split by rune,
// the cp1252 core fonts by byte. Words longer than width are split by
// character.
func (c *canvas) splitLines(text string, style Style, bold bool, width float64) []textLine {
	c.setStyle(style.WithBold(style.Bold || bold))
	encoded := c.styles.Text(text)

	var parts []string
	if c.styles.Embedded() {
		parts = c.pdf.SplitText(encoded, width)
	} else {
		for _, p := range c.pdf.SplitLines([]byte(encoded), width) {
			parts = append(parts, string(p))
		}
	}
	if len(parts) == 0 {
		parts = []string{""}
	}

	lines := make([]textLine, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimRight(p, " ")
		w := c.pdf.GetStringWidth(p)
		lines = append(lines, textLine{segs: []segment{{text: p, bold: bold, width: w}}, width: w})
	}
	return lines
}

func (c *canvas) wrapMixed(runs []Run, style Style, width float64) []textLine {
	var (
		lines []textLine
		cur   textLine
	)
	flush := func() {
		if n := len(cur.segs); n > 0 {
			last := &cur.segs[n-1]
			trimmed := strings.TrimRight(last.text, " ")
			if trimmed != last.text {
				tw := c.measure(trimmed, style, last.bold)
				cur.width -= last.width - tw
				last.text, last.width = trimmed, tw
			}
		}
		lines = append(lines, cur)
		cur = textLine{}
	}
	push := func(encoded string, bold bool, w float64) {
		if n := len(cur.segs); n > 0 && cur.segs[n-1].bold == bold {
			cur.segs[n-1].text += encoded
			cur.segs[n-1].width += w
		} else {
			cur.segs = append(cur.segs, segment{text: encoded, bold: bold, width: w})
		}
		cur.width += w
	}
	add := func(tok string, bold bool) {
		encoded := c.styles.Text(tok)
		w := c.measure(encoded, style, bold)
		core := c.measure(strings.TrimRight(encoded, " "), style, bold)
		if len(cur.segs) > 0 && cur.width+core > width {
			flush()
		}
		if len(cur.segs) == 0 && core > width {
			for _, piece := range c.splitWord(tok, style, bold, width) {
				if len(cur.segs) > 0 {
					flush()
				}
				encoded := c.styles.Text(piece)
				push(encoded, bold, c.measure(encoded, style, bold))
			}
			return
		}
		push(encoded, bold, w)
	}

	for _, r := range runs {
		for _, tok := range strings.SplitAfter(r.Text, " ") {
			if tok != "" {
				add(tok, r.Bold)
			}
		}
	}
	if len(cur.segs) > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

func (c *canvas) splitWord(word string, style Style, bold bool, width float64) []string {
	var (
		pieces []string
		cur    []rune
	)
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && c.measure(c.styles.Text(string(next)), style, bold) > width {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}

// textHeight is the height of runs wrapped into width.
func (c *canvas) textHeight(runs []Run, style Style, width float64) float64 {
	return float64(len(c.wrapRuns(runs, style, width))) * style.Leading
}

// drawRuns wraps runs into the box starting at (x, y) and returns the
// height used.
func (c *canvas) drawRuns(runs []Run, style Style, x, y, width float64) float64 {
	lines := c.wrapRuns(runs, style, width)
	for i, line := range lines {
		c.drawLine(line, style, x, y+float64(i)*style.Leading, width)
	}
	return float64(len(lines)) * style.Leading
}

// drawLine writes one text object per segment.
func (c *canvas) drawLine(line textLine, style Style, x, y, width float64) {
	if style.Align == AlignCenter {
		x += (width - line.width) / 2
	}
	for _, seg := range line.segs {
		c.setStyle(style.WithBold(style.Bold || seg.bold))
		c.pdf.SetXY(x, y)
		c.pdf.CellFormat(seg.width, style.Leading, seg.text, "", 0, "LM", false, 0, "")
		x += seg.width
	}
}

// drawImage places img at (x, y). When the image data is rejected the
// document error is cleared and returned.
func (c *canvas) drawImage(img LoadedImage, x, y, w, h float64) error {
	c.imageID++
	return c.drawSharedImage(fmt.Sprintf("image-%d", c.imageID), img, x, y, w, h)
}

// drawSharedImage registers img under name on first use and places it.
func (c *canvas) drawSharedImage(name string, img LoadedImage, x, y, w, h float64) error {
	opts := fpdf.ImageOptions{ImageType: img.Type}
	if c.pdf.GetImageInfo(name) == nil {
		c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
		if c.pdf.Err() {
			err := c.pdf.Error()
			c.pdf.ClearError()
			return err
		}
	}
	c.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return nil
}

// drawPlaced draws a single positioned paragraph.
func (c *canvas) drawPlaced(t PlacedText) {
	c.drawRuns([]Run{{Text: t.Text}}, t.Style, t.X, t.Y, t.Width)
}

func (c *canvas) rect(x, y, w, h, lineWidth float64) {
	c.pdf.SetLineWidth(lineWidth)
	c.pdf.SetDrawColor(0, 0, 0)
	c.pdf.Rect(x, y, w, h, "D")
}
