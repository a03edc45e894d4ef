package pdf

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Reader extracts per-page text from PDF files
type Reader struct {
	maxTextSize int
}

// NewReader creates a reader that stops after maxTextSize bytes of text
func NewReader(maxTextSize int) *Reader {
	return &Reader{
		maxTextSize: maxTextSize,
	}
}

// ReadPages returns the plain text of every page. The second return value
// reports whether the text was cut at the size limit.
func (r *Reader) ReadPages(pdfReader *pdf.Reader) ([]PageText, bool) {
	pages := make([]PageText, 0, pdfReader.NumPage())
	total := 0

	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		text := r.pageText(pdfReader, pageNum)

		if r.maxTextSize > 0 && total+len(text) > r.maxTextSize {
			remaining := r.maxTextSize - total
			if remaining > 0 {
				pages = append(pages, PageText{Number: pageNum, Text: text[:remaining]})
			}
			return pages, true
		}

		pages = append(pages, PageText{Number: pageNum, Text: text})
		total += len(text)
	}

	return pages, false
}

// pageText extracts the text of one page; unreadable pages yield "".
func (r *Reader) pageText(pdfReader *pdf.Reader, pageNum int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := pdfReader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}

// ReadFile opens path and returns its page texts.
func (r *Reader) ReadFile(path string) ([]PageText, bool, error) {
	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages, truncated := r.ReadPages(pdfReader)
	return pages, truncated, nil
}
