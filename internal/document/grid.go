package document

import (
	"errors"
	"io/fs"
	"syscall"
)

// ImageSource loads an image for a grid cell.
type ImageSource interface {
	Load(path string) (LoadedImage, error)
}

// ComposeGrid lays paths into a GridColumns wide grid. Each cell is
// resolved on its own; a missing or unreadable file becomes a placeholder
// and never stops the grid. The last row is padded with blank cells.
// An empty path list yields a one point spacer.
func ComposeGrid(paths []string, src ImageSource, styles StyleSet, labels Labels, geom Geometry) Block {
	if len(paths) == 0 {
		return Spacer{Height: 1}
	}

	colWidth := geom.ColumnWidth()
	grid := GridBlock{
		Columns:    GridColumns,
		ColWidth:   colWidth,
		RowPadding: gridRowPadding,
		Style:      styles.Detail.WithAlign(AlignCenter),
	}

	var row []GridCell
	for _, p := range paths {
		row = append(row, composeCell(p, src, labels, colWidth-imagePadding, ImageMaxHeight))
		if len(row) == GridColumns {
			grid.Rows = append(grid.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		for len(row) < GridColumns {
			row = append(row, GridCell{Kind: CellBlank})
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

// isMissing reports whether err means there is no file at the path,
// including paths whose parent is a regular file.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func composeCell(path string, src ImageSource, labels Labels, maxW, maxH float64) GridCell {
	img, err := src.Load(path)
	switch {
	case isMissing(err):
		return GridCell{Kind: CellMissing, Path: path, Message: labels.FileNotFound}
	case err != nil:
		return GridCell{Kind: CellDecodeError, Path: path, Message: labels.ErrorPrefix + err.Error()}
	}

	w, h := fitProportional(float64(img.Width), float64(img.Height), maxW, maxH)
	return GridCell{Kind: CellImage, Path: path, Image: img, Width: w, Height: h}
}

// fitProportional scales w x h uniformly so that neither bound is
// exceeded. Images smaller than the box are scaled up to touch it.
func fitProportional(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}
