package montage

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"hyperstack/pkg/hyperstack"
)

// DecomposeOptions controls Decompose.
type DecomposeOptions struct {
	// TileWidth and TileHeight set the size of the cut tiles. Zero derives
	// it from the canvas: (canvas - (n-1)*border) / n, rounded down.
	TileWidth, TileHeight int
}

// Decompose cuts canvas into rows*columns tiles at the positions Compose
// would have drawn them, row by row. Tiles that would extend past the canvas
// are left out, so fewer than rows*columns tiles may be returned.
func Decompose(canvas image.Image, rows, columns, border int, opts DecomposeOptions) ([]image.Image, error) {
	if rows < 1 || columns < 1 {
		return nil, fmt.Errorf("%w: grid %dx%d", hyperstack.ErrInvalidAxisSize, rows, columns)
	}
	cb := canvas.Bounds()
	w, h := opts.TileWidth, opts.TileHeight
	if w <= 0 {
		w = (cb.Dx() - (columns-1)*border) / columns
	}
	if h <= 0 {
		h = (cb.Dy() - (rows-1)*border) / rows
	}
	layout, err := NewLayout(Grid{Rows: rows, Columns: columns}, w, h, border)
	if err != nil {
		return nil, err
	}

	var tiles []image.Image
	for i := range layout.Cells() {
		cell, err := layout.Cell(i)
		if err != nil {
			return nil, err
		}
		cell = cell.Add(cb.Min)
		if !cell.In(cb) {
			continue
		}
		tile := hyperstack.NewLike(canvas, image.Rect(0, 0, w, h))
		draw.Copy(tile, image.Point{}, canvas, cell, draw.Src, nil)
		tiles = append(tiles, tile)
	}
	return tiles, nil
}
