// Package montage lays a sequence of equally sized planes into a single
// canvas on a rows x columns grid, and cuts such a canvas back into tiles.
package montage

import (
	"fmt"
	"image"
	"math"

	"hyperstack/pkg/hyperstack"
)

// Grid is the number of rows and columns of a montage.
type Grid struct {
	Rows, Columns int
}

// Cells returns Rows*Columns.
func (g Grid) Cells() int { return g.Rows * g.Columns }

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Rows, g.Columns)
}

// ComputeGrid picks the grid for n tiles. Rows or columns <= 0 count as not
// given.
//
//	neither given:  columns = max(1, floor(sqrt(n))), rows = ceil(n/columns)
//	columns given:  rows = ceil(n/columns)
//	rows given:     columns = ceil(n/rows)
//	both given:     columns = max(1, floor(sqrt(n))), rows = max(rows, ceil(n/columns))
//
// The last rule keeps every tile on the canvas even if the requested grid
// is too small; the requested column count is not honored in that case.
func ComputeGrid(n, rows, columns int) (Grid, error) {
	if n <= 0 {
		return Grid{}, fmt.Errorf("%w: no tiles to lay out", hyperstack.ErrEmptySelection)
	}
	switch {
	case rows <= 0 && columns <= 0:
		columns = max(1, int(math.Sqrt(float64(n))))
		rows = ceilDiv(n, columns)
	case rows <= 0:
		rows = ceilDiv(n, columns)
	case columns <= 0:
		columns = ceilDiv(n, rows)
	default:
		columns = max(1, int(math.Sqrt(float64(n))))
		rows = max(rows, ceilDiv(n, columns))
	}
	return Grid{Rows: rows, Columns: columns}, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Layout fixes the geometry of a montage: its grid, the size of each tile
// and the gap between neighbouring tiles.
type Layout struct {
	Grid
	TileWidth, TileHeight int
	Border                int
}

// NewLayout validates the geometry.
func NewLayout(g Grid, tileWidth, tileHeight, border int) (Layout, error) {
	if g.Rows < 1 || g.Columns < 1 {
		return Layout{}, fmt.Errorf("%w: grid %v", hyperstack.ErrInvalidAxisSize, g)
	}
	if tileWidth < 1 || tileHeight < 1 {
		return Layout{}, fmt.Errorf("%w: tile size %dx%d", hyperstack.ErrSizeMismatch, tileWidth, tileHeight)
	}
	if border < 0 {
		return Layout{}, fmt.Errorf("negative border %d", border)
	}
	return Layout{Grid: g, TileWidth: tileWidth, TileHeight: tileHeight, Border: border}, nil
}

// CanvasSize returns the size of the composed image. There is no border
// around the outside of the grid.
func (l Layout) CanvasSize() image.Point {
	return image.Point{
		X: l.Columns*l.TileWidth + (l.Columns-1)*l.Border,
		Y: l.Rows*l.TileHeight + (l.Rows-1)*l.Border,
	}
}

// Bounds returns the canvas rectangle anchored at the origin.
func (l Layout) Bounds() image.Rectangle {
	return image.Rectangle{Max: l.CanvasSize()}
}

// Cell returns the rectangle of tile i. Tiles fill the grid row by row.
func (l Layout) Cell(i int) (image.Rectangle, error) {
	if i < 0 || i >= l.Cells() {
		return image.Rectangle{}, fmt.Errorf("%w: tile %d outside grid %v", hyperstack.ErrOutOfRange, i, l.Grid)
	}
	row, col := i/l.Columns, i%l.Columns
	origin := image.Point{X: col * (l.TileWidth + l.Border), Y: row * (l.TileHeight + l.Border)}
	return image.Rectangle{Min: origin, Max: origin.Add(image.Point{X: l.TileWidth, Y: l.TileHeight})}, nil
}
