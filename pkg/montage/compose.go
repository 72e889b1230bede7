package montage

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"hyperstack/pkg/hyperstack"
)

// Tile is one cell of a montage. A nil Image leaves the cell as background.
type Tile struct {
	Image image.Image
	Label string
}

// ComposeOptions controls Compose. The zero value lays equally sized tiles
// on a near-square grid without borders or labels.
type ComposeOptions struct {
	// Rows and Columns request a grid shape; see ComputeGrid.
	Rows, Columns int

	// Border is the gap in pixels between neighbouring tiles.
	Border int

	// TileWidth and TileHeight set the cell size. Tiles of another size are
	// scaled to it. If only one is given, the other keeps the aspect ratio
	// of the first tile.
	TileWidth, TileHeight int

	// Scale multiplies the size of the first tile to get the cell size when
	// no tile size is given. 0 and 1 mean no scaling.
	Scale float64

	// Scaler resamples tiles whose size differs from the cell size.
	// Defaults to draw.BiLinear.
	Scaler draw.Scaler

	// Background fills the canvas before tiles are drawn. Defaults to black.
	Background color.Color

	DrawLabels    bool
	LabelPosition LabelPosition

	// LabelColor defaults to white.
	LabelColor color.Color

	// Face defaults to basicfont.Face7x13.
	Face font.Face
}

func (o ComposeOptions) withDefaults() ComposeOptions {
	if o.Scaler == nil {
		o.Scaler = draw.BiLinear
	}
	if o.Background == nil {
		o.Background = color.Black
	}
	if o.LabelColor == nil {
		o.LabelColor = color.White
	}
	if o.Face == nil {
		o.Face = defaultFace()
	}
	return o
}

// Compose lays tiles on a grid, row by row, and returns the canvas together
// with the layout used. Without a tile size or scale factor every tile must
// have the same size. The canvas has the pixel type of the tiles if they all
// share one and is *image.RGBA64 otherwise.
func Compose(tiles []Tile, opts ComposeOptions) (image.Image, Layout, error) {
	layout, err := PlanLayout(tiles, opts)
	if err != nil {
		return nil, Layout{}, err
	}
	canvas := hyperstack.NewLike(canvasTemplate(tiles), layout.Bounds())
	if err := ComposeInto(canvas, layout, tiles, opts); err != nil {
		return nil, Layout{}, err
	}
	return canvas, layout, nil
}

// PlanLayout computes the layout Compose would use for tiles.
func PlanLayout(tiles []Tile, opts ComposeOptions) (Layout, error) {
	grid, err := ComputeGrid(len(tiles), opts.Rows, opts.Columns)
	if err != nil {
		return Layout{}, err
	}
	w, h, err := tileSize(tiles, opts)
	if err != nil {
		return Layout{}, err
	}
	return NewLayout(grid, w, h, opts.Border)
}

// ComposeInto draws tiles onto canvas following layout. canvas must cover
// layout.Bounds().
func ComposeInto(canvas draw.Image, layout Layout, tiles []Tile, opts ComposeOptions) error {
	opts = opts.withDefaults()
	if !layout.Bounds().In(canvas.Bounds()) {
		return fmt.Errorf("%w: canvas %v does not cover layout %v",
			hyperstack.ErrSizeMismatch, canvas.Bounds(), layout.Bounds())
	}
	if len(tiles) > layout.Cells() {
		return fmt.Errorf("%w: %d tiles for %d cells", hyperstack.ErrOutOfRange, len(tiles), layout.Cells())
	}

	draw.Draw(canvas, layout.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	for i, tile := range tiles {
		cell, err := layout.Cell(i)
		if err != nil {
			return err
		}
		if tile.Image != nil {
			b := tile.Image.Bounds()
			if b.Dx() == cell.Dx() && b.Dy() == cell.Dy() {
				draw.Copy(canvas, cell.Min, tile.Image, b, draw.Src, nil)
			} else {
				opts.Scaler.Scale(canvas, cell, tile.Image, b, draw.Src, nil)
			}
		}
		if opts.DrawLabels && tile.Label != "" {
			drawLabel(canvas, cell, tile.Label, opts.LabelPosition, opts.LabelColor, opts.Face)
		}
	}
	return nil
}

func tileSize(tiles []Tile, opts ComposeOptions) (int, int, error) {
	first := firstImage(tiles)
	if first == nil {
		if opts.TileWidth > 0 && opts.TileHeight > 0 {
			return opts.TileWidth, opts.TileHeight, nil
		}
		return 0, 0, fmt.Errorf("%w: no tile has an image", hyperstack.ErrEmptySelection)
	}
	fb := first.Bounds()

	switch {
	case opts.TileWidth > 0 && opts.TileHeight > 0:
		return opts.TileWidth, opts.TileHeight, nil
	case opts.TileWidth > 0:
		return opts.TileWidth, max(1, int(math.Round(float64(opts.TileWidth)*float64(fb.Dy())/float64(fb.Dx())))), nil
	case opts.TileHeight > 0:
		return max(1, int(math.Round(float64(opts.TileHeight)*float64(fb.Dx())/float64(fb.Dy())))), opts.TileHeight, nil
	case opts.Scale > 0 && opts.Scale != 1:
		return max(1, int(math.Round(float64(fb.Dx())*opts.Scale))),
			max(1, int(math.Round(float64(fb.Dy())*opts.Scale))), nil
	}

	for i, tile := range tiles {
		if tile.Image == nil {
			continue
		}
		b := tile.Image.Bounds()
		if b.Dx() != fb.Dx() || b.Dy() != fb.Dy() {
			return 0, 0, fmt.Errorf("%w: tile %d is %dx%d, first tile is %dx%d",
				hyperstack.ErrSizeMismatch, i, b.Dx(), b.Dy(), fb.Dx(), fb.Dy())
		}
	}
	return fb.Dx(), fb.Dy(), nil
}

func firstImage(tiles []Tile) image.Image {
	for _, t := range tiles {
		if t.Image != nil {
			return t.Image
		}
	}
	return nil
}

// canvasTemplate returns an image whose type the canvas should copy.
func canvasTemplate(tiles []Tile) image.Image {
	first := firstImage(tiles)
	if first == nil {
		return &image.RGBA64{}
	}
	want := hyperstack.PixelType(first)
	for _, t := range tiles {
		if t.Image != nil && hyperstack.PixelType(t.Image) != want {
			return &image.RGBA64{}
		}
	}
	return first
}
