package montage

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabelPosition places a tile label inside its cell.
type LabelPosition int

const (
	LabelTop LabelPosition = iota
	LabelBottom
)

func (p LabelPosition) String() string {
	if p == LabelBottom {
		return "bottom"
	}
	return "top"
}

// ParseLabelPosition accepts "top" and "bottom" (the empty string is top).
func ParseLabelPosition(s string) (LabelPosition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "top":
		return LabelTop, nil
	case "bottom":
		return LabelBottom, nil
	}
	return 0, fmt.Errorf("invalid label position %q (must be top or bottom)", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *LabelPosition) UnmarshalText(text []byte) error {
	v, err := ParseLabelPosition(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p LabelPosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// TruncateLabel drops characters from the end of label until it is at most
// width pixels wide when drawn with face. It may return the empty string.
func TruncateLabel(face font.Face, label string, width int) string {
	runes := []rune(label)
	limit := fixed.I(width)
	for len(runes) > 0 && font.MeasureString(face, string(runes)) > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// drawLabel writes label centred horizontally at the top or bottom of cell,
// clipped to the cell.
func drawLabel(dst draw.Image, cell image.Rectangle, label string, pos LabelPosition, c color.Color, face font.Face) {
	text := TruncateLabel(face, label, cell.Dx())
	if text == "" {
		return
	}
	if s, ok := dst.(subImager); ok {
		if clipped, ok := s.SubImage(cell).(draw.Image); ok {
			dst = clipped
		}
	}

	m := face.Metrics()
	width := font.MeasureString(face, text).Ceil()
	x := cell.Min.X + (cell.Dx()-width)/2
	y := cell.Min.Y + m.Ascent.Ceil()
	if pos == LabelBottom {
		y = cell.Max.Y - m.Descent.Ceil()
	}

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func defaultFace() font.Face {
	return basicfont.Face7x13
}
