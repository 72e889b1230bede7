package restructure

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"hyperstack/internal/parallel"
	"hyperstack/pkg/hyperstack"
)

// Projection is a per-pixel reduction along one axis.
type Projection int

const (
	MaxProjection Projection = iota
	MinProjection
	MeanProjection
	MedianProjection
	SumProjection
	StdDevProjection
)

var projectionNames = map[Projection]string{
	MaxProjection:    "max",
	MinProjection:    "min",
	MeanProjection:   "mean",
	MedianProjection: "median",
	SumProjection:    "sum",
	StdDevProjection: "stddev",
}

func (p Projection) String() string {
	if s, ok := projectionNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Projection(%d)", int(p))
}

// ParseProjection parses a projection method name.
func ParseProjection(s string) (Projection, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "average", "avg":
		return MeanProjection, nil
	case "sd", "std":
		return StdDevProjection, nil
	}
	for p, name := range projectionNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid projection %q (must be max, min, mean, median, sum or stddev)", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Projection) UnmarshalText(text []byte) error {
	v, err := ParseProjection(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Projection) reduce(values, scratch []float64) float64 {
	switch p {
	case MaxProjection:
		return floats.Max(values)
	case MinProjection:
		return floats.Min(values)
	case MeanProjection:
		return stat.Mean(values, nil)
	case MedianProjection:
		copy(scratch, values)
		sort.Float64s(scratch)
		return stat.Quantile(0.5, stat.Empirical, scratch, nil)
	case SumProjection:
		return floats.Sum(values)
	case StdDevProjection:
		if len(values) < 2 {
			return 0
		}
		return stat.StdDev(values, nil)
	}
	panic(fmt.Sprintf("restructure: invalid projection %d", int(p)))
}

// Project collapses axis of src to size 1, combining the planes along it
// pixel by pixel. Pixels are read as 16-bit luminance. The output holds
// *image.Gray16 planes if the source has 16 bits per channel and
// *image.Gray planes otherwise; results are rounded and clamped to the
// output range.
func Project(ctx context.Context, src *hyperstack.Stack, axis hyperstack.Axis, method Projection, opts Options) (*hyperstack.Stack, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("invalid projection axis %v", axis)
	}
	if _, ok := projectionNames[method]; !ok {
		return nil, fmt.Errorf("invalid projection %v", method)
	}

	wide := isWide(src.PixelType())
	sizes := src.Sizes().With(axis, 1)
	outType := hyperstack.PixelType(&image.Gray{})
	if wide {
		outType = hyperstack.PixelType(&image.Gray16{})
	}
	out, err := hyperstack.New(sizes, src.Width(), src.Height(), outType)
	if err != nil {
		return nil, err
	}

	var targets []hyperstack.Coordinate
	for at := range hyperstack.Coordinates(sizes, hyperstack.LinearOrder) {
		targets = append(targets, at)
	}
	depth := src.Sizes().Get(axis)

	err = parallel.For(ctx, len(targets), opts.Workers, opts.Progress, func(i int) error {
		at := targets[i]
		planes := make([]image.Image, depth)
		for k := range planes {
			p, err := src.PlaneAt(at.With(axis, k))
			if err != nil {
				return err
			}
			planes[k] = p
		}
		plane := projectPlanes(planes, src.Width(), src.Height(), method, wide)
		return out.SetPlane(at, plane)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func projectPlanes(planes []image.Image, width, height int, method Projection, wide bool) image.Image {
	rect := image.Rect(0, 0, width, height)
	var g8 *image.Gray
	var g16 *image.Gray16
	if wide {
		g16 = image.NewGray16(rect)
	} else {
		g8 = image.NewGray(rect)
	}

	values := make([]float64, len(planes))
	scratch := make([]float64, len(planes))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for k, p := range planes {
				b := p.Bounds()
				values[k] = float64(color.Gray16Model.Convert(p.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y)
			}
			v := method.reduce(values, scratch)
			if wide {
				g16.SetGray16(x, y, color.Gray16{Y: uint16(clampRound(v, math.MaxUint16))})
			} else {
				g8.SetGray(x, y, color.Gray{Y: uint8(clampRound(v/257, math.MaxUint8))})
			}
		}
	}
	if wide {
		return g16
	}
	return g8
}

func clampRound(v, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(math.Round(v), 0), hi)
}

func isWide(pixelType string) bool {
	switch pixelType {
	case hyperstack.PixelType(&image.Gray16{}),
		hyperstack.PixelType(&image.RGBA64{}),
		hyperstack.PixelType(&image.NRGBA64{}),
		hyperstack.PixelType(&image.Alpha16{}):
		return true
	}
	return false
}
