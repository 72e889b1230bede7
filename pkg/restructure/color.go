package restructure

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"hyperstack/internal/parallel"
	"hyperstack/pkg/hyperstack"
)

// SplitRGB separates every plane of src into its red, green and blue
// components, returned as three grey stacks with the sizes of src. Sources
// with 16 bits per channel give *image.Gray16 planes, others *image.Gray.
func SplitRGB(ctx context.Context, src *hyperstack.Stack, opts Options) ([3]*hyperstack.Stack, error) {
	var outs [3]*hyperstack.Stack
	wide := isWide(src.PixelType())
	outType := hyperstack.PixelType(&image.Gray{})
	if wide {
		outType = hyperstack.PixelType(&image.Gray16{})
	}
	for i := range outs {
		out, err := hyperstack.New(src.Sizes(), src.Width(), src.Height(), outType)
		if err != nil {
			return [3]*hyperstack.Stack{}, err
		}
		outs[i] = out
	}

	planes := src.Planes()
	sizes := src.Sizes()
	rect := image.Rect(0, 0, src.Width(), src.Height())
	err := parallel.For(ctx, len(planes), opts.Workers, opts.Progress, func(i int) error {
		at, err := sizes.FromLinearIndex(i + 1)
		if err != nil {
			return err
		}
		p := planes[i]
		b := p.Bounds()
		var channels [3]image.Image
		if wide {
			r, g, bl := image.NewGray16(rect), image.NewGray16(rect), image.NewGray16(rect)
			for y := 0; y < rect.Dy(); y++ {
				for x := 0; x < rect.Dx(); x++ {
					c := color.NRGBA64Model.Convert(p.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
					r.SetGray16(x, y, color.Gray16{Y: c.R})
					g.SetGray16(x, y, color.Gray16{Y: c.G})
					bl.SetGray16(x, y, color.Gray16{Y: c.B})
				}
			}
			channels = [3]image.Image{r, g, bl}
		} else {
			r, g, bl := image.NewGray(rect), image.NewGray(rect), image.NewGray(rect)
			for y := 0; y < rect.Dy(); y++ {
				for x := 0; x < rect.Dx(); x++ {
					c := color.NRGBAModel.Convert(p.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
					r.SetGray(x, y, color.Gray{Y: c.R})
					g.SetGray(x, y, color.Gray{Y: c.G})
					bl.SetGray(x, y, color.Gray{Y: c.B})
				}
			}
			channels = [3]image.Image{r, g, bl}
		}
		for k := range outs {
			if err := outs[k].SetPlane(at, channels[k]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return [3]*hyperstack.Stack{}, err
	}
	return outs, nil
}

// MergeRGB combines three stacks, read as grey, into one colour stack. The
// inputs must have equal sizes and plane dimensions. The output holds
// *image.NRGBA64 planes if any input has 16 bits per channel and
// *image.NRGBA planes otherwise.
func MergeRGB(ctx context.Context, red, green, blue *hyperstack.Stack, opts Options) (*hyperstack.Stack, error) {
	inputs := [3]*hyperstack.Stack{red, green, blue}
	wide := false
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("%w: channel %d is missing", hyperstack.ErrEmptySelection, i)
		}
		if in.Sizes() != red.Sizes() {
			return nil, fmt.Errorf("%w: channel %d has sizes %v, red has %v",
				hyperstack.ErrSizeMismatch, i, in.Sizes(), red.Sizes())
		}
		if in.Width() != red.Width() || in.Height() != red.Height() {
			return nil, fmt.Errorf("%w: channel %d planes are %dx%d, red planes are %dx%d",
				hyperstack.ErrSizeMismatch, i, in.Width(), in.Height(), red.Width(), red.Height())
		}
		wide = wide || isWide(in.PixelType())
	}

	outType := hyperstack.PixelType(&image.NRGBA{})
	if wide {
		outType = hyperstack.PixelType(&image.NRGBA64{})
	}
	out, err := hyperstack.New(red.Sizes(), red.Width(), red.Height(), outType)
	if err != nil {
		return nil, err
	}

	sizes := red.Sizes()
	rect := image.Rect(0, 0, red.Width(), red.Height())
	err = parallel.For(ctx, sizes.Len(), opts.Workers, opts.Progress, func(i int) error {
		var planes [3]image.Image
		for k, in := range inputs {
			p, err := in.Plane(i + 1)
			if err != nil {
				return err
			}
			planes[k] = p
		}
		at, err := sizes.FromLinearIndex(i + 1)
		if err != nil {
			return err
		}

		grey := func(k, x, y int) uint16 {
			b := planes[k].Bounds()
			return color.Gray16Model.Convert(planes[k].At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y
		}
		var plane image.Image
		if wide {
			img := image.NewNRGBA64(rect)
			for y := 0; y < rect.Dy(); y++ {
				for x := 0; x < rect.Dx(); x++ {
					img.SetNRGBA64(x, y, color.NRGBA64{R: grey(0, x, y), G: grey(1, x, y), B: grey(2, x, y), A: 0xffff})
				}
			}
			plane = img
		} else {
			img := image.NewNRGBA(rect)
			for y := 0; y < rect.Dy(); y++ {
				for x := 0; x < rect.Dx(); x++ {
					img.SetNRGBA(x, y, color.NRGBA{
						R: uint8(grey(0, x, y) >> 8),
						G: uint8(grey(1, x, y) >> 8),
						B: uint8(grey(2, x, y) >> 8),
						A: 0xff,
					})
				}
			}
			plane = img
		}
		return out.SetPlane(at, plane)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
