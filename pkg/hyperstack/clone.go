package hyperstack

import (
	"image"

	"golang.org/x/image/draw"
)

// NewLike allocates a blank image of the same concrete type as template
// covering r. Types without a drawable constructor in the image package
// (including *image.YCbCr) fall back to *image.RGBA64.
func NewLike(template image.Image, r image.Rectangle) draw.Image {
	switch t := template.(type) {
	case *image.Gray:
		return image.NewGray(r)
	case *image.Gray16:
		return image.NewGray16(r)
	case *image.RGBA:
		return image.NewRGBA(r)
	case *image.RGBA64:
		return image.NewRGBA64(r)
	case *image.NRGBA:
		return image.NewNRGBA(r)
	case *image.NRGBA64:
		return image.NewNRGBA64(r)
	case *image.Alpha:
		return image.NewAlpha(r)
	case *image.Alpha16:
		return image.NewAlpha16(r)
	case *image.CMYK:
		return image.NewCMYK(r)
	case *image.Paletted:
		return image.NewPaletted(r, t.Palette)
	default:
		return image.NewRGBA64(r)
	}
}

// clonedTypes lists the pixel types ClonePlane preserves.
var clonedTypes = map[string]bool{
	"*image.Gray":     true,
	"*image.Gray16":   true,
	"*image.RGBA":     true,
	"*image.RGBA64":   true,
	"*image.NRGBA":    true,
	"*image.NRGBA64":  true,
	"*image.Alpha":    true,
	"*image.Alpha16":  true,
	"*image.CMYK":     true,
	"*image.Paletted": true,
	"*image.YCbCr":    true,
	"*image.NYCbCrA":  true,
}

// ClonedPixelType returns the pixel type of ClonePlane's result for a plane
// of the given pixel type.
func ClonedPixelType(pixelType string) string {
	if pixelType == "" || clonedTypes[pixelType] {
		return pixelType
	}
	return "*image.RGBA64"
}

// ClonePlane returns a deep copy of img anchored at the origin. The copy
// has the concrete type reported by ClonedPixelType.
func ClonePlane(img image.Image) image.Image {
	b := img.Bounds()
	r := image.Rect(0, 0, b.Dx(), b.Dy())
	switch t := img.(type) {
	case *image.YCbCr:
		dst := image.NewYCbCr(r, t.SubsampleRatio)
		copyYCbCr(dst, t)
		return dst
	case *image.NYCbCrA:
		dst := image.NewNYCbCrA(r, t.SubsampleRatio)
		copyYCbCr(&dst.YCbCr, &t.YCbCr)
		for y := 0; y < r.Dy(); y++ {
			for x := 0; x < r.Dx(); x++ {
				dst.A[dst.AOffset(x, y)] = t.A[t.AOffset(b.Min.X+x, b.Min.Y+y)]
			}
		}
		return dst
	}
	dst := NewLike(img, r)
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	return dst
}

// copyYCbCr copies src into dst, which covers src's size at the origin and
// has the same subsample ratio.
func copyYCbCr(dst, src *image.YCbCr) {
	b := src.Rect
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			sx, sy := b.Min.X+x, b.Min.Y+y
			dst.Y[dst.YOffset(x, y)] = src.Y[src.YOffset(sx, sy)]
			ci, si := dst.COffset(x, y), src.COffset(sx, sy)
			dst.Cb[ci] = src.Cb[si]
			dst.Cr[ci] = src.Cr[si]
		}
	}
}
