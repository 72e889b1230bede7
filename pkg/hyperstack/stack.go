package hyperstack

import (
	"fmt"
	"image"
)

// Stack is a multi-dimensional image buffer: axis sizes plus one plane per
// linear index. All planes share width, height and pixel type.
//
// A Stack returned by an operation is complete and should be treated as
// read-only. Stacks built with New are filled with SetPlane, once per
// coordinate, before being handed on.
type Stack struct {
	sizes     Sizes
	width     int
	height    int
	pixelType string

	// planes[i] holds linear index i+1
	planes []image.Image
}

// New allocates an empty stack for planes of the given size and pixel type
// (as reported by PixelType; empty accepts any type). Every plane slot must
// be filled with SetPlane before the stack is used.
func New(sizes Sizes, width, height int, pixelType string) (*Stack, error) {
	if err := sizes.Validate(); err != nil {
		return nil, err
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: plane size %dx%d", ErrSizeMismatch, width, height)
	}
	return &Stack{
		sizes:     sizes,
		width:     width,
		height:    height,
		pixelType: pixelType,
		planes:    make([]image.Image, sizes.Len()),
	}, nil
}

// FromPlanes wraps planes, given in linear order, as a stack with the given
// sizes. The planes are not copied.
func FromPlanes(sizes Sizes, planes []image.Image) (*Stack, error) {
	if err := sizes.Validate(); err != nil {
		return nil, err
	}
	if len(planes) != sizes.Len() {
		return nil, fmt.Errorf("%w: %d planes given for sizes %v (need %d)",
			ErrSizeMismatch, len(planes), sizes, sizes.Len())
	}
	if planes[0] == nil {
		return nil, fmt.Errorf("%w: plane 1 is nil", ErrSizeMismatch)
	}
	b := planes[0].Bounds()
	s, err := New(sizes, b.Dx(), b.Dy(), PixelType(planes[0]))
	if err != nil {
		return nil, err
	}
	for i, p := range planes {
		if err := s.checkPlane(p); err != nil {
			return nil, fmt.Errorf("plane %d: %w", i+1, err)
		}
		s.planes[i] = p
	}
	return s, nil
}

// Single wraps a 2D image as a (1, 1, 1) stack.
func Single(img image.Image) (*Stack, error) {
	return FromPlanes(Sizes{1, 1, 1}, []image.Image{img})
}

func (s *Stack) Sizes() Sizes { return s.sizes }
func (s *Stack) Width() int   { return s.width }
func (s *Stack) Height() int  { return s.height }
func (s *Stack) Len() int     { return len(s.planes) }

// PixelType names the concrete image type of the stack's planes.
func (s *Stack) PixelType() string { return s.pixelType }

// Plane returns the plane at the one-based linear index i.
func (s *Stack) Plane(i int) (image.Image, error) {
	if i < 1 || i > len(s.planes) {
		return nil, fmt.Errorf("%w: linear index %d outside [1, %d]", ErrOutOfRange, i, len(s.planes))
	}
	return s.planes[i-1], nil
}

// PlaneAt returns the plane at coordinate c.
func (s *Stack) PlaneAt(c Coordinate) (image.Image, error) {
	i, err := s.sizes.ToLinearIndex(c)
	if err != nil {
		return nil, err
	}
	return s.planes[i-1], nil
}

// SetPlane stores img at coordinate c. The plane must match the stack's
// width, height and pixel type. Distinct coordinates may be set from
// different goroutines.
func (s *Stack) SetPlane(c Coordinate, img image.Image) error {
	i, err := s.sizes.ToLinearIndex(c)
	if err != nil {
		return err
	}
	if err := s.checkPlane(img); err != nil {
		return fmt.Errorf("plane %v: %w", c, err)
	}
	s.planes[i-1] = img
	return nil
}

// Planes returns the planes in linear order. The returned slice is a copy;
// the images are shared.
func (s *Stack) Planes() []image.Image {
	out := make([]image.Image, len(s.planes))
	copy(out, s.planes)
	return out
}

// Complete returns an error naming the first unset plane, if any.
func (s *Stack) Complete() error {
	for i, p := range s.planes {
		if p == nil {
			c, _ := s.sizes.FromLinearIndex(i + 1)
			return fmt.Errorf("%w: plane %v was never written", ErrEmptyResult, c)
		}
	}
	return nil
}

func (s *Stack) checkPlane(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil plane", ErrSizeMismatch)
	}
	b := img.Bounds()
	if b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("%w: plane is %dx%d, stack is %dx%d",
			ErrSizeMismatch, b.Dx(), b.Dy(), s.width, s.height)
	}
	if s.pixelType != "" && s.pixelType != PixelType(img) {
		return fmt.Errorf("%w: pixel type %s, stack holds %s", ErrSizeMismatch, PixelType(img), s.pixelType)
	}
	return nil
}

// SameGeometry checks that two stacks hold planes of equal width, height
// and pixel type. Axis sizes are not compared.
func SameGeometry(a, b *Stack) error {
	if a.width != b.width || a.height != b.height {
		return fmt.Errorf("%w: planes are %dx%d and %dx%d",
			ErrSizeMismatch, a.width, a.height, b.width, b.height)
	}
	if pa, pb := a.PixelType(), b.PixelType(); pa != pb {
		return fmt.Errorf("%w: pixel types %s and %s", ErrSizeMismatch, pa, pb)
	}
	return nil
}

// PixelType names the concrete Go type of img, e.g. "*image.Gray16".
func PixelType(img image.Image) string {
	return fmt.Sprintf("%T", img)
}
