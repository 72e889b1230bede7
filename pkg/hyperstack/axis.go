// Package hyperstack provides the addressing model for multi-dimensional
// image buffers: three logical axes (channel, depth, time) beyond width and
// height, backed by a single linear sequence of 2D planes.
//
// The linear plane index is one-based and channel varies fastest, then depth,
// then time:
//
//	index = c + z*C + t*C*Z + 1
//
// which is a bijection between the coordinate box and 1..C*Z*T.
package hyperstack

import (
	"fmt"
	"math"
	"strings"
)

// Axis is one of the three logical dimensions of a hyperstack.
type Axis int

const (
	// Channel is the C axis
	Channel Axis = iota
	// Depth is the Z axis (ImageJ calls it "slices")
	Depth
	// Time is the T axis (frames)
	Time
)

// Axes lists all axes in canonical order.
var Axes = [3]Axis{Channel, Depth, Time}

func (a Axis) String() string {
	switch a {
	case Channel:
		return "C"
	case Depth:
		return "Z"
	case Time:
		return "T"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Valid reports whether a is one of Channel, Depth or Time.
func (a Axis) Valid() bool {
	return a >= Channel && a <= Time
}

// ParseAxis parses an axis name. It accepts the single letters c, z, t and
// the long forms channel, depth, slice, time and frame (case-insensitive).
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "channel", "channels":
		return Channel, nil
	case "z", "depth", "slice", "slices":
		return Depth, nil
	case "t", "time", "frame", "frames":
		return Time, nil
	}
	return 0, fmt.Errorf("invalid axis: %q (must be c, z or t)", s)
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseAxis.
func (a *Axis) UnmarshalText(text []byte) error {
	v, err := ParseAxis(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Axis) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid axis %d", int(a))
	}
	return []byte(strings.ToLower(a.String())), nil
}

// Sizes holds the extent of a hyperstack along each axis. A plain 2D image
// has Sizes{1, 1, 1}.
type Sizes struct {
	C, Z, T int
}

// NewSizes returns validated axis sizes.
func NewSizes(c, z, t int) (Sizes, error) {
	s := Sizes{C: c, Z: z, T: t}
	if err := s.Validate(); err != nil {
		return Sizes{}, err
	}
	return s, nil
}

// Validate checks that every axis has at least one element and that the
// total plane count fits in an int.
func (s Sizes) Validate() error {
	for _, a := range Axes {
		if n := s.Get(a); n < 1 {
			return fmt.Errorf("%w: %s has size %d, must be at least 1", ErrInvalidAxisSize, a, n)
		}
	}
	if s.C > math.MaxInt/s.Z || s.C*s.Z > math.MaxInt/s.T {
		return fmt.Errorf("%w: %v planes overflow", ErrAllocationFailure, s)
	}
	return nil
}

// Len returns the number of planes, C*Z*T.
func (s Sizes) Len() int {
	return s.C * s.Z * s.T
}

// Get returns the size along a.
func (s Sizes) Get(a Axis) int {
	switch a {
	case Channel:
		return s.C
	case Depth:
		return s.Z
	case Time:
		return s.T
	}
	panic(fmt.Sprintf("hyperstack: invalid axis %d", int(a)))
}

// With returns a copy of s with the size along a replaced by n.
func (s Sizes) With(a Axis, n int) Sizes {
	switch a {
	case Channel:
		s.C = n
	case Depth:
		s.Z = n
	case Time:
		s.T = n
	default:
		panic(fmt.Sprintf("hyperstack: invalid axis %d", int(a)))
	}
	return s
}

// Contains reports whether c lies inside the box described by s.
func (s Sizes) Contains(c Coordinate) bool {
	return c.C >= 0 && c.C < s.C &&
		c.Z >= 0 && c.Z < s.Z &&
		c.T >= 0 && c.T < s.T
}

// ToLinearIndex maps a zero-based coordinate onto its one-based position in
// the backing plane sequence.
func (s Sizes) ToLinearIndex(c Coordinate) (int, error) {
	if !s.Contains(c) {
		return 0, fmt.Errorf("%w: coordinate %v outside sizes %v", ErrOutOfRange, c, s)
	}
	return c.C + c.Z*s.C + c.T*s.C*s.Z + 1, nil
}

// FromLinearIndex is the inverse of ToLinearIndex.
func (s Sizes) FromLinearIndex(i int) (Coordinate, error) {
	if i < 1 || i > s.Len() {
		return Coordinate{}, fmt.Errorf("%w: linear index %d outside [1, %d]", ErrOutOfRange, i, s.Len())
	}
	i--
	return Coordinate{
		C: i % s.C,
		Z: (i / s.C) % s.Z,
		T: i / (s.C * s.Z),
	}, nil
}

func (s Sizes) String() string {
	return fmt.Sprintf("(c=%d, z=%d, t=%d)", s.C, s.Z, s.T)
}

// Coordinate is a zero-based (c, z, t) plane position.
type Coordinate struct {
	C, Z, T int
}

// Get returns the component along a.
func (c Coordinate) Get(a Axis) int {
	switch a {
	case Channel:
		return c.C
	case Depth:
		return c.Z
	case Time:
		return c.T
	}
	panic(fmt.Sprintf("hyperstack: invalid axis %d", int(a)))
}

// With returns a copy of c with the component along a replaced by v.
func (c Coordinate) With(a Axis, v int) Coordinate {
	switch a {
	case Channel:
		c.C = v
	case Depth:
		c.Z = v
	case Time:
		c.T = v
	default:
		panic(fmt.Sprintf("hyperstack: invalid axis %d", int(a)))
	}
	return c
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(c=%d, z=%d, t=%d)", c.C, c.Z, c.T)
}
