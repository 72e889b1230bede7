package hyperstack

import (
	"fmt"
	"image"
	"iter"
)

// Order is an explicit loop nesting over the three axes, listed from the
// outermost loop to the innermost one. Any permutation of {C, Z, T} is a
// valid order.
type Order [3]Axis

var (
	// LinearOrder visits planes in backing-sequence order: T outermost, then
	// Z, with C varying fastest.
	LinearOrder = Order{Time, Depth, Channel}

	// DepthMajorOrder visits Z outermost, then C, with T varying fastest.
	DepthMajorOrder = Order{Depth, Channel, Time}
)

// Validate checks that o names every axis exactly once.
func (o Order) Validate() error {
	var seen [3]bool
	for _, a := range o {
		if !a.Valid() {
			return fmt.Errorf("%w: invalid axis %v in order %v", ErrIncompleteOrDuplicateAssignment, a, o)
		}
		if seen[a] {
			return fmt.Errorf("%w: axis %v appears twice in order %v", ErrIncompleteOrDuplicateAssignment, a, o)
		}
		seen[a] = true
	}
	return nil
}

func (o Order) String() string {
	return o[0].String() + o[1].String() + o[2].String()
}

// ParseOrder parses a three-letter nesting such as "TZC" or "zct".
func ParseOrder(s string) (Order, error) {
	if len(s) != 3 {
		return Order{}, fmt.Errorf("%w: order %q must name three axes", ErrIncompleteOrDuplicateAssignment, s)
	}
	var o Order
	for i := range 3 {
		a, err := ParseAxis(s[i : i+1])
		if err != nil {
			return Order{}, err
		}
		o[i] = a
	}
	return o, o.Validate()
}

// Coordinates returns the coordinates of the box described by sizes in the
// nesting given by order. The sequence is lazy and may be ranged over any
// number of times. An invalid order yields nothing.
func Coordinates(sizes Sizes, order Order) iter.Seq[Coordinate] {
	return func(yield func(Coordinate) bool) {
		if order.Validate() != nil || sizes.Validate() != nil {
			return
		}
		outer, middle, inner := order[0], order[1], order[2]
		var c Coordinate
		for i := 0; i < sizes.Get(outer); i++ {
			c = c.With(outer, i)
			for j := 0; j < sizes.Get(middle); j++ {
				c = c.With(middle, j)
				for k := 0; k < sizes.Get(inner); k++ {
					if !yield(c.With(inner, k)) {
						return
					}
				}
			}
		}
	}
}

// All returns the stack's (coordinate, plane) pairs in the given nesting.
// Like Coordinates, the sequence is restartable and does not modify the
// stack. Planes never written with SetPlane come out as nil; check
// Complete first when that matters.
func (s *Stack) All(order Order) iter.Seq2[Coordinate, image.Image] {
	return func(yield func(Coordinate, image.Image) bool) {
		for c := range Coordinates(s.sizes, order) {
			i, _ := s.sizes.ToLinearIndex(c)
			if !yield(c, s.planes[i-1]) {
				return
			}
		}
	}
}
