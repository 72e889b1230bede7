package restructure

import (
	"context"
	"fmt"

	"hyperstack/pkg/hyperstack"
)

// Merge concatenates inputs along axis. The inputs must agree on the sizes
// of the other two axes and on plane geometry. Plane (c, z, t) of input k
// lands at the same coordinate shifted along axis by the summed axis sizes
// of inputs 0..k-1.
func Merge(ctx context.Context, axis hyperstack.Axis, inputs []*hyperstack.Stack, opts Options) (*hyperstack.Stack, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("invalid merge axis %v", axis)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: nothing to merge", hyperstack.ErrEmptySelection)
	}
	if err := checkComplete(inputs...); err != nil {
		return nil, err
	}

	first := inputs[0]
	total := 0
	for k, in := range inputs {
		if err := hyperstack.SameGeometry(first, in); err != nil {
			return nil, fmt.Errorf("merge input %d: %w", k, err)
		}
		for _, a := range hyperstack.Axes {
			if a == axis {
				continue
			}
			if got, want := in.Sizes().Get(a), first.Sizes().Get(a); got != want {
				return nil, fmt.Errorf("%w: merge input %d has %v=%d, input 0 has %d",
					hyperstack.ErrAxisSizeMismatch, k, a, got, want)
			}
		}
		total += in.Sizes().Get(axis)
	}

	out, err := allocLike(first, first.Sizes().With(axis, total))
	if err != nil {
		return nil, err
	}
	jobs := make([]planeCopy, 0, out.Len())
	offset := 0
	for _, in := range inputs {
		for at, plane := range in.All(hyperstack.LinearOrder) {
			dst := at.With(axis, at.Get(axis)+offset)
			jobs = append(jobs, planeCopy{src: plane, out: out, dst: dst})
		}
		offset += in.Sizes().Get(axis)
	}
	if err := fill(ctx, jobs, opts); err != nil {
		return nil, err
	}
	return out, nil
}
