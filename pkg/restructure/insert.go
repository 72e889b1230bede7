package restructure

import (
	"context"
	"fmt"

	"hyperstack/pkg/hyperstack"
)

// InsertAxis stacks inputs along axis. Every input must have size 1 along
// axis and the same sizes and geometry otherwise; input i becomes index i.
func InsertAxis(ctx context.Context, axis hyperstack.Axis, inputs []*hyperstack.Stack, opts Options) (*hyperstack.Stack, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("invalid axis %v", axis)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs to stack along %v", hyperstack.ErrEmptySelection, axis)
	}
	if err := checkComplete(inputs...); err != nil {
		return nil, err
	}

	first := inputs[0]
	for i, in := range inputs {
		if n := in.Sizes().Get(axis); n != 1 {
			return nil, fmt.Errorf("%w: input %d already has %v=%d", hyperstack.ErrAxisAlreadyPresent, i, axis, n)
		}
		if err := hyperstack.SameGeometry(first, in); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		if in.Sizes() != first.Sizes() {
			return nil, fmt.Errorf("%w: input %d has sizes %v, input 0 has %v",
				hyperstack.ErrSizeMismatch, i, in.Sizes(), first.Sizes())
		}
	}

	out, err := allocLike(first, first.Sizes().With(axis, len(inputs)))
	if err != nil {
		return nil, err
	}
	jobs := make([]planeCopy, 0, out.Len())
	for i, in := range inputs {
		for at, plane := range in.All(hyperstack.LinearOrder) {
			jobs = append(jobs, planeCopy{src: plane, out: out, dst: at.With(axis, i)})
		}
	}
	if err := fill(ctx, jobs, opts); err != nil {
		return nil, err
	}
	return out, nil
}
