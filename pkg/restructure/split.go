package restructure

import (
	"context"
	"fmt"

	"hyperstack/pkg/hyperstack"
	"hyperstack/pkg/selection"
)

// Split partitions src into one stack per index along axis. Each result has
// size 1 along axis and the source sizes along the other two.
func Split(ctx context.Context, src *hyperstack.Stack, axis hyperstack.Axis, opts Options) ([]*hyperstack.Stack, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("invalid split axis %v", axis)
	}
	indices := make([]int, src.Sizes().Get(axis))
	for i := range indices {
		indices[i] = i
	}
	return splitIndices(ctx, src, axis, indices, opts)
}

// SplitTarget routes a subset of the indices along the split axis to a
// named destination.
type SplitTarget struct {
	Name    string
	Indices selection.Spec

	// Resolve is the resolution policy for Indices, e.g. selection.Ignore
	// to leave out indices the source does not have.
	Resolve selection.Options
}

// SplitTargets splits src along axis and hands each target the single-index
// stacks for its resolved indices, in the order they were resolved.
// A target that resolves to no indices is omitted from the result under
// SkipOnEmpty and fails with ErrEmptySelection otherwise.
func SplitTargets(ctx context.Context, src *hyperstack.Stack, axis hyperstack.Axis, targets []SplitTarget, opts Options) (map[string][]*hyperstack.Stack, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("invalid split axis %v", axis)
	}
	out := make(map[string][]*hyperstack.Stack, len(targets))
	for _, target := range targets {
		if _, dup := out[target.Name]; dup {
			return nil, fmt.Errorf("duplicate split target %q", target.Name)
		}
		ro := target.Resolve
		ro.Variables = selection.VariablesFor(src, hyperstack.Coordinate{})
		indices, err := selection.Resolve(target.Indices, src.Sizes().Get(axis), ro)
		if err != nil {
			return nil, fmt.Errorf("split target %q: %w", target.Name, err)
		}
		if len(indices) == 0 {
			if opts.OnEmpty == SkipOnEmpty {
				continue
			}
			return nil, fmt.Errorf("split target %q: %w", target.Name,
				selection.RequireNonEmpty(axis, target.Indices, indices))
		}
		stacks, err := splitIndices(ctx, src, axis, indices, opts)
		if err != nil {
			return nil, fmt.Errorf("split target %q: %w", target.Name, err)
		}
		out[target.Name] = stacks
	}
	return out, nil
}

func splitIndices(ctx context.Context, src *hyperstack.Stack, axis hyperstack.Axis, indices []int, opts Options) ([]*hyperstack.Stack, error) {
	sizes := src.Sizes().With(axis, 1)
	outs := make([]*hyperstack.Stack, len(indices))
	jobs := make([]planeCopy, 0, len(indices)*sizes.Len())
	for k, index := range indices {
		out, err := allocLike(src, sizes)
		if err != nil {
			return nil, err
		}
		outs[k] = out
		for dst := range hyperstack.Coordinates(sizes, hyperstack.LinearOrder) {
			plane, err := src.PlaneAt(dst.With(axis, index))
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, planeCopy{src: plane, out: out, dst: dst})
		}
	}

	if err := fill(ctx, jobs, opts); err != nil {
		return nil, err
	}
	return outs, nil
}
