package restructure

import (
	"context"
	"fmt"
	"slices"

	"hyperstack/pkg/hyperstack"
	"hyperstack/pkg/selection"
)

// SliceRequest selects planes along each axis.
type SliceRequest struct {
	C, Z, T selection.Spec

	// Resolve holds the bounds policy, dedupe/sort flags and evaluator used
	// for all three specs. Its Variables are filled in per evaluation.
	Resolve selection.Options

	// IterateOver lists the axes along which ReduceEach re-evaluates the
	// specs once per source index. Reduce ignores it.
	IterateOver []hyperstack.Axis

	// RemoveDuplicates makes ReduceEach drop index sets it has already
	// produced.
	RemoveDuplicates bool
}

// Selection is a resolved SliceRequest: the source indices that make up
// each output axis.
type Selection struct {
	C, Z, T []int
}

func (s Selection) get(a hyperstack.Axis) []int {
	switch a {
	case hyperstack.Channel:
		return s.C
	case hyperstack.Depth:
		return s.Z
	}
	return s.T
}

func (s Selection) equal(o Selection) bool {
	return slices.Equal(s.C, o.C) && slices.Equal(s.Z, o.Z) && slices.Equal(s.T, o.T)
}

// Sizes returns the axis sizes of the stack the selection produces.
func (s Selection) Sizes() hyperstack.Sizes {
	return hyperstack.Sizes{C: len(s.C), Z: len(s.Z), T: len(s.T)}
}

// Slice is one output of ReduceEach.
type Slice struct {
	Stack *hyperstack.Stack

	// At is the source coordinate the specs were evaluated for.
	At hyperstack.Coordinate

	Selection Selection
}

// Reduce builds a stack from the planes selected by req, evaluating
// computed specs at the origin. Output coordinate (ci, zi, ti) holds a copy
// of source plane (C[ci], Z[zi], T[ti]).
//
// If an axis resolves to no indices, Reduce fails with ErrEmptyResult, or
// returns a nil stack and nil error under SkipOnEmpty.
func Reduce(ctx context.Context, src *hyperstack.Stack, req SliceRequest, opts Options) (*hyperstack.Stack, error) {
	sel, err := resolveRequest(src, req, hyperstack.Coordinate{})
	if err != nil {
		return nil, err
	}
	if err := checkSelection(sel); err != nil {
		if opts.OnEmpty == SkipOnEmpty {
			return nil, nil
		}
		return nil, err
	}
	return buildSelection(ctx, src, sel, opts)
}

// ReduceEach evaluates req once per source index along the axes in
// req.IterateOver (other axes stay at 0) and builds one stack per
// evaluation. Evaluations visit Z outermost, then C, then T. Empty
// selections are skipped under SkipOnEmpty and fail otherwise.
func ReduceEach(ctx context.Context, src *hyperstack.Stack, req SliceRequest, opts Options) ([]Slice, error) {
	bounds := hyperstack.Sizes{C: 1, Z: 1, T: 1}
	for _, a := range req.IterateOver {
		if !a.Valid() {
			return nil, fmt.Errorf("invalid iteration axis %v", a)
		}
		bounds = bounds.With(a, src.Sizes().Get(a))
	}

	var selections []Slice
	for at := range hyperstack.Coordinates(bounds, hyperstack.DepthMajorOrder) {
		sel, err := resolveRequest(src, req, at)
		if err != nil {
			return nil, fmt.Errorf("at %v: %w", at, err)
		}
		if req.RemoveDuplicates && slices.ContainsFunc(selections, func(s Slice) bool { return s.Selection.equal(sel) }) {
			continue
		}
		if err := checkSelection(sel); err != nil {
			if opts.OnEmpty == SkipOnEmpty {
				continue
			}
			return nil, fmt.Errorf("at %v: %w", at, err)
		}
		selections = append(selections, Slice{At: at, Selection: sel})
	}

	for i := range selections {
		out, err := buildSelection(ctx, src, selections[i].Selection, opts)
		if err != nil {
			return nil, err
		}
		selections[i].Stack = out
	}
	return selections, nil
}

func resolveRequest(src *hyperstack.Stack, req SliceRequest, at hyperstack.Coordinate) (Selection, error) {
	ro := req.Resolve
	ro.Variables = selection.VariablesFor(src, at)

	var sel Selection
	var err error
	if sel.C, err = selection.Resolve(req.C, src.Sizes().C, ro); err != nil {
		return Selection{}, fmt.Errorf("axis C: %w", err)
	}
	if sel.Z, err = selection.Resolve(req.Z, src.Sizes().Z, ro); err != nil {
		return Selection{}, fmt.Errorf("axis Z: %w", err)
	}
	if sel.T, err = selection.Resolve(req.T, src.Sizes().T, ro); err != nil {
		return Selection{}, fmt.Errorf("axis T: %w", err)
	}
	return sel, nil
}

func checkSelection(sel Selection) error {
	for _, a := range hyperstack.Axes {
		if len(sel.get(a)) == 0 {
			return fmt.Errorf("%w: axis %v selects no planes", hyperstack.ErrEmptyResult, a)
		}
	}
	return nil
}

func buildSelection(ctx context.Context, src *hyperstack.Stack, sel Selection, opts Options) (*hyperstack.Stack, error) {
	out, err := allocLike(src, sel.Sizes())
	if err != nil {
		return nil, err
	}
	jobs := make([]planeCopy, 0, out.Len())
	for dst := range hyperstack.Coordinates(out.Sizes(), hyperstack.LinearOrder) {
		from := hyperstack.Coordinate{C: sel.C[dst.C], Z: sel.Z[dst.Z], T: sel.T[dst.T]}
		plane, err := src.PlaneAt(from)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, planeCopy{src: plane, out: out, dst: dst})
	}
	if err := fill(ctx, jobs, opts); err != nil {
		return nil, err
	}
	return out, nil
}
