// Package restructure builds new hyperstacks out of existing ones: reducing
// to a selection of planes, splitting and merging along an axis, relabeling
// axes, stacking a batch of inputs along a new axis and collapsing an axis
// by projection.
//
// Every function is pure: inputs are only read, and the returned stacks are
// freshly allocated with each plane written exactly once. Plane copies run
// in parallel; the context is checked between planes.
package restructure

import (
	"context"
	"fmt"
	"image"
	"strings"

	"hyperstack/internal/parallel"
	"hyperstack/pkg/hyperstack"
)

// EmptyPolicy decides what an operation does when a selection comes out
// empty.
type EmptyPolicy int

const (
	// FailOnEmpty returns ErrEmptySelection or ErrEmptyResult.
	FailOnEmpty EmptyPolicy = iota
	// SkipOnEmpty drops the unit of work that would have been empty.
	SkipOnEmpty
)

// ParseEmptyPolicy accepts "fail" and "skip" (the empty string is "fail").
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail", "error":
		return FailOnEmpty, nil
	case "skip", "ignore":
		return SkipOnEmpty, nil
	}
	return 0, fmt.Errorf("invalid empty policy %q (must be fail or skip)", s)
}

// Options is the per-call parameter record shared by all operations.
type Options struct {
	// Workers bounds the plane-copy goroutines; <= 0 uses every CPU.
	Workers int

	OnEmpty EmptyPolicy

	// Progress, if set, is called after each written plane.
	Progress parallel.Progress
}

// planeCopy moves one source plane to one coordinate of an output stack.
type planeCopy struct {
	src image.Image
	out *hyperstack.Stack
	dst hyperstack.Coordinate
}

// fill runs every job, cloning the source planes in parallel.
func fill(ctx context.Context, jobs []planeCopy, opts Options) error {
	return parallel.For(ctx, len(jobs), opts.Workers, opts.Progress, func(i int) error {
		job := jobs[i]
		if job.src == nil {
			return fmt.Errorf("%w: source plane for %v was never written", hyperstack.ErrEmptyResult, job.dst)
		}
		return job.out.SetPlane(job.dst, hyperstack.ClonePlane(job.src))
	})
}

// allocLike allocates an output stack with the plane geometry of src, typed
// for the planes ClonePlane makes from it.
func allocLike(src *hyperstack.Stack, sizes hyperstack.Sizes) (*hyperstack.Stack, error) {
	return hyperstack.New(sizes, src.Width(), src.Height(), hyperstack.ClonedPixelType(src.PixelType()))
}

// checkComplete fails if any input still has unwritten planes.
func checkComplete(inputs ...*hyperstack.Stack) error {
	for i, in := range inputs {
		if err := in.Complete(); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nil
}
