package montage

import (
	"context"
	"fmt"
	"image"

	"hyperstack/internal/parallel"
	"hyperstack/pkg/hyperstack"
)

// StackOptions adds the plane-level parameters of ComposeStacks.
type StackOptions struct {
	ComposeOptions

	// Workers bounds the goroutines composing planes; <= 0 uses every CPU.
	Workers int

	Progress parallel.Progress
}

// ComposeStacks builds a montage of several stacks plane by plane. Input k
// is tile k on every output plane; labels, if given, has one label per
// input. The output sizes are the per-axis maxima of the inputs, and a cell
// whose input has no plane at a coordinate stays background.
func ComposeStacks(ctx context.Context, inputs []*hyperstack.Stack, labels []string, opts StackOptions) (*hyperstack.Stack, Layout, error) {
	if len(inputs) == 0 {
		return nil, Layout{}, fmt.Errorf("%w: no stacks to compose", hyperstack.ErrEmptySelection)
	}
	if labels != nil && len(labels) != len(inputs) {
		return nil, Layout{}, fmt.Errorf("%w: %d labels for %d stacks", hyperstack.ErrSizeMismatch, len(labels), len(inputs))
	}

	sizes := hyperstack.Sizes{C: 1, Z: 1, T: 1}
	template := make([]Tile, len(inputs))
	for k, in := range inputs {
		for _, a := range hyperstack.Axes {
			sizes = sizes.With(a, max(sizes.Get(a), in.Sizes().Get(a)))
		}
		p, err := in.Plane(1)
		if err != nil {
			return nil, Layout{}, err
		}
		template[k].Image = p
		if labels != nil {
			template[k].Label = labels[k]
		}
	}

	layout, err := PlanLayout(template, opts.ComposeOptions)
	if err != nil {
		return nil, Layout{}, err
	}
	proto := canvasTemplate(template)
	out, err := hyperstack.New(sizes, layout.CanvasSize().X, layout.CanvasSize().Y,
		hyperstack.PixelType(hyperstack.NewLike(proto, image.Rect(0, 0, 1, 1))))
	if err != nil {
		return nil, Layout{}, err
	}

	err = parallel.For(ctx, sizes.Len(), opts.Workers, opts.Progress, func(i int) error {
		at, err := sizes.FromLinearIndex(i + 1)
		if err != nil {
			return err
		}
		tiles := make([]Tile, len(inputs))
		for k, in := range inputs {
			tiles[k].Label = template[k].Label
			if in.Sizes().Contains(at) {
				if tiles[k].Image, err = in.PlaneAt(at); err != nil {
					return err
				}
			}
		}
		canvas := hyperstack.NewLike(proto, layout.Bounds())
		if err := ComposeInto(canvas, layout, tiles, opts.ComposeOptions); err != nil {
			return fmt.Errorf("plane %v: %w", at, err)
		}
		return out.SetPlane(at, canvas)
	})
	if err != nil {
		return nil, Layout{}, err
	}
	return out, layout, nil
}
