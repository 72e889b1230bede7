// Package pipeline runs one job: it loads the input stacks, applies the
// requested operation and writes the results.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"hyperstack/internal/logging"
	"hyperstack/internal/models"
	"hyperstack/pkg/config"
	"hyperstack/pkg/hyperstack"
	"hyperstack/pkg/montage"
	"hyperstack/pkg/restructure"
	"hyperstack/pkg/selection"
	"hyperstack/pkg/stackio"
)

// Result is one output stack and the name of the directory it is saved to,
// relative to the job output. An empty name saves into the output itself.
type Result struct {
	Name  string
	Stack *hyperstack.Stack
}

// Runner executes jobs with the settings of one configuration.
type Runner struct {
	cfg *config.Config
}

// NewRunner creates a runner. A nil cfg uses config.DefaultConfig().
func NewRunner(cfg *config.Config) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Runner{cfg: cfg}
}

// Run executes job and saves its results. It returns the results that
// were written.
func (r *Runner) Run(ctx context.Context, job *models.Job) ([]Result, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	format, err := stackio.ParseFormat(r.cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	timer := logging.NewTimeLog()

	logging.Infof("Step 1: Loading %d input(s) for %s job %q", len(job.Inputs), job.Operation, job.Name)
	inputs := make([]*hyperstack.Stack, len(job.Inputs))
	for i, in := range job.Inputs {
		s, err := stackio.LoadDir(in.Dir, in.Sizes)
		if err != nil {
			return nil, fmt.Errorf("failed to load input %d: %w", i, err)
		}
		logging.Debugf("Input %d from %s: %s", i, in.Dir, stackio.Describe(s))
		inputs[i] = s
	}

	logging.Infof("Step 2: Running %s", job.Operation)
	results, err := r.Execute(ctx, job, inputs)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", job.Operation, err)
	}
	if len(results) == 0 {
		logging.Warningf("%s produced no output", job.Operation)
	}

	logging.Infof("Step 3: Saving %d result(s) to %s", len(results), job.Output)
	var total int64
	for _, res := range results {
		dir := filepath.Join(job.Output, filepath.FromSlash(res.Name))
		n, err := stackio.SaveStack(res.Stack, dir, format)
		if err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", dir, err)
		}
		logging.Debugf("Saved %s to %s", stackio.Describe(res.Stack), dir)
		total += n
	}
	timer.Infof("Job %q wrote %s", job.Name, humanize.Bytes(uint64(total)))
	return results, nil
}

// Execute applies the job's operation to already loaded inputs.
func (r *Runner) Execute(ctx context.Context, job *models.Job, inputs []*hyperstack.Stack) ([]Result, error) {
	opts := r.restructureOptions()
	var axis hyperstack.Axis
	if job.Axis != "" {
		var err error
		if axis, err = hyperstack.ParseAxis(job.Axis); err != nil {
			return nil, err
		}
	}

	switch job.Operation {
	case models.OpReduce:
		req, err := r.sliceRequest(job, inputs[0])
		if err != nil {
			return nil, err
		}
		out, err := restructure.Reduce(ctx, inputs[0], req, opts)
		if err != nil || out == nil {
			return nil, err
		}
		return single(out), nil

	case models.OpReduceEach:
		req, err := r.sliceRequest(job, inputs[0])
		if err != nil {
			return nil, err
		}
		slices, err := restructure.ReduceEach(ctx, inputs[0], req, opts)
		if err != nil {
			return nil, err
		}
		var results []Result
		for i, s := range slices {
			logging.Debugf("Slice %d at %v selects c=%v z=%v t=%v", i, s.At, s.Selection.C, s.Selection.Z, s.Selection.T)
			results = append(results, Result{Name: fmt.Sprintf("slice_%03d", i), Stack: s.Stack})
		}
		return results, nil

	case models.OpSplit:
		parts, err := restructure.Split(ctx, inputs[0], axis, opts)
		if err != nil {
			return nil, err
		}
		return numbered(strings.ToLower(axis.String()), parts), nil

	case models.OpSplitTargets:
		targets := make([]restructure.SplitTarget, len(job.Targets))
		for i, t := range job.Targets {
			bounds := t.Bounds
			if bounds == "" {
				bounds = job.Bounds
			}
			ro, err := r.selectionOptions(bounds)
			if err != nil {
				return nil, err
			}
			targets[i] = restructure.SplitTarget{Name: t.Name, Indices: t.Indices, Resolve: ro}
		}
		out, err := restructure.SplitTargets(ctx, inputs[0], axis, targets, opts)
		if err != nil {
			return nil, err
		}
		var results []Result
		for _, t := range job.Targets {
			stacks, ok := out[t.Name]
			if !ok {
				logging.Warningf("Split target %q selected nothing and was skipped", t.Name)
				continue
			}
			if len(stacks) == 1 {
				results = append(results, Result{Name: t.Name, Stack: stacks[0]})
				continue
			}
			for _, res := range numbered(strings.ToLower(axis.String()), stacks) {
				results = append(results, Result{Name: t.Name + "/" + res.Name, Stack: res.Stack})
			}
		}
		return results, nil

	case models.OpMerge:
		out, err := restructure.Merge(ctx, axis, inputs, opts)
		if err != nil {
			return nil, err
		}
		return single(out), nil

	case models.OpReorder:
		out, err := restructure.Reorder(ctx, inputs[0], job.Relabels, opts)
		if err != nil {
			return nil, err
		}
		return single(out), nil

	case models.OpInsertAxis:
		out, err := restructure.InsertAxis(ctx, axis, inputs, opts)
		if err != nil {
			return nil, err
		}
		return single(out), nil

	case models.OpProject:
		method, err := restructure.ParseProjection(job.Projection)
		if err != nil {
			return nil, err
		}
		out, err := restructure.Project(ctx, inputs[0], axis, method, opts)
		if err != nil {
			return nil, err
		}
		return single(out), nil

	case models.OpSplitRGB:
		channels, err := restructure.SplitRGB(ctx, inputs[0], opts)
		if err != nil {
			return nil, err
		}
		return []Result{
			{Name: "red", Stack: channels[0]},
			{Name: "green", Stack: channels[1]},
			{Name: "blue", Stack: channels[2]},
		}, nil

	case models.OpMergeRGB:
		out, err := restructure.MergeRGB(ctx, inputs[0], inputs[1], inputs[2], opts)
		if err != nil {
			return nil, err
		}
		return single(out), nil

	case models.OpMontage:
		return r.montage(ctx, job, inputs)

	case models.OpDemontage:
		return r.demontage(job, inputs[0])
	}
	return nil, fmt.Errorf("unknown operation %q", job.Operation)
}

func (r *Runner) montage(ctx context.Context, job *models.Job, inputs []*hyperstack.Stack) ([]Result, error) {
	co, err := r.composeOptions(job)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(job.Inputs))
	labelled := false
	for i, in := range job.Inputs {
		labels[i] = in.Label
		labelled = labelled || in.Label != ""
	}
	if !labelled {
		labels = nil
	}
	out, layout, err := montage.ComposeStacks(ctx, inputs, labels, montage.StackOptions{
		ComposeOptions: co,
		Workers:        r.cfg.Processing.NumCores,
		Progress:       progress,
	})
	if err != nil {
		return nil, err
	}
	logging.Infof("Montage grid %v, tiles %dx%d, canvas %v", layout.Grid, layout.TileWidth, layout.TileHeight, layout.CanvasSize())
	return single(out), nil
}

// demontage cuts every plane of src and returns one stack per tile
// position, with the sizes of src.
func (r *Runner) demontage(job *models.Job, src *hyperstack.Stack) ([]Result, error) {
	border := r.cfg.Montage.Border
	if job.Montage.Border != nil {
		border = *job.Montage.Border
	}
	opts := montage.DecomposeOptions{TileWidth: job.Montage.TileWidth, TileHeight: job.Montage.TileHeight}

	var byTile [][]image.Image
	for i, plane := range src.Planes() {
		tiles, err := montage.Decompose(plane, job.Montage.Rows, job.Montage.Columns, border, opts)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			byTile = make([][]image.Image, len(tiles))
		}
		for k, tile := range tiles {
			byTile[k] = append(byTile[k], tile)
		}
	}

	results := make([]Result, len(byTile))
	for k, planes := range byTile {
		s, err := hyperstack.FromPlanes(src.Sizes(), planes)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", k, err)
		}
		results[k] = Result{Name: fmt.Sprintf("tile_%03d", k), Stack: s}
	}
	return results, nil
}

func (r *Runner) restructureOptions() restructure.Options {
	opts := restructure.Options{
		Workers:  r.cfg.Processing.NumCores,
		Progress: progress,
	}
	if r.cfg.Processing.SkipEmpty {
		opts.OnEmpty = restructure.SkipOnEmpty
	}
	return opts
}

// selectionOptions builds resolution options from the configuration,
// with bounds overriding processing.bounds when not empty.
func (r *Runner) selectionOptions(bounds string) (selection.Options, error) {
	if bounds == "" {
		bounds = r.cfg.Processing.Bounds
	}
	b, err := selection.ParseBounds(bounds)
	if err != nil {
		return selection.Options{}, err
	}
	return selection.Options{
		Bounds:    b,
		Dedupe:    r.cfg.Processing.Dedupe,
		Sort:      r.cfg.Processing.Sort,
		Evaluator: selection.ExprEvaluator{},
	}, nil
}

func (r *Runner) sliceRequest(job *models.Job, src *hyperstack.Stack) (restructure.SliceRequest, error) {
	ro, err := r.selectionOptions(job.Bounds)
	if err != nil {
		return restructure.SliceRequest{}, err
	}
	axes, err := job.IterationAxes()
	if err != nil {
		return restructure.SliceRequest{}, err
	}
	sizes := src.Sizes()
	return restructure.SliceRequest{
		C:                orAll(job.C, sizes.C),
		Z:                orAll(job.Z, sizes.Z),
		T:                orAll(job.T, sizes.T),
		Resolve:          ro,
		IterateOver:      axes,
		RemoveDuplicates: job.RemoveDuplicates,
	}, nil
}

func (r *Runner) composeOptions(job *models.Job) (montage.ComposeOptions, error) {
	m := r.cfg.Montage
	pos, err := montage.ParseLabelPosition(m.LabelPosition)
	if err != nil {
		return montage.ComposeOptions{}, err
	}
	bg, err := ParseColor(m.Background)
	if err != nil {
		return montage.ComposeOptions{}, fmt.Errorf("montage background: %w", err)
	}
	fg, err := ParseColor(m.LabelColor)
	if err != nil {
		return montage.ComposeOptions{}, fmt.Errorf("montage label color: %w", err)
	}

	co := montage.ComposeOptions{
		Rows:          job.Montage.Rows,
		Columns:       job.Montage.Columns,
		Border:        m.Border,
		TileWidth:     job.Montage.TileWidth,
		TileHeight:    job.Montage.TileHeight,
		Scale:         m.Scale,
		Background:    bg,
		DrawLabels:    m.DrawLabels,
		LabelPosition: pos,
		LabelColor:    fg,
	}
	if job.Montage.Border != nil {
		co.Border = *job.Montage.Border
	}
	if job.Montage.Scale > 0 {
		co.Scale = job.Montage.Scale
	}
	if job.Montage.DrawLabels != nil {
		co.DrawLabels = *job.Montage.DrawLabels
	}
	return co, nil
}

// ParseColor parses #rrggbb or #rgb. The empty string is black.
func ParseColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if hex == "" {
		return color.Black, nil
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid color %q (want #rrggbb)", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func orAll(spec selection.Spec, size int) selection.Spec {
	if spec.IsZero() {
		return selection.All(size)
	}
	return spec
}

func single(s *hyperstack.Stack) []Result {
	return []Result{{Stack: s}}
}

func numbered(prefix string, stacks []*hyperstack.Stack) []Result {
	results := make([]Result, len(stacks))
	for i, s := range stacks {
		results[i] = Result{Name: fmt.Sprintf("%s%03d", prefix, i), Stack: s}
	}
	return results
}

func progress(done, total int) {
	if done == total || done%100 == 0 {
		logging.Debugf("%d/%d planes", done, total)
	}
}
