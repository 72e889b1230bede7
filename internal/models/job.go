// Package models holds the parameter records passed from the command line
// to the pipeline.
package models

import (
	"fmt"
	"os"

	"hyperstack/pkg/config"
	"hyperstack/pkg/hyperstack"
	"hyperstack/pkg/restructure"
	"hyperstack/pkg/selection"
)

// Operation names what a job does with its inputs.
type Operation string

const (
	OpReduce       Operation = "reduce"
	OpReduceEach   Operation = "reduce-each"
	OpSplit        Operation = "split"
	OpSplitTargets Operation = "split-targets"
	OpMerge        Operation = "merge"
	OpReorder      Operation = "reorder"
	OpInsertAxis   Operation = "insert-axis"
	OpProject      Operation = "project"
	OpSplitRGB     Operation = "split-rgb"
	OpMergeRGB     Operation = "merge-rgb"
	OpMontage      Operation = "montage"
	OpDemontage    Operation = "demontage"
)

// Input is one stack read from disk
type Input struct {
	// Dir holds the plane files
	Dir string `yaml:"dir" toml:"dir"`

	// Label is drawn on the input's montage tiles
	Label string `yaml:"label" toml:"label"`

	// Sizes overrides the manifest; zero means use the manifest or put
	// every plane on Z
	Sizes hyperstack.Sizes `yaml:"sizes" toml:"sizes"`
}

// Target is a named subset of indices for split-targets
type Target struct {
	Name    string         `yaml:"name" toml:"name"`
	Indices selection.Spec `yaml:"indices" toml:"indices"`

	// Bounds overrides the job's bounds policy for this target
	Bounds string `yaml:"bounds" toml:"bounds"`
}

// MontageParams holds the grid parameters of montage and demontage jobs.
// Zero values fall back to the montage section of the configuration.
type MontageParams struct {
	Rows       int     `yaml:"rows" toml:"rows"`
	Columns    int     `yaml:"columns" toml:"columns"`
	Border     *int    `yaml:"border" toml:"border"`
	TileWidth  int     `yaml:"tileWidth" toml:"tile_width"`
	TileHeight int     `yaml:"tileHeight" toml:"tile_height"`
	Scale      float64 `yaml:"scale" toml:"scale"`
	DrawLabels *bool   `yaml:"drawLabels" toml:"draw_labels"`
}

// Job is the parameter record of one run: which operation, on which
// inputs, with which selections, and where the results go.
type Job struct {
	Name      string    `yaml:"name" toml:"name"`
	Operation Operation `yaml:"operation" toml:"operation"`
	Inputs    []Input   `yaml:"inputs" toml:"inputs"`

	// Output is the directory results are written to. Operations with
	// several results write one subdirectory per result.
	Output string `yaml:"output" toml:"output"`

	// Axis is the axis split, merge, insert-axis and project work on
	Axis string `yaml:"axis" toml:"axis"`

	// C, Z and T select planes for reduce and reduce-each. An empty
	// selection keeps the whole axis.
	C selection.Spec `yaml:"c" toml:"c"`
	Z selection.Spec `yaml:"z" toml:"z"`
	T selection.Spec `yaml:"t" toml:"t"`

	// Bounds overrides processing.bounds from the configuration
	Bounds string `yaml:"bounds" toml:"bounds"`

	// IterateOver lists the axes reduce-each iterates, e.g. "z" or "zc"
	IterateOver      string `yaml:"iterateOver" toml:"iterate_over"`
	RemoveDuplicates bool   `yaml:"removeDuplicates" toml:"remove_duplicates"`

	Targets    []Target              `yaml:"targets" toml:"targets"`
	Relabels   []restructure.Relabel `yaml:"relabels" toml:"relabels"`
	Projection string                `yaml:"projection" toml:"projection"`
	Montage    MontageParams         `yaml:"montage" toml:"montage"`
}

// LoadJob reads a job from a YAML or TOML file and validates it.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading job file: %w", err)
	}
	job := &Job{}
	if err := config.Decode(path, data, job); err != nil {
		return nil, fmt.Errorf("error parsing job file: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job %s: %w", path, err)
	}
	return job, nil
}

// inputCount returns the minimum and maximum number of inputs op accepts;
// a maximum of 0 means unbounded.
func (op Operation) inputCount() (lo, hi int, ok bool) {
	switch op {
	case OpReduce, OpReduceEach, OpSplit, OpSplitTargets, OpReorder, OpProject, OpSplitRGB, OpDemontage:
		return 1, 1, true
	case OpMergeRGB:
		return 3, 3, true
	case OpMerge, OpInsertAxis, OpMontage:
		return 1, 0, true
	}
	return 0, 0, false
}

func (op Operation) needsAxis() bool {
	switch op {
	case OpSplit, OpSplitTargets, OpMerge, OpInsertAxis, OpProject:
		return true
	}
	return false
}

// Validate checks that the job names a known operation with the inputs and
// parameters it needs.
func (j *Job) Validate() error {
	lo, hi, ok := j.Operation.inputCount()
	if !ok {
		return fmt.Errorf("unknown operation %q", j.Operation)
	}
	if n := len(j.Inputs); n < lo || (hi > 0 && n > hi) {
		return fmt.Errorf("operation %s takes %s inputs, got %d", j.Operation, countString(lo, hi), n)
	}
	for i, in := range j.Inputs {
		if in.Dir == "" {
			return fmt.Errorf("input %d has no dir", i)
		}
		if in.Sizes != (hyperstack.Sizes{}) {
			if err := in.Sizes.Validate(); err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
		}
	}
	if j.Output == "" {
		return fmt.Errorf("no output directory")
	}
	if j.Operation.needsAxis() {
		if _, err := hyperstack.ParseAxis(j.Axis); err != nil {
			return fmt.Errorf("operation %s: %w", j.Operation, err)
		}
	}
	if _, err := selection.ParseBounds(j.Bounds); err != nil {
		return err
	}

	switch j.Operation {
	case OpReduceEach:
		if _, err := j.IterationAxes(); err != nil {
			return err
		}
	case OpSplitTargets:
		if len(j.Targets) == 0 {
			return fmt.Errorf("operation %s needs targets", j.Operation)
		}
		for _, t := range j.Targets {
			if t.Name == "" {
				return fmt.Errorf("split target without name")
			}
			if _, err := selection.ParseBounds(t.Bounds); err != nil {
				return fmt.Errorf("split target %q: %w", t.Name, err)
			}
		}
	case OpReorder:
		if _, err := restructure.NewPermutation(j.Relabels); err != nil {
			return err
		}
	case OpProject:
		if _, err := restructure.ParseProjection(j.Projection); err != nil {
			return err
		}
	case OpDemontage:
		if j.Montage.Rows < 1 || j.Montage.Columns < 1 {
			return fmt.Errorf("operation %s needs montage rows and columns", j.Operation)
		}
	}
	return nil
}

// IterationAxes parses IterateOver.
func (j *Job) IterationAxes() ([]hyperstack.Axis, error) {
	var axes []hyperstack.Axis
	for _, r := range j.IterateOver {
		if r == ',' || r == ' ' {
			continue
		}
		a, err := hyperstack.ParseAxis(string(r))
		if err != nil {
			return nil, err
		}
		axes = append(axes, a)
	}
	return axes, nil
}

func countString(lo, hi int) string {
	switch {
	case hi == 0:
		return fmt.Sprintf("at least %d", lo)
	case lo == hi:
		return fmt.Sprintf("exactly %d", lo)
	}
	return fmt.Sprintf("%d to %d", lo, hi)
}
