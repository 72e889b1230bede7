package restructure

import (
	"context"
	"fmt"
	"strings"

	"hyperstack/pkg/hyperstack"
)

// Relabel moves the data of one axis onto another role.
type Relabel struct {
	From hyperstack.Axis `yaml:"from" toml:"from"`
	To   hyperstack.Axis `yaml:"to" toml:"to"`
}

func (r Relabel) String() string {
	return r.From.String() + ">" + r.To.String()
}

// ParseRelabels parses a comma separated list of "from>to" pairs, e.g.
// "c>z,z>t,t>c".
func ParseRelabels(s string) ([]Relabel, error) {
	var out []Relabel
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		from, to, ok := strings.Cut(item, ">")
		if !ok {
			return nil, fmt.Errorf("invalid relabel %q (want from>to)", item)
		}
		f, err := hyperstack.ParseAxis(from)
		if err != nil {
			return nil, err
		}
		t, err := hyperstack.ParseAxis(to)
		if err != nil {
			return nil, err
		}
		out = append(out, Relabel{From: f, To: t})
	}
	return out, nil
}

// Permutation maps every source axis to the axis it becomes. Index i holds
// the target of hyperstack.Axes[i].
type Permutation [3]hyperstack.Axis

// Identity leaves every axis in place.
var Identity = Permutation{hyperstack.Channel, hyperstack.Depth, hyperstack.Time}

// NewPermutation validates relabels. Every axis must appear exactly once
// as a source and exactly once as a target.
func NewPermutation(relabels []Relabel) (Permutation, error) {
	if len(relabels) != 3 {
		return Permutation{}, fmt.Errorf("%w: %d relabels given, need one per axis",
			hyperstack.ErrIncompleteOrDuplicateAssignment, len(relabels))
	}
	var p Permutation
	var fromSeen, toSeen [3]bool
	for _, r := range relabels {
		if !r.From.Valid() || !r.To.Valid() {
			return Permutation{}, fmt.Errorf("%w: invalid axis in relabel %v",
				hyperstack.ErrIncompleteOrDuplicateAssignment, r)
		}
		if fromSeen[r.From] {
			return Permutation{}, fmt.Errorf("%w: %v is relabeled twice",
				hyperstack.ErrIncompleteOrDuplicateAssignment, r.From)
		}
		if toSeen[r.To] {
			return Permutation{}, fmt.Errorf("%w: %v is assigned twice",
				hyperstack.ErrIncompleteOrDuplicateAssignment, r.To)
		}
		fromSeen[r.From], toSeen[r.To] = true, true
		p[r.From] = r.To
	}
	return p, nil
}

// Apply moves each component of c to its target axis.
func (p Permutation) Apply(c hyperstack.Coordinate) hyperstack.Coordinate {
	var out hyperstack.Coordinate
	for _, a := range hyperstack.Axes {
		out = out.With(p[a], c.Get(a))
	}
	return out
}

// ApplySizes moves each axis size to its target axis.
func (p Permutation) ApplySizes(s hyperstack.Sizes) hyperstack.Sizes {
	var out hyperstack.Sizes
	for _, a := range hyperstack.Axes {
		out = out.With(p[a], s.Get(a))
	}
	return out
}

// Reorder relabels the axes of src. The plane at source coordinate c ends
// up at Apply(c) of the output; the plane count is unchanged.
func Reorder(ctx context.Context, src *hyperstack.Stack, relabels []Relabel, opts Options) (*hyperstack.Stack, error) {
	p, err := NewPermutation(relabels)
	if err != nil {
		return nil, err
	}
	if err := checkComplete(src); err != nil {
		return nil, err
	}
	out, err := allocLike(src, p.ApplySizes(src.Sizes()))
	if err != nil {
		return nil, err
	}
	jobs := make([]planeCopy, 0, src.Len())
	for at, plane := range src.All(hyperstack.LinearOrder) {
		jobs = append(jobs, planeCopy{src: plane, out: out, dst: p.Apply(at)})
	}
	if err := fill(ctx, jobs, opts); err != nil {
		return nil, err
	}
	return out, nil
}
