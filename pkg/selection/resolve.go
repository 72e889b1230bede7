package selection

import (
	"fmt"
	"slices"
	"strings"

	"hyperstack/pkg/hyperstack"
)

// Bounds decides what happens to indices outside [0, axisSize).
type Bounds int

const (
	// Wrap aliases out-of-range indices onto valid ones modulo the axis
	// size; -1 is the last index. This is the default.
	Wrap Bounds = iota
	// Clamp moves out-of-range indices to the nearest valid one.
	Clamp
	// Strict fails with hyperstack.ErrOutOfRange.
	Strict
	// Ignore drops out-of-range indices.
	Ignore
)

func (b Bounds) String() string {
	switch b {
	case Wrap:
		return "wrap"
	case Clamp:
		return "clamp"
	case Strict:
		return "strict"
	case Ignore:
		return "ignore"
	}
	return fmt.Sprintf("Bounds(%d)", int(b))
}

// ParseBounds parses a bounds policy name. The empty string means Wrap.
func ParseBounds(s string) (Bounds, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wrap":
		return Wrap, nil
	case "clamp":
		return Clamp, nil
	case "strict", "error":
		return Strict, nil
	case "ignore", "skip":
		return Ignore, nil
	}
	return 0, fmt.Errorf("invalid bounds policy %q (must be wrap, clamp, strict or ignore)", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bounds) UnmarshalText(text []byte) error {
	v, err := ParseBounds(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b Bounds) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Options controls how a Spec is resolved. The zero value wraps, keeps
// duplicates and keeps the requested order.
type Options struct {
	Bounds Bounds

	// Dedupe removes repeated indices, keeping the first occurrence.
	Dedupe bool

	// Sort orders the result ascending. Applied after Dedupe.
	Sort bool

	// Evaluator computes KindComputed specs. Required only for them.
	Evaluator Evaluator

	// Variables are handed to the Evaluator.
	Variables Variables
}

// Expand returns the raw indices of spec without any bounds handling.
func Expand(spec Spec, opts Options) ([]int, error) {
	switch spec.Kind {
	case KindList:
		return slices.Clone(spec.Values), nil
	case KindRange:
		return expandRange(spec.From, spec.To)
	case KindComputed:
		if opts.Evaluator == nil {
			return nil, fmt.Errorf("no evaluator for computed index spec %q", spec.Expression)
		}
		values, err := opts.Evaluator.Evaluate(spec.Expression, opts.Variables)
		if err != nil {
			return nil, fmt.Errorf("evaluating %q: %w", spec.Expression, err)
		}
		return values, nil
	}
	return nil, fmt.Errorf("unknown index spec kind %v", spec.Kind)
}

// MaxIndices bounds the number of indices a range or index list may expand
// to. Larger selections only repeat indices once wrapped onto an axis.
const MaxIndices = 1 << 24

// rangeLen returns the number of values in [from, to] or [to, from]. ok is
// false when that exceeds MaxIndices.
func rangeLen(from, to int) (n int, ok bool) {
	lo, hi := min(from, to), max(from, to)
	// the difference fits in uint64 even when hi-lo overflows int
	d := uint64(hi) - uint64(lo)
	if d >= MaxIndices {
		return 0, false
	}
	return int(d) + 1, true
}

func expandRange(from, to int) ([]int, error) {
	n, ok := rangeLen(from, to)
	if !ok {
		return nil, fmt.Errorf("%w: range %d to %d has more than %d indices",
			hyperstack.ErrAllocationFailure, from, to, MaxIndices)
	}
	step := 1
	if from > to {
		step = -1
	}
	out := make([]int, n)
	for i := range out {
		out[i] = from + i*step
	}
	return out, nil
}

// Resolve expands spec and maps it into [0, axisSize) following opts. The
// result may be empty; deciding whether that is an error is up to the
// caller (see RequireNonEmpty).
func Resolve(spec Spec, axisSize int, opts Options) ([]int, error) {
	if axisSize < 1 {
		return nil, fmt.Errorf("%w: axis size %d", hyperstack.ErrInvalidAxisSize, axisSize)
	}
	raw, err := Expand(spec, opts)
	if err != nil {
		return nil, err
	}

	out := make([]int, 0, len(raw))
	for _, x := range raw {
		if x >= 0 && x < axisSize {
			out = append(out, x)
			continue
		}
		switch opts.Bounds {
		case Wrap:
			out = append(out, WrapIndex(x, axisSize))
		case Clamp:
			out = append(out, min(max(x, 0), axisSize-1))
		case Strict:
			return nil, fmt.Errorf("%w: index %d outside [0, %d)", hyperstack.ErrOutOfRange, x, axisSize)
		case Ignore:
		default:
			return nil, fmt.Errorf("unknown bounds policy %v", opts.Bounds)
		}
	}

	if opts.Dedupe {
		out = dedupe(out)
	}
	if opts.Sort {
		slices.Sort(out)
	}
	return out, nil
}

// ResolveAxis resolves spec along axis a of sizes and fails with
// hyperstack.ErrEmptySelection if nothing is selected.
func ResolveAxis(spec Spec, a hyperstack.Axis, sizes hyperstack.Sizes, opts Options) ([]int, error) {
	out, err := Resolve(spec, sizes.Get(a), opts)
	if err != nil {
		return nil, fmt.Errorf("axis %v: %w", a, err)
	}
	if err := RequireNonEmpty(a, spec, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RequireNonEmpty returns hyperstack.ErrEmptySelection if indices is empty.
func RequireNonEmpty(a hyperstack.Axis, spec Spec, indices []int) error {
	if len(indices) == 0 {
		return fmt.Errorf("%w: axis %v selection %q resolved to no indices",
			hyperstack.ErrEmptySelection, a, spec.String())
	}
	return nil
}

// WrapIndex maps x into [0, n): negative values count from the end and
// values past the end alias modulo n. n must be positive.
func WrapIndex(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}

func dedupe(values []int) []int {
	seen := make(map[int]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
