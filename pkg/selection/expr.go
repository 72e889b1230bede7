package selection

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"

	"hyperstack/pkg/hyperstack"
)

// Evaluator computes the indices of a KindComputed spec. The result of an
// expression is either a single number or a list of numbers.
type Evaluator interface {
	Evaluate(expression string, vars Variables) ([]int, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(expression string, vars Variables) ([]int, error)

func (f EvaluatorFunc) Evaluate(expression string, vars Variables) ([]int, error) {
	return f(expression, vars)
}

// Variables is the fixed variable set visible to index expressions.
type Variables struct {
	Width, Height int
	Sizes         hyperstack.Sizes

	// Coordinate is the plane currently being iterated, or the origin.
	Coordinate hyperstack.Coordinate
}

// VariablesFor returns the variables describing stack s at coordinate c.
func VariablesFor(s *hyperstack.Stack, c hyperstack.Coordinate) Variables {
	return Variables{
		Width:      s.Width(),
		Height:     s.Height(),
		Sizes:      s.Sizes(),
		Coordinate: c,
	}
}

// Env returns the variables by name. Each size is available both as size_x
// and num_x.
func (v Variables) Env() map[string]interface{} {
	return map[string]interface{}{
		"width":  v.Width,
		"height": v.Height,
		"size_c": v.Sizes.C,
		"num_c":  v.Sizes.C,
		"size_z": v.Sizes.Z,
		"num_z":  v.Sizes.Z,
		"size_t": v.Sizes.T,
		"num_t":  v.Sizes.T,
		"c":      v.Coordinate.C,
		"z":      v.Coordinate.Z,
		"t":      v.Coordinate.T,
	}
}

// ExprEvaluator evaluates index expressions with the expr language
// (github.com/expr-lang/expr). Besides the builtins it provides
// seq(from, to), an inclusive integer sequence in either direction.
type ExprEvaluator struct{}

// Evaluate compiles and runs expression against vars.
func (ExprEvaluator) Evaluate(expression string, vars Variables) ([]int, error) {
	program, err := expr.Compile(expression,
		expr.Env(vars.Env()),
		expr.Function("seq", seqFunc, new(func(int, int) []int)),
	)
	if err != nil {
		return nil, err
	}
	out, err := expr.Run(program, vars.Env())
	if err != nil {
		return nil, err
	}
	return toIndices(out)
}

func seqFunc(params ...interface{}) (interface{}, error) {
	from, err := toIndex(params[0])
	if err != nil {
		return nil, err
	}
	to, err := toIndex(params[1])
	if err != nil {
		return nil, err
	}
	values, err := expandRange(from, to)
	if err != nil {
		return nil, err
	}
	return values, nil
}

func toIndices(v interface{}) ([]int, error) {
	switch x := v.(type) {
	case []int:
		return x, nil
	case []float64:
		out := make([]int, len(x))
		for i, f := range x {
			n, err := toIndex(f)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []interface{}:
		out := make([]int, len(x))
		for i, item := range x {
			n, err := toIndex(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	}
	n, err := toIndex(v)
	if err != nil {
		return nil, err
	}
	return []int{n}, nil
}

// toIndex converts a numeric expression result to an index, truncating
// fractions toward zero.
func toIndex(v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("index %v is not finite", x)
		}
		return int(x), nil
	case float32:
		return toIndex(float64(x))
	}
	return 0, fmt.Errorf("expression result %v (%T) is not a number or list of numbers", v, v)
}
