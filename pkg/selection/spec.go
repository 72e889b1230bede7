// Package selection turns user index specifications (explicit lists,
// inclusive ranges or computed expressions) into concrete zero-based indices
// along one hyperstack axis.
package selection

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"hyperstack/pkg/hyperstack"
)

// Kind tells how a Spec produces its raw indices.
type Kind int

const (
	// KindList selects an explicit ordered list of indices.
	KindList Kind = iota
	// KindRange selects the closed range From..To, descending if From > To.
	KindRange
	// KindComputed delegates to an Evaluator.
	KindComputed
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindRange:
		return "range"
	case KindComputed:
		return "computed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// exprPrefix marks a computed spec in textual form.
const exprPrefix = "expr:"

// Spec is a request to select indices along one axis. The zero value is an
// empty list.
type Spec struct {
	Kind       Kind
	Values     []int  // KindList
	From, To   int    // KindRange, inclusive
	Expression string // KindComputed
}

// List selects the given indices in order.
func List(values ...int) Spec {
	return Spec{Kind: KindList, Values: values}
}

// Range selects from..to inclusive. from may be greater than to.
func Range(from, to int) Spec {
	return Spec{Kind: KindRange, From: from, To: to}
}

// Computed selects the indices returned by evaluating expression.
func Computed(expression string) Spec {
	return Spec{Kind: KindComputed, Expression: expression}
}

// All selects every index of an axis, in order. Out-of-range requests are
// not possible since the range is built from the axis size.
func All(axisSize int) Spec {
	if axisSize < 1 {
		return List()
	}
	return Range(0, axisSize-1)
}

// IsZero reports whether s is the zero Spec.
func (s Spec) IsZero() bool {
	return s.Kind == KindList && len(s.Values) == 0
}

func (s Spec) String() string {
	switch s.Kind {
	case KindRange:
		return formatInt(s.From) + "-" + formatInt(s.To)
	case KindComputed:
		return exprPrefix + s.Expression
	}
	parts := make([]string, len(s.Values))
	for i, v := range s.Values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func formatInt(v int) string {
	if v < 0 {
		return "(" + strconv.Itoa(v) + ")"
	}
	return strconv.Itoa(v)
}

// ParseSpec parses the textual form of a Spec:
//
//	"3"            a single index
//	"0,2,5"        an explicit list (";" is accepted as separator too)
//	"1-4", "4-1"   an inclusive range, ascending or descending
//	"(-3)-(-1)"    negative range bounds go in parentheses
//	"0-2,7,-1"     lists may mix single values and ranges
//	"expr:size_z-1" a computed spec
//
// A single range parses to KindRange; anything else is a KindList.
func ParseSpec(text string) (Spec, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, exprPrefix) {
		expression := strings.TrimSpace(strings.TrimPrefix(text, exprPrefix))
		if expression == "" {
			return Spec{}, fmt.Errorf("empty expression in %q", text)
		}
		return Computed(expression), nil
	}
	if text == "" {
		return List(), nil
	}

	items := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' })
	if len(items) == 1 {
		if from, to, ok, err := parseRange(items[0]); err != nil {
			return Spec{}, err
		} else if ok {
			return Range(from, to), nil
		}
	}

	var values []int
	for _, item := range items {
		from, to, ok, err := parseRange(item)
		if err != nil {
			return Spec{}, err
		}
		if !ok {
			v, err := parseInt(item)
			if err != nil {
				return Spec{}, err
			}
			values = append(values, v)
			continue
		}
		expanded, err := expandRange(from, to)
		if err != nil {
			return Spec{}, err
		}
		if len(values)+len(expanded) > MaxIndices {
			return Spec{}, fmt.Errorf("%w: %q has more than %d indices",
				hyperstack.ErrAllocationFailure, text, MaxIndices)
		}
		values = append(values, expanded...)
	}
	return List(values...), nil
}

// parseRange recognises "a-b" where a and b are plain or parenthesised
// integers. ok is false for a single value such as "5" or "-5".
func parseRange(item string) (from, to int, ok bool, err error) {
	item = strings.TrimSpace(item)
	left, rest, err := splitOperand(item)
	if err != nil {
		return 0, 0, false, err
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return 0, 0, false, nil
	}
	if !strings.HasPrefix(rest, "-") {
		return 0, 0, false, fmt.Errorf("invalid index range %q", item)
	}
	right, tail, err := splitOperand(strings.TrimSpace(rest[1:]))
	if err != nil {
		return 0, 0, false, err
	}
	if strings.TrimSpace(tail) != "" {
		return 0, 0, false, fmt.Errorf("invalid index range %q", item)
	}
	if from, err = parseInt(left); err != nil {
		return 0, 0, false, err
	}
	if to, err = parseInt(right); err != nil {
		return 0, 0, false, err
	}
	return from, to, true, nil
}

// splitOperand cuts the leading operand off s. A leading "-" belongs to the
// operand, so "-5" is a single negative value.
func splitOperand(s string) (operand, rest string, err error) {
	if strings.HasPrefix(s, "(") {
		end := strings.IndexByte(s, ')')
		if end < 0 {
			return "", "", fmt.Errorf("unbalanced parenthesis in %q", s)
		}
		return s[1:end], s[end+1:], nil
	}
	start := 0
	if strings.HasPrefix(s, "-") {
		start = 1
	}
	end := start
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == ' ') {
		end++
	}
	return s[:end], s[end:], nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return v, nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so specs can be read
// from TOML strings and flag values.
func (s *Spec) UnmarshalText(text []byte) error {
	parsed, err := ParseSpec(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalYAML accepts a scalar in ParseSpec syntax, a sequence of
// integers, or a mapping with one of the keys "values", "from"/"to" or
// "expression".
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return s.UnmarshalText([]byte(node.Value))
	case yaml.SequenceNode:
		var values []int
		if err := node.Decode(&values); err != nil {
			return fmt.Errorf("index list at line %d: %w", node.Line, err)
		}
		*s = List(values...)
		return nil
	case yaml.MappingNode:
		var raw struct {
			Values     []int  `yaml:"values"`
			From       *int   `yaml:"from"`
			To         *int   `yaml:"to"`
			Expression string `yaml:"expression"`
		}
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("index spec at line %d: %w", node.Line, err)
		}
		switch {
		case raw.Expression != "":
			*s = Computed(raw.Expression)
		case raw.From != nil && raw.To != nil:
			*s = Range(*raw.From, *raw.To)
		case raw.From != nil || raw.To != nil:
			return fmt.Errorf("index range at line %d needs both from and to", node.Line)
		default:
			*s = List(raw.Values...)
		}
		return nil
	}
	return fmt.Errorf("unsupported index spec at line %d", node.Line)
}

// MarshalYAML writes the ParseSpec form.
func (s Spec) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}
