package selection

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"hyperstack/pkg/hyperstack"
)

// TestWrapCorrectness checks the canonical wrap example.
func TestWrapCorrectness(t *testing.T) {
	got, err := Resolve(List(-1, 5, 7), 5, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]int{4, 0, 2}, got); diff != "" {
		t.Errorf("Wrap mismatch (-want +got):\n%s", diff)
	}
}

// TestWrapIdempotence checks that in-range lists come back unchanged.
func TestWrapIdempotence(t *testing.T) {
	inputs := [][]int{{0}, {3, 1, 2}, {4, 4, 0}, {}}
	for _, in := range inputs {
		got, err := Resolve(List(in...), 5, Options{})
		if err != nil {
			t.Fatalf("Resolve(%v): %v", in, err)
		}
		if diff := cmp.Diff(in, got); diff != "" {
			t.Errorf("Resolve(%v) changed in-range list (-want +got):\n%s", in, diff)
		}

		again, err := Resolve(List(got...), 5, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.Equal(got, again) {
			t.Errorf("Second resolve of %v gave %v", got, again)
		}
	}
}

func TestBoundsPolicies(t *testing.T) {
	spec := List(-2, 1, 6)
	tests := []struct {
		bounds Bounds
		want   []int
	}{
		{Wrap, []int{2, 1, 2}},
		{Clamp, []int{0, 1, 3}},
		{Ignore, []int{1}},
	}
	for _, tc := range tests {
		t.Run(tc.bounds.String(), func(t *testing.T) {
			got, err := Resolve(spec, 4, Options{Bounds: tc.bounds})
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := Resolve(spec, 4, Options{Bounds: Strict}); !errors.Is(err, hyperstack.ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange under Strict, got %v", err)
	}
}

func TestDedupeAndSort(t *testing.T) {
	spec := List(3, 1, 3, 8, 1)

	got, err := Resolve(spec, 5, Options{Dedupe: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3, 1}, got); diff != "" {
		t.Errorf("Dedupe mismatch (-want +got):\n%s", diff)
	}

	got, err = Resolve(spec, 5, Options{Dedupe: true, Sort: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 3}, got); diff != "" {
		t.Errorf("Dedupe+Sort mismatch (-want +got):\n%s", diff)
	}
}

func TestRanges(t *testing.T) {
	got, err := Resolve(Range(3, 0), 10, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3, 2, 1, 0}, got); diff != "" {
		t.Errorf("Descending range mismatch (-want +got):\n%s", diff)
	}

	got, err = Resolve(Range(-2, -1), 6, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{4, 5}, got); diff != "" {
		t.Errorf("Negative range mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidAxisSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := Resolve(List(0), n, Options{}); !errors.Is(err, hyperstack.ErrInvalidAxisSize) {
			t.Errorf("Resolve with size %d: expected ErrInvalidAxisSize, got %v", n, err)
		}
	}
}

// TestEmptySelection checks that an empty resolution is surfaced by
// ResolveAxis rather than returned as a zero-length list.
func TestEmptySelection(t *testing.T) {
	sizes := hyperstack.Sizes{C: 2, Z: 3, T: 1}

	got, err := Resolve(List(7), 3, Options{Bounds: Ignore})
	if err != nil || len(got) != 0 {
		t.Fatalf("Expected empty resolution without error, got %v, %v", got, err)
	}

	_, err = ResolveAxis(List(7), hyperstack.Depth, sizes, Options{Bounds: Ignore})
	if !errors.Is(err, hyperstack.ErrEmptySelection) {
		t.Errorf("Expected ErrEmptySelection, got %v", err)
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in   string
		want Spec
	}{
		{"3", List(3)},
		{"-1", List(-1)},
		{"0,2,5", List(0, 2, 5)},
		{"0;2", List(0, 2)},
		{"1-4", Range(1, 4)},
		{"4-1", Range(4, 1)},
		{"(-3)-(-1)", Range(-3, -1)},
		{"0-2,7,-1", List(0, 1, 2, 7, -1)},
		{"expr: size_z - 1", Computed("size_z - 1")},
		{"", List()},
	}
	for _, tc := range tests {
		got, err := ParseSpec(tc.in)
		if err != nil {
			t.Errorf("ParseSpec(%q): %v", tc.in, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParseSpec(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}

	for _, bad := range []string{"a", "1-", "(-3-1", "expr:"} {
		if _, err := ParseSpec(bad); err == nil {
			t.Errorf("ParseSpec(%q): expected error, got nil", bad)
		}
	}
}

func TestSpecYAML(t *testing.T) {
	var doc struct {
		Z Spec `yaml:"z"`
		C Spec `yaml:"c"`
		T Spec `yaml:"t"`
		R Spec `yaml:"r"`
	}
	src := `
z: "0-3"
c: [2, 0]
t:
  expression: "size_t - 1"
r:
  from: 5
  to: 2
`
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(Range(0, 3), doc.Z); diff != "" {
		t.Errorf("z mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(List(2, 0), doc.C); diff != "" {
		t.Errorf("c mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Computed("size_t - 1"), doc.T); diff != "" {
		t.Errorf("t mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Range(5, 2), doc.R); diff != "" {
		t.Errorf("r mismatch (-want +got):\n%s", diff)
	}
}

func TestExprEvaluator(t *testing.T) {
	vars := Variables{
		Width:      64,
		Height:     32,
		Sizes:      hyperstack.Sizes{C: 2, Z: 5, T: 3},
		Coordinate: hyperstack.Coordinate{Z: 2},
	}
	opts := Options{Evaluator: ExprEvaluator{}, Variables: vars}

	tests := []struct {
		expression string
		size       int
		want       []int
	}{
		{"size_z - 1", 5, []int{4}},
		{"z + 1", 5, []int{3}},
		{"[0, num_c - 1]", 2, []int{0, 1}},
		{"seq(0, size_t - 1)", 3, []int{0, 1, 2}},
		{"seq(z, 0)", 5, []int{2, 1, 0}},
		{"width / 16", 5, []int{4}},
		{"-1", 5, []int{4}},
	}
	for _, tc := range tests {
		got, err := Resolve(Computed(tc.expression), tc.size, opts)
		if err != nil {
			t.Errorf("Resolve(%q): %v", tc.expression, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Resolve(%q) mismatch (-want +got):\n%s", tc.expression, diff)
		}
	}

	if _, err := Resolve(Computed(`"text"`), 5, opts); err == nil {
		t.Error("Expected error for non-numeric expression result, got nil")
	}
	if _, err := Resolve(Computed("z"), 5, Options{}); err == nil {
		t.Error("Expected error for computed spec without evaluator, got nil")
	}
}

// TestHugeRanges checks that ranges too long to expand fail with
// ErrAllocationFailure instead of crashing.
func TestHugeRanges(t *testing.T) {
	for _, spec := range []Spec{Range(-1, math.MaxInt), Range(math.MaxInt, math.MinInt), Range(0, 4000000000)} {
		if _, err := Resolve(spec, 5, Options{}); !errors.Is(err, hyperstack.ErrAllocationFailure) {
			t.Errorf("Resolve(%v): expected ErrAllocationFailure, got %v", spec, err)
		}
	}

	for _, text := range []string{"(-1)-9223372036854775807", "0-5,(-1)-9223372036854775807"} {
		if _, err := ParseSpec(text); !errors.Is(err, hyperstack.ErrAllocationFailure) {
			t.Errorf("ParseSpec(%q): expected ErrAllocationFailure, got %v", text, err)
		}
	}

	opts := Options{Evaluator: ExprEvaluator{}, Variables: Variables{Sizes: hyperstack.Sizes{C: 1, Z: 5, T: 1}}}
	if _, err := Resolve(Computed("seq(0, 4000000000)"), 5, opts); err == nil {
		t.Error("Expected error for oversized seq(), got nil")
	}

	got, err := Resolve(Range(0, 1<<16), 5, Options{Dedupe: true})
	if err != nil {
		t.Fatalf("Resolve of a long range: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, got); diff != "" {
		t.Errorf("Long range mismatch (-want +got):\n%s", diff)
	}
}
