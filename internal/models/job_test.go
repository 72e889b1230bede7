package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hyperstack/pkg/hyperstack"
	"hyperstack/pkg/restructure"
	"hyperstack/pkg/selection"
)

func writeJob(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAMLJob(t *testing.T) {
	path := writeJob(t, "job.yaml", `
name: pick
operation: reduce
inputs:
  - dir: in
    sizes: {c: 2, z: 5, t: 1}
output: out
z: "1-3"
c: [-1]
bounds: clamp
`)
	job, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if job.Operation != OpReduce {
		t.Errorf("Expected operation reduce, got %q", job.Operation)
	}
	if want := (hyperstack.Sizes{C: 2, Z: 5, T: 1}); job.Inputs[0].Sizes != want {
		t.Errorf("Expected sizes %v, got %v", want, job.Inputs[0].Sizes)
	}
	if diff := cmp.Diff(selection.Range(1, 3), job.Z); diff != "" {
		t.Errorf("z mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(selection.List(-1), job.C); diff != "" {
		t.Errorf("c mismatch (-want +got):\n%s", diff)
	}
	if !job.T.IsZero() {
		t.Errorf("Expected unset t selection, got %v", job.T)
	}
}

func TestLoadTOMLJob(t *testing.T) {
	path := writeJob(t, "job.toml", `
operation = "reorder"
output = "out"

[[inputs]]
dir = "in"

[[relabels]]
from = "c"
to = "t"

[[relabels]]
from = "t"
to = "c"

[[relabels]]
from = "z"
to = "z"
`)
	job, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	want := []restructure.Relabel{
		{From: hyperstack.Channel, To: hyperstack.Time},
		{From: hyperstack.Time, To: hyperstack.Channel},
		{From: hyperstack.Depth, To: hyperstack.Depth},
	}
	if diff := cmp.Diff(want, job.Relabels); diff != "" {
		t.Errorf("relabels mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	base := func() Job {
		return Job{Operation: OpSplit, Inputs: []Input{{Dir: "in"}}, Output: "out", Axis: "z"}
	}

	tests := []struct {
		name   string
		modify func(j *Job)
		errSub string
	}{
		{"unknown operation", func(j *Job) { j.Operation = "blur" }, "unknown operation"},
		{"missing axis", func(j *Job) { j.Axis = "" }, "invalid axis"},
		{"too many inputs", func(j *Job) { j.Inputs = append(j.Inputs, Input{Dir: "b"}) }, "exactly 1"},
		{"no output", func(j *Job) { j.Output = "" }, "output"},
		{"bad bounds", func(j *Job) { j.Bounds = "bounce" }, "bounds"},
		{"merge-rgb needs three", func(j *Job) { j.Operation = OpMergeRGB }, "exactly 3"},
		{"projection", func(j *Job) { j.Operation = OpProject; j.Projection = "mode" }, "projection"},
		{"targets", func(j *Job) { j.Operation = OpSplitTargets }, "targets"},
		{"demontage grid", func(j *Job) { j.Operation = OpDemontage }, "rows and columns"},
		{"bad sizes", func(j *Job) { j.Inputs[0].Sizes = hyperstack.Sizes{C: 2} }, "invalid axis size"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			j := base()
			tc.modify(&j)
			err := j.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.errSub) {
				t.Errorf("Expected error containing %q, got %v", tc.errSub, err)
			}
		})
	}

	j := base()
	if err := j.Validate(); err != nil {
		t.Errorf("Expected valid job, got %v", err)
	}
}

func TestIterationAxes(t *testing.T) {
	j := Job{IterateOver: "z, c"}
	axes, err := j.IterationAxes()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]hyperstack.Axis{hyperstack.Depth, hyperstack.Channel}, axes); diff != "" {
		t.Errorf("axes mismatch (-want +got):\n%s", diff)
	}
}
