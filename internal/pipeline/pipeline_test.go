package pipeline

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"hyperstack/internal/models"
	"hyperstack/pkg/config"
	"hyperstack/pkg/hyperstack"
	"hyperstack/pkg/selection"
	"hyperstack/pkg/stackio"
)

// createTestImage creates a uniform test plane
func createTestImage(v uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, 6, 4))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// writeInput saves a stack whose plane i has value 10*(i+1) and returns its
// directory.
func writeInput(t *testing.T, sizes hyperstack.Sizes) string {
	t.Helper()
	planes := make([]image.Image, sizes.Len())
	for i := range planes {
		planes[i] = createTestImage(uint8(10 * (i + 1)))
	}
	s, err := hyperstack.FromPlanes(sizes, planes)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "input")
	if _, err := stackio.SaveStack(s, dir, stackio.PNG); err != nil {
		t.Fatal(err)
	}
	return dir
}

func value(t *testing.T, s *hyperstack.Stack, i int) uint8 {
	t.Helper()
	p, err := s.Plane(i)
	if err != nil {
		t.Fatal(err)
	}
	return p.(*image.Gray).GrayAt(0, 0).Y
}

func TestRunSplit(t *testing.T) {
	in := writeInput(t, hyperstack.Sizes{C: 2, Z: 3, T: 1})
	out := filepath.Join(t.TempDir(), "out")
	job := &models.Job{
		Name:      "split",
		Operation: models.OpSplit,
		Inputs:    []models.Input{{Dir: in}},
		Output:    out,
		Axis:      "z",
	}

	results, err := NewRunner(nil).Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	loaded, err := stackio.LoadDir(filepath.Join(out, "z002"), hyperstack.Sizes{})
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if want := (hyperstack.Sizes{C: 2, Z: 1, T: 1}); loaded.Sizes() != want {
		t.Errorf("Expected sizes %v, got %v", want, loaded.Sizes())
	}
	// z=2 holds linear planes 5 and 6
	if v := value(t, loaded, 1); v != 50 {
		t.Errorf("Expected first plane value 50, got %d", v)
	}
}

func TestExecuteReduceDefaultsToWholeAxis(t *testing.T) {
	in := writeInput(t, hyperstack.Sizes{C: 2, Z: 3, T: 1})
	src, err := stackio.LoadDir(in, hyperstack.Sizes{})
	if err != nil {
		t.Fatal(err)
	}
	job := &models.Job{
		Operation: models.OpReduce,
		Inputs:    []models.Input{{Dir: in}},
		Output:    "unused",
		Z:         selection.Computed("size_z - 1"),
	}

	results, err := NewRunner(nil).Execute(context.Background(), job, []*hyperstack.Stack{src})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := results[0].Stack
	if want := (hyperstack.Sizes{C: 2, Z: 1, T: 1}); out.Sizes() != want {
		t.Fatalf("Expected sizes %v, got %v", want, out.Sizes())
	}
	if v := value(t, out, 2); v != 60 {
		t.Errorf("Expected last plane value 60, got %d", v)
	}
}

func TestExecuteSkipEmpty(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Processing.Bounds = "ignore"
	cfg.Processing.SkipEmpty = true

	src, err := stackio.LoadDir(writeInput(t, hyperstack.Sizes{C: 1, Z: 2, T: 1}), hyperstack.Sizes{})
	if err != nil {
		t.Fatal(err)
	}
	job := &models.Job{Operation: models.OpReduce, Z: selection.List(7)}

	results, err := NewRunner(cfg).Execute(context.Background(), job, []*hyperstack.Stack{src})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results for a skipped empty selection, got %d", len(results))
	}
}

func TestRunMontageRoundTrip(t *testing.T) {
	inputs := []models.Input{
		{Dir: writeInput(t, hyperstack.Sizes{C: 1, Z: 2, T: 1}), Label: "a"},
		{Dir: writeInput(t, hyperstack.Sizes{C: 1, Z: 2, T: 1}), Label: "b"},
		{Dir: writeInput(t, hyperstack.Sizes{C: 1, Z: 2, T: 1}), Label: "c"},
	}
	border := 2
	dir := t.TempDir()
	runner := NewRunner(nil)

	montageJob := &models.Job{
		Operation: models.OpMontage,
		Inputs:    inputs,
		Output:    filepath.Join(dir, "montage"),
		Montage:   models.MontageParams{Border: &border},
	}
	results, err := runner.Run(context.Background(), montageJob)
	if err != nil {
		t.Fatalf("montage: %v", err)
	}
	canvas := results[0].Stack
	// three tiles: one column, three rows
	if canvas.Width() != 6 || canvas.Height() != 3*4+2*2 {
		t.Fatalf("Unexpected canvas size %dx%d", canvas.Width(), canvas.Height())
	}

	demontageJob := &models.Job{
		Operation: models.OpDemontage,
		Inputs:    []models.Input{{Dir: filepath.Join(dir, "montage")}},
		Output:    filepath.Join(dir, "tiles"),
		Montage:   models.MontageParams{Rows: 3, Columns: 1, Border: &border},
	}
	tiles, err := runner.Run(context.Background(), demontageJob)
	if err != nil {
		t.Fatalf("demontage: %v", err)
	}
	if len(tiles) != 3 {
		t.Fatalf("Expected 3 tile stacks, got %d", len(tiles))
	}
	if v := value(t, tiles[1].Stack, 2); v != 20 {
		t.Errorf("Expected tile 1 plane 2 value 20, got %d", v)
	}
}

func TestParseColor(t *testing.T) {
	tests := map[string]color.RGBA{
		"#ff8000": {R: 255, G: 128, B: 0, A: 255},
		"0f0":     {R: 0, G: 255, B: 0, A: 255},
	}
	for in, want := range tests {
		got, err := ParseColor(in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseColor(%q): expected %v, got %v", in, want, got)
		}
	}
	if _, err := ParseColor("#12345"); err == nil {
		t.Error("Expected error for short color, got nil")
	}
}
