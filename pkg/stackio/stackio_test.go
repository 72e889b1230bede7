package stackio

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hyperstack/pkg/hyperstack"
)

// createTestImage creates a test image whose pixels depend on v
func createTestImage(width, height int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: v + uint8(x+y)})
		}
	}
	return img
}

func testStack(t *testing.T, sizes hyperstack.Sizes) *hyperstack.Stack {
	t.Helper()
	planes := make([]image.Image, sizes.Len())
	for i := range planes {
		planes[i] = createTestImage(8, 6, uint8(10*i))
	}
	s, err := hyperstack.FromPlanes(sizes, planes)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, format := range []Format{PNG, TIFF} {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			src := testStack(t, hyperstack.Sizes{C: 2, Z: 2, T: 1})

			n, err := SaveStack(src, dir, format)
			if err != nil {
				t.Fatalf("SaveStack: %v", err)
			}
			if n <= 0 {
				t.Errorf("Expected bytes written, got %d", n)
			}

			loaded, err := LoadDir(dir, hyperstack.Sizes{})
			if err != nil {
				t.Fatalf("LoadDir: %v", err)
			}
			if loaded.Sizes() != src.Sizes() {
				t.Fatalf("Expected sizes %v from manifest, got %v", src.Sizes(), loaded.Sizes())
			}
			for i := 1; i <= src.Len(); i++ {
				want, _ := src.Plane(i)
				got, _ := loaded.Plane(i)
				g, ok := got.(*image.Gray)
				if !ok {
					t.Fatalf("Expected *image.Gray plane, got %T", got)
				}
				if diff := cmp.Diff(want.(*image.Gray).Pix, g.Pix); diff != "" {
					t.Errorf("Plane %d mismatch (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

func TestLoadDirWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"img10.png", "img2.png", "img1.png"} {
		v := uint8(extractNumber(name))
		if _, err := SaveImage(createTestImage(4, 4, v), filepath.Join(dir, name), PNG); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := ListImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"img1.png", "img2.png", "img10.png"}, files); diff != "" {
		t.Errorf("ListImages order mismatch (-want +got):\n%s", diff)
	}

	s, err := LoadDir(dir, hyperstack.Sizes{})
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if want := (hyperstack.Sizes{C: 1, Z: 3, T: 1}); s.Sizes() != want {
		t.Errorf("Expected sizes %v, got %v", want, s.Sizes())
	}
	last, _ := s.Plane(3)
	if v := last.(*image.Gray).GrayAt(0, 0).Y; v != 10 {
		t.Errorf("Expected last plane from img10.png, got value %d", v)
	}

	if _, err := LoadDir(dir, hyperstack.Sizes{C: 2, Z: 2, T: 1}); !errors.Is(err, hyperstack.ErrSizeMismatch) {
		t.Errorf("Expected ErrSizeMismatch for wrong sizes, got %v", err)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := LoadDir(t.TempDir(), hyperstack.Sizes{}); !errors.Is(err, hyperstack.ErrEmptySelection) {
		t.Errorf("Expected ErrEmptySelection, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": PNG, "PNG": PNG, ".jpg": JPEG, "jpeg": JPEG, "tif": TIFF}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q): expected %v, got %v (%v)", in, want, got, err)
		}
	}
	if _, err := ParseFormat("bmp"); err == nil {
		t.Error("Expected error for bmp, got nil")
	}
}

func TestDescribe(t *testing.T) {
	s := testStack(t, hyperstack.Sizes{C: 1, Z: 2, T: 1})
	got := Describe(s)
	if !strings.Contains(got, "8x6") || !strings.Contains(got, "96 B") {
		t.Errorf("Unexpected description %q", got)
	}
}
