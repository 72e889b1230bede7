// Package stackio moves hyperstacks between directories of 2D image files
// and memory. A directory holds one file per plane, named so that a numeric
// sort restores the linear order, plus an optional stack.yaml manifest that
// records the axis sizes.
package stackio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v3"

	"hyperstack/pkg/hyperstack"
)

// ManifestName is the file SaveStack writes next to the planes.
const ManifestName = "stack.yaml"

// Manifest describes a saved stack.
type Manifest struct {
	Sizes     hyperstack.Sizes `yaml:"sizes"`
	Width     int              `yaml:"width"`
	Height    int              `yaml:"height"`
	PixelType string           `yaml:"pixelType"`
	Files     []string         `yaml:"files"`
}

// Format is an image file format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	TIFF Format = "tiff"
)

// ParseFormat accepts png, jpg/jpeg and tif/tiff; the empty string is png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "tif", "tiff":
		return TIFF, nil
	}
	return "", fmt.Errorf("unsupported image format %q (must be png, jpeg or tiff)", s)
}

// Ext returns the file extension used for f.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case TIFF:
		return ".tif"
	}
	return ".png"
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return true
	}
	return false
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}
	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// ListImages returns the image files in dir, ordered by the number in their
// names and then by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && isImageFile(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		ni, nj := extractNumber(files[i]), extractNumber(files[j])
		if ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})
	return files, nil
}

// LoadImage decodes a png, jpeg or tiff file.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		img, err = png.Decode(file)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
	case ".tif", ".tiff":
		img, err = tiff.Decode(file)
	default:
		return nil, fmt.Errorf("unsupported image file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// LoadDir reads a stack from dir. If sizes is the zero value it is taken
// from the manifest, or else every plane is put on the Z axis. With a
// manifest the listed files are read in order; otherwise every image file
// in dir is, sorted by ListImages.
func LoadDir(dir string, sizes hyperstack.Sizes) (*hyperstack.Stack, error) {
	var files []string
	m, err := ReadManifest(dir)
	switch {
	case err == nil:
		files = m.Files
		if sizes == (hyperstack.Sizes{}) {
			sizes = m.Sizes
		}
	case os.IsNotExist(err):
		if files, err = ListImages(dir); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images found in %s", hyperstack.ErrEmptySelection, dir)
	}
	if sizes == (hyperstack.Sizes{}) {
		sizes = hyperstack.Sizes{C: 1, Z: len(files), T: 1}
	}

	planes := make([]image.Image, len(files))
	for i, name := range files {
		img, err := LoadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}
		planes[i] = img
	}
	s, err := hyperstack.FromPlanes(sizes, planes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return s, nil
}

// ReadManifest reads the manifest in dir. A missing manifest is reported
// with an error satisfying os.IsNotExist.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", ManifestName, err)
	}
	return &m, nil
}

// SaveImage encodes img to path in the given format and returns the number
// of bytes written.
func SaveImage(img image.Image, path string, format Format) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create image file: %w", err)
	}
	defer file.Close()

	switch format {
	case JPEG:
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	case TIFF:
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(file, img)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to encode image: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// SaveStack writes every plane of s into dir, in linear order, together
// with a manifest. It returns the number of bytes written.
func SaveStack(s *hyperstack.Stack, dir string, format Format) (int64, error) {
	if err := s.Complete(); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := Manifest{
		Sizes:     s.Sizes(),
		Width:     s.Width(),
		Height:    s.Height(),
		PixelType: s.PixelType(),
	}
	var total int64
	for i, plane := range s.Planes() {
		name := fmt.Sprintf("plane_%04d%s", i+1, format.Ext())
		n, err := SaveImage(plane, filepath.Join(dir, name), format)
		if err != nil {
			return total, fmt.Errorf("plane %d: %w", i+1, err)
		}
		total += n
		m.Files = append(m.Files, name)
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return total, fmt.Errorf("error marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return total, fmt.Errorf("error writing manifest: %w", err)
	}
	return total + int64(len(data)), nil
}

// Describe summarizes s for log output, e.g. "(c=2, z=5, t=1) 64x64 *image.Gray, 40 kB".
func Describe(s *hyperstack.Stack) string {
	bytesPerPixel := 4
	switch s.PixelType() {
	case hyperstack.PixelType(&image.Gray{}), hyperstack.PixelType(&image.Alpha{}), hyperstack.PixelType(&image.Paletted{}):
		bytesPerPixel = 1
	case hyperstack.PixelType(&image.Gray16{}), hyperstack.PixelType(&image.Alpha16{}):
		bytesPerPixel = 2
	case hyperstack.PixelType(&image.RGBA64{}), hyperstack.PixelType(&image.NRGBA64{}):
		bytesPerPixel = 8
	}
	size := uint64(s.Len()) * uint64(s.Width()) * uint64(s.Height()) * uint64(bytesPerPixel)
	return fmt.Sprintf("%v %dx%d %s, %s", s.Sizes(), s.Width(), s.Height(), s.PixelType(), humanize.Bytes(size))
}
