package loaders

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-shape-kernel/pkg/core"
)

// writePNG saves an image for loading back
func writePNG(t *testing.T, filename string, img image.Image) {
	f, err := os.Create(filename)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
}

func TestLoadAlphaMask_AlphaChannel(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "cutout.png")

	// Top row transparent, bottom row opaque
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	img.Set(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	img.Set(0, 1, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	img.Set(1, 1, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	writePNG(t, testFile, img)

	mask, err := LoadAlphaMask(testFile)
	if err != nil {
		t.Fatalf("LoadAlphaMask failed: %v", err)
	}
	if mask.Width != 2 || mask.Height != 2 {
		t.Fatalf("Expected 2x2 mask, got %dx%d", mask.Width, mask.Height)
	}

	// v = 0 is the bottom row of the image
	if got := mask.Lookup(core.NewVec2(0.25, 0.25)); got != 1 {
		t.Errorf("Expected opaque bottom row, got %v", got)
	}
	if got := mask.Lookup(core.NewVec2(0.75, 0.75)); got != 0 {
		t.Errorf("Expected transparent top row, got %v", got)
	}
}

func TestLoadAlphaMask_Luminance(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "gray.png")

	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	writePNG(t, testFile, img)

	mask, err := LoadAlphaMask(testFile)
	if err != nil {
		t.Fatalf("LoadAlphaMask failed: %v", err)
	}

	checks := []struct {
		uv       core.Vec2
		expected float32
	}{
		{core.NewVec2(0.25, 0.5), 1},
		{core.NewVec2(0.75, 0.5), 0.2126},
		{core.NewVec2(1.25, 0.5), 1},        // wraps
		{core.NewVec2(-0.25, -0.5), 0.2126}, // wraps from below
	}
	for _, c := range checks {
		got := mask.Lookup(c.uv)
		if math.Abs(float64(got-c.expected)) > 1e-4 {
			t.Errorf("Lookup(%v): expected %v, got %v", c.uv, c.expected, got)
		}
	}
}

func TestAlphaMask_Degenerate(t *testing.T) {
	empty := &AlphaMask{}
	if got := empty.Lookup(core.NewVec2(0.5, 0.5)); got != 1 {
		t.Errorf("Expected empty mask to be opaque, got %v", got)
	}

	mask := NewAlphaMask(image.NewGray(image.Rect(0, 0, 1, 1)))
	if got := mask.Lookup(core.NewVec2(float32(math.NaN()), 0)); got != 1 {
		t.Errorf("Expected NaN lookup to be opaque, got %v", got)
	}
	if got := mask.Lookup(core.NewVec2(0.5, 0.5)); got != 0 {
		t.Errorf("Expected black texel, got %v", got)
	}
}

func TestLoadAlphaMask_Errors(t *testing.T) {
	if _, err := LoadAlphaMask("nonexistent.png"); err == nil {
		t.Error("Expected error for missing file")
	}

	notImage := filepath.Join(t.TempDir(), "text.png")
	if err := os.WriteFile(notImage, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAlphaMask(notImage); err == nil {
		t.Error("Expected decode error")
	}
}
