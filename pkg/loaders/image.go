package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
)

// AlphaMask is a grayscale cutout texture for triangle meshes. A value of
// zero makes the surface transparent to rays that test alpha.
type AlphaMask struct {
	Width  int
	Height int
	Values []float32 // Row-major from the top row, in [0, 1]
}

// LoadAlphaMask loads a PNG or JPEG image as an alpha mask. Images with any
// translucent pixel contribute their alpha channel; opaque images contribute
// their luminance.
func LoadAlphaMask(filename string) (*AlphaMask, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// Decode image (auto-detects PNG/JPEG from file header)
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return NewAlphaMask(img), nil
}

// NewAlphaMask converts a decoded image to an alpha mask
func NewAlphaMask(img image.Image) *AlphaMask {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	alpha := make([]float32, width*height)
	luminance := make([]float32, width*height)
	opaque := true

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			i := y*width + x
			alpha[i] = float32(a) / 65535
			luminance[i] = (0.2126*float32(r) + 0.7152*float32(g) + 0.0722*float32(b)) / 65535
			if a != 0xffff {
				opaque = false
			}
		}
	}

	values := alpha
	if opaque {
		values = luminance
	}
	return &AlphaMask{Width: width, Height: height, Values: values}
}

// Lookup returns the nearest texel. Coordinates wrap, and v = 0 is the
// bottom row.
func (m *AlphaMask) Lookup(uv core.Vec2) float32 {
	if m.Width == 0 || m.Height == 0 || !core.IsFinite(uv.X) || !core.IsFinite(uv.Y) {
		return 1
	}
	u := uv.X - math32.Floor(uv.X)
	v := uv.Y - math32.Floor(uv.Y)
	x := min(int(u*float32(m.Width)), m.Width-1)
	y := min(int((1-v)*float32(m.Height)), m.Height-1)
	return m.Values[y*m.Width+x]
}
