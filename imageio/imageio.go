// Package imageio converts between decoded images and H×W×C uint8 matrices.
//
// Channels are stored in RGB order. Gray images have one channel; every
// other color model is converted to three. PNG, JPEG and GIF inputs are
// supported.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"io"
	"os"

	"github.com/hupe1980/matio/matrix"
	"github.com/hupe1980/matio/persistence"
	"github.com/nfnt/resize"
)

// ErrShape is returned for matrices that are not H×W or H×W×C with C in {1, 3}.
var ErrShape = errors.New("imageio: matrix is not an image")

// Decode reads an image from r.
func Decode(r io.Reader) (*matrix.Matrix[uint8], error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imageio: %w", err)
	}
	return FromImage(img, isGray(img)), nil
}

// Load decodes the image file at path.
func Load(path string) (*matrix.Matrix[uint8], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadGray decodes the image file at path into a single-channel matrix.
func LoadGray(path string) (*matrix.Matrix[uint8], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: imageio: %w", path, err)
	}
	return FromImage(img, true), nil
}

func isGray(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	}
	return false
}

// FromImage copies img into an H×W×1 (gray) or H×W×3 matrix.
func FromImage(img image.Image, gray bool) *matrix.Matrix[uint8] {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	c := 3
	if gray {
		c = 1
	}
	m := matrix.New[uint8](h, w, c)
	data := m.Data()

	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := img.At(x, y)
			if gray {
				data[idx] = color.GrayModel.Convert(px).(color.Gray).Y
				idx++
				continue
			}
			r, g, bl, _ := px.RGBA()
			data[idx] = uint8(r >> 8)
			data[idx+1] = uint8(g >> 8)
			data[idx+2] = uint8(bl >> 8)
			idx += 3
		}
	}
	return m
}

func shape(m *matrix.Matrix[uint8]) (h, w, c int, err error) {
	switch m.Rank() {
	case 2:
		return m.Dim(0), m.Dim(1), 1, nil
	case 3:
		if c := m.Dim(2); c == 1 || c == 3 {
			return m.Dim(0), m.Dim(1), c, nil
		}
	}
	return 0, 0, 0, fmt.Errorf("%w: dims %v", ErrShape, m.Dims())
}

// ToImage copies m into an *image.Gray or *image.RGBA.
func ToImage(m *matrix.Matrix[uint8]) (image.Image, error) {
	h, w, c, err := shape(m)
	if err != nil {
		return nil, err
	}
	data := m.Data()
	if c == 1 {
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, data)
		return img, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i < len(data); i, j = i+3, j+4 {
		img.Pix[j] = data[i]
		img.Pix[j+1] = data[i+1]
		img.Pix[j+2] = data[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// Resize scales m to h×w with Lanczos3 resampling, keeping its channels.
func Resize(m *matrix.Matrix[uint8], h, w int) (*matrix.Matrix[uint8], error) {
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("%w: target %dx%d", ErrShape, h, w)
	}
	_, _, c, err := shape(m)
	if err != nil {
		return nil, err
	}
	img, err := ToImage(m)
	if err != nil {
		return nil, err
	}
	out := FromImage(resize.Resize(uint(w), uint(h), img, resize.Lanczos3), c == 1)
	if m.Rank() == 2 {
		return matrix.FromSlice(out.Data(), h, w)
	}
	return out, nil
}

// SavePNG encodes m as a PNG file, replacing path atomically.
func SavePNG(path string, m *matrix.Matrix[uint8]) error {
	img, err := ToImage(m)
	if err != nil {
		return err
	}
	return persistence.SaveToFile(nil, path, false, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}
