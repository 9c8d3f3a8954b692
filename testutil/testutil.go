package testutil

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hupe1980/matio/matrix"
)

// RNG wraps math/rand with a fixed seed. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// RandomMatrix fills a new matrix with values spanning the full range of T,
// including extremes. Floats include NaN, infinities and negative zero.
func RandomMatrix[T matrix.Element](r *RNG, dims ...int) *matrix.Matrix[T] {
	m := matrix.New[T](dims...)
	data := m.Data()

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range data {
		data[i] = randomValue[T](r.rand, i)
	}
	return m
}

func randomValue[T matrix.Element](rnd *rand.Rand, i int) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(rnd.Intn(256))
	case int32:
		switch i % 7 {
		case 0:
			return any(int32(math.MaxInt32)).(T)
		case 1:
			return any(int32(math.MinInt32)).(T)
		}
		return any(int32(rnd.Uint32())).(T)
	case int:
		switch i % 7 {
		case 0:
			return any(math.MaxInt).(T)
		case 1:
			return any(math.MinInt).(T)
		}
		return any(int(rnd.Uint64())).(T)
	case float32:
		specials := []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.Copysign(0, -1)), math.MaxFloat32, math.SmallestNonzeroFloat32}
		if i < len(specials) {
			return any(specials[i]).(T)
		}
		return any(float32(rnd.NormFloat64() * 1e3)).(T)
	default:
		specials := []float64{math.NaN(), math.Inf(1), math.Inf(-1), math.Copysign(0, -1), math.MaxFloat64, math.SmallestNonzeroFloat64}
		if i < len(specials) {
			return any(specials[i]).(T)
		}
		return any(rnd.NormFloat64() * 1e6).(T)
	}
}

// Pattern selects the pixel content of an image fixture.
type Pattern int

const (
	// PatternGradient varies red with x, green with y and blue with both.
	PatternGradient Pattern = iota
	// PatternChecker alternates black and white 4x4 tiles.
	PatternChecker
	// PatternGray is a horizontal gray ramp.
	PatternGray
)

// Image returns a w×h image with the given pattern.
func Image(w, h int, p Pattern) image.Image {
	if p == PatternGray {
		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / max(w-1, 1))})
			}
		}
		return img
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var c color.RGBA
			if p == PatternChecker {
				v := uint8(0)
				if (x/4+y/4)%2 == 0 {
					v = 255
				}
				c = color.RGBA{R: v, G: v, B: v, A: 255}
			} else {
				c = color.RGBA{
					R: uint8(x * 255 / max(w-1, 1)),
					G: uint8(y * 255 / max(h-1, 1)),
					B: uint8((x + y) % 256),
					A: 255,
				}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// WritePNG writes an image fixture to dir/name and returns its path.
func WritePNG(tb testing.TB, dir, name string, w, h int, p Pattern) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		tb.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, Image(w, h, p)); err != nil {
		tb.Fatal(err)
	}
	return path
}

// Corrupt rewrites path after applying fn to its bytes.
func Corrupt(tb testing.TB, path string, fn func([]byte) []byte) {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatal(err)
	}
	if err := os.WriteFile(path, fn(data), 0o644); err != nil {
		tb.Fatal(err)
	}
}
