package imagefeat

import (
	"image"
	"image/color"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edge-profiler/pkg/types"
)

// noiseImage creates a seeded random test image
func noiseImage(w, h int, seed int64) image.Image {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255,
			})
		}
	}
	return img
}

func newTestExtractor(t *testing.T, cfg Config) *Extractor {
	t.Helper()
	e, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestConfigValidate(t *testing.T) {
	_, err := New(Config{DownscaleFactor: 0}, zerolog.Nop())
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)

	bad := DefaultHOGParams()
	bad.BlockSize = 12 // not a multiple of the 8px cell
	_, err = New(Config{DownscaleFactor: 1, HOG: &bad}, zerolog.Nop())
	require.ErrorAs(t, err, &verr)

	bad = DefaultHOGParams()
	bad.Bins = 0
	_, err = New(Config{DownscaleFactor: 1, HOG: &bad}, zerolog.Nop())
	require.ErrorAs(t, err, &verr)
}

func TestDownscaleFloorDimensions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HOG = nil
	e := newTestExtractor(t, cfg)

	// Odd dimensions exercise the integer floor
	res, err := e.Extract(noiseImage(203, 101, 1))
	require.NoError(t, err)
	assert.Equal(t, 101, res.Resized.Bounds().Dx())
	assert.Equal(t, 50, res.Resized.Bounds().Dy())
	assert.Len(t, res.Vector, 101*50)
}

func TestExtractDeterministic(t *testing.T) {
	e := newTestExtractor(t, DefaultConfig())
	img := noiseImage(160, 120, 5)

	a, err := e.Extract(img)
	require.NoError(t, err)
	b, err := e.Extract(img)
	require.NoError(t, err)
	assert.Equal(t, a.Vector, b.Vector)
}

func TestHOGLengthIndependentOfContent(t *testing.T) {
	e := newTestExtractor(t, DefaultConfig())

	a, err := e.Extract(noiseImage(320, 240, 1))
	require.NoError(t, err)
	b, err := e.Extract(noiseImage(320, 240, 2))
	require.NoError(t, err)

	p := DefaultHOGParams()
	want := p.DescriptorLength(160/8*8, 120/8*8)
	assert.Equal(t, want, len(a.Vector))
	assert.Equal(t, len(a.Vector), len(b.Vector))
	assert.NotEqual(t, a.Vector, b.Vector)
}

func TestDescriptorLength(t *testing.T) {
	p := DefaultHOGParams()

	// 64x64 window: 8x8 cells, 7x7 blocks of 2x2 cells, 9 bins
	assert.Equal(t, 7*7*4*9, p.DescriptorLength(64, 64))
	assert.Equal(t, 0, p.DescriptorLength(8, 8))
}

func TestExtractTooSmall(t *testing.T) {
	e := newTestExtractor(t, DefaultConfig())

	_, err := e.Extract(noiseImage(10, 10, 1))
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRGBRawPixels(t *testing.T) {
	cfg := Config{DownscaleFactor: 2, ColorMode: types.RGB}
	e := newTestExtractor(t, cfg)

	res, err := e.Extract(noiseImage(64, 48, 3))
	require.NoError(t, err)
	assert.Len(t, res.Vector, 32*24*3)
	for _, v := range res.Vector {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestExtractFileMissingNoFallback(t *testing.T) {
	e := newTestExtractor(t, DefaultConfig())

	_, err := e.ExtractFile(filepath.Join(t.TempDir(), "test_image.jpg"))
	var merr *types.InputMissingError
	require.ErrorAs(t, err, &merr)
}

func TestExtractFileSyntheticFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowSynthetic = true
	cfg.SyntheticSeed = 11
	e := newTestExtractor(t, cfg)

	res, err := e.ExtractFile(filepath.Join(t.TempDir(), "test_image.jpg"))
	require.NoError(t, err)
	assert.True(t, res.Synthetic)

	p := DefaultHOGParams()
	want := p.DescriptorLength(320/8*8, 240/8*8)
	assert.Len(t, res.Vector, want)

	res2, err := e.ExtractFile(filepath.Join(t.TempDir(), "test_image.jpg"))
	require.NoError(t, err)
	assert.Equal(t, res.Vector, res2.Vector)
}
