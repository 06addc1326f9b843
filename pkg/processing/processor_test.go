package processing

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edge-profiler/pkg/types"
)

func TestSyntheticFrameDeterministic(t *testing.T) {
	p := NewProcessor()

	a := p.SyntheticFrame(42)
	b := p.SyntheticFrame(42)
	c := p.SyntheticFrame(43)

	assert.Equal(t, SyntheticHeight, a.Height)
	assert.Equal(t, SyntheticWidth, a.Width)
	assert.Equal(t, SyntheticChannels, a.Channels)
	assert.True(t, a.Valid())
	assert.Equal(t, a.Pix, b.Pix)
	assert.NotEqual(t, a.Pix, c.Pix)
}

func TestFrameImageRoundTrip(t *testing.T) {
	p := NewProcessor()
	frame := p.SyntheticFrame(7)

	img, err := p.FrameToImage(frame)
	require.NoError(t, err)
	assert.Equal(t, frame.Width, img.Bounds().Dx())
	assert.Equal(t, frame.Height, img.Bounds().Dy())

	back := p.ImageToFrame(img)
	assert.Equal(t, frame.Pix, back.Pix)
}

func TestFrameToImageRejectsBadBuffer(t *testing.T) {
	p := NewProcessor()
	_, err := p.FrameToImage(types.Frame{Height: 2, Width: 2, Channels: 3, Pix: []byte{0}})

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoadImageMissing(t *testing.T) {
	p := NewProcessor()
	_, err := p.LoadImage(filepath.Join(t.TempDir(), "nope.jpg"))

	var merr *types.InputMissingError
	require.ErrorAs(t, err, &merr)
}

func TestSaveAndLoadImage(t *testing.T) {
	p := NewProcessor()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	path := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, p.SaveImage(img, path, 90))

	loaded, err := p.LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 32, loaded.Bounds().Dx())
	assert.Equal(t, 16, loaded.Bounds().Dy())
}

func TestSaveImageUnsupportedFormat(t *testing.T) {
	p := NewProcessor()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	err := p.SaveImage(img, filepath.Join(t.TempDir(), "out.tiff"), 90)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAnnotate(t *testing.T) {
	p := NewProcessor()
	img := image.NewNRGBA(image.Rect(0, 0, 120, 60))

	out := p.Annotate(img, "FPS: 30.00")
	assert.Equal(t, img.Bounds(), out.Bounds())

	// Band pixels must have been darkened away from the zero value
	_, _, _, a := out.At(5, 5).RGBA()
	assert.NotZero(t, a)
}
