// Package processing provides the image I/O collaborators of the
// pipeline: decoding input files (including WebP), writing processed
// images, generating synthetic frames and annotating frames with a
// latency overlay.
package processing

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math/rand"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/edgekit/edge-profiler/pkg/types"
)

// SyntheticHeight, SyntheticWidth and SyntheticChannels define the
// canonical shape of generated fallback frames
const (
	SyntheticHeight   = 480
	SyntheticWidth    = 640
	SyntheticChannels = 3
)

// Processor handles image loading, saving and frame conversion
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &types.InputMissingError{Path: path}
	}

	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, &types.DecodeError{Path: path, Err: fmt.Errorf("image: unknown format")}
}

// SaveImage saves an image to a file with the format implied by the
// path extension (jpg/jpeg, png or webp)
func (p *Processor) SaveImage(img image.Image, path string, quality int) error {
	ext := strings.ToLower(path[strings.LastIndex(path, ".")+1:])
	switch ext {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return webp.Encode(f, img, &webp.Options{Quality: float32(quality)})
	case "png":
		return imaging.Save(img, path)
	case "jpg", "jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	default:
		return &types.ValidationError{
			Field:  "output_path",
			Reason: fmt.Sprintf("unsupported output format %q", ext),
		}
	}
}

// SyntheticFrame generates a uniformly random frame of the canonical
// fallback shape. The same seed always yields bit-identical pixels.
func (p *Processor) SyntheticFrame(seed int64) types.Frame {
	rng := rand.New(rand.NewSource(seed))
	pix := make([]byte, SyntheticHeight*SyntheticWidth*SyntheticChannels)
	rng.Read(pix)
	return types.Frame{
		Height:   SyntheticHeight,
		Width:    SyntheticWidth,
		Channels: SyntheticChannels,
		Pix:      pix,
	}
}

// FrameToImage converts a raw frame buffer into an NRGBA image
func (p *Processor) FrameToImage(f types.Frame) (*image.NRGBA, error) {
	if !f.Valid() {
		return nil, &types.ValidationError{
			Field:  "frame",
			Reason: fmt.Sprintf("buffer length %d does not match %dx%dx%d", len(f.Pix), f.Height, f.Width, f.Channels),
		}
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src := (y*f.Width + x) * f.Channels
			dst := y*img.Stride + x*4
			switch f.Channels {
			case 1:
				v := f.Pix[src]
				img.Pix[dst+0] = v
				img.Pix[dst+1] = v
				img.Pix[dst+2] = v
			default:
				img.Pix[dst+0] = f.Pix[src+0]
				img.Pix[dst+1] = f.Pix[src+1]
				img.Pix[dst+2] = f.Pix[src+2]
			}
			img.Pix[dst+3] = 0xff
		}
	}
	return img, nil
}

// ImageToFrame converts an image into a raw interleaved RGB frame
func (p *Processor) ImageToFrame(img image.Image) types.Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, h*w*3)
	nrgba := imaging.Clone(img)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := y*nrgba.Stride + x*4
			dst := (y*w + x) * 3
			pix[dst+0] = nrgba.Pix[src+0]
			pix[dst+1] = nrgba.Pix[src+1]
			pix[dst+2] = nrgba.Pix[src+2]
		}
	}
	return types.Frame{Height: h, Width: w, Channels: 3, Pix: pix}
}

// Annotate draws a performance overlay (e.g. "FPS: 12.34") onto a copy
// of the frame image and returns it
func (p *Processor) Annotate(img image.Image, text string) *image.NRGBA {
	out := imaging.Clone(img)
	green := color.NRGBA{0, 255, 0, 255}

	// Dark band behind the text for readability
	band := image.Rect(0, 0, out.Bounds().Dx(), 22)
	draw.Draw(out, band, &image.Uniform{color.NRGBA{0, 0, 0, 180}}, image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(green),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 15),
	}
	d.DrawString(text)
	return out
}
