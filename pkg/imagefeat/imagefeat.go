// Package imagefeat extracts fixed-length feature vectors from still
// images and camera frames.
//
// The transform sequence is: color-mode conversion, downscale by an
// integer factor using the Box (area averaging) filter, then either a
// HoG descriptor over the cell-aligned window or the raw normalized
// pixels of the resized image. Area averaging is used when shrinking
// because it avoids the aliasing of nearest or bilinear sampling, which
// would make downstream features depend on sub-pixel phase.
package imagefeat

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/edgekit/edge-profiler/pkg/processing"
	"github.com/edgekit/edge-profiler/pkg/types"
)

// Config controls image feature extraction
type Config struct {
	DownscaleFactor int             // integer shrink factor, >= 1
	ColorMode       types.ColorMode // Gray or RGB
	HOG             *HOGParams      // nil selects raw-pixel features
	AllowSynthetic  bool            // substitute a seeded random frame when the file is missing
	SyntheticSeed   int64
}

// DefaultConfig returns the edge preprocessing defaults: grayscale,
// halved resolution, 9-bin HoG.
func DefaultConfig() Config {
	hog := DefaultHOGParams()
	return Config{
		DownscaleFactor: 2,
		ColorMode:       types.Gray,
		HOG:             &hog,
	}
}

// Validate checks the configuration at construction time
func (c Config) Validate() error {
	if c.DownscaleFactor < 1 {
		return &types.ValidationError{Field: "image.downscale_factor", Reason: "must be >= 1"}
	}
	if c.HOG != nil {
		return c.HOG.Validate()
	}
	return nil
}

// Result carries the feature vector, the processed (downscaled) image
// and whether a synthetic fallback input was substituted
type Result struct {
	Vector    []float32
	Resized   image.Image
	Synthetic bool
}

// Extractor computes feature vectors from images
type Extractor struct {
	cfg  Config
	proc *processing.Processor
	log  zerolog.Logger
}

// New creates an Extractor with the given config
func New(cfg Config, log zerolog.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg, proc: processing.NewProcessor(), log: log}, nil
}

// ExtractFile loads an image file and extracts its feature vector.
// When the file is missing and synthetic fallback is enabled, a seeded
// random frame of the canonical 480x640x3 shape is substituted and the
// result is flagged.
func (e *Extractor) ExtractFile(path string) (Result, error) {
	img, err := e.proc.LoadImage(path)
	if err != nil {
		var missing *types.InputMissingError
		if errors.As(err, &missing) && e.cfg.AllowSynthetic {
			e.log.Warn().
				Str("event", "synthetic-fallback").
				Str("path", path).
				Msg("input file missing, substituting synthetic image")
			frame := e.proc.SyntheticFrame(e.cfg.SyntheticSeed)
			synth, err := e.proc.FrameToImage(frame)
			if err != nil {
				return Result{}, err
			}
			res, err := e.Extract(synth)
			if err != nil {
				return Result{}, err
			}
			res.Synthetic = true
			return res, nil
		}
		return Result{}, err
	}
	return e.Extract(img)
}

// Extract runs the transform sequence on an in-memory image
func (e *Extractor) Extract(img image.Image) (Result, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	newW := w / e.cfg.DownscaleFactor
	newH := h / e.cfg.DownscaleFactor
	if newW < 1 || newH < 1 {
		return Result{}, &types.ValidationError{
			Field:  "image",
			Reason: fmt.Sprintf("%dx%d too small for downscale factor %d", w, h, e.cfg.DownscaleFactor),
		}
	}

	var work image.Image = img
	if e.cfg.ColorMode == types.Gray {
		work = imaging.Grayscale(work)
	}

	// Box filter averages the source area covered by each output pixel
	resized := imaging.Resize(work, newW, newH, imaging.Box)

	if e.cfg.HOG == nil {
		return Result{Vector: rawPixels(resized, e.cfg.ColorMode), Resized: resized}, nil
	}

	// The descriptor requires the window to be a whole number of cells;
	// floor both dimensions to the nearest cell multiple, then resize.
	p := *e.cfg.HOG
	winW := newW / p.CellSize * p.CellSize
	winH := newH / p.CellSize * p.CellSize
	blockCells := p.BlockSize / p.CellSize
	if winW < blockCells*p.CellSize || winH < blockCells*p.CellSize {
		return Result{}, &types.ValidationError{
			Field:  "image",
			Reason: fmt.Sprintf("resized %dx%d smaller than one %dpx block", newW, newH, p.BlockSize),
		}
	}
	window := imaging.Resize(resized, winW, winH, imaging.Linear)

	return Result{Vector: computeHOG(window, p), Resized: resized}, nil
}

// SaveProcessed writes the processed (grayscale, downscaled) image to
// path in the format implied by its extension
func (e *Extractor) SaveProcessed(img image.Image, path string) error {
	return e.proc.SaveImage(img, path, 90)
}

// rawPixels flattens the image into normalized [0,1] values, row-major
func rawPixels(img *image.NRGBA, mode types.ColorMode) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if mode == types.Gray {
		out := make([]float32, h*w)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[y*w+x] = float32(img.Pix[y*img.Stride+x*4]) / 255
			}
		}
		return out
	}

	out := make([]float32, h*w*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := y*img.Stride + x*4
			dst := (y*w + x) * 3
			out[dst+0] = float32(img.Pix[src+0]) / 255
			out[dst+1] = float32(img.Pix[src+1]) / 255
			out[dst+2] = float32(img.Pix[src+2]) / 255
		}
	}
	return out
}
