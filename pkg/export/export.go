// Package export composes feature extraction with the C header codec
// and writes the resulting artifact. Writes are fail-fast: the header
// text is rendered completely in memory before the output file is
// created, so a failed export never leaves a partial artifact behind.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/edgekit/edge-profiler/internal/utils"
	"github.com/edgekit/edge-profiler/pkg/audiofeat"
	"github.com/edgekit/edge-profiler/pkg/headerc"
	"github.com/edgekit/edge-profiler/pkg/imagefeat"
)

// Pipeline builds embedded-array artifacts from raw sensor input
type Pipeline struct {
	audio *audiofeat.Extractor
	image *imagefeat.Extractor
	log   zerolog.Logger
}

// New creates a Pipeline over the given extractors
func New(audio *audiofeat.Extractor, image *imagefeat.Extractor, log zerolog.Logger) *Pipeline {
	return &Pipeline{audio: audio, image: image, log: log}
}

// WriteVector encodes a feature vector and writes it to path. The
// encoded text is complete before the file is touched.
func (p *Pipeline) WriteVector(values []float32, varName, path string, valuesPerLine int) (string, error) {
	text, err := headerc.Encode(values, varName, valuesPerLine)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	p.log.Info().
		Str("artifact", path).
		Str("variable", varName).
		Int("values", len(values)).
		Msg("exported header")
	return path, nil
}

// ExportAudio extracts the MFCC fingerprint of an audio file and writes
// it as a single-line header artifact
func (p *Pipeline) ExportAudio(inputPath, varName, outPath string) (string, error) {
	res, err := p.audio.ExtractFile(inputPath)
	if err != nil {
		return "", err
	}
	return p.WriteVector(res.Vector, varName, outPath, headerc.SingleLine)
}

// ExportImage extracts image features and writes the wrapped header
// artifact. When processedPath is non-empty the downscaled image is
// also saved there for visual inspection.
func (p *Pipeline) ExportImage(inputPath, varName, outPath, processedPath string) (string, error) {
	res, err := p.image.ExtractFile(inputPath)
	if err != nil {
		return "", err
	}

	written, err := p.WriteVector(res.Vector, varName, outPath, headerc.DefaultValuesPerLine)
	if err != nil {
		return "", err
	}

	if processedPath != "" {
		if err := p.image.SaveProcessed(res.Resized, processedPath); err != nil {
			return "", err
		}
		p.log.Info().Str("image", processedPath).Msg("saved processed image")
	}
	return written, nil
}
