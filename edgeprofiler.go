// Package edgeprofiler converts raw sensor input into fixed-size
// feature vectors, serializes them into deterministic C header
// artifacts for firmware builds, and profiles baseline versus
// reduced-precision model variants.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		edgeprofiler "github.com/edgekit/edge-profiler"
//		"github.com/edgekit/edge-profiler/pkg/model"
//	)
//
//	func main() {
//		ep, err := edgeprofiler.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Export the MFCC fingerprint of a clip as a C header
//		path, err := ep.ExportAudioFeatures("test.wav", "audio_fingerprint", "audio_features.h")
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println("wrote", path)
//
//		// Compare model variants over identical synthetic frames
//		base, opt, err := ep.Compare(context.Background())
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("baseline %v vs optimized %v\n", base.MeanLatency, opt.MeanLatency)
//		_ = model.Optimized
//	}
//
// The package consists of four main components:
//
// 1. Extractors (pkg/audiofeat, pkg/imagefeat): fixed-length feature vectors from clips and frames
// 2. Codec (pkg/headerc): deterministic embedded-array header rendering
// 3. Harness (pkg/profile): per-frame latency measurement and aggregation
// 4. Pipeline (pkg/export): fail-fast composition of extraction and serialization
//
// Same input and configuration always produce byte-identical artifacts,
// and profiling runs over a seeded synthetic source see bit-identical
// frames across model variants.
package edgeprofiler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edgekit/edge-profiler/internal/config"
	"github.com/edgekit/edge-profiler/pkg/audiofeat"
	"github.com/edgekit/edge-profiler/pkg/export"
	"github.com/edgekit/edge-profiler/pkg/imagefeat"
	"github.com/edgekit/edge-profiler/pkg/model"
	"github.com/edgekit/edge-profiler/pkg/profile"
)

// Version of the edge profiler library
const Version = "1.0.0"

// EdgeProfiler provides a high-level interface over the extraction,
// export and profiling components
type EdgeProfiler struct {
	cfg      *config.Config
	audio    *audiofeat.Extractor
	image    *imagefeat.Extractor
	pipeline *export.Pipeline
	log      zerolog.Logger
}

// New creates an EdgeProfiler with default configuration
func New() (*EdgeProfiler, error) {
	return NewWithConfig(config.Default(), zerolog.Nop())
}

// NewWithConfig creates an EdgeProfiler with custom configuration
func NewWithConfig(cfg *config.Config, log zerolog.Logger) (*EdgeProfiler, error) {
	acfg, err := cfg.AudioExtractorConfig()
	if err != nil {
		return nil, err
	}
	audio, err := audiofeat.New(acfg, log)
	if err != nil {
		return nil, err
	}

	icfg, err := cfg.ImageExtractorConfig()
	if err != nil {
		return nil, err
	}
	image, err := imagefeat.New(icfg, log)
	if err != nil {
		return nil, err
	}

	return &EdgeProfiler{
		cfg:      cfg,
		audio:    audio,
		image:    image,
		pipeline: export.New(audio, image, log),
		log:      log,
	}, nil
}

// ExportAudioFeatures extracts the MFCC fingerprint of an audio file
// and writes it as a single-line header artifact
func (e *EdgeProfiler) ExportAudioFeatures(inputPath, varName, outPath string) (string, error) {
	return e.pipeline.ExportAudio(inputPath, varName, outPath)
}

// ExportImageFeatures extracts image features and writes the header
// artifact, optionally saving the processed image alongside
func (e *EdgeProfiler) ExportImageFeatures(inputPath, varName, outPath, processedPath string) (string, error) {
	return e.pipeline.ExportImage(inputPath, varName, outPath, processedPath)
}

// ProfileVariant runs the profiling harness for one model variant over
// the configured synthetic frame sequence
func (e *EdgeProfiler) ProfileVariant(ctx context.Context, v model.Variant) (*profile.Report, error) {
	m, err := model.Load(v)
	if err != nil {
		return nil, err
	}
	return e.ProfileModel(ctx, m)
}

// ProfileModel runs the profiling harness for an arbitrary model over
// the configured synthetic frame sequence
func (e *EdgeProfiler) ProfileModel(ctx context.Context, m model.Model) (*profile.Report, error) {
	h := profile.New(model.PreprocessFrame, e.log).LogEvery(e.cfg.Profile.LogEvery)
	source := profile.NewSyntheticSource(e.cfg.Profile.Frames, e.cfg.Profile.Seed)
	return h.Run(ctx, source, m)
}

// Compare profiles the baseline and optimized variants over identical
// seeded frame sequences and returns both reports
func (e *EdgeProfiler) Compare(ctx context.Context) (baseline, optimized *profile.Report, err error) {
	baseline, err = e.ProfileVariant(ctx, model.Baseline)
	if err != nil {
		return nil, nil, err
	}
	optimized, err = e.ProfileVariant(ctx, model.Optimized)
	if err != nil {
		return nil, nil, err
	}
	return baseline, optimized, nil
}

// Config returns the active configuration
func (e *EdgeProfiler) Config() *config.Config {
	return e.cfg
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
