// Package config holds the application configuration, loaded from an
// optional JSON or YAML file through viper with validated defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/edgekit/edge-profiler/pkg/audiofeat"
	"github.com/edgekit/edge-profiler/pkg/imagefeat"
	"github.com/edgekit/edge-profiler/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Audio   AudioConfig   `mapstructure:"audio"`
	Image   ImageConfig   `mapstructure:"image"`
	Profile ProfileConfig `mapstructure:"profile"`
	Output  OutputConfig  `mapstructure:"output"`
}

// AudioConfig holds MFCC extraction settings
type AudioConfig struct {
	SampleRate     int   `mapstructure:"sample_rate"`
	Coefficients   int   `mapstructure:"coefficients"`
	Mels           int   `mapstructure:"mels"`
	AllowSynthetic bool  `mapstructure:"allow_synthetic"`
	SyntheticSeed  int64 `mapstructure:"synthetic_seed"`
}

// ImageConfig holds image preprocessing and descriptor settings
type ImageConfig struct {
	DownscaleFactor int       `mapstructure:"downscale_factor"`
	ColorMode       string    `mapstructure:"color_mode"`
	HOG             HOGConfig `mapstructure:"hog"`
	AllowSynthetic  bool      `mapstructure:"allow_synthetic"`
	SyntheticSeed   int64     `mapstructure:"synthetic_seed"`
}

// HOGConfig holds descriptor parameters
type HOGConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Bins        int  `mapstructure:"bins"`
	CellSize    int  `mapstructure:"cell_size"`
	BlockSize   int  `mapstructure:"block_size"`
	BlockStride int  `mapstructure:"block_stride"`
}

// ProfileConfig holds profiling run settings
type ProfileConfig struct {
	Frames   int    `mapstructure:"frames"`
	Seed     int64  `mapstructure:"seed"`
	Variant  string `mapstructure:"variant"`
	LogEvery int    `mapstructure:"log_every"`
}

// OutputConfig holds artifact output settings
type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	Quality int    `mapstructure:"quality"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:   16000,
			Coefficients: 13,
			Mels:         40,
		},
		Image: ImageConfig{
			DownscaleFactor: 2,
			ColorMode:       "gray",
			HOG: HOGConfig{
				Enabled:     true,
				Bins:        9,
				CellSize:    8,
				BlockSize:   16,
				BlockStride: 8,
			},
		},
		Profile: ProfileConfig{
			Frames:   100,
			Seed:     42,
			Variant:  "baseline",
			LogEvery: 10,
		},
		Output: OutputConfig{
			Dir:     "out",
			Quality: 90,
		},
	}
}

// Load reads configuration from an optional file, applying defaults
// for everything the file doesn't set. An empty path loads defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.coefficients", d.Audio.Coefficients)
	v.SetDefault("audio.mels", d.Audio.Mels)
	v.SetDefault("audio.allow_synthetic", d.Audio.AllowSynthetic)
	v.SetDefault("audio.synthetic_seed", d.Audio.SyntheticSeed)
	v.SetDefault("image.downscale_factor", d.Image.DownscaleFactor)
	v.SetDefault("image.color_mode", d.Image.ColorMode)
	v.SetDefault("image.hog.enabled", d.Image.HOG.Enabled)
	v.SetDefault("image.hog.bins", d.Image.HOG.Bins)
	v.SetDefault("image.hog.cell_size", d.Image.HOG.CellSize)
	v.SetDefault("image.hog.block_size", d.Image.HOG.BlockSize)
	v.SetDefault("image.hog.block_stride", d.Image.HOG.BlockStride)
	v.SetDefault("image.allow_synthetic", d.Image.AllowSynthetic)
	v.SetDefault("image.synthetic_seed", d.Image.SyntheticSeed)
	v.SetDefault("profile.frames", d.Profile.Frames)
	v.SetDefault("profile.seed", d.Profile.Seed)
	v.SetDefault("profile.variant", d.Profile.Variant)
	v.SetDefault("profile.log_every", d.Profile.LogEvery)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.quality", d.Output.Quality)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.audioConfig().Validate(); err != nil {
		return err
	}
	icfg, err := c.imageConfig()
	if err != nil {
		return err
	}
	if err := icfg.Validate(); err != nil {
		return err
	}
	if c.Profile.Frames < 1 {
		return &types.ValidationError{Field: "profile.frames", Reason: "must be >= 1"}
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return &types.ValidationError{Field: "output.quality", Reason: "must be between 1 and 100"}
	}
	return nil
}

func (c *Config) audioConfig() audiofeat.Config {
	cfg := audiofeat.DefaultConfig()
	cfg.SampleRate = c.Audio.SampleRate
	cfg.NumCoefficients = c.Audio.Coefficients
	cfg.NumMels = c.Audio.Mels
	cfg.AllowSynthetic = c.Audio.AllowSynthetic
	cfg.SyntheticSeed = c.Audio.SyntheticSeed
	return cfg
}

// AudioExtractorConfig converts the file settings into the audio
// extractor configuration
func (c *Config) AudioExtractorConfig() (audiofeat.Config, error) {
	cfg := c.audioConfig()
	if err := cfg.Validate(); err != nil {
		return audiofeat.Config{}, err
	}
	return cfg, nil
}

func (c *Config) imageConfig() (imagefeat.Config, error) {
	cfg := imagefeat.Config{
		DownscaleFactor: c.Image.DownscaleFactor,
		AllowSynthetic:  c.Image.AllowSynthetic,
		SyntheticSeed:   c.Image.SyntheticSeed,
	}
	switch c.Image.ColorMode {
	case "gray", "grey", "":
		cfg.ColorMode = types.Gray
	case "rgb":
		cfg.ColorMode = types.RGB
	default:
		return imagefeat.Config{}, &types.ValidationError{
			Field:  "image.color_mode",
			Reason: fmt.Sprintf("unknown mode %q (use gray or rgb)", c.Image.ColorMode),
		}
	}
	if c.Image.HOG.Enabled {
		cfg.HOG = &imagefeat.HOGParams{
			Bins:        c.Image.HOG.Bins,
			CellSize:    c.Image.HOG.CellSize,
			BlockSize:   c.Image.HOG.BlockSize,
			BlockStride: c.Image.HOG.BlockStride,
		}
	}
	return cfg, nil
}

// ImageExtractorConfig converts the file settings into the image
// extractor configuration
func (c *Config) ImageExtractorConfig() (imagefeat.Config, error) {
	cfg, err := c.imageConfig()
	if err != nil {
		return imagefeat.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return imagefeat.Config{}, err
	}
	return cfg, nil
}
