package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edge-profiler/pkg/types"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	acfg, err := cfg.AudioExtractorConfig()
	require.NoError(t, err)
	assert.Equal(t, 16000, acfg.SampleRate)
	assert.Equal(t, 13, acfg.NumCoefficients)

	icfg, err := cfg.ImageExtractorConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, icfg.DownscaleFactor)
	assert.Equal(t, types.Gray, icfg.ColorMode)
	require.NotNil(t, icfg.HOG)
	assert.Equal(t, 9, icfg.HOG.Bins)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Audio, cfg.Audio)
	assert.Equal(t, Default().Profile, cfg.Profile)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "audio:\n  sample_rate: 8000\nimage:\n  color_mode: rgb\n  hog:\n    enabled: false\nprofile:\n  frames: 7\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Audio.SampleRate)
	assert.Equal(t, 13, cfg.Audio.Coefficients, "defaults survive partial files")
	assert.Equal(t, 7, cfg.Profile.Frames)

	icfg, err := cfg.ImageExtractorConfig()
	require.NoError(t, err)
	assert.Equal(t, types.RGB, icfg.ColorMode)
	assert.Nil(t, icfg.HOG)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image:\n  downscale_factor: 0\n"), 0o644))

	_, err := Load(path)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestValidateRejectsBadColorMode(t *testing.T) {
	cfg := Default()
	cfg.Image.ColorMode = "cmyk"

	var verr *types.ValidationError
	require.ErrorAs(t, cfg.Validate(), &verr)
}

func TestValidateRejectsBadQuality(t *testing.T) {
	cfg := Default()
	cfg.Output.Quality = 0

	var verr *types.ValidationError
	require.ErrorAs(t, cfg.Validate(), &verr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
