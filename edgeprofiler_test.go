package edgeprofiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edge-profiler/internal/config"
	"github.com/edgekit/edge-profiler/pkg/model"
	"github.com/edgekit/edge-profiler/pkg/types"
)

func newSyntheticProfiler(t *testing.T) *EdgeProfiler {
	t.Helper()
	cfg := config.Default()
	cfg.Audio.AllowSynthetic = true
	cfg.Image.AllowSynthetic = true
	cfg.Profile.Frames = 3
	cfg.Profile.LogEvery = 0

	ep, err := NewWithConfig(cfg, zerolog.Nop())
	require.NoError(t, err)
	return ep
}

func TestNew(t *testing.T) {
	ep, err := New()
	require.NoError(t, err)
	require.NotNil(t, ep)
	assert.Equal(t, Version, GetVersion())
}

func TestNewWithConfigRejectsInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.SampleRate = -1

	_, err := NewWithConfig(cfg, zerolog.Nop())
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestExportAudioFeaturesFallback(t *testing.T) {
	ep := newSyntheticProfiler(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "audio_features.h")

	written, err := ep.ExportAudioFeatures(filepath.Join(dir, "test.wav"), "audio_fingerprint", out)
	require.NoError(t, err)
	assert.Equal(t, out, written)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#ifndef AUDIO_FINGERPRINT_H"))
}

func TestExportImageFeaturesFallback(t *testing.T) {
	ep := newSyntheticProfiler(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "image_input.h")

	_, err := ep.ExportImageFeatures(filepath.Join(dir, "test_image.jpg"), "image_input", out, "")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "const float image_input[")
}

func TestExportMissingInputFatalWithoutFallback(t *testing.T) {
	ep, err := New()
	require.NoError(t, err)
	dir := t.TempDir()

	_, err = ep.ExportAudioFeatures(filepath.Join(dir, "test.wav"), "audio_fingerprint", filepath.Join(dir, "out.h"))
	var merr *types.InputMissingError
	require.ErrorAs(t, err, &merr)
}

func TestProfileVariant(t *testing.T) {
	ep := newSyntheticProfiler(t)

	report, err := ep.ProfileVariant(context.Background(), model.Optimized)
	require.NoError(t, err)
	assert.Equal(t, 3, report.SampleCount)
	assert.Equal(t, "convnet-int8", report.Model)
	assert.Positive(t, report.MeanLatency)
}

func TestCompare(t *testing.T) {
	ep := newSyntheticProfiler(t)

	base, opt, err := ep.Compare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base.SampleCount, opt.SampleCount)
	assert.NotEqual(t, base.Model, opt.Model)
}
