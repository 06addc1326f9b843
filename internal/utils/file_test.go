package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Existing directory is fine
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(""))
}

func TestGetFileExtension(t *testing.T) {
	assert.Equal(t, "wav", GetFileExtension("test.WAV"))
	assert.Equal(t, "h", GetFileExtension("audio_features.h"))
	assert.Equal(t, "", GetFileExtension("README"))
}

func TestFileTypeChecks(t *testing.T) {
	assert.True(t, IsImageFile("frame.jpg"))
	assert.True(t, IsImageFile("frame.webp"))
	assert.False(t, IsImageFile("clip.wav"))

	assert.True(t, IsAudioFile("clip.wav"))
	assert.False(t, IsAudioFile("frame.png"))
}

func TestGenerateOutputFilename(t *testing.T) {
	got := GenerateOutputFilename("/data/test_image.jpg", "out", "_features", "h")
	assert.Equal(t, filepath.Join("out", "test_image_features.h"), got)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
	assert.False(t, FileExists(dir))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.0 KB", FormatFileSize(1024))
	assert.Equal(t, "1.5 MB", FormatFileSize(3*1024*1024/2))
}
