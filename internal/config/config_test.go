package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 150, cfg.DPI)
	assert.Equal(t, "png", cfg.ImageFormat)
	assert.Equal(t, 95, cfg.Quality)
	assert.Equal(t, 1920, cfg.MaxWidth)
	assert.Equal(t, 1080, cfg.MaxHeight)
	assert.Equal(t, 50, cfg.MinWidth)
	assert.Equal(t, 50, cfg.MinHeight)
	assert.True(t, cfg.RetryFailedExtractions)
	assert.True(t, cfg.ValidateImages)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dpi: 300
image_format: jpg
quality: 80
max_width: 800
max_height: 600
retry_failed_extractions: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.DPI)
	assert.Equal(t, "jpg", cfg.ImageFormat)
	assert.Equal(t, 80, cfg.Quality)
	assert.Equal(t, 800, cfg.MaxWidth)
	assert.Equal(t, 600, cfg.MaxHeight)
	assert.False(t, cfg.RetryFailedExtractions)
	// Untouched options keep their defaults.
	assert.Equal(t, 50, cfg.MinWidth)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().DPI, cfg.DPI)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PDFIMG_DPI", "200")
	t.Setenv("PDFIMG_IMAGE_FORMAT", "jpeg")
	t.Setenv("PDFIMG_QUALITY", "70")
	t.Setenv("PDFIMG_RETRY_FAILED_EXTRACTIONS", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.DPI)
	assert.Equal(t, "jpeg", cfg.ImageFormat)
	assert.Equal(t, 70, cfg.Quality)
	assert.False(t, cfg.RetryFailedExtractions)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"quality too low", func(c *Config) { c.Quality = 0 }, true},
		{"quality too high", func(c *Config) { c.Quality = 101 }, true},
		{"bad format", func(c *Config) { c.ImageFormat = "webp" }, true},
		{"format case-insensitive", func(c *Config) { c.ImageFormat = "PNG" }, false},
		{"zero max bounds", func(c *Config) { c.MaxWidth = 0 }, true},
		{"blank threshold zero", func(c *Config) { c.BlankThreshold = 0 }, true},
		{"blank threshold above one", func(c *Config) { c.BlankThreshold = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateClampsMinimums(t *testing.T) {
	cfg := Default()
	cfg.MinWidth = 0
	cfg.MinHeight = -5

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.MinWidth)
	assert.Equal(t, 1, cfg.MinHeight)
}

func TestValidateNormalizesFormatCase(t *testing.T) {
	cfg := Default()
	cfg.ImageFormat = "JPEG"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "jpeg", cfg.ImageFormat)
}
