package extract

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/imaging"
)

// noisyImage returns a bitmap with enough pixel variety to pass the
// blank and variance checks.
func noisyImage(w, h int) *imaging.Image {
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x + y) * 3), A: 255})
		}
	}
	return imaging.New(src, imaging.ModeRGB)
}

func TestProcessorTargetSize(t *testing.T) {
	cfg := config.Default()
	cfg.MaxWidth = 750
	cfg.MaxHeight = 600
	p := NewImageProcessor(cfg, zerolog.Nop())

	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
		wantResize   bool
	}{
		{"within bounds untouched", 100, 100, 100, 100, false},
		{"exactly at bounds untouched", 750, 600, 750, 600, false},
		{"width-bound scales both", 1000, 400, 750, 300, true},
		{"height-bound scales both", 400, 1200, 200, 600, true},
		{"both over, tighter axis wins", 1000, 800, 750, 600, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, h, resize := p.targetSize(tc.w, tc.h)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
			assert.Equal(t, tc.wantResize, resize)
		})
	}
}

func TestProcessorSavesWithoutResize(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ValidateImages = false
	p := NewImageProcessor(cfg, zerolog.Nop())

	img := noisyImage(100, 100)
	defer img.Close()
	path := filepath.Join(dir, "fig1-page1-img1.png")

	out := p.Process(img, path)

	require.True(t, out.Success)
	assert.Equal(t, path, out.Path)
	assert.False(t, out.Details.ResizeApplied)
	assert.Equal(t, "100x100", out.Details.OriginalDimensions)
	assert.True(t, out.Details.SaveSuccessful)
	assert.Equal(t, "PNG", out.Details.SaveFormat)
	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, img.Closed(), "processor must not close the caller's image")
}

func TestProcessorResizesOversizedImage(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.MaxWidth = 750
	cfg.MaxHeight = 600
	cfg.ValidateImages = false
	p := NewImageProcessor(cfg, zerolog.Nop())

	img := noisyImage(1000, 800)
	defer img.Close()
	path := filepath.Join(dir, "fig1-page1-img1.png")

	out := p.Process(img, path)

	require.True(t, out.Success)
	assert.True(t, out.Details.ResizeApplied)
	assert.Equal(t, "1000x800", out.Details.OriginalDimensions)
	assert.Equal(t, "750x600", out.Details.ResizedDimensions)
}

func TestProcessorSkipsResizeWhenAspectRatioDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.MaxWidth = 50
	cfg.MaxHeight = 50
	cfg.MaintainAspectRatio = false
	cfg.ValidateImages = false
	p := NewImageProcessor(cfg, zerolog.Nop())

	img := noisyImage(100, 100)
	defer img.Close()

	out := p.Process(img, filepath.Join(dir, "big.png"))

	require.True(t, out.Success)
	assert.False(t, out.Details.ResizeApplied)
}

func TestProcessorValidationFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ValidateImages = true
	cfg.MinFileSize = 1 // the blank check is what should trip
	p := NewImageProcessor(cfg, zerolog.Nop())

	// Uniform white image: every luma sample lands in one histogram bin.
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			src.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	img := imaging.New(src, imaging.ModeRGB)
	defer img.Close()
	path := filepath.Join(dir, "blank.png")

	out := p.Process(img, path)

	assert.False(t, out.Success)
	assert.Equal(t, path, out.Path, "file stays on disk even when validation fails")
	assert.Equal(t, domain.IssueBlank, out.IssueType)
	assert.NotEmpty(t, out.Issue)
	assert.True(t, out.Details.SaveSuccessful)
}

func TestProcessorSaveFailure(t *testing.T) {
	cfg := config.Default()
	cfg.ValidateImages = false
	p := NewImageProcessor(cfg, zerolog.Nop())

	img := noisyImage(10, 10)
	defer img.Close()

	// Writing below a path that exists as a file must fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	path := filepath.Join(blocker, "img.png")

	out := p.Process(img, path)

	assert.False(t, out.Success)
	assert.Empty(t, out.Path)
	assert.Equal(t, domain.IssueProcessingError, out.IssueType)
	assert.Contains(t, out.Issue, "Failed to save image")
	assert.False(t, out.Details.SaveSuccessful)
}
