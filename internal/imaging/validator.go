package imaging

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/edupipe/pdf-image-extractor/internal/domain"
)

// ValidatorConfig holds the thresholds for saved-file validation.
type ValidatorConfig struct {
	MinWidth           int
	MinHeight          int
	MinFileSize        int64
	BlankThreshold     float64 // max share of pixels in one histogram bin
	MinContentVariance float64 // min grayscale std-dev as a fraction of 255
	SupportedFormats   []string
}

// ValidationResult is the outcome of validating one saved file.
type ValidationResult struct {
	IsValid   bool
	Path      string
	IssueType domain.IssueType
	Details   string
	Metrics   map[string]any
}

// Validator re-opens saved image files and checks dimensions, size,
// format and content. One instance is constructed per run and shared.
type Validator struct {
	cfg ValidatorConfig
}

// NewValidator creates a validator with the given thresholds.
func NewValidator(cfg ValidatorConfig) *Validator {
	if len(cfg.SupportedFormats) == 0 {
		cfg.SupportedFormats = []string{"png", "jpg", "jpeg", "gif", "webp"}
	}
	return &Validator{cfg: cfg}
}

// ValidateFile validates an image file on disk.
func (v *Validator) ValidateFile(path string) ValidationResult {
	info, err := os.Stat(path)
	if err != nil {
		return invalid(path, domain.IssueMissing, "Image file does not exist", nil)
	}

	if info.Size() < v.cfg.MinFileSize {
		return invalid(path, domain.IssueSizeIssues,
			fmt.Sprintf("File size too small: %d bytes", info.Size()),
			map[string]any{"file_size": info.Size()})
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !v.formatSupported(ext) {
		return invalid(path, domain.IssueFormatIssues,
			fmt.Sprintf("Unsupported format: %s", ext),
			map[string]any{"format": ext})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return invalid(path, domain.IssueOther, fmt.Sprintf("Cannot read image file: %v", err), nil)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return invalid(path, domain.IssueCorrupt,
			fmt.Sprintf("Cannot decode image file: %v", err), nil)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	metrics := map[string]any{
		"width":     width,
		"height":    height,
		"file_size": info.Size(),
		"format":    format,
	}

	if width < v.cfg.MinWidth || height < v.cfg.MinHeight {
		return invalid(path, domain.IssueSizeIssues,
			fmt.Sprintf("Image too small: %dx%d (min: %dx%d)", width, height, v.cfg.MinWidth, v.cfg.MinHeight),
			metrics)
	}

	stddev, maxBinRatio := grayStats(img)
	metrics["stddev"] = stddev
	metrics["max_bin_ratio"] = maxBinRatio

	if maxBinRatio > v.cfg.BlankThreshold {
		return invalid(path, domain.IssueBlank,
			fmt.Sprintf("Image appears to be blank or nearly blank (uniformity: %.2f%%)", maxBinRatio*100),
			metrics)
	}

	if stddev < v.cfg.MinContentVariance*255 {
		return invalid(path, domain.IssueLowQuality,
			fmt.Sprintf("Low image variance: %.2f", stddev),
			metrics)
	}

	return ValidationResult{IsValid: true, Path: path, Metrics: metrics}
}

func (v *Validator) formatSupported(ext string) bool {
	for _, f := range v.cfg.SupportedFormats {
		if strings.EqualFold(f, ext) {
			return true
		}
	}
	return false
}

func invalid(path string, issue domain.IssueType, details string, metrics map[string]any) ValidationResult {
	if metrics == nil {
		metrics = map[string]any{}
	}
	return ValidationResult{
		IsValid:   false,
		Path:      path,
		IssueType: issue,
		Details:   details,
		Metrics:   metrics,
	}
}

// grayStats computes the grayscale standard deviation and the share of
// pixels in the most populated histogram bin.
func grayStats(img image.Image) (stddev, maxBinRatio float64) {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0, 1
	}

	var hist [256]int
	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R 601 luma, same weighting as color.GrayModel.
			gray := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
			hist[gray]++
			f := float64(gray)
			sum += f
			sumSq += f * f
		}
	}

	mean := sum / float64(total)
	variance := sumSq/float64(total) - mean*mean
	if variance < 0 {
		variance = 0
	}

	maxBin := 0
	for _, c := range hist {
		if c > maxBin {
			maxBin = c
		}
	}
	return math.Sqrt(variance), float64(maxBin) / float64(total)
}
