// Package config provides configuration loading for the extraction
// pipeline. Supports YAML files, environment variables, and programmatic
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every recognized option for the extraction pipeline.
// One value is constructed per run and shared read-only by all
// components.
type Config struct {
	// Page-render fallback resolution. Values <= 0 fall back to the
	// default at the point of use.
	DPI int `yaml:"dpi"`

	// Output format and compression.
	ImageFormat string `yaml:"image_format"`
	Quality     int    `yaml:"quality"`

	// Resize policy.
	MaxWidth            int  `yaml:"max_width"`
	MaxHeight           int  `yaml:"max_height"`
	MaintainAspectRatio bool `yaml:"maintain_aspect_ratio"`

	// Rejection threshold for all strategies except the page-render
	// fallback.
	MinWidth  int `yaml:"min_width"`
	MinHeight int `yaml:"min_height"`

	// Validator settings.
	SupportedFormats   []string `yaml:"supported_formats"`
	ValidateImages     bool     `yaml:"validate_images"`
	MinFileSize        int64    `yaml:"min_file_size"`
	BlankThreshold     float64  `yaml:"blank_threshold"`
	MinContentVariance float64  `yaml:"min_content_variance"`

	// Retry behavior. MaxExtractionRetries is recognized but the
	// coordinator currently always makes one pass over the fixed
	// strategy list.
	RetryFailedExtractions bool `yaml:"retry_failed_extractions"`
	MaxExtractionRetries   int  `yaml:"max_extraction_retries"`

	// Diagnostic report persistence.
	ReportPath       string `yaml:"report_path"`
	SaveReportToFile bool   `yaml:"save_report_to_file"`

	// Logging.
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file or overrides are
// supplied.
func Default() *Config {
	return &Config{
		DPI:                    150,
		ImageFormat:            "png",
		Quality:                95,
		MaxWidth:               1920,
		MaxHeight:              1080,
		MaintainAspectRatio:    true,
		MinWidth:               50,
		MinHeight:              50,
		SupportedFormats:       []string{"png", "jpg", "jpeg", "gif", "webp"},
		ValidateImages:         true,
		MinFileSize:            1024,
		BlankThreshold:         0.98,
		MinContentVariance:     0.01,
		RetryFailedExtractions: true,
		MaxExtractionRetries:   3,
		SaveReportToFile:       true,
		LogLevel:               "info",
		LogFormat:              "console",
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides. A missing path is not an error; defaults apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // ignore error if .env doesn't exist

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays PDFIMG_* environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("PDFIMG_DPI"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DPI = n
		}
	}
	if v := os.Getenv("PDFIMG_IMAGE_FORMAT"); v != "" {
		c.ImageFormat = v
	}
	if v := os.Getenv("PDFIMG_QUALITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Quality = n
		}
	}
	if v := os.Getenv("PDFIMG_REPORT_PATH"); v != "" {
		c.ReportPath = v
	}
	if v := os.Getenv("PDFIMG_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PDFIMG_RETRY_FAILED_EXTRACTIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.RetryFailedExtractions = b
		}
	}
}

// Validate checks option values that have hard domain constraints and
// normalizes the ones that only need clamping.
func (c *Config) Validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}
	format := strings.ToLower(c.ImageFormat)
	switch format {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("unsupported image_format %q (want png, jpg or jpeg)", c.ImageFormat)
	}
	c.ImageFormat = format

	// Minimums below 1 make the size check meaningless.
	if c.MinWidth < 1 {
		c.MinWidth = 1
	}
	if c.MinHeight < 1 {
		c.MinHeight = 1
	}
	if c.MaxWidth < 1 || c.MaxHeight < 1 {
		return fmt.Errorf("max_width/max_height must be positive, got %dx%d", c.MaxWidth, c.MaxHeight)
	}
	if c.BlankThreshold <= 0 || c.BlankThreshold > 1 {
		return fmt.Errorf("blank_threshold must be in (0, 1], got %v", c.BlankThreshold)
	}
	return nil
}
