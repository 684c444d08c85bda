// Package extractor is the public entry point for the PDF image
// extraction library. It wraps the internal pipeline behind a small
// client type so callers never touch internal packages.
package extractor

import (
	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/extract"
	"github.com/edupipe/pdf-image-extractor/internal/observability"
)

// Re-export report types for the public API
type (
	DocumentReport = domain.DocumentReport
	ProblemRecord  = domain.ProblemRecord
	Metrics        = domain.Metrics
	IssueType      = domain.IssueType
	Config         = config.Config
)

// Client is the main entry point for the image extraction library.
type Client struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewClient creates a client from defaults plus environment overrides.
func NewClient() (*Client, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client over an explicit configuration.
func NewClientWithConfig(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, domain.ConfigError("configuration is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := observability.NewLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	return &Client{cfg: cfg, log: log}, nil
}

// DefaultConfig returns the configuration the client uses when nothing
// is overridden.
func DefaultConfig() *Config {
	return config.Default()
}

// ExtractImages extracts every image from the PDF into outputDir and
// returns the sealed document report. Document-level failures (missing
// file, corrupt PDF, unwritable directory) are recorded in the report's
// error log rather than returned; the report is always well-formed.
func (c *Client) ExtractImages(pdfPath, outputDir string) DocumentReport {
	e := extract.NewImageExtractor(c.cfg, c.log)
	return e.ExtractImagesFromPDF(pdfPath, outputDir)
}
