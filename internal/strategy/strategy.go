// Package strategy implements the interchangeable algorithms for
// pulling one embedded image out of one PDF page. Strategies never
// return errors: every failure is reported through the returned attempt
// details, and every intermediate buffer a strategy allocates is
// released before it returns, on success and failure alike. The one
// buffer not released is the image a strategy successfully returns;
// ownership of that one passes to the caller.
package strategy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/imaging"
	"github.com/edupipe/pdf-image-extractor/internal/pdf"
)

// Strategy names, in coordinator priority order.
const (
	NameStandard            = "standard"
	NameAlternateColorspace = "alternate_colorspace"
	NameCompressionRetry    = "compression_retry"
	NamePageBased           = "page_based"
)

// Strategy is one algorithm for turning an image reference into a
// decoded bitmap.
type Strategy interface {
	Name() string

	// Extract attempts to pull the referenced image out of the
	// document. A nil image with Success false in the details means
	// the attempt failed; the details say why.
	Extract(doc pdf.Document, ref domain.ImageRef, pageNum int) (*imaging.Image, domain.AttemptDetails)
}

// DefaultSet returns the four strategies in the fixed priority order
// the coordinator tries them in.
func DefaultSet(cfg *config.Config, log zerolog.Logger) []Strategy {
	return []Strategy{
		NewStandard(cfg, log),
		NewAlternateColorspace(cfg, log),
		NewCompressionRetry(cfg, log),
		NewPageBased(cfg, log),
	}
}

// checkMinSize applies the minimum-size policy shared by every strategy
// except the page-render fallback. On rejection it fills det; the
// caller must release the rejected image.
func checkMinSize(img *imaging.Image, minW, minH int, det *domain.AttemptDetails) bool {
	if img.Width() < minW || img.Height() < minH {
		det.Success = false
		det.Error = fmt.Sprintf("Image too small: %dx%d (min: %dx%d)", img.Width(), img.Height(), minW, minH)
		det.IssueType = domain.IssueSizeIssues
		return false
	}
	return true
}

// markSuccess fills the success fields of det from the extracted image.
func markSuccess(det *domain.AttemptDetails, img *imaging.Image) {
	det.Success = true
	det.Dimensions = img.Dimensions()
	det.Mode = img.Mode()
}
