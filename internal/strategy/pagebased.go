package strategy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/imaging"
	"github.com/edupipe/pdf-image-extractor/internal/pdf"
)

const defaultRenderDPI = 150

// PageBased is the last-resort strategy: instead of extracting the
// embedded image object it rasterizes the whole page containing it.
// The result always carries a warning because it contains everything
// on the page, not just the target image.
type PageBased struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewPageBased creates the whole-page rendering strategy.
func NewPageBased(cfg *config.Config, log zerolog.Logger) *PageBased {
	return &PageBased{cfg: cfg, log: log.With().Str("strategy", NamePageBased).Logger()}
}

func (s *PageBased) Name() string { return NamePageBased }

// Extract renders the page at the configured DPI and wraps the bitmap
// as the extracted image. Minimum-size checks do not apply here: a
// rendered page is always "large enough" and rejecting it would leave
// nothing to fall back to.
func (s *PageBased) Extract(doc pdf.Document, ref domain.ImageRef, pageNum int) (*imaging.Image, domain.AttemptDetails) {
	var det domain.AttemptDetails

	count := doc.PageCount()
	if pageNum < 0 || pageNum >= count {
		det.Success = false
		det.Error = fmt.Sprintf("Page index %d requested (corresponds to page %d), but document only has %d pages (0-%d).",
			pageNum, pageNum+1, count, count-1)
		det.IssueType = domain.IssueExtractionFailed
		s.log.Debug().Int("page_index", pageNum).Msg(det.Error)
		return nil, det
	}

	page, err := doc.Page(pageNum)
	if err != nil {
		det.Success = false
		det.Error = fmt.Sprintf("Page-based extraction failed for page %d: %v", pageNum+1, err)
		det.IssueType = domain.IssueRenderingFailed
		s.log.Debug().Int("page_index", pageNum).Msg(det.Error)
		return nil, det
	}

	dpi := s.cfg.DPI
	if dpi <= 0 {
		s.log.Warn().Int("dpi", dpi).Int("fallback", defaultRenderDPI).Msg("invalid DPI configured, using fallback")
		dpi = defaultRenderDPI
	}
	zoom := float64(dpi) / 72.0

	pix, err := page.RenderBitmap(zoom)
	if err != nil {
		det.Success = false
		det.Error = fmt.Sprintf("Page rendering failed for page %d: %v", pageNum+1, err)
		det.IssueType = domain.IssueRenderingFailed
		s.log.Debug().Int("page_index", pageNum).Float64("zoom", zoom).Msg(det.Error)
		return nil, det
	}
	defer pix.Release()

	mode := imaging.ModeRGB
	if pix.HasAlpha {
		mode = imaging.ModeRGBA
	}
	img, err := imaging.FromPixmap(pix, mode)
	if err != nil {
		det.Success = false
		det.Error = fmt.Sprintf("Page-based extraction failed for page %d: %v", pageNum+1, err)
		det.IssueType = domain.IssueExtractionFailed
		s.log.Debug().Int("page_index", pageNum).Msg(det.Error)
		return nil, det
	}

	markSuccess(&det, img)
	det.Warning = "Used whole page rendering as fallback; image contains entire page."
	s.log.Debug().Int("page_index", pageNum).Str("dimensions", det.Dimensions).Msg("page-based extraction successful")
	return img, det
}
