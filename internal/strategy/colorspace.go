package strategy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/imaging"
	"github.com/edupipe/pdf-image-extractor/internal/pdf"
)

// AlternateColorspace always routes the decoded buffer through the
// library's explicit RGB conversion. It recovers images whose specialty
// colorspaces (Indexed, Lab) the standard path mis-converts.
type AlternateColorspace struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewAlternateColorspace creates the explicit-conversion strategy.
func NewAlternateColorspace(cfg *config.Config, log zerolog.Logger) *AlternateColorspace {
	return &AlternateColorspace{cfg: cfg, log: log.With().Str("strategy", NameAlternateColorspace).Logger()}
}

func (s *AlternateColorspace) Name() string { return NameAlternateColorspace }

// Extract decodes the referenced image and force-converts it to RGB,
// or RGBA when the source carries alpha.
func (s *AlternateColorspace) Extract(doc pdf.Document, ref domain.ImageRef, pageNum int) (*imaging.Image, domain.AttemptDetails) {
	var det domain.AttemptDetails

	fail := func(cause error) (*imaging.Image, domain.AttemptDetails) {
		det.Success = false
		det.Error = fmt.Sprintf("Alternate colorspace extraction failed for xref %d: %v", ref.XRef, cause)
		det.IssueType = domain.IssueExtractionFailed
		s.log.Debug().Int("xref", ref.XRef).Msg(det.Error)
		return nil, det
	}

	pix, err := doc.DecodePixels(ref.XRef)
	if err != nil {
		return fail(err)
	}
	defer pix.Release()

	conv, err := doc.ConvertToRGB(pix, pix.HasAlpha)
	if err != nil {
		return fail(err)
	}
	defer conv.Release()

	mode := imaging.ModeRGB
	if pix.HasAlpha {
		mode = imaging.ModeRGBA
	}
	img, err := imaging.FromPixmap(conv, mode)
	if err != nil {
		return fail(err)
	}

	if !checkMinSize(img, s.cfg.MinWidth, s.cfg.MinHeight, &det) {
		img.Close()
		return nil, det
	}

	markSuccess(&det, img)
	s.log.Debug().Int("xref", ref.XRef).Str("dimensions", det.Dimensions).Msg("alternate colorspace extraction successful")
	return img, det
}
