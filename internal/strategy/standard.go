package strategy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/imaging"
	"github.com/edupipe/pdf-image-extractor/internal/pdf"
)

// Standard decodes the image's native pixel buffer directly, handling
// the common channel layouts and falling back to the library's
// colorspace conversion for specialty ones.
type Standard struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewStandard creates the standard extraction strategy.
func NewStandard(cfg *config.Config, log zerolog.Logger) *Standard {
	return &Standard{cfg: cfg, log: log.With().Str("strategy", NameStandard).Logger()}
}

func (s *Standard) Name() string { return NameStandard }

// Extract decodes the referenced image's pixel buffer into a bitmap.
func (s *Standard) Extract(doc pdf.Document, ref domain.ImageRef, pageNum int) (*imaging.Image, domain.AttemptDetails) {
	var det domain.AttemptDetails

	fail := func(cause error) (*imaging.Image, domain.AttemptDetails) {
		det.Success = false
		det.Error = fmt.Sprintf("Standard extraction failed for xref %d: %v", ref.XRef, cause)
		det.IssueType = domain.IssueExtractionFailed
		s.log.Debug().Int("xref", ref.XRef).Msg(det.Error)
		return nil, det
	}

	pix, err := doc.DecodePixels(ref.XRef)
	if err != nil {
		return fail(err)
	}
	defer pix.Release()

	var img *imaging.Image
	switch {
	case pix.HasAlpha && pix.Channels == 4:
		img, err = imaging.FromPixmap(pix, imaging.ModeRGBA)

	case !pix.HasAlpha && pix.Channels == 1:
		img, err = imaging.FromPixmap(pix, imaging.ModeGray)

	case !pix.HasAlpha && pix.Channels == 3:
		img, err = imaging.FromPixmap(pix, imaging.ModeRGB)

	case !pix.HasAlpha && pix.Channels == 4 && pix.Colorspace == pdf.ColorspaceCMYK:
		var cmyk *imaging.Image
		cmyk, err = imaging.FromPixmap(pix, imaging.ModeCMYK)
		if err == nil {
			img, err = cmyk.Convert(imaging.ModeRGB)
			cmyk.Close()
		}

	default:
		// Specialty layouts (Lab, Indexed, Gray+Alpha) go through the
		// library's colorspace conversion.
		var conv *pdf.Pixmap
		conv, err = doc.ConvertToRGB(pix, pix.HasAlpha)
		if err == nil {
			mode := imaging.ModeRGB
			if pix.HasAlpha {
				mode = imaging.ModeRGBA
			}
			img, err = imaging.FromPixmap(conv, mode)
			conv.Release()
		}
	}
	if err != nil {
		return fail(err)
	}

	if !checkMinSize(img, s.cfg.MinWidth, s.cfg.MinHeight, &det) {
		img.Close()
		return nil, det
	}

	markSuccess(&det, img)
	s.log.Debug().Int("xref", ref.XRef).Str("dimensions", det.Dimensions).Msg("standard extraction successful")
	return img, det
}
