package strategy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/imaging"
	"github.com/edupipe/pdf-image-extractor/internal/pdf"
)

// CompressionRetry pulls the raw compressed stream straight out of the
// document and hands it to the standard image codecs, bypassing the
// pixel decoder entirely. This recovers images whose embedded streams
// are valid JPEG/PNG/TIFF data that the decoder chokes on.
type CompressionRetry struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewCompressionRetry creates the raw-stream strategy.
func NewCompressionRetry(cfg *config.Config, log zerolog.Logger) *CompressionRetry {
	return &CompressionRetry{cfg: cfg, log: log.With().Str("strategy", NameCompressionRetry).Logger()}
}

func (s *CompressionRetry) Name() string { return NameCompressionRetry }

// Extract reads the raw embedded stream for the xref and decodes it
// with the registered image codecs.
func (s *CompressionRetry) Extract(doc pdf.Document, ref domain.ImageRef, pageNum int) (*imaging.Image, domain.AttemptDetails) {
	var det domain.AttemptDetails

	raw, err := doc.RawStream(ref.XRef)
	if err != nil {
		det.Success = false
		det.Error = fmt.Sprintf("Compression retry extraction failed for xref %d: %v", ref.XRef, err)
		det.IssueType = domain.IssueExtractionFailed
		s.log.Debug().Int("xref", ref.XRef).Msg(det.Error)
		return nil, det
	}
	if raw == nil || len(raw.Data) == 0 {
		det.Success = false
		det.Error = "No raw image data found in extract_image result."
		det.IssueType = domain.IssueExtractionFailed
		s.log.Debug().Int("xref", ref.XRef).Msg(det.Error)
		return nil, det
	}

	img, err := imaging.Decode(raw.Data)
	if err != nil {
		det.Success = false
		det.Error = fmt.Sprintf("Compression retry extraction failed for xref %d: error during image decoding: %v", ref.XRef, err)
		det.IssueType = domain.IssueDecodingFailed
		s.log.Debug().Int("xref", ref.XRef).Str("ext", raw.Ext).Msg(det.Error)
		return nil, det
	}

	// Palette images convert to RGB so downstream save paths behave
	// uniformly. A conversion failure is logged but not fatal; the
	// palette image is still usable.
	if img.Mode() == imaging.ModePalette {
		conv, convErr := img.Convert(imaging.ModeRGB)
		if convErr != nil {
			s.log.Warn().Int("xref", ref.XRef).Err(convErr).Msg("palette to RGB conversion failed, keeping palette image")
		} else {
			img.Close()
			img = conv
		}
	}

	if !checkMinSize(img, s.cfg.MinWidth, s.cfg.MinHeight, &det) {
		img.Close()
		return nil, det
	}

	markSuccess(&det, img)
	s.log.Debug().Int("xref", ref.XRef).Str("dimensions", det.Dimensions).Msg("compression retry extraction successful")
	return img, det
}
