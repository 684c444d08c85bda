package extract

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/imaging"
)

// ImageProcessor takes a successfully extracted bitmap through the
// resize, save and validation steps. It never panics outward: any
// failure comes back classified in the processing outcome.
type ImageProcessor struct {
	cfg       *config.Config
	validator *imaging.Validator
	log       zerolog.Logger
}

// NewImageProcessor builds a processor; the file validator is
// constructed from the same config even when validation is switched
// off, so toggling it needs no rebuild.
func NewImageProcessor(cfg *config.Config, log zerolog.Logger) *ImageProcessor {
	return &ImageProcessor{
		cfg: cfg,
		validator: imaging.NewValidator(imaging.ValidatorConfig{
			MinWidth:           cfg.MinWidth,
			MinHeight:          cfg.MinHeight,
			MinFileSize:        cfg.MinFileSize,
			BlankThreshold:     cfg.BlankThreshold,
			MinContentVariance: cfg.MinContentVariance,
			SupportedFormats:   cfg.SupportedFormats,
		}),
		log: log.With().Str("component", "image_processor").Logger(),
	}
}

// Process resizes the image to fit the configured bounds, writes it to
// path, and optionally validates the written file. The input image is
// never closed here; the caller retains ownership. Intermediate resized
// copies are closed before returning.
func (p *ImageProcessor) Process(img *imaging.Image, path string) domain.ProcessingOutcome {
	outcome := domain.ProcessingOutcome{
		Details: domain.ProcessingDetails{
			OriginalDimensions: img.Dimensions(),
		},
	}

	toSave := img
	// Resizing always preserves aspect ratio; with the option off the
	// image is saved at its original size.
	if w, h, resize := p.targetSize(img.Width(), img.Height()); resize && p.cfg.MaintainAspectRatio {
		resized := img.Resize(w, h)
		defer resized.Close()
		toSave = resized
		outcome.Details.ResizeApplied = true
		outcome.Details.ResizedDimensions = resized.Dimensions()
		p.log.Debug().
			Str("from", outcome.Details.OriginalDimensions).
			Str("to", outcome.Details.ResizedDimensions).
			Msg("image resized to fit configured bounds")
	}

	res, err := imaging.Save(toSave, path, imaging.SaveOptions{
		Format:  p.cfg.ImageFormat,
		Quality: p.cfg.Quality,
	})
	outcome.Details.SaveFormat = res.Format
	outcome.Details.JPEGQuality = res.JPEGQuality
	outcome.Details.PNGCompressLevel = res.PNGCompressLevel
	outcome.Details.ModeConverted = res.ModeConverted
	if err != nil {
		outcome.Success = false
		outcome.Issue = fmt.Sprintf("Failed to save image: %v", err)
		outcome.IssueType = domain.IssueProcessingError
		p.log.Error().Err(err).Str("path", path).Msg("image save failed")
		return outcome
	}
	outcome.Details.SaveSuccessful = true
	outcome.Path = path

	if p.cfg.ValidateImages {
		v := p.validator.ValidateFile(path)
		if !v.IsValid {
			outcome.Success = false
			outcome.Issue = v.Details
			outcome.IssueType = v.IssueType
			outcome.ValidationInfo = v.Metrics
			p.log.Warn().
				Str("path", path).
				Str("issue_type", string(v.IssueType)).
				Str("details", v.Details).
				Msg("saved image failed validation")
			return outcome
		}
		outcome.ValidationInfo = v.Metrics
	}

	outcome.Success = true
	return outcome
}

// targetSize computes the bounded dimensions. The scale factor is the
// smaller of the per-axis reductions, so aspect ratio survives; images
// already inside the bounds are never scaled up.
func (p *ImageProcessor) targetSize(w, h int) (int, int, bool) {
	scaleW, scaleH := 1.0, 1.0
	if p.cfg.MaxWidth > 0 && w > p.cfg.MaxWidth {
		scaleW = float64(p.cfg.MaxWidth) / float64(w)
	}
	if p.cfg.MaxHeight > 0 && h > p.cfg.MaxHeight {
		scaleH = float64(p.cfg.MaxHeight) / float64(h)
	}
	scale := math.Min(scaleW, scaleH)
	if scale >= 1.0 {
		return w, h, false
	}
	return int(math.Round(float64(w) * scale)), int(math.Round(float64(h) * scale)), true
}
