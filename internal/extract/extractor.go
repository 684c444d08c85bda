package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/pdf"
)

// ImageExtractor walks every page of one PDF, drives the
// coordinator → processor → reporter chain per image, and returns the
// sealed document report. It never raises past its boundary: document
// level failures become recorded errors in an otherwise well-formed
// (if empty) report, and one bad image never aborts the rest.
type ImageExtractor struct {
	cfg         *config.Config
	coordinator *RetryCoordinator
	processor   *ImageProcessor
	reporter    *ExtractionReporter
	validator   *pdf.Validator
	log         zerolog.Logger

	// openDocument is swapped out in tests for a scripted document.
	openDocument func(path string) (pdf.Document, error)
}

// NewImageExtractor wires the full extraction pipeline from one config.
func NewImageExtractor(cfg *config.Config, log zerolog.Logger) *ImageExtractor {
	return &ImageExtractor{
		cfg:         cfg,
		coordinator: NewRetryCoordinator(cfg, log),
		processor:   NewImageProcessor(cfg, log),
		reporter:    NewExtractionReporter(log),
		validator:   pdf.NewValidator(),
		log:         log.With().Str("component", "image_extractor").Logger(),
		openDocument: func(path string) (pdf.Document, error) {
			return pdf.Open(path)
		},
	}
}

// ExtractImagesFromPDF extracts every image of the PDF into outputDir
// and returns the document report. Saved files are named
// fig{N}-page{P}-img{I}.{format} with N counting once per image across
// the whole document.
func (e *ImageExtractor) ExtractImagesFromPDF(pdfPath, outputDir string) domain.DocumentReport {
	e.reporter.StartDocumentReport(pdfPath)

	reportDir := ""
	if e.cfg.SaveReportToFile {
		reportDir = e.cfg.ReportPath
		if reportDir == "" {
			reportDir = outputDir
		}
	}

	if err := e.validator.ValidatePDFPath(pdfPath); err != nil {
		e.log.Error().Err(err).Str("pdf", pdfPath).Msg("PDF path validation failed")
		e.reporter.TrackDocumentError(err.Error())
		return e.reporter.FinalizeReport(reportDir)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		msg := fmt.Sprintf("Failed to create output directory %s: %v", outputDir, err)
		e.log.Error().Msg(msg)
		e.reporter.TrackDocumentError(msg)
		return e.reporter.FinalizeReport(reportDir)
	}

	doc, err := e.openDocument(pdfPath)
	if err != nil {
		msg := fmt.Sprintf("Failed to process PDF %s: %v", pdfPath, err)
		e.log.Error().Msg(msg)
		e.reporter.TrackDocumentError(msg)
		return e.reporter.FinalizeReport(reportDir)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			e.log.Warn().Err(cerr).Msg("closing PDF document failed")
		}
	}()

	imageCounter := 0
	for pageIndex := 0; pageIndex < doc.PageCount(); pageIndex++ {
		page, err := doc.Page(pageIndex)
		if err != nil {
			msg := fmt.Sprintf("Failed to load page %d: %v", pageIndex+1, err)
			e.log.Error().Msg(msg)
			e.reporter.TrackDocumentError(msg)
			continue
		}

		refs, err := page.Images()
		if err != nil {
			msg := fmt.Sprintf("Failed to list images on page %d: %v", pageIndex+1, err)
			e.log.Error().Msg(msg)
			e.reporter.TrackDocumentError(msg)
			continue
		}
		e.log.Debug().Int("page", pageIndex+1).Int("images", len(refs)).Msg("processing page")

		for _, ref := range refs {
			imageCounter++
			e.reporter.TrackImageAttempt(ref)
			e.extractOne(doc, ref, pageIndex, imageCounter, outputDir)
		}
	}

	return e.reporter.FinalizeReport(reportDir)
}

// extractOne runs one image through coordinator and processor and
// reports the combined outcome. The extracted bitmap is closed here,
// whatever the processing result.
func (e *ImageExtractor) extractOne(doc pdf.Document, ref domain.ImageRef, pageIndex, figNum int, outputDir string) {
	img, outcome := e.coordinator.ExtractWithRetry(doc, ref, pageIndex)

	if img == nil || !outcome.Success {
		e.log.Warn().
			Int("page", ref.Page).
			Int("index", ref.IndexOnPage).
			Str("error", outcome.FinalError).
			Msg("image extraction failed")
		e.reporter.TrackExtractionResult(outcome, domain.ProcessingOutcome{})
		return
	}
	defer img.Close()

	filename := fmt.Sprintf("fig%d-page%d-img%d.%s", figNum, ref.Page, ref.IndexOnPage+1, e.cfg.ImageFormat)
	outputPath := filepath.Join(outputDir, filename)

	proc := e.processor.Process(img, outputPath)
	e.reporter.TrackExtractionResult(outcome, proc)

	if proc.Success {
		e.log.Info().Str("file", filename).Str("method", outcome.ExtractionMethod).Msg("image extracted and saved")
	}
}
