package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/domain"
)

// failureRatioThreshold downgrades a document's success flag when more
// than this share of its images are problematic. Isolated cosmetic
// failures stay "successful"; systemically broken extraction does not.
const failureRatioThreshold = 0.25

// ExtractionReporter accumulates per-image outcomes into running
// counters and the problematic-images list, then seals them into a
// DocumentReport. Lifecycle: StartDocumentReport resets everything,
// TrackExtractionResult mutates incrementally, FinalizeReport seals.
// Not reusable after sealing without starting a new document.
type ExtractionReporter struct {
	log zerolog.Logger

	pdfPath        string
	startTime      time.Time
	metrics        domain.Metrics
	problematic    []domain.ProblemRecord
	errors         []string
	extractedCount int
	failedCount    int
	collecting     bool

	now func() time.Time
}

// NewExtractionReporter constructs an idle reporter.
func NewExtractionReporter(log zerolog.Logger) *ExtractionReporter {
	return &ExtractionReporter{
		log: log.With().Str("component", "extraction_reporter").Logger(),
		now: time.Now,
	}
}

// StartDocumentReport resets all counters and lists for a new document.
func (r *ExtractionReporter) StartDocumentReport(pdfPath string) {
	r.pdfPath = pdfPath
	r.startTime = r.now()
	r.metrics = domain.NewMetrics()
	r.problematic = nil
	r.errors = nil
	r.extractedCount = 0
	r.failedCount = 0
	r.collecting = true
	r.log.Info().Str("pdf", pdfPath).Msg("starting extraction report")
}

// TrackImageAttempt registers that an image was identified in the
// document and an extraction will be attempted for it.
func (r *ExtractionReporter) TrackImageAttempt(ref domain.ImageRef) {
	if !r.collecting {
		return
	}
	r.metrics.TotalImagesInDoc++
}

// TrackDocumentError records a document-level failure (unopenable PDF,
// unwritable output directory).
func (r *ExtractionReporter) TrackDocumentError(msg string) {
	r.errors = append(r.errors, msg)
}

// TrackExtractionResult folds one image's extraction and processing
// outcomes into the running counters. Every failed image gains exactly
// one problem record.
func (r *ExtractionReporter) TrackExtractionResult(ext domain.ExtractionOutcome, proc domain.ProcessingOutcome) {
	if !r.collecting {
		r.log.Warn().Int("xref", ext.XRef).Msg("extraction result tracked before document report started, ignoring")
		return
	}
	r.metrics.AttemptedExtractions++
	for _, a := range ext.Attempts {
		r.metrics.TotalExtractionDuration += a.Duration
	}

	if !ext.Success {
		r.metrics.FailedExtractions++
		r.failedCount++
		issueType := ext.IssueType
		if issueType == "" {
			issueType = domain.IssueExtractionFailed
		}
		r.metrics.IssueTypes[issueType]++

		issue := ext.FinalError
		if issue == "" {
			issue = "Extraction failed"
		}
		r.problematic = append(r.problematic, domain.ProblemRecord{
			Page:        ext.Page,
			IndexOnPage: ext.IndexOnPage,
			XRef:        ext.XRef,
			Issue:       issue,
			IssueType:   issueType,
			Extraction:  ext,
		})
		finalErr := ext.FinalError
		if finalErr == "" {
			finalErr = "Unknown error."
		}
		r.errors = append(r.errors, fmt.Sprintf("Extraction failed for image on page %d, index %d: %s",
			ext.Page, ext.IndexOnPage, finalErr))
		return
	}

	r.metrics.SuccessfulExtractions++
	r.extractedCount++

	switch {
	case proc.Success:
		// Clean pipeline, nothing to record.

	case proc.IssueType != "":
		// Extracted but the saved file failed validation.
		r.metrics.ValidationFailures++
		r.failedCount++
		r.metrics.IssueTypes[proc.IssueType]++
		issue := proc.Issue
		if issue == "" {
			issue = "Validation failed"
		}
		r.problematic = append(r.problematic, domain.ProblemRecord{
			Page:           ext.Page,
			IndexOnPage:    ext.IndexOnPage,
			XRef:           ext.XRef,
			Issue:          issue,
			IssueType:      proc.IssueType,
			Extraction:     ext,
			ValidationInfo: proc.ValidationInfo,
		})
		r.errors = append(r.errors, fmt.Sprintf("Validation failed for image on page %d, index %d: %s",
			ext.Page, ext.IndexOnPage, proc.Issue))

	default:
		// Extracted but save/post-processing went wrong without a
		// classified issue type.
		r.failedCount++
		issue := proc.Issue
		if issue == "" {
			issue = "Saving/Processing failed"
		}
		r.problematic = append(r.problematic, domain.ProblemRecord{
			Page:           ext.Page,
			IndexOnPage:    ext.IndexOnPage,
			XRef:           ext.XRef,
			Issue:          issue,
			IssueType:      domain.IssueProcessingError,
			Extraction:     ext,
			ValidationInfo: proc.ValidationInfo,
		})
		r.errors = append(r.errors, fmt.Sprintf("Saving/Processing failed for image on page %d, index %d: %s",
			ext.Page, ext.IndexOnPage, proc.Issue))
	}

	if len(ext.Attempts) > 1 {
		r.metrics.RetrySuccesses++
	}
}

// FinalizeReport seals the counters into a DocumentReport, generates
// the markdown diagnostic text, and persists it under outputDir when
// one is given. The reporter stops collecting afterwards.
func (r *ExtractionReporter) FinalizeReport(outputDir string) domain.DocumentReport {
	end := r.now()
	var elapsed time.Duration
	if !r.startTime.IsZero() {
		elapsed = end.Sub(r.startTime)
	}

	report := domain.DocumentReport{
		PDFPath:           r.pdfPath,
		Timestamp:         end,
		TotalElapsed:      elapsed,
		ExtractedCount:    r.extractedCount,
		FailedCount:       r.failedCount,
		ProblematicImages: r.problematic,
		Errors:            r.errors,
		Metrics:           r.metrics,
		Success:           r.failedCount == 0,
	}

	totalProcessed := r.extractedCount + r.failedCount
	if totalProcessed > 0 {
		report.FailureRatio = float64(r.failedCount) / float64(totalProcessed)
	}
	if report.FailureRatio > failureRatioThreshold {
		report.Success = false
	}

	report.ReportText = renderReportText(&report)

	if outputDir != "" {
		if path, err := r.writeReportFile(outputDir, report.ReportText); err != nil {
			r.log.Error().Err(err).Str("dir", outputDir).Msg("failed to save extraction report")
		} else {
			report.ReportPath = path
			r.log.Info().Str("path", path).Msg("image extraction report saved")
		}
	}

	status := "SUCCESSFUL"
	if !report.Success {
		status = "PROBLEMATIC"
	}
	r.log.Info().
		Str("pdf", report.PDFPath).
		Str("status", status).
		Int("extracted", report.ExtractedCount).
		Int("failed", report.FailedCount).
		Int("validation_failures", report.Metrics.ValidationFailures).
		Dur("elapsed", report.TotalElapsed).
		Msg("image extraction summary")

	r.collecting = false
	return report
}

func (r *ExtractionReporter) writeReportFile(outputDir, text string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	base := "report"
	if r.pdfPath != "" {
		base = strings.TrimSuffix(filepath.Base(r.pdfPath), filepath.Ext(r.pdfPath))
	}
	name := fmt.Sprintf("image_extraction_report_%s_%d.md", base, r.now().Unix())
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
