package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edupipe/pdf-image-extractor/internal/domain"
)

// renderReportText produces the markdown diagnostic report. Section
// headings and ordering are fixed; downstream tooling greps them.
func renderReportText(rep *domain.DocumentReport) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# Image Extraction Diagnostic Report")
	line("PDF: %s", rep.PDFPath)
	line("Date: %s", rep.Timestamp.Format("2006-01-02 15:04:05"))
	line("Total time: %.2f seconds", rep.TotalElapsed.Seconds())
	line("")
	line("## Summary")
	line("- Total identified images in PDF: %d", rep.Metrics.TotalImagesInDoc)
	line("- Attempted extractions: %d", rep.Metrics.AttemptedExtractions)
	line("- Successfully extracted & processed: %d", rep.ExtractedCount)
	line("- Failed extraction or processing/validation: %d", rep.FailedCount)
	line("- Validation failures (extracted but invalid): %d", rep.Metrics.ValidationFailures)
	line("- Total problematic images reported: %d", len(rep.ProblematicImages))
	line("")
	line("## Detailed Metrics")
	line("- Retry successes (extracted after initial failure): %d", rep.Metrics.RetrySuccesses)
	line("- Total extraction time (strategy attempts): %.2f seconds", rep.Metrics.TotalExtractionDuration.Seconds())
	line("")
	line("### Issue Type Breakdown (for problematic images)")

	// Zero counts are suppressed for readability.
	printed := false
	for _, it := range domain.AllIssueTypes() {
		if n := rep.Metrics.IssueTypes[it]; n > 0 {
			line("- %s: %d", it, n)
			printed = true
		}
	}
	if !printed {
		line("- No specific issue types recorded (might be general errors)")
	}

	line("")
	line("## Problematic Images Details")
	if len(rep.ProblematicImages) == 0 {
		line("No problematic images were identified.")
	} else {
		for i, img := range rep.ProblematicImages {
			line("### Problematic Image %d (Page %d, Index %d)", i+1, img.Page, img.IndexOnPage)
			line("- **XREF**: %d", img.XRef)
			line("- **Issue**: %s", img.Issue)
			line("- **Issue Type**: %s", img.IssueType)
			line("- **Extraction Attempts**: %d", img.Extraction.AttemptCount)
			line("  - **Attempt History**:")
			for _, a := range img.Extraction.Attempts {
				status := "FAILED"
				if a.Success {
					status = "SUCCESS"
				}
				line("    - Attempt %d: Strategy='%s', Status=%s, Duration=%.4fs",
					a.AttemptNum, a.Strategy, status, a.Duration.Seconds())
				if a.Error != "" {
					line("      - Error: %s", a.Error)
				}
				if a.Details.Warning != "" {
					line("      - Warning: %s", a.Details.Warning)
				}
				if a.Details.Dimensions != "" {
					line("      - Dimensions: %s", a.Details.Dimensions)
				}
				if a.Details.Mode != "" {
					line("      - Mode: %s", a.Details.Mode)
				}
			}
			if len(img.ValidationInfo) > 0 {
				line("- **Validation Details**: %s", formatValidationInfo(img.ValidationInfo))
			}
			line("")
		}
	}

	line("## Errors Log")
	if len(rep.Errors) == 0 {
		line("No specific errors were logged.")
	} else {
		for _, msg := range rep.Errors {
			line("- %s", msg)
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// formatValidationInfo renders a metrics map with deterministic key
// order so reports diff cleanly.
func formatValidationInfo(info map[string]any) string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, info[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
