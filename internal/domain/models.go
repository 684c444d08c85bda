package domain

import "time"

// IssueType classifies why an image is problematic. The set is closed;
// reports and metrics key on these values.
type IssueType string

const (
	IssueMissing          IssueType = "missing"
	IssueCorrupt          IssueType = "corrupt"
	IssueLowQuality       IssueType = "low_quality"
	IssueBlank            IssueType = "blank"
	IssueTruncated        IssueType = "truncated"
	IssueSizeIssues       IssueType = "size_issues"
	IssueFormatIssues     IssueType = "format_issues"
	IssueExtractionFailed IssueType = "extraction_failed"
	IssueDecodingFailed   IssueType = "decoding_failed"
	IssueRenderingFailed  IssueType = "rendering_failed"
	IssueProcessingError  IssueType = "processing_error"
	IssueOther            IssueType = "other"
)

// AllIssueTypes returns every issue type in a stable order, used to
// pre-seed metric counters.
func AllIssueTypes() []IssueType {
	return []IssueType{
		IssueMissing,
		IssueCorrupt,
		IssueLowQuality,
		IssueBlank,
		IssueTruncated,
		IssueSizeIssues,
		IssueFormatIssues,
		IssueExtractionFailed,
		IssueDecodingFailed,
		IssueRenderingFailed,
		IssueProcessingError,
		IssueOther,
	}
}

// ImageRef identifies one embedded image within a document: the PDF
// object number plus where it was encountered during page enumeration.
type ImageRef struct {
	XRef        int // PDF object number of the image XObject
	Page        int // 1-indexed page the image was found on
	IndexOnPage int // 0-indexed position in the page's image list
}

// AttemptDetails is the result a single strategy returns for one try.
// Strategies never return errors; failure is expressed here.
type AttemptDetails struct {
	Success    bool
	Error      string
	IssueType  IssueType
	Dimensions string // "WxH" of the extracted image, set on success
	Mode       string // pixel mode of the extracted image ("RGB", "L", ...)
	Warning    string
}

// DetailFields is the nested detail block of an attempt record.
type DetailFields struct {
	Dimensions string
	Mode       string
	Warning    string
}

// AttemptRecord captures one strategy's try at one image. Records are
// created by the coordinator and immutable once it moves on.
type AttemptRecord struct {
	AttemptNum int // 1-indexed, monotonic within one extraction
	Strategy   string
	Success    bool
	Error      string
	IssueType  IssueType
	Details    DetailFields
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// ExtractionOutcome is the cumulative result for one image across all
// attempted strategies. Invariants: Success is true iff some attempt
// succeeded, iff ExtractionMethod is non-empty; AttemptCount equals
// len(Attempts).
type ExtractionOutcome struct {
	XRef             int
	Page             int
	IndexOnPage      int
	Attempts         []AttemptRecord
	AttemptCount     int
	Success          bool
	ExtractionMethod string // name of the strategy that succeeded
	Dimensions       string
	Mode             string
	Warning          string
	FinalError       string // set only on total failure
	IssueType        IssueType
}

// ProcessingDetails records what the resize/save step actually did.
type ProcessingDetails struct {
	OriginalDimensions string
	ResizedDimensions  string
	ResizeApplied      bool
	SaveFormat         string
	JPEGQuality        int
	PNGCompressLevel   int
	ModeConverted      string
	SaveSuccessful     bool
}

// ProcessingOutcome is the result of resize+save+validate for one
// successfully extracted image. A set Path with Success false means the
// file was written but failed validation.
type ProcessingOutcome struct {
	Success        bool
	Path           string
	Issue          string
	IssueType      IssueType
	ValidationInfo map[string]any
	Details        ProcessingDetails
}

// ProblemRecord is the flattened per-image view used for reporting.
// Append-only, ordered by discovery.
type ProblemRecord struct {
	Page           int
	IndexOnPage    int
	XRef           int
	Issue          string
	IssueType      IssueType
	Extraction     ExtractionOutcome
	ValidationInfo map[string]any
}

// Metrics holds the running counters for one document.
type Metrics struct {
	TotalImagesInDoc        int
	AttemptedExtractions    int
	SuccessfulExtractions   int
	FailedExtractions       int
	ValidationFailures      int
	RetrySuccesses          int
	IssueTypes              map[IssueType]int
	TotalExtractionDuration time.Duration
}

// NewMetrics returns a zeroed metrics set with every issue type seeded.
func NewMetrics() Metrics {
	counts := make(map[IssueType]int, len(AllIssueTypes()))
	for _, it := range AllIssueTypes() {
		counts[it] = 0
	}
	return Metrics{IssueTypes: counts}
}

// DocumentReport is the sealed aggregate for one PDF.
// Invariant: ExtractedCount + FailedCount == Metrics.AttemptedExtractions.
type DocumentReport struct {
	PDFPath           string
	Timestamp         time.Time
	TotalElapsed      time.Duration
	ExtractedCount    int
	FailedCount       int
	ProblematicImages []ProblemRecord
	Errors            []string
	Metrics           Metrics
	Success           bool
	FailureRatio      float64
	ReportText        string
	ReportPath        string
}
