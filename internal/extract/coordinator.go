package extract

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edupipe/pdf-image-extractor/internal/config"
	"github.com/edupipe/pdf-image-extractor/internal/domain"
	"github.com/edupipe/pdf-image-extractor/internal/imaging"
	"github.com/edupipe/pdf-image-extractor/internal/pdf"
	"github.com/edupipe/pdf-image-extractor/internal/strategy"
)

// RetryCoordinator tries the extraction strategies in priority order
// until one succeeds. It owns nothing else: strategies allocate and
// release their own buffers, and the one image a successful strategy
// returns passes straight through to the caller.
type RetryCoordinator struct {
	cfg        *config.Config
	strategies []strategy.Strategy
	log        zerolog.Logger

	// now is swappable for deterministic attempt timestamps in tests.
	now func() time.Time
}

// NewRetryCoordinator builds a coordinator over the default strategy
// set.
func NewRetryCoordinator(cfg *config.Config, log zerolog.Logger) *RetryCoordinator {
	return &RetryCoordinator{
		cfg:        cfg,
		strategies: strategy.DefaultSet(cfg, log),
		log:        log.With().Str("component", "retry_coordinator").Logger(),
		now:        time.Now,
	}
}

// ExtractWithRetry runs the strategies against one image reference and
// returns the first successful bitmap, or nil when every strategy
// failed. The outcome always records every attempt made, in order.
// pageIndex is the 0-indexed page the reference lives on.
func (c *RetryCoordinator) ExtractWithRetry(doc pdf.Document, ref domain.ImageRef, pageIndex int) (*imaging.Image, domain.ExtractionOutcome) {
	outcome := domain.ExtractionOutcome{
		XRef:        ref.XRef,
		Page:        ref.Page,
		IndexOnPage: ref.IndexOnPage,
	}

	var img *imaging.Image
	for _, strat := range c.strategies {
		start := c.now()
		candidate, det := strat.Extract(doc, ref, pageIndex)
		end := c.now()

		rec := domain.AttemptRecord{
			AttemptNum: len(outcome.Attempts) + 1,
			Strategy:   strat.Name(),
			Success:    det.Success,
			Error:      det.Error,
			IssueType:  det.IssueType,
			Details: domain.DetailFields{
				Dimensions: det.Dimensions,
				Mode:       det.Mode,
				Warning:    det.Warning,
			},
			StartTime: start,
			EndTime:   end,
			Duration:  end.Sub(start),
		}
		outcome.Attempts = append(outcome.Attempts, rec)

		if det.Success {
			img = candidate
			outcome.Success = true
			outcome.ExtractionMethod = strat.Name()
			outcome.Dimensions = det.Dimensions
			outcome.Mode = det.Mode
			outcome.Warning = det.Warning
			break
		}

		c.log.Debug().
			Int("xref", ref.XRef).
			Str("strategy", strat.Name()).
			Str("error", det.Error).
			Msg("extraction attempt failed")

		if !c.cfg.RetryFailedExtractions {
			break
		}
	}

	outcome.AttemptCount = len(outcome.Attempts)

	if !outcome.Success {
		outcome.FinalError = fmt.Sprintf("All %d extraction attempts failed.", outcome.AttemptCount)
		outcome.IssueType = lastIssueType(outcome.Attempts)
		c.log.Warn().
			Int("xref", ref.XRef).
			Int("page", ref.Page).
			Int("attempts", outcome.AttemptCount).
			Msg("all extraction strategies failed")
	}

	return img, outcome
}

// lastIssueType returns the issue classification of the final failed
// attempt, falling back to extraction_failed when attempts carry none.
func lastIssueType(attempts []domain.AttemptRecord) domain.IssueType {
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].IssueType != "" {
			return attempts[i].IssueType
		}
	}
	return domain.IssueExtractionFailed
}
