package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/analystai/internal/domain"
)

// Extractor turns a source document into structured extraction output.
type Extractor interface {
	Extract(ctx context.Context, reportID string, opts domain.ExtractionOptions) (*domain.ExtractionResult, error)
}

// MockExtractor simulates a pipeline run: it waits Delay and then returns a
// fixed sample payload regardless of the document or options.
type MockExtractor struct {
	Delay time.Duration
}

// NewMockExtractor creates a MockExtractor with the given simulated processing time.
func NewMockExtractor(delay time.Duration) *MockExtractor {
	return &MockExtractor{Delay: delay}
}

// Extract waits for the configured delay and returns the sample payload.
// Parameters:
//   - ctx: run context; cancellation or deadline aborts the wait.
//   - reportID: source document identifier, unused by the mock.
//   - opts: pipeline switches, unused by the mock.
//
// Returns:
//   - *domain.ExtractionResult: fresh copy of the sample payload.
//   - error: non-nil if ctx ends before the delay elapses.
func (m *MockExtractor) Extract(ctx context.Context, reportID string, opts domain.ExtractionOptions) (*domain.ExtractionResult, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("extraction interrupted: %w", ctx.Err())
		}
	} else if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction interrupted: %w", err)
	}
	return sampleResult(), nil
}

func sampleResult() *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Text: []string{
			"Sample extracted text from page 1.",
			"Sample extracted text from page 2.",
		},
		Tables: []domain.Table{
			{
				ID:    "table-1",
				Title: "Market Share Analysis",
				Data: [][]string{
					{"Vendor", "Market Share (%)", "Growth YoY (%)"},
					{"Vendor A", "32.5", "4.2"},
					{"Vendor B", "28.1", "3.7"},
				},
				Page: 2,
			},
		},
		Charts: []domain.Chart{
			{
				ID:       "chart-1",
				Title:    "Revenue Forecast",
				Type:     "bar",
				ImageURL: "/chart-1.png",
				Page:     3,
			},
		},
		Insights: []domain.Insight{
			{
				ID:         "insight-1",
				Text:       "The market is expected to grow at a CAGR of 14.5% over the next five years.",
				Confidence: 0.92,
				Category:   "Market Trends",
			},
		},
		Summary:    "This is a sample report summary.",
		Industry:   "Technology",
		Vectorized: true,
		Chunks:     24,
	}
}
