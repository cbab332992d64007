package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/analystai/internal/domain"
	"github.com/timmy/analystai/internal/logger"
	"github.com/timmy/analystai/internal/metrics"
	"github.com/timmy/analystai/internal/repository"
)

// ErrTaskNotCompleted is returned when a download is requested before the task completed.
var ErrTaskNotCompleted = errors.New("extraction not yet completed")

// DefaultDownloadFormat is used when a download request names no format.
const DefaultDownloadFormat = "json"

// ExtractionService handles submission, status and download of extraction tasks.
type ExtractionService struct {
	registry  *repository.TaskRegistry
	extractor Extractor
	executor  *Executor
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewExtractionService creates a new extraction service.
// A nil metrics disables task metrics.
func NewExtractionService(
	registry *repository.TaskRegistry,
	extractor Extractor,
	executor *Executor,
	m *metrics.Metrics,
	log *logger.Logger,
) *ExtractionService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &ExtractionService{
		registry:  registry,
		extractor: extractor,
		executor:  executor,
		metrics:   m,
		logger:    log,
	}
}

// log returns a logger from context if available, otherwise the service logger
func (s *ExtractionService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil && l != logger.GetDefault() {
		return l
	}
	return s.logger
}

// Submit registers a processing task for reportID and schedules its extraction.
// It never waits for the extraction itself.
// Parameters:
//   - ctx: request context, used for logging only.
//   - reportID: caller-supplied source document identifier.
//   - opts: pipeline switches handed to the extractor.
//
// Returns:
//   - *domain.Task: snapshot of the new task, status processing.
//   - error: non-nil if the task could not be scheduled.
func (s *ExtractionService) Submit(ctx context.Context, reportID string, opts domain.ExtractionOptions) (*domain.Task, error) {
	task := s.registry.Create(reportID)
	s.metrics.TaskSubmitted()

	log := s.log(ctx).WithFields(logger.Fields{
		logger.FieldTaskID:   task.ID,
		logger.FieldReportID: reportID,
	})

	start := time.Now()
	err := s.executor.Go(task.ID, func(runCtx context.Context) {
		s.process(logger.SetComponent(runCtx, "extraction"), task.ID, reportID, opts, start)
	})
	if err != nil {
		if _, uerr := s.registry.Update(task.ID, domain.FailedPatch(err.Error())); uerr != nil {
			log.WithError(uerr).Error("Failed to mark undispatched task as failed")
		}
		s.metrics.TaskFinished(string(domain.TaskStatusFailed), time.Since(start))
		return nil, fmt.Errorf("dispatch extraction %s: %w", task.ID, err)
	}

	log.Info("Extraction task submitted")
	return task, nil
}

// process runs one extraction and writes its single terminal update.
func (s *ExtractionService) process(ctx context.Context, id, reportID string, opts domain.ExtractionOptions, start time.Time) {
	result, err := s.extract(ctx, reportID, opts)

	patch := domain.CompletedPatch(result)
	if err != nil {
		patch = domain.FailedPatch(err.Error())
	}

	elapsed := time.Since(start)
	s.metrics.TaskFinished(string(patch.Status), elapsed)

	entry := logger.With(logger.Fields{logger.FieldReportID: reportID}).
		WithDuration(elapsed.Milliseconds()).
		WithStatus(string(patch.Status))

	if _, uerr := s.registry.Update(id, patch); uerr != nil {
		entry.With(logger.Fields{"error": uerr.Error()}).Error(ctx, "Failed to record extraction result")
		return
	}

	if err != nil {
		entry.With(logger.Fields{"error": err.Error()}).Warn(ctx, "Extraction task failed")
		return
	}
	entry.Info(ctx, "Extraction task completed")
}

// extract calls the extractor, turning a panic into an error.
func (s *ExtractionService) extract(ctx context.Context, reportID string, opts domain.ExtractionOptions) (result *domain.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("extraction panicked: %v", r)
		}
	}()

	result, err = s.extractor.Extract(ctx, reportID, opts)
	if err == nil && result == nil {
		err = errors.New("extractor returned no result")
	}
	return result, err
}

// GetStatus returns the current snapshot of a task.
// Returns repository.ErrTaskNotFound for unknown ids.
func (s *ExtractionService) GetStatus(ctx context.Context, id string) (*domain.Task, error) {
	return s.registry.Get(id)
}

// Download returns the full record of a completed task.
// Parameters:
//   - ctx: request context, used for logging only.
//   - id: task identifier.
//   - format: requested export format; accepted and logged, only JSON is produced.
//
// Returns:
//   - *domain.Task: snapshot of the completed task.
//   - error: repository.ErrTaskNotFound or ErrTaskNotCompleted.
func (s *ExtractionService) Download(ctx context.Context, id, format string) (*domain.Task, error) {
	if format == "" {
		format = DefaultDownloadFormat
	}

	task, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if task.Status != domain.TaskStatusCompleted {
		return nil, fmt.Errorf("%w: %s is %s", ErrTaskNotCompleted, id, task.Status)
	}

	logger.With(logger.Fields{
		logger.FieldTaskID: id,
		"format":           format,
	}).Debug(ctx, "Extraction result downloaded")
	return task, nil
}

// Shutdown cancels pending extractions and waits for them to record their outcome.
// Parameters:
//   - ctx: bounds the wait.
//
// Returns:
//   - error: non-nil if extractions were still running when ctx ended.
func (s *ExtractionService) Shutdown(ctx context.Context) error {
	err := s.executor.Shutdown(ctx)

	counts := s.registry.CountByStatus()
	s.logger.WithFields(logger.Fields{
		logger.FieldCount: s.registry.Count(),
		"processing":      counts[domain.TaskStatusProcessing],
		"completed":       counts[domain.TaskStatusCompleted],
		"failed":          counts[domain.TaskStatusFailed],
	}).Info("Extraction service stopped")

	if err != nil {
		return fmt.Errorf("wait for extractions: %w", err)
	}
	return nil
}
