package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusgrid/timetabling/internal/cache"
	appErrors "github.com/campusgrid/timetabling/internal/errors"
	"github.com/campusgrid/timetabling/internal/metrics"
	"github.com/campusgrid/timetabling/pkg/model"
)

type scheduleCache interface {
	Get(ctx context.Context, modelInput model.ModelInput, cfg model.Config) (*model.Schedule, error)
	Set(ctx context.Context, modelInput model.ModelInput, cfg model.Config, schedule *model.Schedule) error
}

type snapshotStore interface {
	LoadSnapshot(ctx context.Context, semester string) (model.ModelInput, error)
	SaveSchedule(ctx context.Context, semester string, schedule *model.Schedule) (string, error)
}

// ComputeResult is a computed schedule together with where it came from.
type ComputeResult struct {
	Schedule *model.Schedule
	Cached   bool
	RunID    string // Set when the schedule was persisted
}

// SchedulerService runs schedule computations for the HTTP and CLI surfaces.
type SchedulerService struct {
	defaults model.Config
	timeout  time.Duration
	cache    scheduleCache
	store    snapshotStore
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

type Option func(*SchedulerService)

func WithCache(c scheduleCache) Option {
	return func(s *SchedulerService) { s.cache = c }
}

func WithStore(store snapshotStore) Option {
	return func(s *SchedulerService) { s.store = store }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SchedulerService) { s.metrics = m }
}

// NewSchedulerService constructs the service; a zero timeout lets runs go on until the caller cancels.
func NewSchedulerService(defaults model.Config, timeout time.Duration, logger *zap.Logger, options ...Option) *SchedulerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &SchedulerService{defaults: defaults, timeout: timeout, logger: logger}
	for _, option := range options {
		option(service)
	}
	return service
}

// Defaults returns the configuration used when a request does not bring its own.
func (s *SchedulerService) Defaults() model.Config {
	return s.defaults
}

// Compute returns the schedule of the snapshot, from the cache when an identical run was already made.
func (s *SchedulerService) Compute(ctx context.Context, modelInput model.ModelInput, cfg model.Config) (*ComputeResult, error) {
	if s.cache != nil {
		schedule, err := s.cache.Get(ctx, modelInput, cfg)
		switch {
		case err == nil:
			s.metrics.RecordCacheOperation(true)
			return &ComputeResult{Schedule: schedule, Cached: true}, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.metrics.RecordCacheOperation(false)
		default:
			s.logger.Warn("schedule cache lookup failed", zap.Error(err))
		}
	}

	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	start := time.Now()
	schedule, err := model.ComputeSchedule(runCtx, modelInput, cfg, s.logger)
	s.metrics.ObserveRun(schedule, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("compute schedule: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, modelInput, cfg, schedule); err != nil {
			s.logger.Warn("schedule cache write failed", zap.Error(err))
		}
	}
	return &ComputeResult{Schedule: schedule}, nil
}

// ComputeSemester loads the semester snapshot from the store, computes its schedule and persists it as a new run.
func (s *SchedulerService) ComputeSemester(ctx context.Context, semester string, cfg model.Config) (*ComputeResult, error) {
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "snapshot store is not enabled")
	}

	modelInput, err := s.store.LoadSnapshot(ctx, semester)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", semester, err)
	}
	if len(modelInput.Courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no courses offered in semester %q", semester))
	}

	result, err := s.Compute(ctx, modelInput, cfg)
	if err != nil {
		return nil, err
	}

	runID, err := s.store.SaveSchedule(ctx, semester, result.Schedule)
	if err != nil {
		return nil, fmt.Errorf("save schedule %s: %w", semester, err)
	}
	result.RunID = runID
	s.logger.Info("semester schedule saved",
		zap.String("semester", semester),
		zap.String("run_id", runID),
		zap.Bool("partial", result.Schedule.Partial),
	)
	return result, nil
}

func (s *SchedulerService) Validate(schedule *model.Schedule, modelInput model.ModelInput) model.ValidationResult {
	return model.ValidateSchedule(schedule, modelInput)
}

func (s *SchedulerService) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
