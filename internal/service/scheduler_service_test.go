package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/timetabling/internal/cache"
	appErrors "github.com/campusgrid/timetabling/internal/errors"
	"github.com/campusgrid/timetabling/internal/metrics"
	"github.com/campusgrid/timetabling/pkg/model"
)

type cacheMock struct {
	stored map[string]*model.Schedule
	gets   int
	sets   int
}

func (m *cacheMock) Get(ctx context.Context, modelInput model.ModelInput, cfg model.Config) (*model.Schedule, error) {
	m.gets++
	key, err := cache.Key(modelInput, cfg)
	if err != nil {
		return nil, err
	}
	if schedule, ok := m.stored[key]; ok {
		return schedule, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *cacheMock) Set(ctx context.Context, modelInput model.ModelInput, cfg model.Config, schedule *model.Schedule) error {
	m.sets++
	key, err := cache.Key(modelInput, cfg)
	if err != nil {
		return err
	}
	m.stored[key] = schedule
	return nil
}

type storeMock struct {
	snapshot model.ModelInput
	loadErr  error
	saved    map[string]*model.Schedule
}

func (m *storeMock) LoadSnapshot(ctx context.Context, semester string) (model.ModelInput, error) {
	return m.snapshot, m.loadErr
}

func (m *storeMock) SaveSchedule(ctx context.Context, semester string, schedule *model.Schedule) (string, error) {
	m.saved[semester] = schedule
	return "run-1", nil
}

func snapshot(t *testing.T) model.ModelInput {
	t.Helper()
	input, err := model.ProcessRawInput(model.RawModelInput{
		Faculty: []model.Faculty{{Id: "F1", Name: "Edsger Dijkstra", MaxLoad: 10}},
		Courses: []model.Course{{Code: "CS101", Name: "Structured Programming", Instructor: "F1", Lecture: 2, Tutorial: 1}},
	})
	require.NoError(t, err)
	return input
}

func TestSchedulerServiceComputeUsesCache(t *testing.T) {
	c := &cacheMock{stored: make(map[string]*model.Schedule)}
	svc := NewSchedulerService(model.DefaultConfig(), time.Minute, nil, WithCache(c), WithMetrics(metrics.New()))

	first, err := svc.Compute(context.Background(), snapshot(t), svc.Defaults())
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.False(t, first.Schedule.Partial)
	assert.Len(t, first.Schedule.Placements, 3)
	assert.Equal(t, 1, c.sets)

	second, err := svc.Compute(context.Background(), snapshot(t), svc.Defaults())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Same(t, first.Schedule, second.Schedule)
	assert.Equal(t, 2, c.gets)
	assert.Equal(t, 1, c.sets)
}

func TestSchedulerServiceComputeDeadline(t *testing.T) {
	svc := NewSchedulerService(model.DefaultConfig(), 0, nil)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	result, err := svc.Compute(ctx, snapshot(t), svc.Defaults())
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, appErrors.FromError(err).Status)
}

func TestSchedulerServiceComputeInvalidConfig(t *testing.T) {
	svc := NewSchedulerService(model.DefaultConfig(), 0, nil)

	cfg := svc.Defaults()
	cfg.NodeBudget = -1
	_, err := svc.Compute(context.Background(), snapshot(t), cfg)
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))
}

func TestSchedulerServiceComputeSemester(t *testing.T) {
	store := &storeMock{snapshot: snapshot(t), saved: make(map[string]*model.Schedule)}
	svc := NewSchedulerService(model.DefaultConfig(), time.Minute, nil, WithStore(store))

	result, err := svc.ComputeSemester(context.Background(), "2024-fall", svc.Defaults())
	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Same(t, result.Schedule, store.saved["2024-fall"])

	store.snapshot = model.ModelInput{}
	_, err = svc.ComputeSemester(context.Background(), "2025-spring", svc.Defaults())
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	store.loadErr = errors.New("connection refused")
	_, err = svc.ComputeSemester(context.Background(), "2024-fall", svc.Defaults())
	assert.ErrorContains(t, err, "load snapshot 2024-fall")
}

func TestSchedulerServiceWithoutStore(t *testing.T) {
	svc := NewSchedulerService(model.DefaultConfig(), 0, nil)

	_, err := svc.ComputeSemester(context.Background(), "2024-fall", svc.Defaults())
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)
}

func TestSchedulerServiceValidate(t *testing.T) {
	svc := NewSchedulerService(model.DefaultConfig(), 0, nil)
	input := snapshot(t)

	result, err := svc.Compute(context.Background(), input, svc.Defaults())
	require.NoError(t, err)
	assert.True(t, svc.Validate(result.Schedule, input).Valid())

	incomplete := *result.Schedule
	incomplete.Placements = incomplete.Placements[1:]
	assert.NotEmpty(t, svc.Validate(&incomplete, input).Of(model.RuleIncomplete))
}
