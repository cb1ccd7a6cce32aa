package cache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/timetabling/pkg/model"
)

func snapshot(t *testing.T, maxLoad int) model.ModelInput {
	t.Helper()
	input, err := model.ProcessRawInput(model.RawModelInput{
		Faculty: []model.Faculty{{Id: "F1", Name: "Niklaus Wirth", MaxLoad: maxLoad}},
		Courses: []model.Course{{Code: "PASCAL", Name: "Pascal", Instructor: "F1", Lecture: 2}},
	})
	require.NoError(t, err)
	return input
}

func TestKey(t *testing.T) {
	cfg := model.DefaultConfig()

	first, err := Key(snapshot(t, 10), cfg)
	require.NoError(t, err)
	second, err := Key(snapshot(t, 10), cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, keyPrefix))
	assert.Len(t, strings.TrimPrefix(first, keyPrefix), 64)

	other, err := Key(snapshot(t, 9), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	cfg.PreferPairedLabs = true
	other, err = Key(snapshot(t, 10), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestScheduleCacheWithoutClient(t *testing.T) {
	cache := NewScheduleCache(nil, 0, nil)

	_, err := cache.Get(context.Background(), snapshot(t, 10), model.DefaultConfig())
	assert.True(t, errors.Is(err, ErrCacheMiss))
	assert.NoError(t, cache.Set(context.Background(), snapshot(t, 10), model.DefaultConfig(), &model.Schedule{}))
}
