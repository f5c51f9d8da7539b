package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/backend/internal/model"
	"healthtrack/backend/internal/repository"
	"healthtrack/backend/internal/store"
)

func newHistory(t *testing.T) *HistoryService {
	t.Helper()
	return NewHistoryService(repository.NewSessionRepositories(store.NewMemory(), nil), nil, nil)
}

func manual(offset time.Duration) model.Session {
	return model.Session{
		Timestamp:       t0.Add(offset),
		ActivityType:    model.ActivityWalk,
		DistanceMeters:  2000,
		DurationSeconds: 1200,
		CaloriesKcal:    80,
	}
}

func TestHistoryPutCreatesThenReplaces(t *testing.T) {
	ctx := context.Background()
	svc := newHistory(t)

	saved, created, apiErr := svc.Put(ctx, "u1", "walk-1", manual(0))
	require.Nil(t, apiErr)
	assert.True(t, created)
	assert.Equal(t, "walk-1", saved.ID)
	assert.Equal(t, 600.0, saved.AveragePaceSecPerKm)
	assert.NotNil(t, saved.RoutePoints)
	assert.False(t, saved.IsGPSTracked)

	update := manual(0)
	update.DistanceMeters = 2500
	_, created, apiErr = svc.Put(ctx, "u1", "walk-1", update)
	require.Nil(t, apiErr)
	assert.False(t, created)

	got, apiErr := svc.Get(ctx, "u1", "walk-1")
	require.Nil(t, apiErr)
	assert.Equal(t, 2500.0, got.DistanceMeters)

	_, apiErr = svc.Get(ctx, "u2", "walk-1")
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestHistoryPutValidates(t *testing.T) {
	ctx := context.Background()
	svc := newHistory(t)

	bad := manual(0)
	bad.ActivityType = "swim"
	_, _, apiErr := svc.Put(ctx, "u1", "x", bad)
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_activity_type", apiErr.Code)

	bad = manual(0)
	bad.DistanceMeters = -1
	_, _, apiErr = svc.Put(ctx, "u1", "x", bad)
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_session", apiErr.Code)

	bad = manual(0)
	bad.Timestamp = time.Time{}
	_, _, apiErr = svc.Put(ctx, "u1", "x", bad)
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_timestamp", apiErr.Code)

	_, _, apiErr = svc.Put(ctx, "u1", " ", manual(0))
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_id", apiErr.Code)
}

func TestHistoryListRange(t *testing.T) {
	ctx := context.Background()
	svc := newHistory(t)

	for i, id := range []string{"d0", "d1", "d2"} {
		_, _, apiErr := svc.Put(ctx, "u1", id, manual(time.Duration(i)*24*time.Hour))
		require.Nil(t, apiErr)
	}

	all, apiErr := svc.List(ctx, "u1", nil, nil)
	require.Nil(t, apiErr)
	require.Len(t, all, 3)
	assert.Equal(t, "d2", all[0].ID)

	from := t0.Add(24 * time.Hour)
	since, apiErr := svc.List(ctx, "u1", &from, nil)
	require.Nil(t, apiErr)
	assert.Len(t, since, 2)

	to := t0
	until, apiErr := svc.List(ctx, "u1", nil, &to)
	require.Nil(t, apiErr)
	require.Len(t, until, 1)
	assert.Equal(t, "d0", until[0].ID)

	_, apiErr = svc.List(ctx, "u1", &from, &to)
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_range", apiErr.Code)

	early := t0.Add(-48 * time.Hour)
	earlier := t0.Add(-24 * time.Hour)
	none, apiErr := svc.List(ctx, "u1", &early, &earlier)
	require.Nil(t, apiErr)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestHistoryDeleteAndStats(t *testing.T) {
	ctx := context.Background()
	svc := newHistory(t)

	_, _, apiErr := svc.Put(ctx, "u1", "a", manual(0))
	require.Nil(t, apiErr)
	_, _, apiErr = svc.Put(ctx, "u1", "b", manual(time.Hour))
	require.Nil(t, apiErr)

	stats, apiErr := svc.Stats(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 4000.0, stats.TotalDistanceMeters)
	assert.Nil(t, stats.LongestSession, "manual entries are not GPS records")

	require.Nil(t, svc.Delete(ctx, "u1", "a"))
	apiErr = svc.Delete(ctx, "u1", "a")
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	stats, apiErr = svc.Stats(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, 1, stats.Count)
}

func TestHistoryLoadFailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	st := &flakyReadStore{Store: store.NewMemory()}
	svc := NewHistoryService(repository.NewSessionRepositories(st, nil), nil, nil)

	_, _, apiErr := svc.Put(ctx, "u1", "a", manual(0))
	require.Nil(t, apiErr)

	fresh := NewHistoryService(repository.NewSessionRepositories(st, nil), nil, nil)
	st.readFailures = 1
	_, _, apiErr = fresh.Put(ctx, "u1", "b", manual(time.Hour))
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)

	_, _, apiErr = fresh.Put(ctx, "u1", "b", manual(time.Hour))
	require.Nil(t, apiErr)
	all, apiErr := fresh.List(ctx, "u1", nil, nil)
	require.Nil(t, apiErr)
	assert.Len(t, all, 2)
}
