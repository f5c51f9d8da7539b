package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/backend/internal/model"
	"healthtrack/backend/internal/store"
)

var day = time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC)

func session(id string, offset time.Duration, distance, pace float64, gps bool) model.Session {
	return model.Session{
		ID:                  id,
		Timestamp:           day.Add(offset),
		ActivityType:        model.ActivityRun,
		DistanceMeters:      distance,
		DurationSeconds:     pace * distance / 1000,
		CaloriesKcal:        distance / 10,
		AveragePaceSecPerKm: pace,
		ElevationGainMeters: 5,
		IsGPSTracked:        gps,
		RoutePoints:         []model.RoutePoint{},
	}
}

type failingStore struct {
	store.Store
	failPut bool
	failGet bool
	// getFailures makes the next n reads fail.
	getFailures int
}

var errStore = errors.New("disk full")

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errStore
	}
	if f.getFailures > 0 {
		f.getFailures--
		return "", false, errStore
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Put(ctx context.Context, key, value string) error {
	if f.failPut {
		return errStore
	}
	return f.Store.Put(ctx, key, value)
}

func newRepo(t *testing.T, st store.Store) *SessionRepository {
	t.Helper()
	repo, err := NewSessionRepository(context.Background(), st, SessionsKey, nil)
	require.NoError(t, err)
	return repo
}

func TestUpsertGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	repo := newRepo(t, st)

	alt := 12.0
	s := session("a", 0, 5000, 300, true)
	s.RoutePoints = []model.RoutePoint{{Latitude: 1, Longitude: 2, Altitude: &alt, Timestamp: day}}
	require.NoError(t, repo.Upsert(ctx, s))

	got, ok := repo.Get("a")
	require.True(t, ok)
	assert.Equal(t, s, got)

	reloaded := newRepo(t, st)
	got, ok = reloaded.Get("a")
	require.True(t, ok)
	assert.Equal(t, s, got)
}

func TestUpsertReplacesById(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, store.NewMemory())

	require.NoError(t, repo.Upsert(ctx, session("a", 0, 5000, 300, true)))
	require.NoError(t, repo.Upsert(ctx, session("b", time.Hour, 3000, 320, true)))

	replacement := session("a", 0, 5200, 290, true)
	require.NoError(t, repo.Upsert(ctx, replacement))

	assert.Equal(t, 2, repo.Count())
	got, _ := repo.Get("a")
	assert.Equal(t, 5200.0, got.DistanceMeters)
}

func TestListSortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, store.NewMemory())

	require.NoError(t, repo.Upsert(ctx, session("mid", 24*time.Hour, 1000, 300, true)))
	require.NoError(t, repo.Upsert(ctx, session("old", 0, 1000, 300, true)))
	require.NoError(t, repo.Upsert(ctx, session("new", 48*time.Hour, 1000, 300, true)))

	var ids []string
	for _, s := range repo.ListAll() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestListByRangeInclusive(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, store.NewMemory())

	for i, id := range []string{"d0", "d1", "d2", "d3"} {
		require.NoError(t, repo.Upsert(ctx, session(id, time.Duration(i)*24*time.Hour, 1000, 300, true)))
	}

	matched := repo.ListByRange(day.Add(24*time.Hour), day.Add(48*time.Hour))
	require.Len(t, matched, 2)
	assert.Equal(t, "d2", matched[0].ID)
	assert.Equal(t, "d1", matched[1].ID)

	assert.Empty(t, repo.ListByRange(day.Add(-48*time.Hour), day.Add(-time.Hour)))
}

func TestDeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{Store: store.NewMemory()}
	repo := newRepo(t, st)
	require.NoError(t, repo.Upsert(ctx, session("a", 0, 1000, 300, true)))

	st.failPut = true
	assert.NoError(t, repo.Delete(ctx, "nope"), "no write is attempted for an unknown id")
	assert.Equal(t, 1, repo.Count())

	st.failPut = false
	require.NoError(t, repo.Delete(ctx, "a"))
	assert.Zero(t, repo.Count())
	_, ok := repo.Get("a")
	assert.False(t, ok)
}

func TestWriteFailureSurfacesAndKeepsState(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{Store: store.NewMemory()}
	repo := newRepo(t, st)
	require.NoError(t, repo.Upsert(ctx, session("a", 0, 1000, 300, true)))

	st.failPut = true
	assert.ErrorIs(t, repo.Upsert(ctx, session("b", time.Hour, 1000, 300, true)), errStore)
	assert.ErrorIs(t, repo.Delete(ctx, "a"), errStore)

	assert.Equal(t, 1, repo.Count())
	_, ok := repo.Get("a")
	assert.True(t, ok)
}

func TestCorruptPayloadStartsEmpty(t *testing.T) {
	ctx := context.Background()

	corrupt := store.NewMemory()
	require.NoError(t, corrupt.Put(ctx, SessionsKey, "{not json"))
	repo := newRepo(t, corrupt)
	assert.Zero(t, repo.Count())
	require.NoError(t, repo.Upsert(ctx, session("a", 0, 1000, 300, true)))
	assert.Equal(t, 1, newRepo(t, corrupt).Count())
}

func TestUnreadablePayloadFailsLoad(t *testing.T) {
	_, err := NewSessionRepository(context.Background(), &failingStore{Store: store.NewMemory(), failGet: true}, SessionsKey, nil)
	assert.ErrorIs(t, err, errStore)
}

func TestUndecryptablePayloadStartsEmpty(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemory()
	written, err := store.NewEncrypted(inner, "old-secret")
	require.NoError(t, err)
	require.NoError(t, newRepo(t, written).Upsert(ctx, session("a", 0, 1000, 300, true)))

	rotated, err := store.NewEncrypted(inner, "new-secret")
	require.NoError(t, err)
	assert.Zero(t, newRepo(t, rotated).Count())
}

func TestLoadIgnoresCancelledContext(t *testing.T) {
	ctx := context.Background()
	st := store.NewSQLite(openTestDB(t))
	seed := newRepo(t, st)
	require.NoError(t, seed.Upsert(ctx, session("a", 0, 1000, 300, true)))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	repo, err := NewSessionRepository(cancelled, st, SessionsKey, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Count())
}

func TestEmptyRepositoryAggregates(t *testing.T) {
	repo := newRepo(t, store.NewMemory())

	_, ok := repo.LongestSession()
	assert.False(t, ok)
	_, ok = repo.FastestPace()
	assert.False(t, ok)
	assert.Zero(t, repo.TotalDistance())
	assert.Zero(t, repo.AveragePace())

	stats := repo.Stats()
	assert.Nil(t, stats.LongestSession)
	assert.Nil(t, stats.FastestPaceSession)
	assert.Zero(t, stats.Count)
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, store.NewMemory())

	require.NoError(t, repo.Upsert(ctx, session("easy", 0, 5000, 360, true)))
	require.NoError(t, repo.Upsert(ctx, session("tempo", time.Hour, 8000, 280, true)))
	// Manual entries and zero-distance sessions never count toward pace records.
	manual := session("manual", 2*time.Hour, 20000, 150, false)
	require.NoError(t, repo.Upsert(ctx, manual))
	stationary := session("treadmill", 3*time.Hour, 0, 0, true)
	stationary.DurationSeconds = 600
	require.NoError(t, repo.Upsert(ctx, stationary))

	assert.Equal(t, 33000.0, repo.TotalDistance())
	assert.InDelta(t, 1800+2240+3000+600, repo.TotalDuration(), 1e-9)
	assert.InDelta(t, 3300.0, repo.TotalCalories(), 1e-9)
	assert.Equal(t, 20.0, repo.TotalElevationGain())
	assert.InDelta(t, 320.0, repo.AveragePace(), 1e-9)

	longestSession, ok := repo.LongestSession()
	require.True(t, ok)
	assert.Equal(t, "tempo", longestSession.ID)

	fastestSession, ok := repo.FastestPace()
	require.True(t, ok)
	assert.Equal(t, "tempo", fastestSession.ID)

	stats := repo.Stats()
	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, repo.TotalDistance(), stats.TotalDistanceMeters)
	assert.Equal(t, "tempo", stats.LongestSession.ID)
	assert.Equal(t, "tempo", stats.FastestPaceSession.ID)
}

func TestTotalDistanceMatchesListAll(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, store.NewMemory())

	ops := []struct {
		upsert *model.Session
		delete string
	}{
		{upsert: ptrSession(session("a", 0, 1234.5, 300, true))},
		{upsert: ptrSession(session("b", time.Hour, 800, 310, true))},
		{upsert: ptrSession(session("a", 0, 2000, 300, true))},
		{delete: "b"},
		{delete: "zzz"},
		{upsert: ptrSession(session("c", 2*time.Hour, 42, 500, false))},
	}

	for _, op := range ops {
		if op.upsert != nil {
			require.NoError(t, repo.Upsert(ctx, *op.upsert))
		} else {
			require.NoError(t, repo.Delete(ctx, op.delete))
		}

		sum := 0.0
		for _, s := range repo.ListAll() {
			sum += s.DistanceMeters
		}
		assert.Equal(t, sum, repo.TotalDistance())
	}
}

func TestUpsertRequiresID(t *testing.T) {
	repo := newRepo(t, store.NewMemory())
	assert.Error(t, repo.Upsert(context.Background(), model.Session{}))
}

func TestRegistryKeepsOwnersApart(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	repos := NewSessionRepositories(st, nil)

	alice, err := repos.For(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, alice.Upsert(ctx, session("a", 0, 1000, 300, true)))

	again, err := repos.For(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, alice, again)

	bob, err := repos.For(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, bob.Count())

	_, ok, err := st.Get(ctx, SessionsKeyFor("alice"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegistryRetriesAfterFailedLoad(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{Store: store.NewMemory()}

	seed, err := NewSessionRepository(ctx, st, SessionsKeyFor("alice"), nil)
	require.NoError(t, err)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, seed.Upsert(ctx, session(id, time.Duration(i)*time.Hour, 1000, 300, true)))
	}

	repos := NewSessionRepositories(st, nil)
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	st.getFailures = 1
	_, err = repos.For(cancelled, "alice")
	require.ErrorIs(t, err, errStore)

	repo, err := repos.For(cancelled, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.Count())

	require.NoError(t, repo.Upsert(ctx, session("d", 4*time.Hour, 1000, 300, true)))

	reloaded, err := NewSessionRepository(ctx, st, SessionsKeyFor("alice"), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Count())
}

func ptrSession(s model.Session) *model.Session { return &s }
