package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"healthtrack/backend/internal/model"
	"healthtrack/backend/internal/store"
)

// SessionsKey is the store key holding one owner's activity history.
const SessionsKey = "activity_sessions"

// SessionStats bundles the aggregate queries for one owner.
type SessionStats struct {
	Count                    int            `json:"count"`
	TotalDistanceMeters      float64        `json:"totalDistanceMeters"`
	TotalDurationSeconds     float64        `json:"totalDurationSeconds"`
	TotalCaloriesKcal        float64        `json:"totalCaloriesKcal"`
	TotalElevationGainMeters float64        `json:"totalElevationGainMeters"`
	AveragePaceSecPerKm      float64        `json:"averagePaceSecPerKm"`
	LongestSession           *model.Session `json:"longestSession,omitempty"`
	FastestPaceSession       *model.Session `json:"fastestPaceSession,omitempty"`
}

// SessionRepository is the history of finished activities. The whole
// collection lives in memory and is written back to the store under a
// single key after every mutation; the store is the authority across
// restarts.
type SessionRepository struct {
	mu       sync.RWMutex
	store    store.Store
	key      string
	logger   *slog.Logger
	sessions []model.Session
}

// NewSessionRepository loads the collection stored under key. A missing or
// corrupt payload starts an empty history. A failed read is returned as an
// error so that a later write cannot overwrite history that was never seen.
// The read is not cut short when ctx is cancelled.
func NewSessionRepository(ctx context.Context, st store.Store, key string, logger *slog.Logger) (*SessionRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &SessionRepository{
		store:    st,
		key:      key,
		logger:   logger.With("store_key", key),
		sessions: []model.Session{},
	}

	raw, ok, err := st.Get(context.WithoutCancel(ctx), key)
	if errors.Is(err, store.ErrDecrypt) {
		r.logger.Warn("undecryptable sessions payload, starting empty", "error", err)
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load sessions %s: %w", key, err)
	}
	if !ok {
		return r, nil
	}

	var loaded []model.Session
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		r.logger.Warn("corrupt sessions payload, starting empty", "error", err)
		return r, nil
	}
	r.sessions = loaded
	sortSessions(r.sessions)
	return r, nil
}

// Upsert inserts s or replaces the session with the same id. The store write
// happens before the in-memory copy changes, so a failed write leaves the
// repository as it was.
func (r *SessionRepository) Upsert(ctx context.Context, s model.Session) error {
	if s.ID == "" {
		return errors.New("upsert session: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]model.Session, 0, len(r.sessions)+1)
	replaced := false
	for _, existing := range r.sessions {
		if existing.ID == s.ID {
			next = append(next, s)
			replaced = true
			continue
		}
		next = append(next, existing)
	}
	if !replaced {
		next = append(next, s)
	}
	sortSessions(next)

	if err := r.persist(ctx, next); err != nil {
		return fmt.Errorf("upsert session %s: %w", s.ID, err)
	}
	r.sessions = next
	return nil
}

// Delete removes the session with id. Unknown ids are not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := -1
	for i, existing := range r.sessions {
		if existing.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	next := make([]model.Session, 0, len(r.sessions)-1)
	next = append(next, r.sessions[:index]...)
	next = append(next, r.sessions[index+1:]...)

	if err := r.persist(ctx, next); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	r.sessions = next
	return nil
}

func (r *SessionRepository) Get(id string) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return model.Session{}, false
}

// ListAll returns every session, newest first.
func (r *SessionRepository) ListAll() []model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Session(nil), r.sessions...)
}

// ListByRange returns the sessions whose timestamp lies in [start, end],
// newest first.
func (r *SessionRepository) ListByRange(start, end time.Time) []model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []model.Session
	for _, s := range r.sessions {
		if s.Timestamp.Before(start) || s.Timestamp.After(end) {
			continue
		}
		matched = append(matched, s)
	}
	return matched
}

func (r *SessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRepository) TotalDistance() float64 {
	return r.sum(func(s model.Session) float64 { return s.DistanceMeters })
}

func (r *SessionRepository) TotalDuration() float64 {
	return r.sum(func(s model.Session) float64 { return s.DurationSeconds })
}

func (r *SessionRepository) TotalCalories() float64 {
	return r.sum(func(s model.Session) float64 { return s.CaloriesKcal })
}

func (r *SessionRepository) TotalElevationGain() float64 {
	return r.sum(func(s model.Session) float64 { return s.ElevationGainMeters })
}

// AveragePace is the mean pace over GPS-tracked sessions that covered some
// distance. It is 0 when there are none.
func (r *SessionRepository) AveragePace() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return averagePace(r.sessions)
}

// LongestSession is the GPS-tracked session with the greatest distance.
func (r *SessionRepository) LongestSession() (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return longest(r.sessions)
}

// FastestPace is the GPS-tracked session with the lowest pace.
func (r *SessionRepository) FastestPace() (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fastest(r.sessions)
}

// Stats computes every aggregate from one consistent view of the history.
func (r *SessionRepository) Stats() SessionStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := SessionStats{
		Count:               len(r.sessions),
		AveragePaceSecPerKm: averagePace(r.sessions),
	}
	for _, s := range r.sessions {
		stats.TotalDistanceMeters += s.DistanceMeters
		stats.TotalDurationSeconds += s.DurationSeconds
		stats.TotalCaloriesKcal += s.CaloriesKcal
		stats.TotalElevationGainMeters += s.ElevationGainMeters
	}
	if s, ok := longest(r.sessions); ok {
		stats.LongestSession = &s
	}
	if s, ok := fastest(r.sessions); ok {
		stats.FastestPaceSession = &s
	}
	return stats
}

func (r *SessionRepository) sum(field func(model.Session) float64) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0.0
	for _, s := range r.sessions {
		total += field(s)
	}
	return total
}

func (r *SessionRepository) persist(ctx context.Context, sessions []model.Session) error {
	payload, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := r.store.Put(ctx, r.key, string(payload)); err != nil {
		r.logger.Error("persist sessions failed", "error", err, "count", len(sessions))
		return err
	}
	return nil
}

func sortSessions(sessions []model.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})
}

func hasPace(s model.Session) bool {
	return s.IsGPSTracked && s.DistanceMeters > 0
}

func averagePace(sessions []model.Session) float64 {
	total, count := 0.0, 0
	for _, s := range sessions {
		if !hasPace(s) {
			continue
		}
		total += s.AveragePaceSecPerKm
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func longest(sessions []model.Session) (model.Session, bool) {
	var best model.Session
	found := false
	for _, s := range sessions {
		if !s.IsGPSTracked {
			continue
		}
		if !found || s.DistanceMeters > best.DistanceMeters {
			best, found = s, true
		}
	}
	return best, found
}

func fastest(sessions []model.Session) (model.Session, bool) {
	var best model.Session
	found := false
	for _, s := range sessions {
		if !hasPace(s) {
			continue
		}
		if !found || s.AveragePaceSecPerKm < best.AveragePaceSecPerKm {
			best, found = s, true
		}
	}
	return best, found
}
