package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	apperrors "healthtrack/backend/internal/errors"
	"healthtrack/backend/internal/metrics"
	"healthtrack/backend/internal/model"
	"healthtrack/backend/internal/repository"
)

var endOfTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// HistoryService reads and edits a user's finished activities.
type HistoryService struct {
	sessions *repository.SessionRepositories
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewHistoryService(sessions *repository.SessionRepositories, m *metrics.Metrics, logger *slog.Logger) *HistoryService {
	if m == nil {
		m = metrics.Nop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{sessions: sessions, metrics: m, logger: logger}
}

// List returns the user's sessions newest first. A nil bound leaves that side
// of the range open.
func (s *HistoryService) List(ctx context.Context, userID string, from, to *time.Time) ([]model.Session, *apperrors.APIError) {
	repo, apiErr := s.repo(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	if from == nil && to == nil {
		return repo.ListAll(), nil
	}

	start := time.Time{}
	if from != nil {
		start = *from
	}
	end := endOfTime
	if to != nil {
		end = *to
	}
	if end.Before(start) {
		return nil, apperrors.BadRequest("invalid_range", "from must not be after to")
	}

	sessions := repo.ListByRange(start, end)
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}

func (s *HistoryService) Get(ctx context.Context, userID, id string) (*model.Session, *apperrors.APIError) {
	repo, apiErr := s.repo(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	session, ok := repo.Get(id)
	if !ok {
		return nil, apperrors.NotFound("activity_not_found", "activity not found")
	}
	return &session, nil
}

// Put stores session under id, replacing any session with that id. It reports
// whether a new session was created. This is how manual entries arrive.
func (s *HistoryService) Put(ctx context.Context, userID, id string, session model.Session) (*model.Session, bool, *apperrors.APIError) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false, apperrors.BadRequest("invalid_id", "id is required")
	}
	session.ID = id

	if apiErr := normalizeSession(&session); apiErr != nil {
		return nil, false, apiErr
	}

	repo, apiErr := s.repo(ctx, userID)
	if apiErr != nil {
		return nil, false, apiErr
	}
	_, existed := repo.Get(id)
	if err := repo.Upsert(ctx, session); err != nil {
		s.metrics.StoreWriteErrors.Inc()
		s.logger.Error("save session failed", "user_id", userID, "session_id", id, "error", err)
		return nil, false, apperrors.Internal("failed to save session")
	}
	return &session, !existed, nil
}

func (s *HistoryService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	repo, apiErr := s.repo(ctx, userID)
	if apiErr != nil {
		return apiErr
	}
	if _, ok := repo.Get(id); !ok {
		return apperrors.NotFound("activity_not_found", "activity not found")
	}
	if err := repo.Delete(ctx, id); err != nil {
		s.metrics.StoreWriteErrors.Inc()
		s.logger.Error("delete session failed", "user_id", userID, "session_id", id, "error", err)
		return apperrors.Internal("failed to delete session")
	}
	return nil
}

func (s *HistoryService) Stats(ctx context.Context, userID string) (*repository.SessionStats, *apperrors.APIError) {
	repo, apiErr := s.repo(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	stats := repo.Stats()
	return &stats, nil
}

func (s *HistoryService) repo(ctx context.Context, userID string) (*repository.SessionRepository, *apperrors.APIError) {
	repo, err := s.sessions.For(ctx, userID)
	if err != nil {
		s.logger.Error("load history failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to load history")
	}
	return repo, nil
}

func normalizeSession(session *model.Session) *apperrors.APIError {
	activity, err := model.ParseActivityType(string(session.ActivityType))
	if err != nil {
		return apperrors.BadRequest("invalid_activity_type", "activityType must be one of run, walk, ride, hike")
	}
	session.ActivityType = activity

	if session.Timestamp.IsZero() {
		return apperrors.BadRequest("invalid_timestamp", "timestamp is required")
	}
	for name, value := range map[string]float64{
		"distanceMeters":      session.DistanceMeters,
		"durationSeconds":     session.DurationSeconds,
		"caloriesKcal":        session.CaloriesKcal,
		"averagePaceSecPerKm": session.AveragePaceSecPerKm,
		"elevationGainMeters": session.ElevationGainMeters,
	} {
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return apperrors.BadRequest("invalid_session", name+" must be a non-negative number")
		}
	}

	if session.AveragePaceSecPerKm == 0 && session.DistanceMeters > 0 {
		session.AveragePaceSecPerKm = session.DurationSeconds / (session.DistanceMeters / 1000)
	}
	if session.RoutePoints == nil {
		session.RoutePoints = []model.RoutePoint{}
	}
	return nil
}
