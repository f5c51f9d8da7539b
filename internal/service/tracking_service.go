package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	apperrors "healthtrack/backend/internal/errors"
	"healthtrack/backend/internal/metrics"
	"healthtrack/backend/internal/model"
	"healthtrack/backend/internal/repository"
	"healthtrack/backend/internal/tracking"
)

// UserLookup resolves the owner of a live session, for body weight.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type liveEntry struct {
	session    *tracking.LiveSession
	stopTicker func()
}

// TrackingService keeps at most one live session per user. Finished
// sessions are handed to the user's history.
type TrackingService struct {
	mu   sync.Mutex
	live map[string]*liveEntry

	cfg          tracking.Config
	users        UserLookup
	history      *repository.SessionRepositories
	metrics      *metrics.Metrics
	logger       *slog.Logger
	tickInterval time.Duration
}

type StartInput struct {
	ActivityType          model.ActivityType
	TargetDistanceMeters  *float64
	TargetDurationSeconds *float64
}

type SampleResult struct {
	Accepted bool                  `json:"accepted"`
	Reason   tracking.RejectReason `json:"reason,omitempty"`
	State    tracking.Snapshot     `json:"state"`
}

// NewTrackingService wires live tracking. A positive tickInterval makes the
// server advance tracked time itself; otherwise clients send ticks.
func NewTrackingService(
	cfg tracking.Config,
	users UserLookup,
	history *repository.SessionRepositories,
	m *metrics.Metrics,
	logger *slog.Logger,
	tickInterval time.Duration,
) *TrackingService {
	if m == nil {
		m = metrics.Nop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrackingService{
		live:         make(map[string]*liveEntry),
		cfg:          cfg,
		users:        users,
		history:      history,
		metrics:      m,
		logger:       logger,
		tickInterval: tickInterval,
	}
}

func (s *TrackingService) Start(ctx context.Context, userID string, input StartInput) (*tracking.Snapshot, *apperrors.APIError) {
	activity, err := model.ParseActivityType(string(input.ActivityType))
	if err != nil {
		return nil, apperrors.BadRequest("invalid_activity_type", "activityType must be one of run, walk, ride, hike")
	}

	cfg := s.cfg
	if s.users != nil {
		user, err := s.users.GetByID(ctx, userID)
		switch {
		case err == nil:
			cfg.BodyWeightKg = user.BodyWeightKg
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, apperrors.Internal("failed to load user profile")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.live[userID]; exists {
		return nil, apperrors.Conflict("session_active", "a live session is already in progress", nil)
	}

	session := tracking.NewLiveSession(cfg)
	err = session.Start(activity, tracking.Target{
		DistanceMeters:  input.TargetDistanceMeters,
		DurationSeconds: input.TargetDurationSeconds,
	})
	if err != nil {
		return nil, trackingError(err)
	}

	entry := &liveEntry{session: session}
	if s.tickInterval > 0 {
		entry.stopTicker = tracking.StartTicker(session, s.tickInterval, s.logger.With("user_id", userID))
	}
	s.live[userID] = entry
	s.metrics.LiveSessions.Inc()
	s.logger.Info("live session started", "user_id", userID, "activity", activity)

	snap := session.Snapshot()
	return &snap, nil
}

func (s *TrackingService) Sample(_ context.Context, userID string, point model.RoutePoint) (*SampleResult, *apperrors.APIError) {
	if apiErr := validatePoint(point); apiErr != nil {
		return nil, apiErr
	}
	entry, apiErr := s.entry(userID)
	if apiErr != nil {
		return nil, apiErr
	}

	reason, accepted := entry.session.Offer(point)
	if accepted {
		s.metrics.ObserveSample("accepted")
	} else {
		s.metrics.ObserveSample(string(reason))
	}

	return &SampleResult{
		Accepted: accepted,
		Reason:   reason,
		State:    entry.session.Snapshot(),
	}, nil
}

func (s *TrackingService) Tick(_ context.Context, userID string, deltaSeconds float64) (*tracking.Snapshot, *apperrors.APIError) {
	entry, apiErr := s.entry(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := entry.session.OnTick(deltaSeconds); err != nil {
		return nil, trackingError(err)
	}
	snap := entry.session.Snapshot()
	return &snap, nil
}

func (s *TrackingService) Pause(_ context.Context, userID string) (*tracking.Snapshot, *apperrors.APIError) {
	return s.apply(userID, (*tracking.LiveSession).Pause)
}

func (s *TrackingService) Resume(_ context.Context, userID string) (*tracking.Snapshot, *apperrors.APIError) {
	return s.apply(userID, (*tracking.LiveSession).Resume)
}

// Finish stops tracking. With save the finished activity is written to the
// user's history and returned; without it the session is discarded and the
// returned session is nil.
func (s *TrackingService) Finish(ctx context.Context, userID string, save bool) (*model.Session, *apperrors.APIError) {
	if !save {
		return nil, s.Discard(ctx, userID)
	}

	entry, apiErr := s.entry(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	// Load history first so a failed read leaves the session live for a retry.
	repo, err := s.history.For(ctx, userID)
	if err != nil {
		s.logger.Error("load history failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to load history")
	}
	finished, err := entry.session.Finish()
	if err != nil {
		return nil, trackingError(err)
	}
	s.release(userID, entry)
	s.metrics.ObserveFinished("saved")

	if err := repo.Upsert(ctx, finished); err != nil {
		s.metrics.StoreWriteErrors.Inc()
		s.logger.Error("save finished session failed", "user_id", userID, "session_id", finished.ID, "error", err)
		return nil, apperrors.Internal("failed to save session")
	}

	s.logger.Info("live session saved",
		"user_id", userID,
		"session_id", finished.ID,
		"distance_m", finished.DistanceMeters,
		"duration_s", finished.DurationSeconds,
	)
	return &finished, nil
}

func (s *TrackingService) Discard(_ context.Context, userID string) *apperrors.APIError {
	entry, apiErr := s.entry(userID)
	if apiErr != nil {
		return apiErr
	}
	if err := entry.session.Discard(); err != nil {
		return trackingError(err)
	}
	s.release(userID, entry)
	s.metrics.ObserveFinished("discarded")
	s.logger.Info("live session discarded", "user_id", userID)
	return nil
}

func (s *TrackingService) State(_ context.Context, userID string) (*tracking.Snapshot, *apperrors.APIError) {
	entry, apiErr := s.entry(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	snap := entry.session.Snapshot()
	return &snap, nil
}

// Close stops every background ticker.
func (s *TrackingService) Close() {
	s.mu.Lock()
	entries := make([]*liveEntry, 0, len(s.live))
	for _, entry := range s.live {
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	for _, entry := range entries {
		if entry.stopTicker != nil {
			entry.stopTicker()
		}
	}
}

func (s *TrackingService) apply(userID string, op func(*tracking.LiveSession) error) (*tracking.Snapshot, *apperrors.APIError) {
	entry, apiErr := s.entry(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := op(entry.session); err != nil {
		return nil, trackingError(err)
	}
	snap := entry.session.Snapshot()
	return &snap, nil
}

func (s *TrackingService) entry(userID string) (*liveEntry, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live[userID]
	if !ok {
		return nil, apperrors.NotFound("session_not_found", "no live session")
	}
	return entry, nil
}

// release forgets entry once its session is terminal.
func (s *TrackingService) release(userID string, entry *liveEntry) {
	s.mu.Lock()
	if s.live[userID] == entry {
		delete(s.live, userID)
		s.metrics.LiveSessions.Dec()
	}
	s.mu.Unlock()

	if entry.stopTicker != nil {
		entry.stopTicker()
	}
}

func validatePoint(p model.RoutePoint) *apperrors.APIError {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return apperrors.BadRequest("invalid_sample", "latitude must be within [-90, 90]")
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return apperrors.BadRequest("invalid_sample", "longitude must be within [-180, 180]")
	}
	if p.Altitude != nil && (math.IsNaN(*p.Altitude) || math.IsInf(*p.Altitude, 0)) {
		return apperrors.BadRequest("invalid_sample", "altitude must be a finite number")
	}
	if p.Timestamp.IsZero() {
		return apperrors.BadRequest("invalid_sample", "timestamp is required")
	}
	if p.HorizontalAccuracy != nil && *p.HorizontalAccuracy < 0 {
		return apperrors.BadRequest("invalid_sample", "horizontalAccuracy must not be negative")
	}
	return nil
}

func trackingError(err error) *apperrors.APIError {
	switch {
	case errors.Is(err, tracking.ErrInvalidTransition):
		return apperrors.Conflict("invalid_transition", err.Error(), nil)
	case errors.Is(err, tracking.ErrInvalidInput):
		return apperrors.BadRequest("invalid_input", err.Error())
	default:
		return apperrors.Internal("tracking failed")
	}
}
