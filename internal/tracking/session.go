package tracking

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthtrack/backend/internal/geo"
	"healthtrack/backend/internal/model"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusTracking  Status = "tracking"
	StatusPaused    Status = "paused"
	StatusFinished  Status = "finished"
	StatusDiscarded Status = "discarded"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusDiscarded
}

type command string

const (
	cmdStart   command = "start"
	cmdPause   command = "pause"
	cmdResume  command = "resume"
	cmdFinish  command = "finish"
	cmdDiscard command = "discard"
)

// nextStatus is the whole lifecycle table. Anything it does not list is an
// invalid transition.
func nextStatus(from Status, cmd command) (Status, bool) {
	switch from {
	case StatusIdle:
		if cmd == cmdStart {
			return StatusTracking, true
		}
	case StatusTracking:
		switch cmd {
		case cmdPause:
			return StatusPaused, true
		case cmdFinish:
			return StatusFinished, true
		case cmdDiscard:
			return StatusDiscarded, true
		}
	case StatusPaused:
		switch cmd {
		case cmdResume:
			return StatusTracking, true
		case cmdFinish:
			return StatusFinished, true
		case cmdDiscard:
			return StatusDiscarded, true
		}
	case StatusFinished, StatusDiscarded:
	}
	return from, false
}

// Target is an optional goal fixed when the session starts.
type Target struct {
	DistanceMeters  *float64 `json:"distanceMeters,omitempty"`
	DurationSeconds *float64 `json:"durationSeconds,omitempty"`
}

func (t Target) validate() error {
	if t.DistanceMeters != nil && (*t.DistanceMeters < 0 || math.IsNaN(*t.DistanceMeters)) {
		return fmt.Errorf("%w: target distance must not be negative", ErrInvalidInput)
	}
	if t.DurationSeconds != nil && (*t.DurationSeconds < 0 || math.IsNaN(*t.DurationSeconds)) {
		return fmt.Errorf("%w: target duration must not be negative", ErrInvalidInput)
	}
	return nil
}

// Snapshot is a consistent read of a live session for display.
type Snapshot struct {
	ActivityType             model.ActivityType `json:"activityType,omitempty"`
	Status                   Status             `json:"status"`
	StartedAt                *time.Time         `json:"startedAt,omitempty"`
	RoutePoints              []model.RoutePoint `json:"routePoints"`
	DistanceMeters           float64            `json:"distanceMeters"`
	ElapsedTrackedSeconds    float64            `json:"elapsedTrackedSeconds"`
	ElevationGainMeters      float64            `json:"elevationGainMeters"`
	AveragePaceSecPerKm      float64            `json:"averagePaceSecPerKm"`
	AverageSpeedMetersPerSec float64            `json:"averageSpeedMetersPerSec"`
	CaloriesKcal             float64            `json:"caloriesKcal"`
	TargetDistanceMeters     *float64           `json:"targetDistanceMeters,omitempty"`
	TargetDurationSeconds    *float64           `json:"targetDurationSeconds,omitempty"`
	TargetDistanceAchieved   bool               `json:"targetDistanceAchieved"`
	TargetDurationAchieved   bool               `json:"targetDurationAchieved"`
}

// LiveSession owns one in-progress activity. Every method is safe to call
// from multiple goroutines: mutations are serialized and Snapshot never
// observes a half-applied sample or tick.
type LiveSession struct {
	mu sync.RWMutex

	cfg       Config
	estimator CalorieEstimator
	now       func() time.Time

	status    Status
	activity  model.ActivityType
	filter    SampleFilter
	target    Target
	startedAt time.Time

	routePoints   []model.RoutePoint
	distance      float64
	elapsed       float64
	elevationGain float64
	pace          float64
	speed         float64
	calories      float64
}

func NewLiveSession(cfg Config) *LiveSession {
	return &LiveSession{
		cfg:       cfg,
		estimator: NewCalorieEstimator(cfg.METs, cfg.DefaultBodyWeightKg),
		now:       cfg.clock(),
		status:    StatusIdle,
	}
}

func (s *LiveSession) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *LiveSession) ActivityType() model.ActivityType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activity
}

// Start begins tracking. Targets are validated here and stay fixed for the
// lifetime of the session.
func (s *LiveSession) Start(activity model.ActivityType, target Target) error {
	if !activity.Valid() {
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, activity)
	}
	if err := target.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(cmdStart); err != nil {
		return err
	}
	s.activity = activity
	s.filter = NewSampleFilter(activity, s.cfg.Filter)
	s.target = target
	s.startedAt = s.now()
	s.routePoints = nil
	s.distance, s.elapsed, s.elevationGain = 0, 0, 0
	s.recompute()
	return nil
}

// OnLocationSample feeds one GPS fix. It returns true when the fix was
// accepted into the route. Fixes outside tracking and fixes rejected by the
// filter leave the session untouched.
func (s *LiveSession) OnLocationSample(candidate model.RoutePoint) bool {
	_, accepted := s.Offer(candidate)
	return accepted
}

// Offer is OnLocationSample that also says why a fix was dropped.
func (s *LiveSession) Offer(candidate model.RoutePoint) (RejectReason, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusTracking {
		return RejectNotTracking, false
	}

	var previous *model.RoutePoint
	if n := len(s.routePoints); n > 0 {
		previous = &s.routePoints[n-1]
	}
	if reason := s.filter.Reason(candidate, previous); reason != Accepted {
		return reason, false
	}

	if previous != nil {
		s.distance += geo.PointDistanceMeters(*previous, candidate)
		s.elevationGain += geo.ElevationDelta(*previous, candidate)
	}
	s.routePoints = append(s.routePoints, candidate)
	s.recompute()
	return Accepted, true
}

// OnTick advances tracked time. Ticks delivered while not tracking are
// ignored; a non-positive delta is a caller error.
func (s *LiveSession) OnTick(deltaSeconds float64) error {
	if deltaSeconds <= 0 || math.IsNaN(deltaSeconds) || math.IsInf(deltaSeconds, 0) {
		return fmt.Errorf("%w: tick delta must be positive, got %v", ErrInvalidInput, deltaSeconds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusTracking {
		return nil
	}
	s.elapsed += deltaSeconds
	s.recompute()
	return nil
}

func (s *LiveSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(cmdPause)
}

func (s *LiveSession) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(cmdResume)
}

// Finish ends the session and hands back the finished activity. The route is
// moved into the returned Session. Persisting it is the caller's job.
func (s *LiveSession) Finish() (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(cmdFinish); err != nil {
		return model.Session{}, err
	}

	route := s.routePoints
	s.routePoints = nil
	if route == nil {
		route = []model.RoutePoint{}
	}

	return model.Session{
		ID:                  uuid.NewString(),
		Timestamp:           s.startedAt,
		ActivityType:        s.activity,
		DistanceMeters:      roundTo(s.distance, s.cfg.DistancePrecision),
		DurationSeconds:     s.elapsed,
		CaloriesKcal:        s.calories,
		AveragePaceSecPerKm: s.pace,
		ElevationGainMeters: s.elevationGain,
		IsGPSTracked:        len(route) > 0,
		RoutePoints:         route,
	}, nil
}

// Discard abandons the session; everything accumulated is dropped.
func (s *LiveSession) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(cmdDiscard); err != nil {
		return err
	}
	s.routePoints = nil
	s.distance, s.elapsed, s.elevationGain = 0, 0, 0
	s.recompute()
	return nil
}

func (s *LiveSession) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ActivityType:             s.activity,
		Status:                   s.status,
		RoutePoints:              append([]model.RoutePoint(nil), s.routePoints...),
		DistanceMeters:           s.distance,
		ElapsedTrackedSeconds:    s.elapsed,
		ElevationGainMeters:      s.elevationGain,
		AveragePaceSecPerKm:      s.pace,
		AverageSpeedMetersPerSec: s.speed,
		CaloriesKcal:             s.calories,
		TargetDistanceMeters:     s.target.DistanceMeters,
		TargetDurationSeconds:    s.target.DurationSeconds,
	}
	if s.status != StatusIdle {
		startedAt := s.startedAt
		snap.StartedAt = &startedAt
		snap.TargetDistanceAchieved = s.target.DistanceMeters != nil && s.distance >= *s.target.DistanceMeters
		snap.TargetDurationAchieved = s.target.DurationSeconds != nil && s.elapsed >= *s.target.DurationSeconds
	}
	return snap
}

func (s *LiveSession) transition(cmd command) error {
	next, ok := nextStatus(s.status, cmd)
	if !ok {
		return fmt.Errorf("%w: cannot %s a %s session", ErrInvalidTransition, cmd, s.status)
	}
	s.status = next
	return nil
}

// recompute refreshes the derived metrics. Callers hold the write lock.
func (s *LiveSession) recompute() {
	s.speed = 0
	if s.elapsed > 0 {
		s.speed = s.distance / s.elapsed
	}
	s.pace = 0
	if s.distance > 0 {
		s.pace = s.elapsed / (s.distance / 1000)
	}
	s.calories = s.estimator.Estimate(s.activity, s.elapsed, s.cfg.BodyWeightKg)
}

func roundTo(value float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(value*scale) / scale
}
