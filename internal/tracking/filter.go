package tracking

import (
	"math"

	"healthtrack/backend/internal/geo"
	"healthtrack/backend/internal/model"
)

type RejectReason string

const (
	Accepted         RejectReason = ""
	RejectNotLater   RejectReason = "not_later"
	RejectInaccurate RejectReason = "inaccurate"
	RejectTooFast    RejectReason = "too_fast"
	// RejectInvalid is a fix with a non-finite or out-of-range reading.
	RejectInvalid RejectReason = "invalid"
	// RejectNotTracking is reported for fixes that arrive while the session
	// is not tracking. The filter itself never returns it.
	RejectNotTracking RejectReason = "not_tracking"
)

// SampleFilter keeps GPS noise out of the accumulated metrics. It is
// stateless; the caller supplies the last accepted point.
type SampleFilter struct {
	activity model.ActivityType
	cfg      FilterConfig
}

func NewSampleFilter(activity model.ActivityType, cfg FilterConfig) SampleFilter {
	return SampleFilter{activity: activity, cfg: cfg}
}

// Accept reports whether candidate may follow previous. The first fix of a
// session (previous == nil) is always accepted.
func (f SampleFilter) Accept(candidate model.RoutePoint, previous *model.RoutePoint) bool {
	return f.Reason(candidate, previous) == Accepted
}

// Reason is Accept with the rejection cause.
func (f SampleFilter) Reason(candidate model.RoutePoint, previous *model.RoutePoint) RejectReason {
	if !wellFormed(candidate) {
		return RejectInvalid
	}
	if previous == nil {
		return Accepted
	}
	if !candidate.Timestamp.After(previous.Timestamp) {
		return RejectNotLater
	}
	if f.cfg.MaxAccuracyMeters > 0 && candidate.HorizontalAccuracy != nil &&
		*candidate.HorizontalAccuracy > f.cfg.MaxAccuracyMeters {
		return RejectInaccurate
	}
	if limit, ok := f.cfg.maxSpeed(f.activity); ok && geo.SpeedMetersPerSec(*previous, candidate) > limit {
		return RejectTooFast
	}
	return Accepted
}

func wellFormed(p model.RoutePoint) bool {
	if !finite(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return false
	}
	if !finite(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return false
	}
	if p.Altitude != nil && !finite(*p.Altitude) {
		return false
	}
	if p.HorizontalAccuracy != nil && (!finite(*p.HorizontalAccuracy) || *p.HorizontalAccuracy < 0) {
		return false
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
