package tracking

import (
	"fmt"
	"time"

	"healthtrack/backend/internal/model"
)

const (
	DefaultMaxAccuracyMeters = 50.0
	DefaultBodyWeightKg      = 70.0
	DefaultDistancePrecision = 2
)

// FilterConfig holds the noise-rejection thresholds for SampleFilter.
type FilterConfig struct {
	// MaxAccuracyMeters rejects fixes whose reported horizontal accuracy is
	// worse than this radius. Zero disables the check.
	MaxAccuracyMeters float64
	// MaxSpeedMetersPerSec caps the plausible speed per activity type.
	MaxSpeedMetersPerSec map[model.ActivityType]float64
}

// DefaultFilterConfig allows roughly twice the world-record sustained speed
// of each activity.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MaxAccuracyMeters: DefaultMaxAccuracyMeters,
		MaxSpeedMetersPerSec: map[model.ActivityType]float64{
			model.ActivityRun:  12.5,
			model.ActivityWalk: 7.0,
			model.ActivityHike: 7.0,
			model.ActivityRide: 30.0,
		},
	}
}

func (c FilterConfig) maxSpeed(activity model.ActivityType) (float64, bool) {
	speed, ok := c.MaxSpeedMetersPerSec[activity]
	return speed, ok && speed > 0
}

// Config drives a LiveSession.
type Config struct {
	Filter FilterConfig
	// METs overrides entries of the built-in MET table.
	METs map[model.ActivityType]float64
	// DefaultBodyWeightKg is used for calories when the owner has no weight on record.
	DefaultBodyWeightKg float64
	// DistancePrecision is the number of decimals kept on a finished session's distance.
	DistancePrecision int

	// BodyWeightKg is the owner's weight for this session, if known.
	BodyWeightKg *float64
	// Now is the session clock. Defaults to time.Now.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Filter:              DefaultFilterConfig(),
		DefaultBodyWeightKg: DefaultBodyWeightKg,
		DistancePrecision:   DefaultDistancePrecision,
	}
}

// Validate rejects thresholds that would make the filter or estimator meaningless.
func (c Config) Validate() error {
	if c.Filter.MaxAccuracyMeters < 0 {
		return fmt.Errorf("%w: max accuracy must not be negative", ErrInvalidInput)
	}
	for activity, speed := range c.Filter.MaxSpeedMetersPerSec {
		if !activity.Valid() {
			return fmt.Errorf("%w: unknown activity %q in speed limits", ErrInvalidInput, activity)
		}
		if speed <= 0 {
			return fmt.Errorf("%w: max speed for %s must be positive", ErrInvalidInput, activity)
		}
	}
	for activity, met := range c.METs {
		if !activity.Valid() {
			return fmt.Errorf("%w: unknown activity %q in MET table", ErrInvalidInput, activity)
		}
		if met <= 0 {
			return fmt.Errorf("%w: MET for %s must be positive", ErrInvalidInput, activity)
		}
	}
	if c.DefaultBodyWeightKg <= 0 {
		return fmt.Errorf("%w: default body weight must be positive", ErrInvalidInput)
	}
	if c.DistancePrecision < 0 {
		return fmt.Errorf("%w: distance precision must not be negative", ErrInvalidInput)
	}
	return nil
}

func (c Config) clock() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}
