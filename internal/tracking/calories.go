package tracking

import "healthtrack/backend/internal/model"

var defaultMETs = map[model.ActivityType]float64{
	model.ActivityRun:  9.8,
	model.ActivityWalk: 3.5,
	model.ActivityRide: 7.5,
	model.ActivityHike: 6.0,
}

// CalorieEstimator converts activity time into energy expenditure using a
// fixed MET per activity type: kcal = MET * kg * hours.
type CalorieEstimator struct {
	mets          map[model.ActivityType]float64
	defaultWeight float64
}

func NewCalorieEstimator(overrides map[model.ActivityType]float64, defaultWeightKg float64) CalorieEstimator {
	mets := make(map[model.ActivityType]float64, len(defaultMETs))
	for activity, met := range defaultMETs {
		mets[activity] = met
	}
	for activity, met := range overrides {
		if met > 0 {
			mets[activity] = met
		}
	}
	if defaultWeightKg <= 0 {
		defaultWeightKg = DefaultBodyWeightKg
	}
	return CalorieEstimator{mets: mets, defaultWeight: defaultWeightKg}
}

func (e CalorieEstimator) MET(activity model.ActivityType) float64 {
	return e.mets[activity]
}

// Estimate returns kcal burned. A nil or non-positive body weight falls back
// to the default reference weight.
func (e CalorieEstimator) Estimate(activity model.ActivityType, durationSeconds float64, bodyWeightKg *float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	weight := e.defaultWeight
	if bodyWeightKg != nil && *bodyWeightKg > 0 {
		weight = *bodyWeightKg
	}
	return e.mets[activity] * weight * durationSeconds / 3600
}
