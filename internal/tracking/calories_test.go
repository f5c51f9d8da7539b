package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"healthtrack/backend/internal/model"
)

func TestCalorieEstimator(t *testing.T) {
	estimator := NewCalorieEstimator(nil, DefaultBodyWeightKg)

	// One hour of running at the reference weight: 9.8 * 70.
	assert.InDelta(t, 686.0, estimator.Estimate(model.ActivityRun, 3600, nil), 1e-9)
	// Thirty minutes of walking at 80 kg: 3.5 * 80 * 0.5.
	assert.InDelta(t, 140.0, estimator.Estimate(model.ActivityWalk, 1800, ptr(80)), 1e-9)
	assert.Zero(t, estimator.Estimate(model.ActivityRide, 0, nil))
	assert.InDelta(t,
		estimator.Estimate(model.ActivityHike, 600, nil),
		estimator.Estimate(model.ActivityHike, 600, ptr(-5)),
		1e-9, "non-positive weight falls back to the default")
}

func TestCalorieEstimatorOverrides(t *testing.T) {
	estimator := NewCalorieEstimator(map[model.ActivityType]float64{
		model.ActivityRide: 10,
		model.ActivityWalk: 0,
	}, 0)

	assert.Equal(t, 10.0, estimator.MET(model.ActivityRide))
	assert.Equal(t, 3.5, estimator.MET(model.ActivityWalk), "zero override ignored")
	assert.InDelta(t, 700.0, estimator.Estimate(model.ActivityRide, 3600, nil), 1e-9)
}
