package tracking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"healthtrack/backend/internal/model"
)

var epoch = time.Date(2026, 5, 10, 6, 30, 0, 0, time.UTC)

func fix(lat, lon float64, offset time.Duration) model.RoutePoint {
	return model.RoutePoint{Latitude: lat, Longitude: lon, Timestamp: epoch.Add(offset)}
}

func ptr(v float64) *float64 { return &v }

func TestSampleFilterAcceptsFirstFix(t *testing.T) {
	filter := NewSampleFilter(model.ActivityWalk, DefaultFilterConfig())

	far := fix(10, 10, 0)
	far.HorizontalAccuracy = ptr(500)
	assert.True(t, filter.Accept(far, nil))
}

func TestSampleFilterRejections(t *testing.T) {
	filter := NewSampleFilter(model.ActivityWalk, DefaultFilterConfig())
	previous := fix(0, 0, 0)

	inaccurate := fix(0, 0.0001, 10*time.Second)
	inaccurate.HorizontalAccuracy = ptr(80)

	cases := []struct {
		name      string
		candidate model.RoutePoint
		want      RejectReason
	}{
		{"walking pace", fix(0, 0.0001, 10*time.Second), Accepted},
		{"duplicate timestamp", fix(0, 0.0001, 0), RejectNotLater},
		{"out of order", fix(0, 0.0001, -time.Second), RejectNotLater},
		{"poor accuracy", inaccurate, RejectInaccurate},
		// ~500 m in one second
		{"teleport", fix(0, 0.0045, time.Second), RejectTooFast},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, filter.Reason(tc.candidate, &previous))
			assert.Equal(t, tc.want == Accepted, filter.Accept(tc.candidate, &previous))
		})
	}
}

func TestSampleFilterRejectsMalformedFixes(t *testing.T) {
	filter := NewSampleFilter(model.ActivityRun, DefaultFilterConfig())
	previous := fix(0, 0, 0)

	nanAltitude := fix(0, 0.0001, 10*time.Second)
	nanAltitude.Altitude = ptr(math.NaN())
	infAccuracy := fix(0, 0.0001, 10*time.Second)
	infAccuracy.HorizontalAccuracy = ptr(math.Inf(1))

	for name, candidate := range map[string]model.RoutePoint{
		"nan latitude":       fix(math.NaN(), 0, 10*time.Second),
		"latitude range":     fix(90.5, 0, 10*time.Second),
		"infinite longitude": fix(0, math.Inf(-1), 10*time.Second),
		"nan altitude":       nanAltitude,
		"infinite accuracy":  infAccuracy,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, RejectInvalid, filter.Reason(candidate, &previous))
			assert.Equal(t, RejectInvalid, filter.Reason(candidate, nil), "even as a first fix")
		})
	}
}

func TestSampleFilterSpeedLimitDependsOnActivity(t *testing.T) {
	previous := fix(0, 0, 0)
	// ~22 m/s: fine on a bike, impossible on foot.
	candidate := fix(0, 0.002, 10*time.Second)

	assert.True(t, NewSampleFilter(model.ActivityRide, DefaultFilterConfig()).Accept(candidate, &previous))
	assert.False(t, NewSampleFilter(model.ActivityRun, DefaultFilterConfig()).Accept(candidate, &previous))
}

func TestSampleFilterAccuracyCheckDisabled(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MaxAccuracyMeters = 0
	previous := fix(0, 0, 0)
	candidate := fix(0, 0.0001, 10*time.Second)
	candidate.HorizontalAccuracy = ptr(1000)

	assert.True(t, NewSampleFilter(model.ActivityWalk, cfg).Accept(candidate, &previous))
}
