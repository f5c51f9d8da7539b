package model

import (
	"fmt"
	"strings"
	"time"
)

type ActivityType string

const (
	ActivityRun  ActivityType = "run"
	ActivityWalk ActivityType = "walk"
	ActivityRide ActivityType = "ride"
	ActivityHike ActivityType = "hike"
)

// ActivityTypes lists every supported activity in display order.
var ActivityTypes = []ActivityType{ActivityRun, ActivityWalk, ActivityRide, ActivityHike}

func ParseActivityType(raw string) (ActivityType, error) {
	candidate := ActivityType(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range ActivityTypes {
		if candidate == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown activity type %q", raw)
}

// Valid reports whether a is one of ActivityTypes exactly. Use
// ParseActivityType to normalize user input first.
func (a ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if a == known {
			return true
		}
	}
	return false
}

// RoutePoint is a single GPS fix. Optional readings are nil when the
// location provider did not report them.
type RoutePoint struct {
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Altitude           *float64  `json:"altitude,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	HorizontalAccuracy *float64  `json:"horizontalAccuracy,omitempty"`
}

// Session is a finished activity as kept in history.
type Session struct {
	ID                  string       `json:"id"`
	Timestamp           time.Time    `json:"timestamp"`
	ActivityType        ActivityType `json:"activityType"`
	DistanceMeters      float64      `json:"distanceMeters"`
	DurationSeconds     float64      `json:"durationSeconds"`
	CaloriesKcal        float64      `json:"caloriesKcal"`
	AveragePaceSecPerKm float64      `json:"averagePaceSecPerKm"`
	ElevationGainMeters float64      `json:"elevationGainMeters"`
	IsGPSTracked        bool         `json:"isGPSTracked"`
	RoutePoints         []RoutePoint `json:"routePoints"`
}
