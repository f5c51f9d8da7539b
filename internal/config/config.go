package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"healthtrack/backend/internal/model"
	"healthtrack/backend/internal/store"
	"healthtrack/backend/internal/tracking"
)

type Config struct {
	Port          string
	DBDriver      string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string

	StoreBackend       string
	PostgresDSN        string
	StoreSecret        string
	TickInterval       time.Duration
	TrackingConfigPath string
}

func Load() Config {
	return Config{
		Port:               getEnv("PORT", "8080"),
		DBDriver:           getEnv("DB_DRIVER", "sqlite3"),
		DBPath:             getEnv("DB_PATH", "./data/healthtrack.db"),
		JWTSecret:          getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:           time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "./migrations"),
		StoreBackend:       getEnv("STORE_BACKEND", store.BackendSQLite),
		PostgresDSN:        getEnv("POSTGRES_DSN", ""),
		StoreSecret:        getEnv("STORE_SECRET", ""),
		TickInterval:       time.Duration(getEnvInt("TICK_INTERVAL_SECONDS", 0)) * time.Second,
		TrackingConfigPath: getEnv("TRACKING_CONFIG", ""),
	}
}

// trackingFile mirrors the YAML tracking settings. Absent fields keep the
// built-in defaults.
type trackingFile struct {
	MaxAccuracyMeters    *float64                       `yaml:"max_accuracy_meters"`
	MaxSpeedMetersPerSec map[model.ActivityType]float64 `yaml:"max_speed_mps"`
	METs                 map[model.ActivityType]float64 `yaml:"mets"`
	DefaultBodyWeightKg  *float64                       `yaml:"default_body_weight_kg"`
	DistancePrecision    *int                           `yaml:"distance_precision"`
}

// LoadTracking returns the tracking defaults overlaid with the YAML file at
// path. An empty path yields the defaults.
func LoadTracking(path string) (tracking.Config, error) {
	cfg := tracking.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read tracking config: %w", err)
	}

	var file trackingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return cfg, fmt.Errorf("parse tracking config: %w", err)
	}

	if file.MaxAccuracyMeters != nil {
		cfg.Filter.MaxAccuracyMeters = *file.MaxAccuracyMeters
	}
	for activity, speed := range file.MaxSpeedMetersPerSec {
		cfg.Filter.MaxSpeedMetersPerSec[activity] = speed
	}
	if len(file.METs) > 0 {
		cfg.METs = file.METs
	}
	if file.DefaultBodyWeightKg != nil {
		cfg.DefaultBodyWeightKg = *file.DefaultBodyWeightKg
	}
	if file.DistancePrecision != nil {
		cfg.DistancePrecision = *file.DistancePrecision
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("tracking config %s: %w", path, err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
