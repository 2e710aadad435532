package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service configuration loaded from the environment.
type Config struct {
	Port           string
	DBPath         string
	MigrationsPath string
	CORSOrigins    []string
	CacheTTL       time.Duration
	RateLimit      int // requests per minute per client IP

	// Viewport planner cap overrides. Zero keeps the spatial defaults.
	LowZoomCap  int
	HighZoomCap int
	AnalysisCap int
}

// Load reads configuration from environment variables, falling back to
// development defaults.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", ":8080"),
		DBPath:         getEnv("DB_PATH", "./data/properties.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		CORSOrigins:    splitOrigins(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		CacheTTL:       time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MINUTE", 300),
		LowZoomCap:     getEnvInt("MAP_LOW_ZOOM_CAP", 0),
		HighZoomCap:    getEnvInt("MAP_HIGH_ZOOM_CAP", 0),
		AnalysisCap:    getEnvInt("MAP_ANALYSIS_CAP", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// splitOrigins parses a comma-separated origin list, dropping blanks.
func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
