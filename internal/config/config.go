package config

import (
	"os"
	"strings"

	"github.com/corpauration/timetable-sync/internal/celcat"
)

type Config struct {
	DBPath   string
	Port     string
	LogLevel string

	CelcatBaseURL  string
	CelcatUsername string
	CelcatPassword string
	Labels         celcat.Labels

	MetricsUser     string
	MetricsPassword string
	RunUser         string
	RunPassword     string
}

func Load() *Config {
	labels := celcat.DefaultLabels()
	if v := os.Getenv("CELCAT_LABELS_ROOMS"); v != "" {
		labels.Rooms = splitList(v)
	}
	if v := os.Getenv("CELCAT_LABELS_TEACHERS"); v != "" {
		labels.Teachers = splitList(v)
	}

	return &Config{
		DBPath:          getEnv("SYNC_DB_PATH", "timetable.db"),
		Port:            getEnv("SYNC_PORT", "8080"),
		LogLevel:        getEnv("SYNC_LOG_LEVEL", "info"),
		CelcatBaseURL:   getEnv("CELCAT_BASE_URL", ""),
		CelcatUsername:  getEnv("CELCAT_USERNAME", ""),
		CelcatPassword:  getEnv("CELCAT_PASSWORD", ""),
		Labels:          labels,
		MetricsUser:     getEnv("METRICS_USER", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
		RunUser:         getEnv("RUN_USER", ""),
		RunPassword:     getEnv("RUN_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
