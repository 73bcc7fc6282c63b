package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Environment string

	ServerURL string
	WSURL     string

	DataDir     string
	PrefsDBPath string
	PlansDir    string

	StagesCSV   string
	RefreshCron string

	RequestTimeoutSec  int
	WSReconnectMinSec  int
	WSReconnectMaxSec  int
	TaskListLimit      int
	PlanIndexDebounceS int
}

func FromEnv() Config {
	dataDir := stringOrDefault("TASKDECK_DATA_DIR", defaultDataDir())
	serverURL := stringOrDefault("TASKDECK_SERVER_URL", "http://localhost:8743")

	return Config{
		Environment:        stringOrDefault("TASKDECK_ENV", "development"),
		ServerURL:          serverURL,
		WSURL:              stringOrDefault("TASKDECK_WS_URL", deriveWSURL(serverURL)),
		DataDir:            dataDir,
		PrefsDBPath:        stringOrDefault("TASKDECK_PREFS_DB_PATH", filepath.Join(dataDir, "prefs.sqlite")),
		PlansDir:           stringOrDefault("TASKDECK_PLANS_DIR", "specs"),
		StagesCSV:          stringOrDefault("TASKDECK_STAGES", "plan,build,test,review,document"),
		RefreshCron:        stringOrDefault("TASKDECK_REFRESH_CRON", "@every 30s"),
		RequestTimeoutSec:  intOrDefault("TASKDECK_REQUEST_TIMEOUT_SECONDS", 8),
		WSReconnectMinSec:  intOrDefault("TASKDECK_WS_RECONNECT_MIN_SECONDS", 1),
		WSReconnectMaxSec:  intOrDefault("TASKDECK_WS_RECONNECT_MAX_SECONDS", 30),
		TaskListLimit:      intOrDefault("TASKDECK_TASK_LIST_LIMIT", 200),
		PlanIndexDebounceS: intOrDefault("TASKDECK_PLAN_INDEX_DEBOUNCE_SECONDS", 2),
	}
}

// Stages returns the configured pipeline stage sequence, trimmed and
// lowercased, dropping empty entries.
func (c Config) Stages() []string {
	parts := strings.Split(c.StagesCSV, ",")
	stages := make([]string, 0, len(parts))
	for _, part := range parts {
		stage := strings.ToLower(strings.TrimSpace(part))
		if stage == "" {
			continue
		}
		stages = append(stages, stage)
	}
	return stages
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ".taskdeck"
	}
	return filepath.Join(home, ".taskdeck")
}

func deriveWSURL(serverURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	switch {
	case strings.HasPrefix(trimmed, "https://"):
		return "wss://" + strings.TrimPrefix(trimmed, "https://") + "/ws/updates"
	case strings.HasPrefix(trimmed, "http://"):
		return "ws://" + strings.TrimPrefix(trimmed, "http://") + "/ws/updates"
	default:
		return "ws://" + trimmed + "/ws/updates"
	}
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}
