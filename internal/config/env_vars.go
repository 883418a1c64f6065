package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	appNameVar       = "APP_NAME"
	configDirVar     = "SHAREDLIST_CONFIG_DIR"
	logLevelVar      = "LOG_LEVEL"
	metricsAddrVar   = "METRICS_ADDR"
	persistLocaleVar = "PERSIST_LOCALE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Shared List")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetConfigDir returns the directory holding the persisted session and preferences.
// Defaults to <user config dir>/sharedlist.
func (EnvVars) GetConfigDir() string {
	if dir := os.Getenv(configDirVar); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ".sharedlist"
	}
	return filepath.Join(base, "sharedlist")
}

func (EnvVars) GetMetricsAddr() string {
	return GetEnv(metricsAddrVar, "")
}

// GetPersistLocale keeps the chosen locale across runs. The CLI starts a new
// process per command, so it is on unless PERSIST_LOCALE=false.
func (EnvVars) GetPersistLocale() bool {
	v, err := strconv.ParseBool(GetEnv(persistLocaleVar, "true"))
	return err != nil || v
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt parses an integer variable, falling back to defaultValue when unset or malformed.
func GetEnvInt(envVar string, defaultValue int) int {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetEnvDuration parses a time.Duration variable ("5s", "1m").
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
