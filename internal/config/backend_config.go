package config

import "time"

type Backend struct{}

var _ BackendConfig = Backend{}

// GetDatabaseURL selects the Postgres backend; empty means the in-memory backend
func (Backend) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

func (Backend) GetBackendTimeout() time.Duration {
	return GetEnvDuration("BACKEND_TIMEOUT", 10*time.Second)
}
