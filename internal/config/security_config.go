package config

import "time"

type SecurityConfig interface {
	GetAuthFlowTimeout() time.Duration
	GetDefaultSessionExpiry() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetAuthFlowTimeout bounds the time between SignIn and the provider callback
func (Security) GetAuthFlowTimeout() time.Duration {
	return 10 * time.Minute
}

// GetDefaultSessionExpiry applies when the provider does not report token expiry
func (Security) GetDefaultSessionExpiry() time.Duration {
	return 1 * time.Hour
}
