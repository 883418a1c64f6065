package config

import "time"

type Config interface {
	EnvConfig
	IdentityConfig
	SecurityConfig
	BackendConfig
	FeedConfig
	VoiceConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetConfigDir() string
	GetMetricsAddr() string
	GetPersistLocale() bool
}

type BackendConfig interface {
	GetDatabaseURL() string
	GetBackendTimeout() time.Duration
}

type FeedConfig interface {
	GetFeedDriver() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetFeedChannel() string
}

type VoiceConfig interface {
	GetSpeechCommand() string
}

type mainConfig struct {
	EnvVars
	Identity
	Security
	Backend
	Feed
	Voice
}

func New() Config {
	return mainConfig{}
}
