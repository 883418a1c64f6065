package config

const (
	FeedDriverMemory   = "memory"
	FeedDriverRedis    = "redis"
	FeedDriverPostgres = "postgres"
)

type Feed struct{}

var _ FeedConfig = Feed{}

// GetFeedDriver is one of "memory", "redis" or "postgres"
func (Feed) GetFeedDriver() string {
	return GetEnv("FEED_DRIVER", FeedDriverMemory)
}

func (Feed) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Feed) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Feed) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (Feed) GetFeedChannel() string {
	return GetEnv("FEED_CHANNEL", "list_items_changes")
}
