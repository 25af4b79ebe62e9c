package clients

import "time"

const (
	MAX_RETRIES     = 5
	INITIAL_BACKOFF = 1 * time.Second
	MAX_BACKOFF     = 32 * time.Second
	USER_AGENT      = "marketsentiment-client/1.0 (+https://github.com/spacesedan/marketsentiment)"

	VALKEY_SENTIMENT_PREFIX = "sentiment:classification"
	VALKEY_RETRY_DELAY      = 250 * time.Millisecond
	DEFAULT_CACHE_TTL       = 24 * time.Hour
)
