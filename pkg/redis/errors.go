package redis

import "errors"

// Errors returned while opening or probing the Redis rate-limit store.
var (
	ErrEmptyConnectionURL = errors.New("redis: REDIS_URL is empty")
	ErrInvalidURL         = errors.New("redis: REDIS_URL must be a redis:// or rediss:// URL")
	ErrUnreachable        = errors.New("redis: rate-limit store unreachable")
	ErrHealthcheckFailed  = errors.New("redis: rate-limit store ping failed")
)
