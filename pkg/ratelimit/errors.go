package ratelimit

import "errors"

var (
	// ErrContention is returned when an optimistic update kept conflicting
	// with concurrent writers until the retry budget ran out.
	ErrContention = errors.New("ratelimit: too much contention on key")
	// ErrStoreFailed wraps backend failures.
	ErrStoreFailed = errors.New("ratelimit: store operation failed")
	// ErrCorruptState is returned when persisted state cannot be decoded.
	ErrCorruptState = errors.New("ratelimit: corrupt window state")
	// ErrUnknownStore is returned for an unsupported store name.
	ErrUnknownStore = errors.New("ratelimit: unknown store")
)
