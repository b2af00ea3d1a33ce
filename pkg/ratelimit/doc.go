// Package ratelimit admits or rejects requests per client fingerprint using a
// sliding window of fixed length and a fixed request cap.
//
// The window state is a sequence of admission timestamps per fingerprint and
// lives in a [Store]. Stores guarantee that the read-modify-write of one key is
// atomic, so concurrent requests from the same client never exceed the cap:
//
//	limiter := ratelimit.New(ratelimit.NewMemoryStore(), cfg)
//	d, err := limiter.Admit(ctx, ratelimit.Fingerprint(ip, r.UserAgent()))
//	if err != nil {
//		return err
//	}
//	if !d.Allowed {
//		// 429
//	}
//
// Three stores are provided: [MemoryStore] for single instances,
// [RedisStore] using optimistic WATCH/MULTI transactions and [PostgresStore]
// using row locks. Rejected attempts are never recorded.
//
// [Limiter.Sweep] drops state whose newest timestamp is older than the
// retention period. It is meant to run on a schedule, not per request.
package ratelimit
