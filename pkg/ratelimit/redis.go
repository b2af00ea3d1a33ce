package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix  = "ratelimit:"
	defaultRedisRetries = 10
	sweepScanCount      = 500
)

// RedisStore keeps windows in Redis. Each key holds a JSON array of Unix
// millisecond timestamps, written with WATCH/MULTI so concurrent admissions
// on one key serialize through optimistic retries.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	retries int
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default "ratelimit:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithRedisTTL sets the expiry applied on every write. Default 24h.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithRedisRetries sets how often a conflicting transaction is retried.
func WithRedisRetries(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.retries = n
		}
	}
}

// NewRedisStore creates a store on client.
// The client should be obtained from pkg/redis.Open.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		prefix:  defaultRedisPrefix,
		ttl:     24 * time.Hour,
		retries: defaultRedisRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, key string) ([]time.Time, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return decodeHits(raw)
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	k := s.key(key)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		hits, err := decodeHits(raw)
		if err != nil {
			// Unreadable state is replaced rather than locking the client out.
			hits = nil
		}

		next, write := fn(hits)
		if !write {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if len(next) == 0 {
				p.Del(ctx, k)
				return nil
			}
			p.Set(ctx, k, encodeHits(next), s.ttl)
			return nil
		})
		return err
	}

	for range s.retries {
		err := s.client.Watch(ctx, txf, k)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return errors.Join(ErrStoreFailed, err)
	}
	return ErrContention
}

// Sweep implements Store. Keys also expire on their own through the TTL;
// Sweep covers stores configured without one.
func (s *RedisStore) Sweep(ctx context.Context, before time.Time) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", sweepScanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		deleted := false

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, k).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return nil
				}
				return err
			}
			hits, err := decodeHits(raw)
			if err == nil && !newest(hits).Before(before) {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Del(ctx, k)
				return nil
			})
			deleted = err == nil
			return err
		}, k)

		switch {
		case errors.Is(err, redis.TxFailedErr):
			// Touched by an admission meanwhile, so it is fresh.
		case err != nil:
			return removed, errors.Join(ErrStoreFailed, err)
		case deleted:
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, errors.Join(ErrStoreFailed, err)
	}
	return removed, nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func encodeHits(hits []time.Time) []byte {
	ms := make([]int64, len(hits))
	for i, t := range hits {
		ms[i] = t.UnixMilli()
	}
	// Marshalling a slice of int64 cannot fail.
	data, _ := json.Marshal(ms)
	return data
}

func decodeHits(raw []byte) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ms []int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return nil, errors.Join(ErrCorruptState, err)
	}
	hits := make([]time.Time, len(ms))
	for i, v := range ms {
		hits[i] = time.UnixMilli(v)
	}
	return hits, nil
}
