// Package redis opens go-redis clients from [Config] and provides the
// healthcheck and shutdown hooks used by the server.
//
// The rate limiter's Redis store is the main consumer:
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	store := ratelimit.NewRedisStore(client)
package redis
