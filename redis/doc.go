// Package redis wraps go-redis with the service's configuration, logging
// and component lifecycle. TypedStore adds JSON-encoded values under a
// key namespace with a fixed TTL, which the geocode cache uses:
//
//	places := redis.NewTypedStore[geocode.Place](client, "geocode", 24*time.Hour)
//	place, err := places.Load(ctx, "台北101") // nil, nil when absent
package redis
