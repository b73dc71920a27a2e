package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/lifemap/memorymap/redis"
)

// NewClient returns a client connected to a fresh miniredis instance.
// Both are closed when the test ends.
func NewClient(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr(), KeyPrefix: "test"}, nil)
	if err != nil {
		t.Fatalf("create redis client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mini
}
