package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TypedStore stores JSON-encoded values of type C under a key namespace.
type TypedStore[C any] struct {
	client    *Client
	keyPrefix string
	ttl       time.Duration
}

// NewTypedStore creates a store whose keys are "<client prefix>:<namespace>:<key>".
// ttl applies to every Save; zero means no expiration.
func NewTypedStore[C any](client *Client, namespace string, ttl time.Duration) *TypedStore[C] {
	prefix := namespace
	if p := client.Prefix(); p != "" {
		prefix = p + ":" + namespace
	}
	return &TypedStore[C]{client: client, keyPrefix: prefix, ttl: ttl}
}

// Key returns the full Redis key for key.
func (s *TypedStore[C]) Key(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load returns (nil, nil) when the key does not exist.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.Key(key))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("typed store load %q: %w", key, err)
	}
	var val C
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// Save stores val with the store TTL.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.Key(key), data, s.ttl); err != nil {
		return fmt.Errorf("typed store save %q: %w", key, err)
	}
	return nil
}

// Delete removes the key.
func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.Key(key)); err != nil {
		return fmt.Errorf("typed store delete %q: %w", key, err)
	}
	return nil
}
