package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/startpage/internal/persist"
)

// Slot stores the serialized collection under a single Redis key, without TTL.
type Slot struct {
	client *redis.Client
	key    string
}

// NewSlot creates a slot stored at SlotKey(name)
func NewSlot(client *redis.Client, name string) *Slot {
	return &Slot{
		client: client,
		key:    SlotKey(name),
	}
}

// Key returns the Redis key backing the slot
func (s *Slot) Key() string { return s.key }

// Read retrieves the slot content
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persist.ErrEmptySlot
		}
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}
	return data, nil
}

// Write replaces the slot content. SET is atomic, so the key holds either the
// old or the new collection.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		if isOutOfMemory(err) {
			return fmt.Errorf("%w: %w", persist.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("failed to write slot: %w", err)
	}
	return nil
}

// Ping checks the connection, used by readiness probes
func (s *Slot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// isOutOfMemory detects the maxmemory rejection ("OOM command not allowed ...")
func isOutOfMemory(err error) bool {
	return strings.HasPrefix(err.Error(), "OOM ")
}
