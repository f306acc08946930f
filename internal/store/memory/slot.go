// Package memory provides an in-process persistence slot, the server-side
// stand-in for browser local storage.
package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/startpage/internal/persist"
)

// Slot keeps the serialized collection in memory.
// Contents survive for the life of the process only.
type Slot struct {
	mu      sync.RWMutex
	data    []byte
	present bool
	writes  int
	failErr error
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Read returns a copy of the stored bytes, or persist.ErrEmptySlot.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.present {
		return nil, persist.ErrEmptySlot
	}
	return append([]byte(nil), s.data...), nil
}

// Write replaces the stored bytes unless a failure was injected with FailWrites.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return s.failErr
	}
	s.data = append([]byte(nil), data...)
	s.present = true
	s.writes++
	return nil
}

// Put stores raw content as-is, bypassing injected failures.
func (s *Slot) Put(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append([]byte(nil), data...)
	s.present = true
}

// FailWrites makes every following Write return err; nil restores normal writes.
func (s *Slot) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failErr = err
}

// Writes returns the number of successful writes.
func (s *Slot) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.writes
}
