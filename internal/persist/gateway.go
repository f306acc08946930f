// Package persist serializes the link collection to and from a single
// durable key-value slot.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/startpage/internal/domain"
	"github.com/MrSnakeDoc/startpage/internal/logger"
)

var (
	// ErrEmptySlot is returned by Slot.Read when nothing was ever written.
	ErrEmptySlot = errors.New("slot is empty")

	// ErrQuotaExceeded means the backend refused the write for lack of capacity.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrNotPersisted wraps every failed Save. The in-memory collection is
	// ahead of the slot and will be lost on reload.
	ErrNotPersisted = errors.New("changes were not saved")
)

// Slot is the single durable key-value location holding the live collection.
// Writes are all-or-nothing.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// LoadStatus tells how Load obtained its result.
type LoadStatus int

const (
	LoadOK LoadStatus = iota
	// LoadEmpty: the slot was absent or blank.
	LoadEmpty
	// LoadCorrupt: the slot content was not a JSON array of links.
	LoadCorrupt
	// LoadUnavailable: the backend could not be read at all.
	LoadUnavailable
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadEmpty:
		return "empty"
	case LoadCorrupt:
		return "corrupt"
	default:
		return "unavailable"
	}
}

// Gateway reads and writes the collection through a Slot.
type Gateway struct {
	slot   Slot
	logger logger.Logger
}

// NewGateway creates a gateway over slot.
func NewGateway(slot Slot, log logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{
		slot:   slot,
		logger: log,
	}
}

// Load returns the persisted collection.
//
// It never fails: an absent, blank, unreadable or corrupted slot degrades to
// an empty collection. Corruption is logged for the operator and reported
// through the status, but is never surfaced to the user.
func (g *Gateway) Load(ctx context.Context) ([]domain.Link, LoadStatus) {
	data, err := g.slot.Read(ctx)
	switch {
	case errors.Is(err, ErrEmptySlot):
		return []domain.Link{}, LoadEmpty
	case err != nil:
		g.logger.Warn("persistence slot unreadable, starting with an empty collection",
			logger.Error(err))
		return []domain.Link{}, LoadUnavailable
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Link{}, LoadEmpty
	}

	var links []domain.Link
	if err := json.Unmarshal(data, &links); err != nil || links == nil {
		g.logger.Warn("persistence slot corrupted, starting with an empty collection",
			logger.Int("bytes", len(data)),
			logger.Error(err))
		return []domain.Link{}, LoadCorrupt
	}

	return links, LoadOK
}

// Save writes the full collection. Any failure is wrapped in ErrNotPersisted;
// capacity failures additionally match ErrQuotaExceeded.
func (g *Gateway) Save(ctx context.Context, links []domain.Link) error {
	if links == nil {
		links = []domain.Link{}
	}

	data, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("%w: encode collection: %w", ErrNotPersisted, err)
	}

	if err := g.slot.Write(ctx, data); err != nil {
		g.logger.Warn("failed to persist collection",
			logger.Int("links", len(links)),
			logger.Int("bytes", len(data)),
			logger.Bool("quota", errors.Is(err, ErrQuotaExceeded)),
			logger.Error(err))
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}

	g.logger.Debug("collection persisted",
		logger.Int("links", len(links)),
		logger.Int("bytes", len(data)))
	return nil
}
