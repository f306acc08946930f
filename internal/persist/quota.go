package persist

import (
	"context"
	"fmt"
)

// DefaultQuotaBytes mirrors the usual per-origin browser storage budget.
const DefaultQuotaBytes = 5 << 20

type quotaSlot struct {
	Slot
	max int
}

// WithQuota rejects writes larger than maxBytes with ErrQuotaExceeded
// before they reach the backend. maxBytes <= 0 disables the limit.
func WithQuota(slot Slot, maxBytes int) Slot {
	if maxBytes <= 0 {
		return slot
	}
	return &quotaSlot{Slot: slot, max: maxBytes}
}

func (q *quotaSlot) Write(ctx context.Context, data []byte) error {
	if len(data) > q.max {
		return fmt.Errorf("%w: %d bytes over a %d byte limit", ErrQuotaExceeded, len(data), q.max)
	}
	return q.Slot.Write(ctx, data)
}
