package redis

import "strings"

const (
	// KeyPrefixSlot is the prefix for persistence slot keys
	KeyPrefixSlot = "startpage:slot:"
	// DefaultSlotName matches the key historically used in browser storage
	DefaultSlotName = "startpage.links.v1"
)

// SlotKey returns the Redis key for a named slot
func SlotKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSlotName
	}
	return KeyPrefixSlot + name
}
