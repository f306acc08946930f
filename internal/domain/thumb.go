package domain

// ThumbAction tells an update what to do with the existing thumbnail.
type ThumbAction int

const (
	// ThumbKeep leaves the current thumbnail untouched.
	ThumbKeep ThumbAction = iota
	// ThumbSet replaces the thumbnail with ThumbChange.Value.
	ThumbSet
	// ThumbClear removes the thumbnail, falling back to the initials glyph.
	ThumbClear
)

func (a ThumbAction) String() string {
	switch a {
	case ThumbSet:
		return "set"
	case ThumbClear:
		return "clear"
	default:
		return "keep"
	}
}

// ThumbChange distinguishes "no change requested" from "explicitly cleared".
// The zero value keeps the current thumbnail.
type ThumbChange struct {
	Action ThumbAction
	Value  string
}

// KeepThumb requests no thumbnail change.
func KeepThumb() ThumbChange { return ThumbChange{Action: ThumbKeep} }

// SetThumb replaces the thumbnail. An empty value is treated as a clear.
func SetThumb(dataURI string) ThumbChange {
	if dataURI == "" {
		return ClearThumb()
	}
	return ThumbChange{Action: ThumbSet, Value: dataURI}
}

// ClearThumb explicitly removes the thumbnail.
func ClearThumb() ThumbChange { return ThumbChange{Action: ThumbClear} }

// Apply returns the thumbnail resulting from applying c to current.
func (c ThumbChange) Apply(current string) string {
	switch c.Action {
	case ThumbSet:
		return c.Value
	case ThumbClear:
		return ""
	default:
		return current
	}
}
