package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrMalformedImport is returned when an import file does not parse or has no "links" array.
var ErrMalformedImport = errors.New("malformed import file")

// SanitizeImport parses an export envelope and turns each element of its
// "links" array into a valid Link:
//   - id: kept when truthy, otherwise newID(); repeated ids get a fresh id
//   - title: coerced to string, "" when missing
//   - url: strictly normalized; the element is dropped when that fails
//   - thumb: kept only when it is a non-empty string
//   - createdAt: kept when a non-zero number within int64 range, otherwise now()
//
// Only the "links" field is required; "version" and unknown fields are ignored.
func SanitizeImport(raw []byte, now func() time.Time, newID func() string) ([]Link, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedImport)
	}

	rawLinks, ok := doc["links"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(rawLinks), []byte("[")) {
		return nil, fmt.Errorf("%w: missing links array", ErrMalformedImport)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(rawLinks, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	out := make([]Link, 0, len(elements))
	seen := make(map[string]bool, len(elements))
	for _, el := range elements {
		var fields map[string]any
		if err := json.Unmarshal(el, &fields); err != nil || fields == nil {
			// not an object: nothing to salvage
			continue
		}

		u, err := ParseURL(stringField(fields, "url"))
		if err != nil {
			continue
		}

		id := stringField(fields, "id")
		if id == "" || seen[id] {
			id = newID()
			for seen[id] {
				id = newID()
			}
		}
		seen[id] = true

		link := Link{
			ID:        id,
			Title:     stringField(fields, "title"),
			URL:       u,
			CreatedAt: now().UnixMilli(),
		}
		if thumb, ok := fields["thumb"].(string); ok {
			link.Thumb = thumb
		}
		if ts, ok := fields["createdAt"].(float64); ok && ts != 0 && ts >= math.MinInt64 && ts < math.MaxInt64 {
			link.CreatedAt = int64(ts)
		}
		out = append(out, link)
	}
	return out, nil
}

// stringField coerces a truthy JSON scalar to its string form.
// Falsy values (null, false, 0, "") and composite values yield "".
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
		return ""
	default:
		return ""
	}
}
