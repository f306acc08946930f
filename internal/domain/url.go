package domain

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidURL is returned when user input cannot become a stored URL.
var ErrInvalidURL = errors.New("invalid url")

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// NormalizeURL turns raw user text into a canonical absolute URL.
//
// Examples:
//   - "example.com"           -> "https://example.com/"
//   - "HTTP://Example.com/a"  -> "http://example.com/a"
//   - "   "                   -> ""
//   - "bad url with spaces"   -> ""
//
// Text that does not parse as a URL with a host yields "", so every stored
// URL survives an export and re-import unchanged.
func NormalizeURL(raw string) string {
	u, err := ParseURL(raw)
	if err != nil {
		return ""
	}
	return u
}

// ParseURL is NormalizeURL with the reason for rejecting the input.
func ParseURL(raw string) (string, error) {
	u := withScheme(raw)
	if u == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, u)
	}
	return canonicalize(parsed), nil
}

// withScheme trims the input and prepends https:// unless an http(s) scheme is present.
func withScheme(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !schemePrefix.MatchString(u) {
		u = "https://" + u
	}
	return u
}

// canonicalize lowercases the host, drops the scheme's default port and
// gives an empty path a trailing slash.
func canonicalize(u *url.URL) string {
	u.Host = strings.ToLower(u.Host)
	if port := u.Port(); port != "" && defaultPorts[u.Scheme] == port {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}

// Hostname returns the URL's host without a leading "www.".
// Unparsable input falls back to the text between the scheme and the first slash.
func Hostname(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}
	h := schemePrefix.ReplaceAllString(rawURL, "")
	h, _, _ = strings.Cut(h, "/")
	return strings.TrimPrefix(h, "www.")
}

// Initials builds the two-letter glyph shown on cards without a thumbnail.
func Initials(title, rawURL string) string {
	if t := strings.TrimSpace(title); t != "" {
		return firstTwoUpper(t)
	}
	h := Hostname(rawURL)
	if h == "" {
		h = "LI"
	}
	return firstTwoUpper(h)
}

func firstTwoUpper(s string) string {
	r := []rune(s)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// TitleOrHost trims title and falls back to the URL's hostname when empty.
func TitleOrHost(title, normalizedURL string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return Hostname(normalizedURL)
}
