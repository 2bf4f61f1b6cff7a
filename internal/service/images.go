package service

import (
	"net/url"
	"strings"
)

// NormalizeImageURL strips the scheme and host from absolute URLs so stored
// references stay portable between dev, tunnel and production hosts. Relative
// paths pass through untouched.
func NormalizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "/") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
