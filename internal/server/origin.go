package server

import (
	"log"
	"net/http"
	"net/url"
	"strings"
)

// originChecker validates the Origin header of upgrade requests against a
// configured allow-list. "*" in the configuration allows every origin.
type originChecker struct {
	allowed  map[string]struct{}
	allowAll bool
}

func newOriginChecker(origins []string) *originChecker {
	c := &originChecker{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			c.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Printf("Ignoring invalid origin in configuration: %q", origin)
			continue
		}
		c.allowed[normalized] = struct{}{}
	}
	return c
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func (c *originChecker) check(r *http.Request) bool {
	originHeader := r.Header.Get("Origin")
	if originHeader == "" {
		return false
	}
	if c.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(originHeader)
	if !ok {
		return false
	}
	if _, exists := c.allowed[normalized]; exists {
		return true
	}
	log.Printf("Blocked WebSocket connection from disallowed origin: %q", originHeader)
	return false
}
