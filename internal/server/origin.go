// Package server normalizes and validates HTTP origins for WebSocket upgrade
// requests, enforcing the configured allow-list.
package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// normalizeOrigins canonicalizes the configured origin list and reports
// whether a wildcard entry allows all origins. Invalid entries are dropped.
func normalizeOrigins(origins []string) ([]string, bool) {
	if len(origins) == 0 {
		return nil, false
	}

	normalized := make([]string, 0, len(origins))
	allowAll := false

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
		case trimmed == "*":
			allowAll = true
		default:
			canonical, ok := normalizeOrigin(trimmed)
			if !ok {
				slog.Warn("ignoring invalid origin in configuration", "origin", origin)
				continue
			}
			normalized = append(normalized, canonical)
		}
	}

	return normalized, allowAll
}

// normalizeOrigin lowercases scheme and host so comparisons are
// case-insensitive, as origin matching must be.
func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func isOriginAllowed(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" {
		return false
	}

	canonical, ok := normalizeOrigin(header)
	if !ok {
		return false
	}

	configMu.RLock()
	defer configMu.RUnlock()

	if allowAllOrigins {
		return true
	}
	_, exists := allowedOrigins[canonical]
	return exists
}

// checkOrigin gates WebSocket upgrades on the configured allow-list, logging
// rejections through the hub's logger.
func (h *Hub) checkOrigin(r *http.Request) bool {
	if isOriginAllowed(r) {
		return true
	}
	h.log.Warn("blocked upgrade from disallowed origin", "origin", r.Header.Get("Origin"))
	return false
}
