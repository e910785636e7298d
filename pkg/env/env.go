// Package env reads process settings that must be known before config loads.
package env

import (
	"os"
	"strings"
)

// First returns the first non-blank value among keys, or fallback. Keys are listed
// most specific first, e.g. STOREFRONT_LOG_FORMAT before LOG_FORMAT.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}
