package util

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// ShortUUID generates a short UUID with 22 symbols
func ShortUUID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:]) // 22 symbols
}

// NewKey joins the non-empty parts with ":" and appends a short UUID
func NewKey(parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	segments = append(segments, ShortUUID())
	return strings.Join(segments, ":")
}
