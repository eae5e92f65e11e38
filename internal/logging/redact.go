package logging

import (
	"log/slog"
	"strings"
)

// sensitiveKeys are substrings marking an attribute key as secret.
// Matching is case-insensitive.
var sensitiveKeys = []string{
	"PASSWORD",
	"TOKEN",
	"SECRET",
	"AUTH",
	"CREDENTIAL",
}

// ShouldMask reports whether an attribute key names sensitive data.
func ShouldMask(key string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range sensitiveKeys {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// MaskValue hides all but the last four characters of value.
// Values of four characters or fewer are fully masked.
func MaskValue(value string) string {
	if len(value) <= 4 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}

// RedactAttr is a slog ReplaceAttr function that masks sensitive string
// attributes in handlers other than Handler.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString && ShouldMask(a.Key) {
		return slog.String(a.Key, MaskValue(a.Value.String()))
	}
	return a
}
