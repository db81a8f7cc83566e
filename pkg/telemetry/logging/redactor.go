package logging

import (
	"log/slog"
	"strings"
)

// sensitiveKeys are attribute key substrings whose values never belong in
// a log line. Matching is case-insensitive and applies at every group
// depth.
var sensitiveKeys = []string{
	"token",
	"password",
	"passphrase",
	"secret",
	"api_key",
	"apikey",
	"dsn",
	"webhook",
}

// Redacted replaces a sensitive attribute's value in output.
const Redacted = "[REDACTED]"

// redactAttr is the slog ReplaceAttr hook that blanks sensitive values.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			a.Value = slog.StringValue(Redacted)
			return a
		}
	}
	return a
}
