package logging

import (
	"regexp"
	"strings"
)

// Sensitive field names that should never reach log output verbatim.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"api-key",
	"authorization",
	"auth",
	"credential",
	"session_cookie",
}

// Patterns for credentials that should be redacted from free-form strings.
var secretPatterns = []*regexp.Regexp{
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._-]{20,})`),

	// Generic long values attached to a credential-ish key
	regexp.MustCompile(`(?i)(key|token|secret|password|auth)[=:]["']?([a-zA-Z0-9+/=_-]{32,})["']?`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// bodyPreviewLen bounds how much of a fan message body may appear in
// debug logs. Conversation content is operator/fan private data.
const bodyPreviewLen = 24

// Redact replaces credential material in a string.
func Redact(s string) string {
	result := s
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// BodyPreview returns a short, redacted preview of a message body safe
// for debug logging.
func BodyPreview(body string) string {
	body = Redact(strings.TrimSpace(body))
	runes := []rune(body)
	if len(runes) > bodyPreviewLen {
		return string(runes[:bodyPreviewLen]) + "..."
	}
	return body
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}
