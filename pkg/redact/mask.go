// Package redact masks sensitive values before they reach logs or console
// output.
package redact

import (
	"strings"

	masker "github.com/goliatone/go-masker"
)

const maskType = "preserveEnds(2,2)"

var sensitiveFields = []string{
	"token", "password", "passphrase",
	"wrapped_key", "temporary_key", "plaintext",
	"signing_key", "email", "recipient",
}

func init() {
	for _, field := range sensitiveFields {
		masker.Default.RegisterMaskField(field, maskType)
	}
}

// String masks all but the first and last two characters of value.
func String(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String(maskType, value); err == nil {
		return masked
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

// Email masks the local part of an address and keeps the domain readable.
func Email(address string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(address), "@")
	if !ok {
		return String(address)
	}
	return String(local) + "@" + domain
}

// Map returns a copy of values with sensitive keys masked. Non string values
// under sensitive keys are dropped.
func Map(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for key, value := range values {
		if !IsSensitive(key) {
			out[key] = value
			continue
		}
		if s, ok := value.(string); ok {
			if key == "email" || key == "recipient" {
				out[key] = Email(s)
			} else {
				out[key] = String(s)
			}
		}
	}
	return out
}

// IsSensitive reports whether key names a value that must never be logged
// verbatim.
func IsSensitive(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, field := range sensitiveFields {
		if key == field || strings.HasSuffix(key, "_"+field) {
			return true
		}
	}
	return false
}
