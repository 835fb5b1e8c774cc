package log

import (
	"strings"
)

// sensitiveKeywords flag log keys whose values must never appear in clear.
// Covers credentials, the operator admin key, and alert webhook URLs (which
// often embed tokens in the path).
var sensitiveKeywords = []string{
	"password", "passwd", "pwd",
	"api_key", "apikey", "api-key", "admin_key", "admin-key",
	"token", "access_token", "refresh_token",
	"secret", "auth", "authorization",
	"credential", "private_key", "privatekey",
	"webhook",
}

// SanitizeField checks if the key contains sensitive keywords and sanitizes the value
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	// Convert key to lowercase for case-insensitive matching
	lowerKey := strings.ToLower(key)

	// Database DSNs carry user:password@ credentials
	if strings.Contains(lowerKey, "dsn") || lowerKey == "source" || strings.HasSuffix(lowerKey, ".source") {
		return sanitizeDSN(value)
	}

	// Special handling for email
	if strings.Contains(lowerKey, "email") || strings.Contains(lowerKey, "mail") {
		return sanitizeEmail(value)
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return sanitizeToken(value)
		}
	}

	return value
}

// sanitizeDSN masks the credential section of a connection string.
// "user:secret@tcp(db:3306)/proofline" -> "user:***@tcp(db:3306)/proofline"
func sanitizeDSN(value string) string {
	at := strings.Index(value, "@")
	if at < 0 {
		// No credential section; nothing worth hiding.
		return value
	}
	credentials := value[:at]
	colon := strings.Index(credentials, ":")
	if colon < 0 {
		return value
	}
	return credentials[:colon] + ":***" + value[at:]
}

// sanitizeToken masks token/password values showing only first 4 and last 4 characters
func sanitizeToken(value string) string {
	if len(value) <= 8 {
		// For short strings, mask everything except first and last char
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return string(value[0]) + strings.Repeat("*", len(value)-2) + string(value[len(value)-1])
	}

	// For longer strings, show first 4 and last 4
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// sanitizeEmail masks email showing first 3 characters + @domain
func sanitizeEmail(value string) string {
	parts := strings.Split(value, "@")
	if len(parts) != 2 {
		// Invalid email format, mask everything
		return strings.Repeat("*", len(value))
	}

	localPart := parts[0]
	domain := parts[1]

	if len(localPart) <= 3 {
		// Short local part, show first char only
		if len(localPart) == 0 {
			return "@" + domain
		}
		return string(localPart[0]) + strings.Repeat("*", len(localPart)-1) + "@" + domain
	}

	// Show first 3 characters + *** + @domain
	return localPart[:3] + "***@" + domain
}
