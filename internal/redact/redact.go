// Package redact removes personal data and credentials from strings before
// they are logged. Student emails and database connection strings are the
// main concerns.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

// Placeholders substituted for redacted content.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

var (
	dbConnRegex   = regexp.MustCompile(`(?i)(postgres|postgresql|db|database|connection)://[^@\s]+@`)
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)
	emailRegex    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	patterns = []struct {
		re          *regexp.Regexp
		placeholder string
	}{
		{dbConnRegex, RedactedCredentialPlaceholder},
		{passwordRegex, RedactedCredentialPlaceholder},
		{emailRegex, RedactedEmailPlaceholder},
	}
)

// String redacts credentials and email addresses from input.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, p := range patterns {
		result = p.re.ReplaceAllString(result, p.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// DatabaseURL masks the password in a connection URL, keeping the user, host
// and database visible for diagnostics.
func DatabaseURL(dbURL string) string {
	parsed, err := url.Parse(dbURL)
	if err != nil || parsed.Scheme == "" {
		return "invalid-url"
	}
	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			parsed.User = url.UserPassword(parsed.User.Username(), "REDACTED")
		}
	}
	return parsed.String()
}

// Email keeps the first character of the local part and the domain,
// e.g. "s***@student.edu".
func Email(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return RedactedEmailPlaceholder
	}
	return addr[:1] + "***" + addr[at:]
}
