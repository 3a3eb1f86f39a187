// Package redact masks sensitive values in strings before they are logged or
// returned in error responses. It covers the identifiers this service stores
// (phone numbers, national codes, session tokens and password digests) as
// well as connection strings, credentials, file paths and stack traces that
// storage errors may carry.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedPhonePlaceholder      = "[REDACTED_PHONE]"
	RedactedIDPlaceholder         = "[REDACTED_ID]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
	RedactedDigestPlaceholder     = "[REDACTED_DIGEST]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules run in order. Broader matches such as paths and digests come before
// the bare identifiers they may contain.
var rules = []rule{
	{regexp.MustCompile(`(?i)(postgres|postgresql|db|database|connection)://[^@\s]+@`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd|secret)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), "[STACK_TRACE_REDACTED]"},
	{regexp.MustCompile(`\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}`), RedactedDigestPlaceholder},
	{regexp.MustCompile(`\b[0-9a-f]{64}\b`), RedactedDigestPlaceholder},
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`), RedactedPathPlaceholder},
	{regexp.MustCompile(`\b\d{11}\b`), RedactedPhonePlaceholder},
	{regexp.MustCompile(`\b\d{10}\b`), RedactedIDPlaceholder},
	{regexp.MustCompile(`\b[a-z0-9]{20}\b`), RedactedTokenPlaceholder},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

// Phone masks all but the last four digits of a phone number.
func Phone(phone string) string {
	if len(phone) <= 4 {
		return RedactedPhonePlaceholder
	}
	masked := make([]byte, len(phone))
	for i := range masked {
		if i < len(phone)-4 {
			masked[i] = '*'
		} else {
			masked[i] = phone[i]
		}
	}
	return string(masked)
}
