// Package redact scrubs credentials, tokens, addresses and query text from
// error strings before they are logged or persisted as a job's last error.
package redact

import "regexp"

// Placeholders substituted for redacted content.
const (
	Placeholder           = "[REDACTED]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	StackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules run in order. Earlier rules remove whole secrets so later, broader
// ones do not leave fragments behind.
var rules = []rule{
	// userinfo in DSNs: postgres://user:pw@host, redis://:pw@host
	{
		regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/\s:@]*:[^/\s@]+@`),
		"${1}" + CredentialPlaceholder + "@",
	},
	{
		regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`),
		"Bearer " + TokenPlaceholder,
	},
	{
		regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`),
		JWTPlaceholder,
	},
	// key=value and key: value pairs, including smtp_password and jwt_secret
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd|secret|api[_-]?key|token)(\s*[=:]\s*)("[^"]*"|'[^']*'|[^\s&,;\[][^\s&,;]*)`),
		"${1}${2}" + Placeholder,
	},
	// SMTP AUTH exchanges echoed back by some servers
	{
		regexp.MustCompile(`(?i)\bAUTH\s+(PLAIN|LOGIN)\s+\S+`),
		"AUTH ${1} " + Placeholder,
	},
	{
		regexp.MustCompile(`(?s)(?:panic:|goroutine \d+ \[).*`),
		StackPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\s(?:.+?\sFROM|INTO|\w+\s+SET|FROM)\s.*`),
		"${1} " + SQLPlaceholder,
	},
	{
		regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		EmailPlaceholder,
	},
	{
		regexp.MustCompile(`(?:/[\w.-]+){2,}`),
		PathPlaceholder,
	},
}

// String returns input with every sensitive fragment replaced.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.replacement)
	}
	return input
}

// Error redacts err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
