package nats

import (
	"strings"
	"unicode"
)

// namespace builds the NATS subject for a set of name parts: each part is
// normalized for subject use, empties are dropped, and the whole is rooted
// under "strand" to keep the transport's traffic out of other subject
// spaces.
func namespace(values ...string) string {
	parts := make([]string, 0, len(values)+1)
	parts = append(parts, "strand")
	for _, v := range values {
		if v == "" {
			continue
		}
		parts = append(parts, formatForNamespace(v))
	}
	return strings.Join(parts, ".")
}

// formatForNamespace converts camelCase and snake_case names to kebab-case.
// Dots and wildcards pass through so callers can address subject hierarchies
// directly.
func formatForNamespace(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 2)
	for i, r := range value {
		switch {
		case r == '_':
			b.WriteByte('-')
		case unicode.IsUpper(r) && i > 0:
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
