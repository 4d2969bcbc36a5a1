package query

import "strings"

// Reserved holds the characters with a meaning in the query grammar.
const Reserved = `{}:^()\`

func Escape(value string) string {
	if !strings.ContainsAny(value, Reserved) {
		return value
	}
	var sb strings.Builder
	sb.Grow(len(value) + 8)
	for _, r := range value {
		if strings.ContainsRune(Reserved, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func Unescape(value string) string {
	if !strings.ContainsRune(value, '\\') {
		return value
	}
	var sb strings.Builder
	sb.Grow(len(value))
	escaped := false
	for _, r := range value {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(r)
	}
	return sb.String()
}
