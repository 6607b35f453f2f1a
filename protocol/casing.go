package protocol

import (
	"strings"
	"unicode"
)

// CaseFunc converts an API keyword into a dialect's casing convention.
type CaseFunc func(string) string

// ToSnakeCase converts a camelCase or PascalCase keyword into snake_case,
// e.g. "receivedDateTime" becomes "received_date_time". Separators
// ('-', '.', spaces) are normalised to underscores.
func ToSnakeCase(value string) string {
	if value == "" {
		return value
	}

	var sb strings.Builder
	sb.Grow(len(value) + 4)
	for i, r := range value {
		switch {
		case r == '-' || r == '.' || unicode.IsSpace(r):
			sb.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ToCamelCase converts a keyword into lowerCamelCase,
// e.g. "received_date_time" becomes "receivedDateTime".
func ToCamelCase(value string) string {
	return convertCase(value, false)
}

// ToPascalCase converts a keyword into PascalCase,
// e.g. "received_date_time" becomes "ReceivedDateTime".
func ToPascalCase(value string) string {
	return convertCase(value, true)
}

func convertCase(value string, upperFirst bool) string {
	if value == "" {
		return value
	}

	var sb strings.Builder
	sb.Grow(len(value))
	upperNext := false
	first := true
	for _, r := range value {
		if r == '-' || r == '_' || r == '.' || unicode.IsSpace(r) {
			upperNext = true
			continue
		}
		switch {
		case first:
			if upperFirst {
				sb.WriteRune(unicode.ToUpper(r))
			} else {
				sb.WriteRune(unicode.ToLower(r))
			}
			first = false
		case upperNext:
			sb.WriteRune(unicode.ToUpper(r))
		default:
			sb.WriteRune(r)
		}
		upperNext = false
	}
	return sb.String()
}
