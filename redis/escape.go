package redis

import "strings"

// punctuation is every character RediSearch's tokenizer treats as a separator.
const punctuation = ",.<>{}[]\"':;!@#$%^&*()-+=~|/\\"

func escapeWith(s string, special string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeTag escapes a TAG value. Spaces are escaped as well so multi-word
// tags match as one value.
func escapeTag(s string) string {
	return escapeWith(s, punctuation+" ")
}

// escapeText escapes full-text terms, keeping spaces as term separators.
func escapeText(s string) string {
	return escapeWith(s, punctuation)
}

// escapePhrase escapes the inside of a quoted exact-phrase match.
func escapePhrase(s string) string {
	return escapeWith(s, `"\`)
}

// escapeFieldName escapes an attribute name such as "address.city".
func escapeFieldName(s string) string {
	return escapeWith(s, punctuation+" ")
}
