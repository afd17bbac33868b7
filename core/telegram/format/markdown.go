// Package format prepares user-facing text for Telegram parse modes.
package format

import "strings"

const mdV2Specials = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdownV2 backslash-escapes every MarkdownV2 special character.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 8)
	for _, r := range text {
		if strings.ContainsRune(mdV2Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Bold wraps already escaped text in MarkdownV2 bold markers.
func Bold(escaped string) string {
	return "*" + escaped + "*"
}
