// Package textnorm prepares recognizer output for intent matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text, drops everything that is not a letter,
// digit or whitespace, and collapses whitespace runs to single spaces.
// It never fails and Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// Compose first so "й" written as и+breve survives the mark filter.
	composed := norm.NFC.String(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(composed))
	pendingSpace := false
	for _, r := range composed {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}

	return norm.NFC.String(b.String())
}

// Fields splits normalized text into words
func Fields(text string) []string {
	return strings.Fields(Normalize(text))
}
