// Package utils holds the text scanning helpers shared by the pipeline
// stages. Everything here is stateless and allocation-light; the hot path
// calls these per analyzed post.
package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	urlRegex     = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"']+`)
	hashtagRegex = regexp.MustCompile(`#\w+`)
	mentionRegex = regexp.MustCompile(`@\w+`)
)

// ExtractURLs returns every URL-shaped substring. Detection requires an
// explicit scheme or www prefix so prose with dotted abbreviations does not
// count as linking. Trailing sentence punctuation is not part of the link.
func ExtractURLs(text string) []string {
	matches := urlRegex.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.TrimRight(m, `).,;:!?'"`)
	}
	return matches
}

// HasURLs reports whether the text contains at least one URL.
func HasURLs(text string) bool {
	return urlRegex.MatchString(text)
}

// HasHashtags reports whether the text contains at least one #tag.
func HasHashtags(text string) bool {
	return hashtagRegex.MatchString(text)
}

// HasMentions reports whether the text contains at least one @mention.
func HasMentions(text string) bool {
	return mentionRegex.MatchString(text)
}

// CountMentions returns the number of @mentions in the text.
func CountMentions(text string) int {
	return len(mentionRegex.FindAllString(text, -1))
}

// ContainsEmoji reports whether any rune falls in the pictographic blocks.
func ContainsEmoji(text string) bool {
	for _, r := range text {
		if IsEmoji(r) {
			return true
		}
	}
	return false
}

// IsEmoji covers the emoji and pictograph blocks plus the two starred
// dingbats that sit outside them.
func IsEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r == 0x2B50 || r == 0x2B55:
		return true
	}
	return false
}

// LetterCounts returns how many runes are uppercase letters and how many are
// letters at all.
func LetterCounts(text string) (upper int, letters int) {
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return upper, letters
}

// Words splits on runs of whitespace.
func Words(text string) []string {
	return strings.Fields(text)
}

// Snippet truncates text to at most maxBytes bytes while keeping the result
// valid UTF-8, marking the cut with an ellipsis.
func Snippet(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}
	cut := text[:maxBytes]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}

// SanitizeUTF8 drops invalid UTF-8 sequences, keeping everything decodable.
func SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}
	return string(result)
}
