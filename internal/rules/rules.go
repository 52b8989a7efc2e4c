// Package rules holds the signal extractor catalog. Each extractor owns one
// risk category, keeps its lexicons and thresholds package-local, and stays
// silent unless it finds something.
package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mikey/content-risk-filter/internal/allowlist"
	"github.com/mikey/content-risk-filter/internal/core"
)

// maxEvidence bounds how many evidence lines a single signal carries.
const maxEvidence = 5

// NewCatalog returns the full extractor set in its fixed evaluation order.
// Verdict signals preserve this order, so equal input yields equal output.
func NewCatalog(trusted *allowlist.Checker) []core.Extractor {
	return []core.Extractor{
		NewProfanityExtractor(),
		NewCapsExtractor(),
		NewRepetitionExtractor(),
		NewPromoExtractor(),
		NewLinksExtractor(trusted),
		NewEngagementExtractor(),
	}
}

// severityFor maps a confidence value onto the shared severity ladder used
// by the extractors that grade purely on accumulated evidence.
func severityFor(confidence float64) core.Severity {
	switch {
	case confidence > 0.7:
		return core.SeverityHigh
	case confidence > 0.4:
		return core.SeverityMedium
	default:
		return core.SeverityLow
	}
}

// tokens lowercases and splits the text, trimming surrounding punctuation
// from each word.
func tokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#' && r != '@'
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// containsTerm reports whether term occurs in text on word boundaries. Both
// arguments are expected lowercased.
func containsTerm(text, term string) bool {
	for idx := 0; ; {
		j := strings.Index(text[idx:], term)
		if j < 0 {
			return false
		}
		start := idx + j
		end := start + len(term)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func capFloat(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
