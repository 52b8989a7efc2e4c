package rules

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/utils"
)

const (
	capsMinLetters  = 5
	capsFireRatio   = 0.7
	capsMediumRatio = 0.8
	capsHighRatio   = 0.9
	capsDiscount    = 0.7
)

// CapsExtractor flags shouting. Posts that are mostly hashtag tags or a
// couple of isolated acronyms get a softer reading than sustained caps.
type CapsExtractor struct{}

// NewCapsExtractor creates a new CapsExtractor.
func NewCapsExtractor() *CapsExtractor {
	return &CapsExtractor{}
}

func (e *CapsExtractor) Kind() core.SignalKind { return core.KindCapsAbuse }

func (e *CapsExtractor) Extract(content *core.NormalizedContent) (*core.Signal, error) {
	upper, letters := utils.LetterCounts(content.Normalized)
	if letters < capsMinLetters {
		return nil, nil
	}

	ratio := float64(upper) / float64(letters)
	if ratio <= capsFireRatio {
		return nil, nil
	}

	severity := core.SeverityLow
	confidence := 0.6
	switch {
	case ratio > capsHighRatio:
		severity = core.SeverityHigh
		confidence = 0.9
	case ratio > capsMediumRatio:
		severity = core.SeverityMedium
		confidence = 0.75
	}

	evidence := []string{fmt.Sprintf("caps ratio %.2f", ratio)}
	if looksLegitimateCaps(content.Normalized) {
		confidence *= capsDiscount
		severity = stepDown(severity)
		evidence = append(evidence, "caps concentrated in tags or acronyms")
	}

	return &core.Signal{
		Kind:       core.KindCapsAbuse,
		Severity:   severity,
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}

// looksLegitimateCaps reports whether the capitals come from hashtag tags or
// at most two short acronym-shaped tokens rather than sustained shouting.
func looksLegitimateCaps(text string) bool {
	var capsTokens, hashtagTokens, longCaps int
	for _, w := range strings.Fields(text) {
		stripped := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if stripped == "" || stripped != strings.ToUpper(stripped) {
			continue
		}
		if _, letters := utils.LetterCounts(stripped); letters < 2 {
			continue
		}
		capsTokens++
		if strings.HasPrefix(w, "#") {
			hashtagTokens++
		}
		if utf8.RuneCountInString(stripped) > 5 {
			longCaps++
		}
	}
	if capsTokens == 0 {
		return false
	}
	if hashtagTokens*2 >= capsTokens {
		return true
	}
	return capsTokens <= 2 && longCaps == 0
}

func stepDown(s core.Severity) core.Severity {
	switch s {
	case core.SeverityHigh:
		return core.SeverityMedium
	case core.SeverityMedium:
		return core.SeverityLow
	}
	return core.SeverityLow
}
