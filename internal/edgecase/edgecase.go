// Package edgecase implements the short-circuit classifier that claims
// degenerate content before signal extraction spends any work on it.
package edgecase

import (
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/utils"
)

// Outcome reasons, also surfaced on short-circuit verdicts.
const (
	ReasonEmptyContent     = "empty_content"
	ReasonTooShort         = "too_short"
	ReasonExcessiveLength  = "excessive_length"
	ReasonEncodingAnomaly  = "encoding_anomaly"
	ReasonZeroWidthFlood   = "zero_width_flood"
	ReasonHomographMix     = "homograph_mix"
	ReasonSymbolNoise      = "symbol_noise"
	ReasonUnknownLanguage  = "unrecognized_language"
	ReasonSpecialCharNoise = "special_char_density"
	ReasonBareLink         = "bare_link"
	ReasonMentionFlood     = "mention_flood"
)

const (
	maxContentRunes    = 2000
	shrinkageThreshold = 0.5
	zeroWidthLimit     = 10
	controlCharLimit   = 5
	symbolRatioLimit   = 0.3
	densityThreshold   = 0.4
	densityMinRunes    = 50
	mentionLimit       = 5
)

// Classifier walks a fixed predicate chain over normalized content. The
// chain order is part of the contract: earlier predicates win.
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier creates a new Classifier.
func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify returns the first predicate claim, or an unhandled outcome when
// the content deserves full analysis.
func (c *Classifier) Classify(content *core.NormalizedContent) core.EdgeCaseOutcome {
	rawRunes := utf8.RuneCountInString(content.Original)

	checks := []struct {
		hit    bool
		reason string
		action core.Decision
	}{
		{content.Normalized == "" || content.WordCount == 0, ReasonEmptyContent, core.DecisionReject},
		{content.CharCount < 3 && content.WordCount == 1, ReasonTooShort, core.DecisionFlag},
		{rawRunes > maxContentRunes, ReasonExcessiveLength, core.DecisionFlag},
		{shrinkageExceeded(rawRunes, content.CharCount), ReasonEncodingAnomaly, core.DecisionUnderReview},
		{countControlRunes(content.Original) > controlCharLimit, ReasonEncodingAnomaly, core.DecisionUnderReview},
		{countZeroWidth(content.Original) > zeroWidthLimit, ReasonZeroWidthFlood, core.DecisionReject},
		{hasMixedScriptToken(content.Normalized), ReasonHomographMix, core.DecisionFlag},
		{symbolToLetterRatio(content.Normalized) > symbolRatioLimit, ReasonSymbolNoise, core.DecisionFlag},
		{content.Language == core.LanguageUnknown && content.WordCount >= 5 && content.WordCount <= 19, ReasonUnknownLanguage, core.DecisionFlag},
		{content.CharCount > densityMinRunes && specialCharDensity(content.Normalized) > densityThreshold, ReasonSpecialCharNoise, core.DecisionFlag},
		{(content.HasURLs || content.HasHashtags) && content.WordCount < 3, ReasonBareLink, core.DecisionFlag},
		{utils.CountMentions(content.Normalized) > mentionLimit, ReasonMentionFlood, core.DecisionFlag},
	}

	for _, check := range checks {
		if check.hit {
			c.logger.Debug("edge case claimed content",
				zap.String("reason", check.reason),
				zap.String("action", string(check.action)))
			return core.EdgeCaseOutcome{Handled: true, Reason: check.reason, Action: check.action}
		}
	}
	return core.EdgeCaseOutcome{}
}

// shrinkageExceeded reports whether normalization discarded more than half
// of a non-trivial input, the signature of encoding garbage.
func shrinkageExceeded(rawRunes, normRunes int) bool {
	if rawRunes <= 20 {
		return false
	}
	return float64(rawRunes-normRunes)/float64(rawRunes) > shrinkageThreshold
}

// countControlRunes counts control and replacement characters, ignoring the
// whitespace controls legitimate multi-line posts carry.
func countControlRunes(s string) int {
	count := 0
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			count++
		}
	}
	return count
}

func countZeroWidth(s string) int {
	count := 0
	for _, r := range s {
		switch r {
		case 0x200b, 0x200c, 0x200d, 0x2060, 0xfeff:
			count++
		}
	}
	return count
}

// hasMixedScriptToken reports whether any single token mixes Cyrillic and
// Latin letters, the classic homograph disguise.
func hasMixedScriptToken(s string) bool {
	for _, w := range utils.Words(s) {
		var cyr, lat bool
		for _, r := range w {
			switch {
			case unicode.Is(unicode.Cyrillic, r):
				cyr = true
			case unicode.Is(unicode.Latin, r):
				lat = true
			}
			if cyr && lat {
				return true
			}
		}
	}
	return false
}

// symbolToLetterRatio measures symbol noise against letter volume. Emoji do
// not count as noise; letter-free symbol strings divide by one so pure
// symbol spam still trips the limit.
func symbolToLetterRatio(s string) float64 {
	var symbols, letters int
	for _, r := range s {
		switch {
		case utils.IsEmoji(r):
		case unicode.IsSymbol(r):
			symbols++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if letters == 0 {
		letters = 1
	}
	return float64(symbols) / float64(letters)
}

// specialCharDensity is the share of runes that are neither letters, digits,
// nor whitespace.
func specialCharDensity(s string) float64 {
	if s == "" {
		return 0
	}
	var special, total int
	for _, r := range s {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	return float64(special) / float64(total)
}
