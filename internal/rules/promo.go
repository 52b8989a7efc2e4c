package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mikey/content-risk-filter/internal/core"
)

// Ordinary sales vocabulary. Each hit is a small nudge; legitimate posts
// mention one or two of these without consequence.
var promoKeywords = []string{
	"buy now", "click here", "limited time", "act now", "order now",
	"free", "discount", "offer", "deal", "sale", "winner", "cash",
	"prize", "bonus", "guarantee", "instant", "exclusive", "urgent",
}

// Phrases that essentially only occur in spam.
var spamPhrases = []string{
	"get rich quick", "work from home", "make money fast",
	"double your money", "risk free", "no obligation",
	"be your own boss", "miracle cure", "lose weight fast",
}

const (
	promoKeywordScore  = 0.15
	spamPhraseScore    = 0.4
	exclaimScoreLow    = 0.1
	exclaimScoreHigh   = 0.15
	promoCapsScore     = 0.05
	promoCapsScoreCap  = 0.15
	currencyScore      = 0.1
	promoFireThreshold = 0.15
)

var currencyRegex = regexp.MustCompile(`(?i)[$€£]\s?\d+|\b\d+\s?(?:dollars|usd|eur|gbp)\b`)

// promoVocab is the single-word vocabulary used for the ALL-CAPS bonus.
var promoVocab = buildPromoVocab()

func buildPromoVocab() map[string]struct{} {
	vocab := make(map[string]struct{})
	for _, list := range [][]string{promoKeywords, spamPhrases} {
		for _, term := range list {
			for _, w := range strings.Fields(term) {
				vocab[w] = struct{}{}
			}
		}
	}
	return vocab
}

// PromoExtractor flags advertising pressure: sales vocabulary, spam phrases,
// exclamation walls, shouted offers, and money amounts. Contributions sum so
// a post needs several tells before the score matters.
type PromoExtractor struct{}

// NewPromoExtractor creates a new PromoExtractor.
func NewPromoExtractor() *PromoExtractor {
	return &PromoExtractor{}
}

func (e *PromoExtractor) Kind() core.SignalKind { return core.KindPromotional }

func (e *PromoExtractor) Extract(content *core.NormalizedContent) (*core.Signal, error) {
	lower := strings.ToLower(content.Normalized)
	var confidence float64
	evidence := make([]string, 0, maxEvidence)

	for _, phrase := range spamPhrases {
		if containsTerm(lower, phrase) {
			confidence += spamPhraseScore
			if len(evidence) < maxEvidence {
				evidence = append(evidence, fmt.Sprintf("spam phrase %q", phrase))
			}
		}
	}
	for _, kw := range promoKeywords {
		if containsTerm(lower, kw) {
			confidence += promoKeywordScore
			if len(evidence) < maxEvidence {
				evidence = append(evidence, fmt.Sprintf("keyword %q", kw))
			}
		}
	}

	if n := strings.Count(content.Normalized, "!"); n >= 6 {
		confidence += exclaimScoreHigh
		evidence = append(evidence, fmt.Sprintf("%d exclamation marks", n))
	} else if n >= 3 {
		confidence += exclaimScoreLow
		evidence = append(evidence, fmt.Sprintf("%d exclamation marks", n))
	}

	if caps := countPromoCaps(content.Normalized); caps > 0 {
		confidence += capFloat(float64(caps)*promoCapsScore, promoCapsScoreCap)
		evidence = append(evidence, fmt.Sprintf("%d shouted promo words", caps))
	}

	if currencyRegex.MatchString(content.Normalized) {
		confidence += currencyScore
		evidence = append(evidence, "currency amount")
	}

	if confidence < promoFireThreshold {
		return nil, nil
	}
	confidence = capFloat(confidence, 1.0)
	if len(evidence) > maxEvidence {
		evidence = evidence[:maxEvidence]
	}

	return &core.Signal{
		Kind:       core.KindPromotional,
		Severity:   severityFor(confidence),
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}

// countPromoCaps counts ALL-CAPS tokens that belong to the promo vocabulary.
func countPromoCaps(text string) int {
	count := 0
	for _, w := range strings.Fields(text) {
		stripped := strings.TrimFunc(w, func(r rune) bool { return r < 'A' || r > 'Z' })
		if len(stripped) < 2 || stripped != strings.ToUpper(stripped) {
			continue
		}
		if _, ok := promoVocab[strings.ToLower(stripped)]; ok {
			count++
		}
	}
	return count
}
