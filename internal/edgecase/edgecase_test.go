package edgecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/core"
)

func TestClassify(t *testing.T) {
	assert := assert.New(t)
	classifier := NewClassifier(zap.NewNop())

	fixtures := []struct {
		name    string
		content *core.NormalizedContent
		reason  string
		action  core.Decision
	}{
		{
			name: "whitespace only",
			content: &core.NormalizedContent{
				Original: "   ", Normalized: "", WordCount: 0,
				Language: core.LanguageUnknown,
			},
			reason: ReasonEmptyContent,
			action: core.DecisionReject,
		},
		{
			name: "too short",
			content: &core.NormalizedContent{
				Original: "hi", Normalized: "hi", WordCount: 1, CharCount: 2,
				Language: core.LanguageUnknown,
			},
			reason: ReasonTooShort,
			action: core.DecisionFlag,
		},
		{
			name: "excessive length",
			content: &core.NormalizedContent{
				Original:   strings.Repeat("a", 2001),
				Normalized: strings.Repeat("a", 2001),
				WordCount:  1, CharCount: 2001,
				Language: core.LanguageUnknown,
			},
			reason: ReasonExcessiveLength,
			action: core.DecisionFlag,
		},
		{
			name: "normalization shrinkage",
			content: &core.NormalizedContent{
				Original:   strings.Repeat("x", 100),
				Normalized: strings.Repeat("x", 40),
				WordCount:  1, CharCount: 40,
				Language: core.LanguageUnknown,
			},
			reason: ReasonEncodingAnomaly,
			action: core.DecisionUnderReview,
		},
		{
			name: "control character flood",
			content: &core.NormalizedContent{
				Original:   "hello" + strings.Repeat("\x01", 6),
				Normalized: "hello",
				WordCount:  1, CharCount: 5,
				Language: core.LanguageUnknown,
			},
			reason: ReasonEncodingAnomaly,
			action: core.DecisionUnderReview,
		},
		{
			name: "zero width flood",
			content: &core.NormalizedContent{
				Original:   "abc" + strings.Repeat("​", 11),
				Normalized: "abc",
				WordCount:  1, CharCount: 3,
				Language: core.LanguageUnknown,
			},
			reason: ReasonZeroWidthFlood,
			action: core.DecisionReject,
		},
		{
			name: "homograph token",
			content: &core.NormalizedContent{
				Original:   "log in to pаypal now",
				Normalized: "log in to pаypal now",
				WordCount:  5, CharCount: 20,
				Language: core.LanguageEnglish,
			},
			reason: ReasonHomographMix,
			action: core.DecisionFlag,
		},
		{
			name: "symbol noise",
			content: &core.NormalizedContent{
				Original:   "$$$ $$$ win",
				Normalized: "$$$ $$$ win",
				WordCount:  3, CharCount: 11,
				Language: core.LanguageEnglish,
			},
			reason: ReasonSymbolNoise,
			action: core.DecisionFlag,
		},
		{
			name: "unrecognized language",
			content: &core.NormalizedContent{
				Original:   "lorem ipsum dolor sit amet",
				Normalized: "lorem ipsum dolor sit amet",
				WordCount:  5, CharCount: 25,
				Language: core.LanguageUnknown,
			},
			reason: ReasonUnknownLanguage,
			action: core.DecisionFlag,
		},
		{
			name: "special character density",
			content: &core.NormalizedContent{
				Original:   strings.TrimSpace(strings.Repeat("a.,!? ", 10)),
				Normalized: strings.TrimSpace(strings.Repeat("a.,!? ", 10)),
				WordCount:  10, CharCount: 59,
				Language: core.LanguageEnglish,
			},
			reason: ReasonSpecialCharNoise,
			action: core.DecisionFlag,
		},
		{
			name: "bare link",
			content: &core.NormalizedContent{
				Original:   "https://example.com",
				Normalized: "https://example.com",
				WordCount:  1, CharCount: 19, HasURLs: true,
				Language: core.LanguageUnknown,
			},
			reason: ReasonBareLink,
			action: core.DecisionFlag,
		},
		{
			name: "bare hashtag",
			content: &core.NormalizedContent{
				Original:   "#promo launch",
				Normalized: "#promo launch",
				WordCount:  2, CharCount: 13, HasHashtags: true,
				Language: core.LanguageUnknown,
			},
			reason: ReasonBareLink,
			action: core.DecisionFlag,
		},
		{
			name: "mention flood",
			content: &core.NormalizedContent{
				Original:   "@a @b @c @d @e @f hello everyone this is big news today",
				Normalized: "@a @b @c @d @e @f hello everyone this is big news today",
				WordCount:  13, CharCount: 55, HasMentions: true,
				Language: core.LanguageEnglish,
			},
			reason: ReasonMentionFlood,
			action: core.DecisionFlag,
		},
	}

	for _, fix := range fixtures {
		outcome := classifier.Classify(fix.content)
		assert.True(outcome.Handled, fix.name)
		assert.Equal(fix.reason, outcome.Reason, fix.name)
		assert.Equal(fix.action, outcome.Action, fix.name)
	}
}

func TestClassifyPassesOrdinaryContent(t *testing.T) {
	assert := assert.New(t)
	classifier := NewClassifier(zap.NewNop())

	fixtures := []*core.NormalizedContent{
		{
			Original:   "just a normal message about the weather today",
			Normalized: "just a normal message about the weather today",
			WordCount:  8, CharCount: 46,
			Language: core.LanguageEnglish,
		},
		// Newlines and tabs are not counted as control noise.
		{
			Original:   "line one\nline two\r\nline three\tend",
			Normalized: "line one line two line three end",
			WordCount:  7, CharCount: 32,
			Language: core.LanguageEnglish,
		},
	}

	for _, content := range fixtures {
		outcome := classifier.Classify(content)
		assert.False(outcome.Handled, content.Normalized)
		assert.Empty(outcome.Reason)
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	assert := assert.New(t)
	classifier := NewClassifier(zap.NewNop())

	// Trips both the zero-width flood and the symbol-noise predicates; the
	// earlier one decides.
	outcome := classifier.Classify(&core.NormalizedContent{
		Original:   strings.Repeat("​", 11) + "$$$ hi",
		Normalized: "$$$ hi",
		WordCount:  2, CharCount: 6,
		Language: core.LanguageUnknown,
	})
	assert.True(outcome.Handled)
	assert.Equal(ReasonZeroWidthFlood, outcome.Reason)
	assert.Equal(core.DecisionReject, outcome.Action)

	// Empty beats excessive length.
	outcome = classifier.Classify(&core.NormalizedContent{
		Original:   strings.Repeat("a", 2500),
		Normalized: "",
		WordCount:  0,
		Language:   core.LanguageUnknown,
	})
	assert.Equal(ReasonEmptyContent, outcome.Reason)
	assert.Equal(core.DecisionReject, outcome.Action)
}
