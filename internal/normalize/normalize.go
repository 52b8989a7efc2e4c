// Package normalize implements the first pipeline stage: raw text in,
// cleaned text plus derived metadata out. Normalization never fails; the
// worst input degrades to empty content that the edge-case chain rejects.
package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/utils"
)

// Typographic punctuation folded to ASCII before any matching runs.
var punctReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "′", "'",
	"“", `"`, "”", `"`, "„", `"`, "″", `"`,
	"–", "-", "—", "-", "―", "-",
	"…", "...",
	" ", " ",
)

// Substitutions applied only when the text looks deliberately obfuscated.
var leetReplacer = strings.NewReplacer(
	"0", "o", "1", "i", "3", "e", "4", "a", "5", "s", "7", "t",
	"@", "a", "$", "s",
)

// Zero-width characters and soft hyphens removed during composition. The
// ranges must stay sorted for RangeTable lookups.
var strippedRunes = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00ad, Hi: 0x00ad, Stride: 1},
		{Lo: 0x200b, Hi: 0x200d, Stride: 1},
		{Lo: 0x2060, Hi: 0x2060, Stride: 1},
		{Lo: 0xfeff, Hi: 0xfeff, Stride: 1},
	},
	LatinOffset: 1,
}

var composeChain = transform.Chain(norm.NFC, runes.Remove(runes.In(strippedRunes)))

var (
	tokenRegex     = regexp.MustCompile(`\S+`)
	wideSpaceRegex = regexp.MustCompile(`\s{3,}`)
	punctRunRegex  = regexp.MustCompile(`[.!?]{4,}`)
)

// Normalizer cleans raw text and computes the metadata later stages key off.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a new Normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize runs the full cleanup sequence: entity and punctuation decoding,
// canonical composition with zero-width removal, evasion folding when the
// text warrants it, and whitespace and punctuation-run collapsing. URLs pass
// through verbatim.
func (n *Normalizer) Normalize(text string) *core.NormalizedContent {
	if text == "" {
		return &core.NormalizedContent{Original: text, Language: core.LanguageUnknown}
	}

	s := html.UnescapeString(text)
	s = punctReplacer.Replace(s)
	s = utils.SanitizeUTF8(s)

	if composed, _, err := transform.String(composeChain, s); err == nil {
		s = composed
	} else {
		n.logger.Debug("composition failed, keeping decoded text", zap.Error(err))
	}

	// URLs must survive the rewriting passes byte for byte.
	links := utils.ExtractURLs(s)
	for i, link := range links {
		s = strings.Replace(s, link, placeholderToken(i), 1)
	}

	if looksEvasive(s) {
		s = leetReplacer.Replace(s)
		s = foldMixedCase(s)
		n.logger.Debug("evasion folding applied")
	}

	s = wideSpaceRegex.ReplaceAllString(s, " ")
	s = punctRunRegex.ReplaceAllStringFunc(s, func(run string) string {
		return run[:3]
	})

	for i, link := range links {
		s = strings.Replace(s, placeholderToken(i), link, 1)
	}
	s = strings.TrimSpace(s)

	words := utils.Words(s)
	return &core.NormalizedContent{
		Original:    text,
		Normalized:  s,
		WordCount:   len(words),
		CharCount:   utf8.RuneCountInString(s),
		HasURLs:     utils.HasURLs(s),
		HasHashtags: utils.HasHashtags(s),
		HasMentions: utils.HasMentions(s),
		HasEmoji:    utils.ContainsEmoji(s),
		Language:    detectLanguage(words),
	}
}

// placeholderToken builds an all-letter stand-in for the i-th URL. Letters
// only: the substitution table rewrites digits, which would corrupt a
// numbered token.
func placeholderToken(i int) string {
	suffix := ""
	for {
		suffix = string(rune('a'+i%26)) + suffix
		i /= 26
		if i == 0 {
			break
		}
	}
	return "zzurl" + suffix + "zz"
}

// looksEvasive reports whether the text shows deliberate filter evasion:
// leetspeak substitution inside words, or shouting combined with repeated
// exclamation.
func looksEvasive(s string) bool {
	if containsLeetspeak(s) {
		return true
	}
	upper, letters := utils.LetterCounts(s)
	return letters >= 10 &&
		float64(upper)/float64(letters) > 0.6 &&
		strings.Count(s, "!") >= 3
}

// containsLeetspeak scans for a substitution character wedged between two
// letters, the letter-digit-letter shape of disguised words.
func containsLeetspeak(s string) bool {
	for _, w := range strings.Fields(s) {
		rs := []rune(w)
		for i := 1; i < len(rs)-1; i++ {
			if isLeetRune(rs[i]) && unicode.IsLetter(rs[i-1]) && unicode.IsLetter(rs[i+1]) {
				return true
			}
		}
	}
	return false
}

func isLeetRune(r rune) bool {
	switch r {
	case '0', '1', '3', '4', '5', '7', '@', '$':
		return true
	}
	return false
}

// foldMixedCase lowercases tokens whose capitals continue past a title-case
// initial. Uniform-caps tokens stay untouched so caps-ratio scoring still
// sees them.
func foldMixedCase(s string) string {
	return tokenRegex.ReplaceAllStringFunc(s, func(w string) string {
		if isMixedCase(w) {
			return strings.ToLower(w)
		}
		return w
	})
}

func isMixedCase(w string) bool {
	var upper, lower int
	upperBeyondFirst := false
	for i, r := range w {
		switch {
		case unicode.IsUpper(r):
			upper++
			if i > 0 {
				upperBeyondFirst = true
			}
		case unicode.IsLower(r):
			lower++
		}
	}
	return upper > 0 && lower > 0 && upperBeyondFirst
}
