package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mikey/content-risk-filter/internal/core"
)

// Sub-check weights. The three checks are independent; their weights sum to
// one so the signal confidence is the fraction of repetition styles present.
const (
	charRunWeight     = 0.3
	wordRepeatWeight  = 0.4
	dupSentenceWeight = 0.3

	charRunMin       = 4
	wordRepeatMin    = 3
	wordRepeatShare  = 0.2
	wordRepeatMinLen = 5
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// RepetitionExtractor flags mechanically repeated content: stretched
// characters, hammered words, and copy-pasted sentences.
type RepetitionExtractor struct{}

// NewRepetitionExtractor creates a new RepetitionExtractor.
func NewRepetitionExtractor() *RepetitionExtractor {
	return &RepetitionExtractor{}
}

func (e *RepetitionExtractor) Kind() core.SignalKind { return core.KindRepetitiveContent }

func (e *RepetitionExtractor) Extract(content *core.NormalizedContent) (*core.Signal, error) {
	var confidence float64
	evidence := make([]string, 0, 3)

	if r, n := longestRun(content.Normalized); n >= charRunMin {
		confidence += charRunWeight
		evidence = append(evidence, fmt.Sprintf("%s: %q repeated %d times", core.KindCharacterPatterns, r, n))
	}
	if word, count := dominantWord(content.Normalized); word != "" {
		confidence += wordRepeatWeight
		evidence = append(evidence, fmt.Sprintf("%s: %q appears %d times", core.KindWordPatterns, word, count))
	}
	if dups := duplicateSentences(content.Normalized); dups > 1 {
		confidence += dupSentenceWeight
		evidence = append(evidence, fmt.Sprintf("%s: %d near-duplicate sentences", core.KindSentenceStructure, dups))
	}

	if confidence == 0 {
		return nil, nil
	}
	return &core.Signal{
		Kind:       core.KindRepetitiveContent,
		Severity:   severityFor(confidence),
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}

// longestRun finds the longest stretch of one repeated rune.
func longestRun(text string) (rune, int) {
	var best, cur rune
	bestN, curN := 0, 0
	for _, r := range text {
		if r == cur {
			curN++
		} else {
			cur, curN = r, 1
		}
		if curN > bestN {
			best, bestN = cur, curN
		}
	}
	return best, bestN
}

// dominantWord returns a word that is hammered hard enough to count:
// more than wordRepeatMin occurrences and more than a fifth of all words,
// on texts of at least wordRepeatMinLen words.
func dominantWord(text string) (string, int) {
	words := tokens(text)
	if len(words) < wordRepeatMinLen {
		return "", 0
	}
	freq := make(map[string]int, len(words))
	for _, w := range words {
		freq[w]++
	}

	bestWord, bestCount := "", 0
	for w, c := range freq {
		if c > bestCount || (c == bestCount && w < bestWord) {
			bestWord, bestCount = w, c
		}
	}
	if bestCount > wordRepeatMin && float64(bestCount)/float64(len(words)) > wordRepeatShare {
		return bestWord, bestCount
	}
	return "", 0
}

// duplicateSentences counts sentences sharing a word multiset with another
// sentence. Reordered copies count as duplicates; one-word fragments do not.
func duplicateSentences(text string) int {
	groups := make(map[string]int)
	for _, raw := range sentenceSplit.Split(text, -1) {
		words := tokens(raw)
		if len(words) < 2 {
			continue
		}
		sorted := append([]string(nil), words...)
		sort.Strings(sorted)
		groups[strings.Join(sorted, " ")]++
	}

	dups := 0
	for _, n := range groups {
		if n > 1 {
			dups += n
		}
	}
	return dups
}
