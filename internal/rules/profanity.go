package rules

import (
	"fmt"

	"github.com/mikey/content-risk-filter/internal/core"
)

// Profane and abusive vocabulary. Matching is whole-word on lowercased
// tokens, so embedded substrings ("class", "assess") never fire.
var profaneTerms = map[string]struct{}{
	"fuck": {}, "fucking": {}, "fucker": {}, "motherfucker": {},
	"shit": {}, "shitty": {}, "bullshit": {},
	"bitch": {}, "bitches": {},
	"bastard": {}, "asshole": {}, "ass": {},
	"dick": {}, "prick": {}, "cunt": {}, "piss": {},
	"slut": {}, "whore": {}, "douche": {}, "douchebag": {},
	"dumbass": {}, "jackass": {},
	"idiot": {}, "moron": {}, "imbecile": {}, "scumbag": {}, "loser": {},
}

// ProfanityExtractor flags profane or abusive language. Score scales with
// how much of the text is profane, not just whether any of it is.
type ProfanityExtractor struct{}

// NewProfanityExtractor creates a new ProfanityExtractor.
func NewProfanityExtractor() *ProfanityExtractor {
	return &ProfanityExtractor{}
}

func (e *ProfanityExtractor) Kind() core.SignalKind { return core.KindProfanity }

func (e *ProfanityExtractor) Extract(content *core.NormalizedContent) (*core.Signal, error) {
	words := tokens(content.Normalized)
	if len(words) == 0 {
		return nil, nil
	}

	matches := 0
	seen := make(map[string]struct{})
	evidence := make([]string, 0, maxEvidence)
	for _, w := range words {
		if _, ok := profaneTerms[w]; !ok {
			continue
		}
		matches++
		if _, dup := seen[w]; !dup && len(evidence) < maxEvidence {
			seen[w] = struct{}{}
			evidence = append(evidence, fmt.Sprintf("term %q", w))
		}
	}
	if matches == 0 {
		return nil, nil
	}

	ratio := float64(matches) / float64(len(words))
	confidence := capFloat(0.8+0.2*ratio, 1.0)

	severity := core.SeverityLow
	switch {
	case ratio > 0.3:
		severity = core.SeverityHigh
	case ratio > 0.1:
		severity = core.SeverityMedium
	}

	return &core.Signal{
		Kind:       core.KindProfanity,
		Severity:   severity,
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}
