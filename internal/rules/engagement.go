package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mikey/content-risk-filter/internal/core"
)

// Engagement-bait phrasing. These read naturally to humans, so matching is
// exact-phrase rather than per word.
var engagementPhrases = []string{
	"follow me", "follow back", "follow for follow", "follow train",
	"like for like", "like 4 like", "retweet this", "rt to win",
	"tag a friend", "tag your friends", "share this post",
	"double tap", "turn on notifications", "link in bio",
}

var baitHashtags = []string{
	"#f4f", "#l4l", "#follow4follow", "#like4like", "#followback",
	"#teamfollowback", "#followtrain", "#sub4sub", "#followforfollow",
}

var followBackPromises = []string{
	"i follow back", "follow back guaranteed", "followback guaranteed",
}

// Verbs that ask the reader to perform platform actions.
var ctaVerbs = []string{"follow", "like", "share", "retweet", "comment", "subscribe", "tag"}

var followerBragRegex = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)*k?\s*followers\b`)

const (
	engagementPhraseScore = 0.3
	engagementPhraseCap   = 0.6
	baitHashtagScore      = 0.2
	baitHashtagCap        = 0.4
	followerBragScore     = 0.15
	followBackScore       = 0.2
	ctaComboScore         = 0.2
	ctaComboMin           = 3
	engagementThreshold   = 0.15
)

// EngagementExtractor flags follower-farming posts: bait phrases, trade
// hashtags, follower brags, and stacks of call-to-action verbs.
type EngagementExtractor struct{}

// NewEngagementExtractor creates a new EngagementExtractor.
func NewEngagementExtractor() *EngagementExtractor {
	return &EngagementExtractor{}
}

func (e *EngagementExtractor) Kind() core.SignalKind { return core.KindFakeEngagement }

func (e *EngagementExtractor) Extract(content *core.NormalizedContent) (*core.Signal, error) {
	lower := strings.ToLower(content.Normalized)
	var confidence float64
	evidence := make([]string, 0, maxEvidence)

	var phraseScore float64
	for _, phrase := range engagementPhrases {
		if containsTerm(lower, phrase) {
			phraseScore += engagementPhraseScore
			if len(evidence) < maxEvidence {
				evidence = append(evidence, fmt.Sprintf("phrase %q", phrase))
			}
		}
	}
	confidence += capFloat(phraseScore, engagementPhraseCap)

	var tagScore float64
	for _, tag := range baitHashtags {
		if strings.Contains(lower, tag) {
			tagScore += baitHashtagScore
			if len(evidence) < maxEvidence {
				evidence = append(evidence, fmt.Sprintf("hashtag %s", tag))
			}
		}
	}
	confidence += capFloat(tagScore, baitHashtagCap)

	if m := followerBragRegex.FindString(content.Normalized); m != "" {
		confidence += followerBragScore
		evidence = append(evidence, fmt.Sprintf("follower brag %q", m))
	}

	for _, promise := range followBackPromises {
		if containsTerm(lower, promise) {
			confidence += followBackScore
			evidence = append(evidence, "follow-back promise")
			break
		}
	}

	if n := distinctCTAVerbs(lower); n >= ctaComboMin {
		confidence += ctaComboScore
		evidence = append(evidence, fmt.Sprintf("%d call-to-action verbs", n))
	}

	if confidence < engagementThreshold {
		return nil, nil
	}
	confidence = capFloat(confidence, 1.0)
	if len(evidence) > maxEvidence {
		evidence = evidence[:maxEvidence]
	}

	return &core.Signal{
		Kind:       core.KindFakeEngagement,
		Severity:   severityFor(confidence),
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}

func distinctCTAVerbs(lower string) int {
	n := 0
	for _, verb := range ctaVerbs {
		if containsTerm(lower, verb) {
			n++
		}
	}
	return n
}
