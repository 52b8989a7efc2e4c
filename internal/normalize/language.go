package normalize

import (
	"strings"

	"github.com/mikey/content-risk-filter/internal/core"
)

// commonEnglish is the discriminator vocabulary: function words plus the
// highest-frequency everyday words. Three occurrences classify a text as
// English; anything else reports unknown.
var commonEnglish = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the be to of and a in that have has had i it for not on with he she
		as you do does did at this but his her by from they we say or an
		will my one all would there their what so up out if about who get
		got which go me when make can like time just him know take people
		into your good some could them see other than then now look only
		come its over think also back after use two how our work first well
		way even new want because any these give day most us is are was
		were been being am today here there very really too more no yes
	`) {
		commonEnglish[w] = struct{}{}
	}
}

// detectLanguage counts common-English occurrences across the words. The
// threshold is deliberately low; the goal is telling English apart from
// everything else, not identifying the something else.
func detectLanguage(words []string) string {
	matches := 0
	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, `.,!?;:'"()[]{}<>`))
		if _, ok := commonEnglish[w]; ok {
			matches++
			if matches >= 3 {
				return core.LanguageEnglish
			}
		}
	}
	return core.LanguageUnknown
}
