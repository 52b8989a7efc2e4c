package rules

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/mikey/content-risk-filter/internal/allowlist"
	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/utils"
)

var shortenerDomains = map[string]struct{}{
	"bit.ly": {}, "tinyurl.com": {}, "goo.gl": {}, "t.co": {},
	"is.gd": {}, "buff.ly": {}, "ow.ly": {}, "rb.gy": {},
	"cutt.ly": {}, "shorturl.at": {},
}

// TLDs with essentially free registration, where throwaway spam domains
// cluster.
var riskyTLDs = []string{".tk", ".ml", ".ga", ".cf", ".gq", ".zip", ".loan", ".click", ".work"}

// Credential-bait vocabulary matched inside the URL itself.
var baitWords = []string{
	"login", "verify", "account", "banking", "wallet",
	"prize", "winner", "free", "bonus", "claim",
}

var (
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\((\S+?)\)`)
	domainLike   = regexp.MustCompile(`(?i)\b[a-z0-9-]+(?:\.[a-z0-9-]+)+\b`)
)

const (
	linkCountLimit  = 3
	linkCountScore  = 0.3
	shortenerScore  = 0.25
	shortenerCap    = 0.5
	riskyHostScore  = 0.3
	riskyHostCap    = 0.6
	baitScore       = 0.2
	misleadScore    = 0.4
	sameDomainLimit = 2
	sameDomainScore = 0.2
)

// LinksExtractor grades the URLs in a post. Links to trusted domains are
// ignored outright; everything else accumulates penalties for the shapes
// spam links take.
type LinksExtractor struct {
	trusted *allowlist.Checker
}

// NewLinksExtractor creates a new LinksExtractor.
func NewLinksExtractor(trusted *allowlist.Checker) *LinksExtractor {
	return &LinksExtractor{trusted: trusted}
}

func (e *LinksExtractor) Kind() core.SignalKind { return core.KindSuspiciousLinks }

func (e *LinksExtractor) Extract(content *core.NormalizedContent) (*core.Signal, error) {
	links := utils.ExtractURLs(content.Normalized)
	if len(links) == 0 {
		return nil, nil
	}

	type link struct {
		raw  string
		host string
	}
	kept := make([]link, 0, len(links))
	for _, raw := range links {
		host := hostOf(raw)
		if e.trusted != nil && e.trusted.IsTrusted(host) {
			continue
		}
		kept = append(kept, link{raw: raw, host: host})
	}
	if len(kept) == 0 {
		return nil, nil
	}

	var confidence float64
	evidence := make([]string, 0, maxEvidence)

	if len(kept) > linkCountLimit {
		confidence += linkCountScore
		evidence = append(evidence, fmt.Sprintf("%d links", len(kept)))
	}

	var shorteners, risky int
	hostFreq := make(map[string]int, len(kept))
	for _, l := range kept {
		hostFreq[l.host]++
		if _, ok := shortenerDomains[strings.TrimPrefix(l.host, "www.")]; ok {
			shorteners++
			evidence = append(evidence, fmt.Sprintf("shortener %s", l.host))
		}
		if riskyHost(l.host) {
			risky++
			evidence = append(evidence, fmt.Sprintf("risky host %s", l.host))
		}
	}
	confidence += capFloat(float64(shorteners)*shortenerScore, shortenerCap)
	confidence += capFloat(float64(risky)*riskyHostScore, riskyHostCap)

	for _, l := range kept {
		if word := baitWordIn(l.raw); word != "" {
			confidence += baitScore
			evidence = append(evidence, fmt.Sprintf("bait word %q in %s", word, utils.Snippet(l.raw, 60)))
			break
		}
	}

	if claimed, actual, ok := misleadingLink(content.Normalized); ok {
		confidence += misleadScore
		evidence = append(evidence, fmt.Sprintf("text names %s, link goes to %s", claimed, actual))
	}

	for host, n := range hostFreq {
		if n > sameDomainLimit {
			confidence += sameDomainScore
			evidence = append(evidence, fmt.Sprintf("%d links to %s", n, host))
			break
		}
	}

	if confidence == 0 {
		return nil, nil
	}
	confidence = capFloat(confidence, 1.0)
	if len(evidence) > maxEvidence {
		evidence = evidence[:maxEvidence]
	}

	return &core.Signal{
		Kind:       core.KindSuspiciousLinks,
		Severity:   severityFor(confidence),
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}

// hostOf extracts the lowercased hostname, tolerating scheme-less links.
func hostOf(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func riskyHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	for _, tld := range riskyTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	return false
}

func baitWordIn(raw string) string {
	lower := strings.ToLower(raw)
	for _, w := range baitWords {
		if strings.Contains(lower, w) {
			return w
		}
	}
	return ""
}

// misleadingLink detects markdown links whose visible text names one domain
// while the target points at another.
func misleadingLink(text string) (claimed, actual string, ok bool) {
	for _, m := range markdownLink.FindAllStringSubmatch(text, -1) {
		visible, target := m[1], m[2]
		claimedDomain := domainLike.FindString(visible)
		if claimedDomain == "" {
			continue
		}
		targetHost := hostOf(target)
		if targetHost == "" {
			continue
		}
		if baseDomain(strings.ToLower(claimedDomain)) != baseDomain(targetHost) {
			return claimedDomain, targetHost, true
		}
	}
	return "", "", false
}

// baseDomain keeps the last two host labels.
func baseDomain(host string) string {
	host = strings.TrimPrefix(host, "www.")
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
