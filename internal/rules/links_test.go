package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/allowlist"
	"github.com/mikey/content-risk-filter/internal/core"
)

func TestLinksShortener(t *testing.T) {
	assert := assert.New(t)
	ex := NewLinksExtractor(nil)

	sig, err := ex.Extract(norm("see https://bit.ly/abc for details and more context"))
	assert.NoError(err)
	if assert.NotNil(sig) {
		assert.Equal(core.KindSuspiciousLinks, sig.Kind)
		assert.Equal(core.SeverityLow, sig.Severity)
		assert.InDelta(0.25, sig.Confidence, 1e-9)
		assert.Equal([]string{"shortener bit.ly"}, sig.Evidence)
	}
}

func TestLinksRiskyHostAndBait(t *testing.T) {
	assert := assert.New(t)
	ex := NewLinksExtractor(nil)

	sig, err := ex.Extract(norm("grab it at http://free-money.tk/win"))
	assert.NoError(err)
	if assert.NotNil(sig) {
		assert.Equal(core.SeverityMedium, sig.Severity)
		assert.InDelta(0.5, sig.Confidence, 1e-9)
		assert.Contains(sig.Evidence, "risky host free-money.tk")
	}
}

func TestLinksIPHost(t *testing.T) {
	assert := assert.New(t)
	ex := NewLinksExtractor(nil)

	sig, err := ex.Extract(norm("update your details at http://203.0.113.9/login"))
	assert.NoError(err)
	if assert.NotNil(sig) {
		assert.InDelta(0.5, sig.Confidence, 1e-9)
		assert.Contains(sig.Evidence, "risky host 203.0.113.9")
	}
}

func TestLinksCount(t *testing.T) {
	assert := assert.New(t)
	ex := NewLinksExtractor(nil)

	sig, err := ex.Extract(norm("www.a-site.com www.b-site.com www.c-site.com www.d-site.com"))
	assert.NoError(err)
	if assert.NotNil(sig) {
		assert.InDelta(0.3, sig.Confidence, 1e-9)
		assert.Contains(sig.Evidence, "4 links")
	}
}

func TestLinksSameDomainPile(t *testing.T) {
	assert := assert.New(t)
	ex := NewLinksExtractor(nil)

	sig, err := ex.Extract(norm("www.spam.biz/a then www.spam.biz/b then www.spam.biz/c"))
	assert.NoError(err)
	if assert.NotNil(sig) {
		assert.InDelta(0.2, sig.Confidence, 1e-9)
		assert.Contains(sig.Evidence, "3 links to www.spam.biz")
	}
}

func TestLinksMisleadingMarkdown(t *testing.T) {
	assert := assert.New(t)
	ex := NewLinksExtractor(nil)

	sig, err := ex.Extract(norm("safe checkout: [paypal.com](http://evil.io/x)"))
	assert.NoError(err)
	if assert.NotNil(sig) {
		assert.InDelta(0.4, sig.Confidence, 1e-9)
		assert.Contains(sig.Evidence, "text names paypal.com, link goes to evil.io")
	}
}

func TestLinksTrustedDomainsIgnored(t *testing.T) {
	assert := assert.New(t)
	trusted := allowlist.NewChecker([]string{"example.com"}, zap.NewNop())
	ex := NewLinksExtractor(trusted)

	sig, err := ex.Extract(norm("docs at https://docs.example.com/guide and https://example.com/faq"))
	assert.NoError(err)
	assert.Nil(sig)
}

func TestLinksNoURLs(t *testing.T) {
	assert := assert.New(t)
	ex := NewLinksExtractor(nil)

	sig, err := ex.Extract(norm("nothing linked in this message"))
	assert.NoError(err)
	assert.Nil(sig)
}
