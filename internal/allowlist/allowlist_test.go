package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsTrusted(t *testing.T) {
	assert := assert.New(t)

	checker := NewChecker([]string{" Example.COM ", "", "trusted.org"}, zap.NewNop())

	fixtures := []struct {
		host    string
		trusted bool
	}{
		{"example.com", true},
		{"EXAMPLE.com", true},
		{"www.example.com", true},
		{"cdn.example.com", true},
		{"trusted.org", true},
		{"notexample.com", false},
		{"evil-example.com", false},
		{"example.com.evil.net", false},
		{"", false},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.trusted, checker.IsTrusted(fix.host), fix.host)
	}
}

func TestIsTrustedEmptyList(t *testing.T) {
	assert := assert.New(t)

	checker := NewChecker(nil, zap.NewNop())
	assert.False(checker.IsTrusted("example.com"))
}
