package allowlist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker provides functionality to check if link domains are trusted
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new trusted-domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	// Normalize domains (lowercase)
	normalizedDomains := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalizedDomains = append(normalizedDomains, domain)
		}
	}

	if len(normalizedDomains) > 0 && logger != nil {
		logger.Info("Initialized trusted-domain checker", zap.Strings("domains", normalizedDomains))
	}

	return &Checker{
		domains: normalizedDomains,
		logger:  logger,
	}
}

// IsTrusted checks if the host matches a trusted domain or one of its
// subdomains
func (c *Checker) IsTrusted(host string) bool {
	if len(c.domains) == 0 || host == "" {
		return false
	}

	host = strings.ToLower(strings.TrimPrefix(host, "www."))

	for _, trusted := range c.domains {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			if c.logger != nil {
				c.logger.Debug("Link host is trusted",
					zap.String("host", host),
					zap.String("domain", trusted))
			}
			return true
		}
	}

	return false
}
