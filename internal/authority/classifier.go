// Package authority assigns reliability tiers to evidence URLs.
package authority

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

// Classifier classifies sources into authority tiers
type Classifier struct {
	config       *model.AuthorityConfig
	primary      map[string]bool
	secondary    map[string]bool
	pathPatterns []compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	tier    model.AuthorityTier
}

// NewClassifier creates a classifier. A nil config uses DefaultConfig().Authority.
func NewClassifier(config *model.AuthorityConfig) *Classifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	c := &Classifier{
		config:    config,
		primary:   make(map[string]bool, len(config.PrimaryDomains)),
		secondary: make(map[string]bool, len(config.SecondaryDomains)),
	}
	for _, domain := range config.PrimaryDomains {
		c.primary[strings.ToLower(domain)] = true
	}
	for _, domain := range config.SecondaryDomains {
		c.secondary[strings.ToLower(domain)] = true
	}

	// Invalid patterns are skipped rather than failing construction
	for _, pp := range config.PathPatterns {
		if re, err := regexp.Compile(pp.Pattern); err == nil {
			c.pathPatterns = append(c.pathPatterns, compiledPattern{pattern: re, tier: parseTier(pp.Tier)})
		}
	}

	return c
}

// Classify classifies a URL into an authority tier
func (c *Classifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.TierTertiary
	}

	host := strings.ToLower(parsed.Hostname())

	if tier, ok := c.config.DomainMap[host]; ok {
		return parseTier(tier)
	}

	// Walk the host from most to least specific: a.b.gov.uk, b.gov.uk, gov.uk, uk
	for suffix := host; suffix != ""; suffix = parentDomain(suffix) {
		if c.primary[suffix] {
			return model.TierPrimary
		}
		if c.secondary[suffix] {
			return model.TierSecondary
		}
	}

	for _, cp := range c.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.tier
		}
	}

	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return model.TierPrimary
	}

	return model.TierTertiary
}

// Source builds a verdict source for a document, labelled with its reliability
func (c *Classifier) Source(doc model.Document) model.Source {
	return model.Source{
		URL:         doc.URL,
		Title:       doc.Title,
		Content:     doc.Content,
		Reliability: c.Classify(doc.URL).Reliability(),
	}
}

func parentDomain(host string) string {
	idx := strings.IndexByte(host, '.')
	if idx < 0 {
		return ""
	}
	return host[idx+1:]
}

func parseTier(tier string) model.AuthorityTier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
