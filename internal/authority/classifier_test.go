package authority

import (
	"testing"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier(&model.AuthorityConfig{
		PrimaryDomains:   []string{"legislation.gov.uk", "doi.org", "nasa.gov"},
		SecondaryDomains: []string{"wikipedia.org", "britannica.com"},
		PathPatterns: []model.PathPattern{
			{Pattern: "/statute/", Tier: "primary"},
			{Pattern: "[", Tier: "primary"}, // invalid, skipped
		},
		DomainMap: map[string]string{
			"nytimes.com": "secondary",
			"myblog.com":  "tertiary",
		},
	})

	tests := []struct {
		desc     string
		url      string
		expected model.AuthorityTier
	}{
		{"primary exact match", "https://legislation.gov.uk/ukpga/1998/42", model.TierPrimary},
		{"primary subdomain", "https://www.legislation.gov.uk/statute", model.TierPrimary},
		{"primary with port", "https://nasa.gov:443/earth", model.TierPrimary},
		{"secondary subdomain", "https://en.wikipedia.org/wiki/Spherical_Earth", model.TierSecondary},
		{"domain map secondary", "https://nytimes.com/article", model.TierSecondary},
		{"domain map tertiary", "https://myblog.com/post", model.TierTertiary},
		{"path pattern", "https://example.com/statute/42", model.TierPrimary},
		{".gov heuristic", "https://whitehouse.gov/statements", model.TierPrimary},
		{".edu heuristic", "https://mit.edu/research", model.TierPrimary},
		{".ac.uk heuristic", "https://oxford.ac.uk/research", model.TierPrimary},
		{"unknown domain", "https://randomsite.com/page", model.TierTertiary},
		{"suffix lookalike", "https://notwikipedia.org/page", model.TierTertiary},
		{"not a url", "not-a-url", model.TierTertiary},
		{"empty", "", model.TierTertiary},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifier.Classify(tt.url))
		})
	}
}

func TestClassifier_Source(t *testing.T) {
	classifier := NewClassifier(nil)

	src := classifier.Source(model.Document{
		Title:   "NASA confirms Earth is an oblate spheroid",
		URL:     "https://www.nasa.gov/earth-shape",
		Content: "The Earth is an oblate spheroid.",
	})

	assert.Equal(t, "https://www.nasa.gov/earth-shape", src.URL)
	assert.Equal(t, "NASA confirms Earth is an oblate spheroid", src.Title)
	assert.Equal(t, "High", src.Reliability)
}

func TestParseTier(t *testing.T) {
	tests := map[string]model.AuthorityTier{
		"primary":   model.TierPrimary,
		"PRIMARY":   model.TierPrimary,
		"1":         model.TierPrimary,
		"secondary": model.TierSecondary,
		"2":         model.TierSecondary,
		"tertiary":  model.TierTertiary,
		"unknown":   model.TierTertiary,
		"":          model.TierTertiary,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, parseTier(input), "input %q", input)
	}
}
