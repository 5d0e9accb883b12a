package model

// Document is a candidate piece of web evidence. The URL is its identity.
type Document struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Learning is one compressed takeaway extracted from exactly one document,
// together with the questions it raises.
type Learning struct {
	Learning          string   `json:"learning"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	SourceURL         string   `json:"source_url,omitempty"`
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Laws, statutes, academic papers, official documents
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, aggregators
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// Reliability maps the tier onto the coarse label shown next to each source
func (t AuthorityTier) Reliability() string {
	switch t {
	case TierPrimary:
		return "High"
	case TierSecondary:
		return "Medium"
	case TierTertiary:
		return "Low"
	default:
		return "Unknown"
	}
}
