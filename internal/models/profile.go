// internal/models/profile.go
package models

import "time"

// BasicUserInfo is the identity data collected during the conversation.
type BasicUserInfo struct {
	Name      string   `json:"name,omitempty"`
	Company   string   `json:"company,omitempty"`
	Title     string   `json:"title,omitempty"`
	Email     string   `json:"email,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// IsComplete reports whether the three fields required to start research are known.
func (b *BasicUserInfo) IsComplete() bool {
	return b.Name != "" && b.Company != "" && b.Title != ""
}

// Merge folds non-empty fields from other into b without overwriting known
// values with blanks. Interests are unioned.
func (b *BasicUserInfo) Merge(other BasicUserInfo) {
	if other.Name != "" {
		b.Name = other.Name
	}
	if other.Company != "" {
		b.Company = other.Company
	}
	if other.Title != "" {
		b.Title = other.Title
	}
	if other.Email != "" {
		b.Email = other.Email
	}
	for _, in := range other.Interests {
		found := false
		for _, have := range b.Interests {
			if have == in {
				found = true
				break
			}
		}
		if !found {
			b.Interests = append(b.Interests, in)
		}
	}
}

// Completeness scores how much of the user's identity and interest data is
// known, 0..100. Gates AI-personalized vs. basic scheduling.
func (b *BasicUserInfo) Completeness() int {
	score := 0
	if b.Name != "" {
		score += 25
	}
	if b.Company != "" {
		score += 25
	}
	if b.Title != "" {
		score += 25
	}
	if len(b.Interests) > 0 {
		score += 25
	}
	return score
}

// WebSearchResult is one hit from the research collaborator.
type WebSearchResult struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance"`
	Source    string  `json:"source"`
}

// ProfileInference is the rule-based-or-AI reading of who the attendee is.
type ProfileInference struct {
	Seniority       string   `json:"seniority,omitempty"`
	Role            string   `json:"role,omitempty"`
	CompanyType     string   `json:"companyType,omitempty"`
	LikelyInterests []string `json:"likelyInterests,omitempty"`
	FocusAreas      []string `json:"focusAreas,omitempty"`
}

// ResearchContext is what the web research pass found.
type ResearchContext struct {
	Queries       []string          `json:"queries"`
	Results       []WebSearchResult `json:"results"`
	CompanyIntel  string            `json:"companyIntel,omitempty"`
	PersonIntel   string            `json:"personIntel,omitempty"`
	FailedQueries int               `json:"failedQueries"`
}

// ProfileMetadata qualifies how trustworthy the enriched profile is.
type ProfileMetadata struct {
	ResearchConfidence float64   `json:"researchConfidence"` // 0..1
	DataCompleteness   int       `json:"dataCompleteness"`   // 0..100
	LastUpdated        time.Time `json:"lastUpdated"`
}

// EnrichedUserProfile is an immutable snapshot produced once per research pass
// and attached to the conversation state.
type EnrichedUserProfile struct {
	BasicInfo       BasicUserInfo    `json:"basicInfo"`
	Inferred        ProfileInference `json:"inferred"`
	Research        ResearchContext  `json:"research"`
	Recommendations []string         `json:"recommendations"`
	Metadata        ProfileMetadata  `json:"metadata"`
}
