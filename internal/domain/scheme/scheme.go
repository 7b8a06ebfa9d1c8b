// Package scheme holds the government scheme domain model and its
// projection into searchable text and flat metadata for the index.
package scheme

import (
	"fmt"
	"strings"
)

// Category classifies a scheme by sector.
type Category string

// Scheme categories.
const (
	Agriculture        Category = "agriculture"
	Health             Category = "health"
	Education          Category = "education"
	Housing            Category = "housing"
	Employment         Category = "employment"
	SocialSecurity     Category = "social_security"
	FinancialInclusion Category = "financial_inclusion"
	WomenChild         Category = "women_child"
	Tribal             Category = "tribal"
	Disability         Category = "disability"
	SeniorCitizen      Category = "senior_citizen"
	SkillDevelopment   Category = "skill_development"
	Infrastructure     Category = "infrastructure"
	Other              Category = "other"
)

// Eligibility describes who qualifies for a scheme. Pointer fields are
// unset criteria; an unset criterion never restricts eligibility.
type Eligibility struct {
	MinAge           *int     `json:"min_age,omitempty"`
	MaxAge           *int     `json:"max_age,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	IncomeLimit      *float64 `json:"income_limit,omitempty"`
	Category         string   `json:"category,omitempty"` // SC/ST/OBC/General
	Occupation       string   `json:"occupation,omitempty"`
	State            string   `json:"state,omitempty"`
	IsBPL            *bool    `json:"is_bpl,omitempty"`
	LandHoldingAcres *float64 `json:"land_holding_acres,omitempty"`
	CustomCriteria   []string `json:"custom_criteria,omitempty"`
}

// Scheme is a single government scheme document.
type Scheme struct {
	ID                      string            `json:"scheme_id"`
	Name                    string            `json:"name"`
	NameTranslations        map[string]string `json:"name_translations,omitempty"`
	Description             string            `json:"description"`
	DescriptionTranslations map[string]string `json:"description_translations,omitempty"`
	Category                Category          `json:"category"`
	Ministry                string            `json:"ministry"`
	State                   string            `json:"state,omitempty"` // empty for central schemes
	Eligibility             Eligibility       `json:"eligibility"`
	Benefits                string            `json:"benefits"`
	ApplicationProcess      string            `json:"application_process"`
	DocumentsRequired       []string          `json:"documents_required,omitempty"`
	Helpline                string            `json:"helpline,omitempty"`
	Website                 string            `json:"website,omitempty"`
	Deadline                string            `json:"deadline,omitempty"`
	PopularityScore         float64           `json:"popularity_score"`
}

// Validate checks the fields required for indexing.
func (s *Scheme) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scheme_id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("scheme %q: name is required", s.ID)
	}
	if s.Category == "" {
		return fmt.Errorf("scheme %q: category is required", s.ID)
	}
	return nil
}

// SearchText assembles the searchable text representation of the scheme.
// The name is repeated to increase its influence on the embedding, and
// eligibility criteria are flattened into labeled phrases.
func (s *Scheme) SearchText() string {
	parts := []string{
		s.Name,
		s.Name, // repeated for emphasis
		s.Description,
		s.Benefits,
		"category " + string(s.Category),
		"ministry " + s.Ministry,
	}

	if s.State != "" {
		parts = append(parts, "state "+s.State)
	}

	elig := s.Eligibility
	if elig.Occupation != "" {
		parts = append(parts, "occupation "+elig.Occupation)
	}
	if elig.Category != "" {
		parts = append(parts, "caste category "+elig.Category)
	}
	if elig.IsBPL != nil && *elig.IsBPL {
		parts = append(parts, "below poverty line BPL")
	}
	parts = append(parts, elig.CustomCriteria...)

	return strings.Join(parts, " ")
}

// Metadata flattens the scheme into the open metadata map stored in the
// index. State is nil (not empty string) for central schemes so that a
// nil filter value matches them.
func (s *Scheme) Metadata() map[string]any {
	var state any
	if s.State != "" {
		state = s.State
	}
	eligibility := map[string]any{}
	if s.Eligibility.Occupation != "" {
		eligibility["occupation"] = s.Eligibility.Occupation
	}
	if s.Eligibility.Category != "" {
		eligibility["category"] = s.Eligibility.Category
	}
	if s.Eligibility.IsBPL != nil {
		eligibility["is_bpl"] = *s.Eligibility.IsBPL
	}
	if len(s.Eligibility.CustomCriteria) > 0 {
		criteria := make([]any, len(s.Eligibility.CustomCriteria))
		for i, c := range s.Eligibility.CustomCriteria {
			criteria[i] = c
		}
		eligibility["custom_criteria"] = criteria
	}

	return map[string]any{
		"scheme_id":           s.ID,
		"name":                s.Name,
		"description":         s.Description,
		"category":            string(s.Category),
		"ministry":            s.Ministry,
		"state":               state,
		"benefits":            s.Benefits,
		"eligibility":         eligibility,
		"application_process": s.ApplicationProcess,
		"helpline":            s.Helpline,
		"website":             s.Website,
		"popularity_score":    s.PopularityScore,
	}
}
