// Package discovery finds candidate companies by industry and location via
// Google Places text search and qualifies them as inputs to contact discovery.
package discovery

import (
	"github.com/sells-group/leadgen-cli/internal/model"
)

// SourcePlaces marks candidates found through Places text search.
const SourcePlaces = "places"

// Candidate is a company found by search that may seed contact discovery.
type Candidate struct {
	PlaceID string  `json:"place_id,omitempty" yaml:"place_id,omitempty"`
	Name    string  `json:"name" yaml:"name"`
	Website string  `json:"website,omitempty" yaml:"website,omitempty"`
	Domain  string  `json:"domain,omitempty" yaml:"domain,omitempty"`
	Address string  `json:"address,omitempty" yaml:"address,omitempty"`
	City    string  `json:"city,omitempty" yaml:"city,omitempty"`
	State   string  `json:"state,omitempty" yaml:"state,omitempty"`
	ZipCode string  `json:"zip_code,omitempty" yaml:"zip_code,omitempty"`
	Phone   string  `json:"phone,omitempty" yaml:"phone,omitempty"`
	Rating  float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Reviews int     `json:"reviews,omitempty" yaml:"reviews,omitempty"`
	Source  string  `json:"source" yaml:"source"`
}

// ToCompany converts the candidate into a company reference for enrichment.
func (c Candidate) ToCompany() model.CompanyRef {
	return model.CompanyRef{
		Name:       c.Name,
		Website:    c.Website,
		ExternalID: c.PlaceID,
		Address:    c.Address,
	}
}

// Query describes one discovery search.
type Query struct {
	Industry string `json:"industry"`
	Location string `json:"location"`
	// Max caps the number of qualified candidates returned. Zero means no cap.
	Max int `json:"max,omitempty"`
}

// Result holds the qualified candidates and the cost of finding them.
type Result struct {
	Candidates   []Candidate    `json:"candidates"`
	Disqualified map[string]int `json:"disqualified"`
	APICalls     int            `json:"api_calls"`
	CostUSD      float64        `json:"cost_usd"`
}
