package model

import "strings"

// DesignationFilter is an ordered allow-list of lowercase title keywords.
// An empty filter places no restriction on titles.
type DesignationFilter []string

// ParseDesignation splits a comma-separated designation string into a filter.
func ParseDesignation(raw string) DesignationFilter {
	return NewDesignationFilter(strings.Split(raw, ",")...)
}

// NewDesignationFilter normalizes keywords: trimmed, lowercased, empty and
// duplicate entries dropped, first occurrence order kept.
func NewDesignationFilter(keywords ...string) DesignationFilter {
	var f DesignationFilter
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		f = append(f, k)
	}
	return f
}

// Empty reports whether the filter places no restriction.
func (f DesignationFilter) Empty() bool {
	return len(f) == 0
}

// String renders the filter back to its comma-separated form.
func (f DesignationFilter) String() string {
	return strings.Join(f, ",")
}

// Strategy names reported in EnrichmentResult.StrategyUsed.
const (
	StrategyCache        = "Cache"
	StrategyFreeDomain   = "FreeDomainSearch"
	StrategyPaidDomain   = "PaidDomainSearch"
	StrategyCompanyName  = "CompanyNameSearch"
	StrategyOrganization = "OrganizationIdSearch"
	StrategyNone         = "None"
)

// EnrichmentResult is the outcome of discovering and enriching one company.
type EnrichmentResult struct {
	Company      CompanyRef     `json:"company"`
	Contacts     []Contact      `json:"contacts"`
	StrategyUsed string         `json:"strategy_used"`
	CreditsSpent int            `json:"credits_spent"`
	FreeCalls    int            `json:"free_calls"`
	PaidCalls    int            `json:"paid_calls"`
	CacheHit     bool           `json:"cache_hit"`
	Stubs        int            `json:"stubs"`
	Failed       int            `json:"failed"`
	Truncated    bool           `json:"truncated"`
	// OutOfRange marks a company skipped because its headcount fell outside
	// the requested employee ranges. No people search was made.
	OutOfRange bool           `json:"out_of_range,omitempty"`
	Metrics    CompanyMetrics `json:"metrics"`
}
