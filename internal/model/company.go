package model

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// CompanyRef identifies a company to discover contacts for.
type CompanyRef struct {
	Name       string `json:"name" yaml:"name"`
	Website    string `json:"website,omitempty" yaml:"website"`
	ExternalID string `json:"external_id,omitempty" yaml:"external_id"`
	Address    string `json:"address,omitempty" yaml:"address"`
}

// Validate checks the invariants required before discovery.
func (c CompanyRef) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return eris.New("company: name is required")
	}
	return nil
}

// Domain returns the normalized bare domain of the company website, or "".
func (c CompanyRef) Domain() string {
	return NormalizeDomain(c.Website)
}

// Key returns the cache identity for the company: lowercase name and bare domain.
func (c CompanyRef) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Name)) + "|" + c.Domain()
}

// NormalizeDomain strips scheme, www prefix, port, path, query and fragment
// from a website and lowercases the result.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(raw)
	if d == "" {
		return ""
	}
	if !strings.Contains(d, "://") {
		d = "http://" + d
	}
	u, err := url.Parse(d)
	host := ""
	if err == nil {
		host = u.Hostname()
	}
	if host == "" {
		// Fall back to manual trimming for inputs url.Parse rejects.
		host = strings.TrimSpace(raw)
		host = strings.TrimPrefix(host, "https://")
		host = strings.TrimPrefix(host, "http://")
		if i := strings.IndexAny(host, "/?#:"); i >= 0 {
			host = host[:i]
		}
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return strings.TrimPrefix(host, "www.")
}

// CompanyMetrics summarizes headcount signals recorded alongside a company's contacts.
type CompanyMetrics struct {
	TotalEmployees         string `json:"total_employees"`
	ActiveMembers          int    `json:"active_members"`
	ActiveMembersWithEmail int    `json:"active_members_with_email"`
}
