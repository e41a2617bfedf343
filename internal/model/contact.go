package model

import "strings"

// Verdict is the confidence that a contact belongs to the target company.
type Verdict string

const (
	VerdictVerified   Verdict = "verified"
	VerdictUnverified Verdict = "unverified"
	VerdictRejected   Verdict = "rejected"
)

// ContactType is a coarse role bucket used for downstream segmentation.
type ContactType string

const (
	ContactTypeFounder   ContactType = "Founder/Owner"
	ContactTypeHR        ContactType = "HR"
	ContactTypeExecutive ContactType = "Executive"
	ContactTypeEmployee  ContactType = "Employee"
)

// ContactStub is a person found by search that has not been enriched yet.
type ContactStub struct {
	ProviderID         string `json:"provider_id"`
	Name               string `json:"name"`
	FirstName          string `json:"first_name,omitempty"`
	LastName           string `json:"last_name,omitempty"`
	Title              string `json:"title"`
	LinkedInURL        string `json:"linkedin_url,omitempty"`
	OrganizationDomain string `json:"organization_domain,omitempty"`
	OrganizationID     string `json:"organization_id,omitempty"`
	Source             string `json:"source"`
}

// Contact is an enriched person at a company.
type Contact struct {
	Name        string      `json:"name"`
	FirstName   string      `json:"first_name,omitempty"`
	LastName    string      `json:"last_name,omitempty"`
	Email       string      `json:"email,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Title       string      `json:"title"`
	LinkedInURL string      `json:"linkedin_url,omitempty"`
	Source      string      `json:"source"`
	ProviderID  string      `json:"provider_id,omitempty"`
	Verdict     Verdict     `json:"verdict,omitempty"`
	ContactType ContactType `json:"contact_type,omitempty"`
}

// HasIdentity reports whether the contact carries any identifying signal.
func (c Contact) HasIdentity() bool {
	return strings.TrimSpace(c.Email) != "" ||
		strings.TrimSpace(c.Phone) != "" ||
		strings.TrimSpace(c.Name) != ""
}

// ContactFromStub builds an unenriched contact from a search stub.
func ContactFromStub(s ContactStub) Contact {
	return Contact{
		Name:        s.Name,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Title:       s.Title,
		LinkedInURL: s.LinkedInURL,
		Source:      s.Source,
		ProviderID:  s.ProviderID,
	}
}

// FullName joins first and last names, trimming empty parts.
func FullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// SplitName splits a display name into first name and the remainder.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
