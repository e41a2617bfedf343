// Package enrich discovers contact stubs for a company, enriches them with
// revealed emails and validates that they belong to the target company.
package enrich

import (
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ValidateMatch compares an email's domain with the target company domain.
// Either domain containing the other counts as a match, so subdomains and
// regional hosts verify. An empty email has no evidence and is unverified.
func ValidateMatch(email, targetDomain string) model.Verdict {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if email == "" || at < 0 || at == len(email)-1 {
		return model.VerdictUnverified
	}
	got := model.NormalizeDomain(email[at+1:])
	want := model.NormalizeDomain(targetDomain)
	if got == "" || want == "" {
		return model.VerdictUnverified
	}
	if strings.Contains(got, want) || strings.Contains(want, got) {
		return model.VerdictVerified
	}
	return model.VerdictUnverified
}

// ValidateContact returns the verdict for an enriched contact. Contacts with
// no email, phone or name are rejected.
func ValidateContact(c model.Contact, targetDomain string) model.Verdict {
	if !c.HasIdentity() {
		return model.VerdictRejected
	}
	return ValidateMatch(c.Email, targetDomain)
}
