package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// fold lowercases s, strips diacritics and collapses whitespace.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// DedupeKey identifies a contact: lowercase email when present, otherwise
// the folded (name, title) pair.
func DedupeKey(c model.Contact) string {
	if email := strings.ToLower(strings.TrimSpace(c.Email)); email != "" {
		return "e:" + email
	}
	return "n:" + fold(c.Name) + "|" + fold(c.Title)
}

// Dedupe drops later duplicates, keeping the first occurrence.
func Dedupe(contacts []model.Contact) []model.Contact {
	seen := make(map[string]bool, len(contacts))
	out := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		k := DedupeKey(c)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// Finalize applies title rules, the designation filter and deduplication.
// Contacts with an empty title or no identifying signal are dropped.
// Finalize is idempotent.
func Finalize(contacts []model.Contact, f model.DesignationFilter) []model.Contact {
	kept := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if strings.TrimSpace(c.Title) == "" || IsBlockedTitle(c.Title) {
			continue
		}
		if !c.HasIdentity() {
			continue
		}
		if !MatchesDesignation(c.Title, f) {
			continue
		}
		kept = append(kept, c)
	}
	return Dedupe(kept)
}
