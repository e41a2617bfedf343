package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompanyRefValidate(t *testing.T) {
	assert.NoError(t, CompanyRef{Name: "Acme"}.Validate())

	err := CompanyRef{Name: "   ", Website: "acme.in"}.Validate()
	assert.EqualError(t, err, "company: name is required")
}

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"acme.in", "acme.in"},
		{"https://www.Acme.in/about?x=1#team", "acme.in"},
		{"http://acme.co.in:8080", "acme.co.in"},
		{"WWW.ACME.IN.", "acme.in"},
		{"  acme.in/contact  ", "acme.in"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeDomain(tt.in))
		})
	}
}

func TestCompanyRefKey(t *testing.T) {
	a := CompanyRef{Name: " Acme Consulting ", Website: "https://www.acme.in/"}
	b := CompanyRef{Name: "acme consulting", Website: "acme.in"}

	assert.Equal(t, "acme consulting|acme.in", a.Key())
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "acme consulting|", CompanyRef{Name: "Acme Consulting"}.Key())
}

func TestParseDesignation(t *testing.T) {
	f := ParseDesignation(" Founder, HR ,,founder,CEO ")
	assert.Equal(t, DesignationFilter{"founder", "hr", "ceo"}, f)
	assert.Equal(t, "founder,hr,ceo", f.String())
	assert.False(t, f.Empty())

	assert.True(t, ParseDesignation("").Empty())
	assert.True(t, ParseDesignation(" , ").Empty())
}

func TestSplitAndFullName(t *testing.T) {
	first, last := SplitName("  Asha   Devi Rao ")
	assert.Equal(t, "Asha", first)
	assert.Equal(t, "Devi Rao", last)

	first, last = SplitName("")
	assert.Empty(t, first)
	assert.Empty(t, last)

	assert.Equal(t, "Asha Rao", FullName(" Asha ", "Rao"))
	assert.Equal(t, "Asha", FullName("Asha", ""))
}

func TestContactHasIdentity(t *testing.T) {
	assert.True(t, Contact{Email: "a@acme.in"}.HasIdentity())
	assert.True(t, Contact{Phone: "+919876543210"}.HasIdentity())
	assert.True(t, Contact{Name: "Asha"}.HasIdentity())
	assert.False(t, Contact{Title: "Founder", Name: "  "}.HasIdentity())
}

func TestContactFromStub(t *testing.T) {
	c := ContactFromStub(ContactStub{
		ProviderID: "p1",
		Name:       "Asha Rao",
		FirstName:  "Asha",
		Title:      "Founder",
		Source:     StrategyFreeDomain,
	})
	assert.Equal(t, "p1", c.ProviderID)
	assert.Equal(t, "Asha Rao", c.Name)
	assert.Equal(t, "Founder", c.Title)
	assert.Equal(t, StrategyFreeDomain, c.Source)
	assert.Empty(t, c.Email)
}
