package apollo

// Person is a provider person record with its variant fields resolved.
type Person struct {
	ID                 string `json:"id"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Name               string `json:"name"`
	Title              string `json:"title"`
	Email              string `json:"email"`
	EmailStatus        string `json:"email_status,omitempty"`
	Phone              string `json:"phone,omitempty"`
	LinkedInURL        string `json:"linkedin_url,omitempty"`
	OrganizationID     string `json:"organization_id,omitempty"`
	OrganizationName   string `json:"organization_name,omitempty"`
	OrganizationDomain string `json:"organization_domain,omitempty"`
}

// Organization is a provider organization record.
type Organization struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Domain        string `json:"domain"`
	WebsiteURL    string `json:"website_url,omitempty"`
	EmployeeCount string `json:"employee_count,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

// PeopleQuery filters a people search. At least one of Domains or
// OrganizationIDs should be set.
type PeopleQuery struct {
	Domains         []string
	OrganizationIDs []string
	Titles          []string
	Seniorities     []string
	Page            int
	PerPage         int
}

// OrganizationQuery filters an organization search by name or domain.
type OrganizationQuery struct {
	Name   string
	Domain string
}

// ContactInput is the payload for creating an outreach contact.
type ContactInput struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	Title            string `json:"title,omitempty"`
	LinkedInURL      string `json:"linkedin_url,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
}

func parsePerson(r Record, region string) Person {
	org := r.Obj("organization")
	p := Person{
		ID:               r.Str("id"),
		FirstName:        r.Str("first_name"),
		LastName:         FirstOf(r, LastNameChain...),
		Title:            r.Str("title"),
		Email:            r.Str("email"),
		EmailStatus:      r.Str("email_status"),
		LinkedInURL:      r.Str("linkedin_url"),
		OrganizationID:   FirstOf(r, Key("organization_id"), Nested("organization", Key("id"))),
		OrganizationName: FirstOf(org, Key("name")),
	}
	p.OrganizationDomain = FirstOf(org, OrgDomainChain...)
	p.Name = FirstOf(r, Key("name"))
	if p.Name == "" {
		p.Name = joinName(p.FirstName, p.LastName)
	}
	p.Phone = NormalizePhone(FirstOf(r, PhoneChain...), region)
	return p
}

func parseOrganization(r Record, region string) Organization {
	return Organization{
		ID:            r.Str("id"),
		Name:          r.Str("name"),
		Domain:        FirstOf(r, OrgDomainChain...),
		WebsiteURL:    r.Str("website_url"),
		EmployeeCount: FirstOf(r, EmployeeCountChain...),
		Phone: NormalizePhone(FirstOf(r,
			Nested("primary_phone", Keys("sanitized_number", "number")...),
			Key("phone"),
			Key("sanitized_phone"),
		), region),
	}
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

type peopleEnvelope struct {
	People   []Record `json:"people"`
	Contacts []Record `json:"contacts"`
}

type personEnvelope struct {
	Person Record `json:"person"`
}

type organizationsEnvelope struct {
	Organizations []Record `json:"organizations"`
	Accounts      []Record `json:"accounts"`
}

type idEnvelope struct {
	ID          string `json:"id"`
	Contact     Record `json:"contact"`
	Person      Record `json:"person"`
	ContactList Record `json:"contact_list"`
}
