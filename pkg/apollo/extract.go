package apollo

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Record is a loosely-typed provider object. The provider returns the same
// logical field under different keys depending on endpoint and plan, so
// fields are read through extraction chains instead of fixed struct tags.
type Record map[string]any

// Str returns the value at key rendered as a trimmed string, or "".
func (r Record) Str(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Obj returns the nested object at key, or nil.
func (r Record) Obj(key string) Record {
	if m, ok := r[key].(map[string]any); ok {
		return Record(m)
	}
	return nil
}

// List returns the objects in the array at key, skipping non-objects.
func (r Record) List(key string) []Record {
	arr, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// Extractor reads one candidate value for a logical field.
type Extractor func(Record) string

// FirstOf runs extractors in order and returns the first non-empty value.
func FirstOf(r Record, chain ...Extractor) string {
	if r == nil {
		return ""
	}
	for _, ex := range chain {
		if v := ex(r); v != "" {
			return v
		}
	}
	return ""
}

// Key extracts a top-level field.
func Key(k string) Extractor {
	return func(r Record) string { return r.Str(k) }
}

// Keys builds one Key extractor per name.
func Keys(names ...string) []Extractor {
	out := make([]Extractor, len(names))
	for i, n := range names {
		out[i] = Key(n)
	}
	return out
}

// Nested applies chain to the object at key.
func Nested(key string, chain ...Extractor) Extractor {
	return func(r Record) string { return FirstOf(r.Obj(key), chain...) }
}

var phoneNumberKeys = Keys("raw_number", "sanitized_number", "number", "phone")

var preferredPhoneTypes = map[string]bool{"mobile": true, "direct": true, "work": true}

// listedPhone picks from phone_numbers[], preferring mobile, direct and work
// lines over any other type.
func listedPhone(r Record) string {
	phones := r.List("phone_numbers")
	for _, p := range phones {
		if preferredPhoneTypes[strings.ToLower(p.Str("type"))] {
			if v := FirstOf(p, phoneNumberKeys...); v != "" {
				return v
			}
		}
	}
	for _, p := range phones {
		if v := FirstOf(p, phoneNumberKeys...); v != "" {
			return v
		}
	}
	return ""
}

func organizationPhone(r Record) string {
	org := r.Obj("organization")
	if org == nil {
		return ""
	}
	if phones := org.List("phone_numbers"); len(phones) > 0 {
		if v := FirstOf(phones[0], phoneNumberKeys[:3]...); v != "" {
			return v
		}
	}
	return FirstOf(org, Keys("phone", "sanitized_phone")...)
}

// PhoneChain extracts a person's phone number.
var PhoneChain = append(append([]Extractor{listedPhone},
	Keys("phone_number", "phone", "mobile", "direct_phone")...),
	organizationPhone)

// EmployeeCountChain extracts an organization's headcount, exact figures
// before ranges.
var EmployeeCountChain = Keys(
	"estimated_num_employees",
	"num_employees",
	"employee_count",
	"employees",
	"organization_num_employees",
	"employees_count",
	"estimated_num_employees_range",
	"num_employees_range",
	"employee_range",
)

// LastNameChain extracts a last name; search results often carry only the
// obfuscated form.
var LastNameChain = Keys("last_name", "last_name_obfuscated")

// OrgDomainChain extracts an organization's bare domain.
var OrgDomainChain = []Extractor{
	Key("primary_domain"),
	Key("domain"),
	func(r Record) string { return model.NormalizeDomain(r.Str("website_url")) },
}

// NormalizePhone formats raw as E.164 using region as the default country.
// Unparsable or invalid numbers are returned unchanged.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
