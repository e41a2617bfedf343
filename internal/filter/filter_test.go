package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestContainsWord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title, keyword string
		want           bool
	}{
		{"CEO", "ceo", true},
		{"CEO & Founder", "ceo", true},
		{"Founder/CEO", "ceo", true},
		{"Co-Founder", "founder", true},
		{"Head of HR (India)", "hr", true},
		{"VP, Sales", "vp", true},
		{"Vice President Sales", "vice president", true},
		{"CHRO", "hr", false},
		{"Directorate Officer", "director", false},
		{"Chief Executive", "executive chief", false},
		{"", "ceo", false},
		{"CEO", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsWord(tt.title, tt.keyword), "%q contains %q", tt.title, tt.keyword)
	}
}

func TestIsBlockedTitle(t *testing.T) {
	t.Parallel()

	blocked := []string{"Intern", "Marketing Intern", "Student", "Freelancer - Design", "Trainee Engineer", "Staff", "Team Member", "employee"}
	for _, title := range blocked {
		assert.True(t, IsBlockedTitle(title), title)
	}

	inflected := []string{"Interns Coordinator", "Internship Lead", "Students Ambassador", "Volunteers Manager", "Trainees Batch 2024", "Contractors", "Freelancers Network"}
	for _, title := range inflected {
		assert.True(t, IsBlockedTitle(title), title)
	}

	allowed := []string{"International Sales Manager", "Internal Audit Head", "Staff Engineer", "Member of Technical Staff", "CEO", "Board Member Relations Lead"}
	for _, title := range allowed {
		assert.False(t, IsBlockedTitle(title), title)
	}
}

func TestMatchesDesignation(t *testing.T) {
	t.Parallel()

	f := model.ParseDesignation("CEO, hr manager")
	assert.True(t, MatchesDesignation("CEO", f))
	assert.True(t, MatchesDesignation("Senior HR Manager", f))
	assert.False(t, MatchesDesignation("HR Director", f))
	assert.False(t, MatchesDesignation("CEOs Office Coordinator", f))
	assert.True(t, MatchesDesignation("anything", nil))
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.ContactTypeFounder, Categorize("Co-Founder & CEO"))
	assert.Equal(t, model.ContactTypeHR, Categorize("HR Business Partner"))
	assert.Equal(t, model.ContactTypeHR, Categorize("Talent Acquisition Lead"))
	assert.Equal(t, model.ContactTypeExecutive, Categorize("Director of Engineering"))
	assert.Equal(t, model.ContactTypeEmployee, Categorize("Software Engineer"))
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	in := []model.Contact{
		{Name: "Alice", Email: "Alice@Acme.com", Title: "CEO"},
		{Name: "Alice Smith", Email: "alice@acme.com", Title: "Founder"},
		{Name: "José Núñez", Title: "CTO"},
		{Name: "jose nunez", Title: "cto"},
		{Name: "José Núñez", Title: "CFO"},
	}
	out := Dedupe(in)
	require.Len(t, out, 3)
	assert.Equal(t, "CEO", out[0].Title)
	assert.Equal(t, "José Núñez", out[1].Name)
	assert.Equal(t, "CFO", out[2].Title)
}

func TestFinalize(t *testing.T) {
	t.Parallel()

	in := []model.Contact{
		{Name: "Alice", Email: "alice@acme.com", Title: "CEO"},
		{Name: "Bob", Email: "bob@acme.com", Title: "Marketing Intern"},
		{Name: "Cara", Email: "cara@acme.com", Title: ""},
		{Name: "Dan", Email: "dan@acme.com", Title: "CTO"},
		{Title: "CEO"},
		{Name: "Alice S", Email: "ALICE@acme.com", Title: "CEO"},
	}

	all := Finalize(in, nil)
	require.Len(t, all, 2)
	assert.Equal(t, "alice@acme.com", all[0].Email)
	assert.Equal(t, "dan@acme.com", all[1].Email)

	ceo := Finalize(in, model.ParseDesignation("ceo"))
	require.Len(t, ceo, 1)
	assert.Equal(t, "alice@acme.com", ceo[0].Email)
}

func TestFinalize_Idempotent(t *testing.T) {
	t.Parallel()

	in := []model.Contact{
		{Name: "Alice", Email: "alice@acme.com", Title: "CEO"},
		{Name: "Alice", Email: "alice@acme.com", Title: "CEO"},
		{Name: "Eve", Title: "HR Manager"},
		{Name: "Eve", Title: "HR Manager"},
		{Name: "Frank", Title: "Volunteer"},
	}
	f := model.ParseDesignation("ceo,hr")
	once := Finalize(in, f)
	twice := Finalize(once, f)
	assert.Equal(t, once, twice)
	assert.Len(t, once, 2)
}

func TestParseEmployeeCount(t *testing.T) {
	t.Parallel()

	ok := map[string]int{
		"50-100":  75,
		"500+":    500,
		"1,200":   1200,
		"250":     250,
		" 10-50 ": 30,
		"1000000": 1_000_000,
	}
	for raw, want := range ok {
		got, err := ParseEmployeeCount(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"abc", "", "0", "-5", "2000000", "10-x"} {
		_, err := ParseEmployeeCount(raw)
		assert.Error(t, err, raw)
	}
}

func TestEmployeeRangeFilter(t *testing.T) {
	t.Parallel()

	f, err := ParseEmployeeRanges("1-10, 500-1000")
	require.NoError(t, err)

	assert.True(t, f.Matches("7"))
	assert.True(t, f.Matches("600-800"))
	assert.False(t, f.Matches("120"))
	assert.False(t, f.Matches("abc"))
	assert.False(t, f.Matches(""))

	var empty EmployeeRangeFilter
	assert.True(t, empty.Matches("abc"))

	_, err = ParseEmployeeRanges("1-10,7-9")
	assert.Error(t, err)
}

func TestBuckets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"1-10", "10-50", "50-200", "200-500", "500-1000", "1000-5000", "5000+"}, EmployeeBuckets())

	_, err := ParseEmployeeRanges("7-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid: 1-10, 10-50")
}
