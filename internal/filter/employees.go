package filter

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// MaxEmployees is the largest headcount accepted as plausible.
const MaxEmployees = 1_000_000

type bucket struct {
	label    string
	min, max int // max < 0 means unbounded
}

var buckets = []bucket{
	{"1-10", 1, 10},
	{"10-50", 10, 50},
	{"50-200", 50, 200},
	{"200-500", 200, 500},
	{"500-1000", 500, 1000},
	{"1000-5000", 1000, 5000},
	{"5000+", 5000, -1},
}

// ParseEmployeeCount reduces a headcount string to one integer: "N" and
// "N+" yield N, "N-M" yields the midpoint. Results outside (0, 1,000,000]
// are rejected.
func ParseEmployeeCount(raw string) (int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, eris.New("filter: empty employee count")
	}

	var n int
	switch {
	case strings.HasSuffix(s, "+"):
		v, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
		if err != nil {
			return 0, eris.Wrapf(err, "filter: parse employee count %q", raw)
		}
		n = v
	case strings.Contains(s[1:], "-"):
		i := strings.Index(s[1:], "-") + 1
		lo, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, eris.Wrapf(err, "filter: parse employee count %q", raw)
		}
		hi, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, eris.Wrapf(err, "filter: parse employee count %q", raw)
		}
		n = (lo + hi) / 2
	default:
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, eris.Wrapf(err, "filter: parse employee count %q", raw)
		}
		n = v
	}

	if n <= 0 || n > MaxEmployees {
		return 0, eris.Errorf("filter: employee count %d out of range", n)
	}
	return n, nil
}

// EmployeeRangeFilter is a set of canonical bucket labels. A company matches
// when its headcount falls in any selected bucket.
type EmployeeRangeFilter []string

// ParseEmployeeRanges validates a comma-separated list of bucket labels.
func ParseEmployeeRanges(raw string) (EmployeeRangeFilter, error) {
	var f EmployeeRangeFilter
	for _, part := range strings.Split(raw, ",") {
		label := strings.ReplaceAll(strings.TrimSpace(part), " ", "")
		if label == "" {
			continue
		}
		if _, ok := findBucket(label); !ok {
			return nil, eris.Errorf("filter: unknown employee range %q (valid: %s)", label, strings.Join(EmployeeBuckets(), ", "))
		}
		f = append(f, label)
	}
	return f, nil
}

// Matches reports whether raw parses to a count inside any selected bucket.
// An empty filter admits everything, including unparsable counts.
func (f EmployeeRangeFilter) Matches(raw string) bool {
	if len(f) == 0 {
		return true
	}
	n, err := ParseEmployeeCount(raw)
	if err != nil {
		return false
	}
	for _, label := range f {
		b, ok := findBucket(label)
		if !ok {
			continue
		}
		if n >= b.min && (b.max < 0 || n <= b.max) {
			return true
		}
	}
	return false
}

// EmployeeBuckets returns the canonical range labels in ascending order.
func EmployeeBuckets() []string {
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.label
	}
	return labels
}

func findBucket(label string) (bucket, bool) {
	for _, b := range buckets {
		if b.label == label {
			return b, true
		}
	}
	return bucket{}, false
}
