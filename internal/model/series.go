package model

import (
	"regexp"
	"strconv"
)

// Point is a single fiscal-year observation within a series.
type Point struct {
	Year  string  `json:"year"`
	Value float64 `json:"value"`
}

// Series is an ordered multi-year metric series. The chronological invariant
// is oldest → newest; adapters are responsible for feeding values through Set,
// which keeps the order regardless of the provider's native direction.
// Fiscal-year labels are strings ("2024", "Mar 2024") and are ordered by the
// embedded 4-digit year, falling back to lexical order when none is present.
type Series []Point

var yearPattern = regexp.MustCompile(`\d{4}`)

// yearRank extracts a sortable rank from a fiscal-year label
func yearRank(label string) (int, bool) {
	match := yearPattern.FindString(label)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// yearLess orders two fiscal-year labels chronologically
func yearLess(a, b string) bool {
	ra, okA := yearRank(a)
	rb, okB := yearRank(b)
	if okA && okB && ra != rb {
		return ra < rb
	}
	return a < b
}

// Set inserts or replaces the value for a fiscal year, keeping the series
// sorted oldest → newest
func (s *Series) Set(year string, value float64) {
	for i := range *s {
		if (*s)[i].Year == year {
			(*s)[i].Value = value
			return
		}
	}

	point := Point{Year: year, Value: value}
	for i := range *s {
		if yearLess(year, (*s)[i].Year) {
			*s = append(*s, Point{})
			copy((*s)[i+1:], (*s)[i:])
			(*s)[i] = point
			return
		}
	}
	*s = append(*s, point)
}

// Get returns the value for a fiscal year
func (s Series) Get(year string) (float64, bool) {
	for _, p := range s {
		if p.Year == year {
			return p.Value, true
		}
	}
	return 0, false
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s)
}

// IsEmpty reports whether the series has no observations
func (s Series) IsEmpty() bool {
	return len(s) == 0
}

// Values returns the values in chronological order, oldest first
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Years returns the fiscal-year labels in chronological order
func (s Series) Years() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Year
	}
	return out
}

// Oldest returns the first (earliest) observation
func (s Series) Oldest() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[0], true
}

// Latest returns the last (most recent) observation
func (s Series) Latest() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// TrimToLast keeps only the n most recent observations
func (s *Series) TrimToLast(n int) {
	if n >= 0 && len(*s) > n {
		*s = (*s)[len(*s)-n:]
	}
}

// Map returns the series as a year → value map for serialization-friendly output
func (s Series) Map() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, p := range s {
		out[p.Year] = p.Value
	}
	return out
}
