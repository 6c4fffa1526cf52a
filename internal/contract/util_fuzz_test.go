package contract

import (
	"testing"
	"time"
)

// FuzzParseDateOrRelative fuzzes date parsing with random inputs.
func FuzzParseDateOrRelative(f *testing.F) {
	seeds := []string{
		"2024-01-05",
		"today",
		"1 year ago",
		"2 months ago",
		"3 weeks ago",
		"0 days ago",
		"99999999999999999999 days ago",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(_ *testing.T, input string) {
		_, _ = ParseDateOrRelative(input, time.Now())
	})
}

// FuzzSplitList fuzzes comma-separated flag splitting.
func FuzzSplitList(f *testing.F) {
	for _, seed := range []string{"", "ABC", "ABC,XYZ", " , ,ABC,,ABC "} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, input string) {
		for _, part := range SplitList(input) {
			if part == "" {
				t.Fatalf("empty element from %q", input)
			}
		}
	})
}
