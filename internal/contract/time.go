package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/tranche/schema"
)

// relativeDateRe captures "N [units] ago", e.g. "2 weeks ago" or "1 month ago".
var relativeDateRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day)s?\s+ago$`)

// ParseDateOrRelative accepts YYYY-MM-DD, "today", or a relative date like "3 weeks ago",
// and returns the matching day at midnight UTC.
func ParseDateOrRelative(s string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(strings.ToLower(s))
	if trimmed == "today" {
		return schema.Day(now), nil
	}
	if matches := relativeDateRe.FindStringSubmatch(trimmed); len(matches) > 0 {
		return parseRelativeDate(matches, now)
	}
	return schema.ParseDate(s)
}

func parseRelativeDate(matches []string, now time.Time) (time.Time, error) {
	// 1: Value (e.g., "2")
	// 2: Unit (e.g., "week")
	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid relative date value: %s", matches[1])
	}
	day := schema.Day(now)
	switch matches[2] {
	case "year":
		return day.AddDate(-value, 0, 0), nil
	case "month":
		return day.AddDate(0, -value, 0), nil
	case "week":
		return day.AddDate(0, 0, -value*schema.DaysPerWeek), nil
	case "day":
		return day.AddDate(0, 0, -value), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported time unit: %s", matches[2])
	}
}
