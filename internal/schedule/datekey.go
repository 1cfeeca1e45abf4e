// Package schedule decides which tasks and habits are due on a calendar date
// and what their status is there. Everything here is pure.
package schedule

import "time"

// DateKeyLayout is the canonical date key format used for every comparison.
const DateKeyLayout = "2006-01-02"

// NormalizeDateKey truncates any time component from key.
func NormalizeDateKey(key string) string {
	if len(key) > len(DateKeyLayout) {
		return key[:len(DateKeyLayout)]
	}
	return key
}

// DateKey returns the UTC calendar date of t.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// ParseDateKey parses key as a UTC midnight.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse(DateKeyLayout, NormalizeDateKey(key))
}

// AddDays shifts key by n calendar days. Invalid keys are returned unchanged.
func AddDays(key string, n int) string {
	t, err := ParseDateKey(key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, n).Format(DateKeyLayout)
}

// Weekday returns the UTC day of week of key.
func Weekday(key string) (time.Weekday, bool) {
	t, err := ParseDateKey(key)
	if err != nil {
		return 0, false
	}
	return t.Weekday(), true
}
