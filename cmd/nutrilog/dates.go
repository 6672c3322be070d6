package main

import (
	"fmt"
	"strings"
	"time"

	"nutrilog/internal/core"
)

// parseDay resolves a --date value or day argument to a key.
func parseDay(s string, now time.Time) (core.DateKey, error) {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "", "today":
		return core.Encode(now), nil
	case "yesterday":
		return core.Encode(now.AddDate(0, 0, -1)), nil
	case "tomorrow":
		return core.Encode(now.AddDate(0, 0, 1)), nil
	}
	if len(s) == 6 {
		return core.ParseKey(s)
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not YYMMDD or YYYY-MM-DD", core.ErrInvalidKey, s)
	}
	return core.Encode(t), nil
}

// parseMonth reads YYYY-MM. An empty value is the month of now.
func parseMonth(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q must be YYYY-MM", s)
	}
	if t.Year() < 2000 || t.Year() > 2099 {
		return time.Time{}, fmt.Errorf("month %q is outside 2000-2099", s)
	}
	return t, nil
}
