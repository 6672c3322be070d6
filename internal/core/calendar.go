package core

import "time"

// Grid is the Sunday-aligned sequence of day keys covering one month,
// laid out in rows of seven.
type Grid struct {
	Year  int
	Month time.Month
	Keys  []DateKey
}

// NewGrid synthesizes the calendar grid for the month containing d.
// Only d's year and month are significant.
//
// The grid starts on the Sunday on or before the 1st and keeps adding whole
// weeks while the week's first day still falls in the target month, so it
// always ends on a Saturday on or after the last day of the month.
func NewGrid(d time.Time) Grid {
	year, month, _ := d.Date()

	// Stepping happens on UTC midnights so there are no DST hour shifts
	// that could repeat or skip a calendar day.
	cursor := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	cursor = cursor.AddDate(0, 0, -int(cursor.Weekday()))

	g := Grid{Year: year, Month: month, Keys: make([]DateKey, 0, 42)}
	for {
		for i := 0; i < 7; i++ {
			g.Keys = append(g.Keys, Encode(cursor))
			cursor = cursor.AddDate(0, 0, 1)
		}
		if cursor.Month() != month {
			break
		}
	}
	return g
}

// Shift returns the grid delta months away from g.
func (g Grid) Shift(delta int) Grid {
	return NewGrid(time.Date(g.Year, g.Month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC))
}

// Weeks splits the grid into rows of seven keys.
func (g Grid) Weeks() [][]DateKey {
	weeks := make([][]DateKey, 0, len(g.Keys)/7)
	for i := 0; i+7 <= len(g.Keys); i += 7 {
		weeks = append(weeks, g.Keys[i:i+7])
	}
	return weeks
}

// Contains reports whether key is one of the grid's cells.
func (g Grid) Contains(key DateKey) bool {
	if len(g.Keys) == 0 {
		return false
	}
	// Keys are sorted chronologically, so a range check is enough.
	return key >= g.Keys[0] && key <= g.Keys[len(g.Keys)-1] && key.Valid()
}

// InMonth reports whether key belongs to the grid's target month rather than
// the leading or trailing days of the neighbouring months.
func (g Grid) InMonth(key DateKey) bool {
	year, month, _, err := key.Decode()
	return err == nil && year%100 == g.Year%100 && time.Month(month) == g.Month
}

// Set returns the grid keys as a set.
func (g Grid) Set() map[DateKey]struct{} {
	set := make(map[DateKey]struct{}, len(g.Keys))
	for _, k := range g.Keys {
		set[k] = struct{}{}
	}
	return set
}
