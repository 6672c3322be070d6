package core

import (
	"testing"
	"time"
)

func TestNewGridMarch2024(t *testing.T) {
	g := NewGrid(time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC))
	if len(g.Keys) != 42 {
		t.Fatalf("expected 42 keys, got %d", len(g.Keys))
	}
	if g.Keys[0] != "240225" {
		t.Fatalf("expected first key 240225, got %q", g.Keys[0])
	}
	if last := g.Keys[len(g.Keys)-1]; last != "240406" {
		t.Fatalf("expected last key 240406, got %q", last)
	}
	if g.Year != 2024 || g.Month != time.March {
		t.Fatalf("unexpected grid month %d-%d", g.Year, g.Month)
	}
}

func TestNewGridInvariants(t *testing.T) {
	for year := 1999; year <= 2031; year++ {
		for month := time.January; month <= time.December; month++ {
			g := NewGrid(time.Date(year, month, 15, 0, 0, 0, 0, time.UTC))
			checkGrid(t, g, year, month)
		}
	}
}

func checkGrid(t *testing.T, g Grid, year int, month time.Month) {
	t.Helper()
	if len(g.Keys)%7 != 0 || len(g.Keys) == 0 {
		t.Fatalf("%d-%02d: length %d not a multiple of 7", year, month, len(g.Keys))
	}
	first, err := g.Keys[0].Time()
	if err != nil {
		t.Fatalf("%d-%02d: %v", year, month, err)
	}
	if first.Weekday() != time.Sunday {
		t.Fatalf("%d-%02d: first day %s is %s", year, month, g.Keys[0], first.Weekday())
	}
	last, _ := g.Keys[len(g.Keys)-1].Time()
	if last.Weekday() != time.Saturday {
		t.Fatalf("%d-%02d: last day %s is %s", year, month, g.Keys[len(g.Keys)-1], last.Weekday())
	}

	seen := map[DateKey]int{}
	for i, k := range g.Keys {
		seen[k]++
		if i > 0 {
			prev, _ := g.Keys[i-1].Time()
			cur, _ := k.Time()
			if !cur.Equal(prev.AddDate(0, 0, 1)) {
				t.Fatalf("%d-%02d: %s does not follow %s", year, month, k, g.Keys[i-1])
			}
		}
	}
	for d := 1; d <= daysIn(year, month); d++ {
		k := EncodeDate(year, int(month), d)
		if seen[k] != 1 {
			t.Fatalf("%d-%02d: day %s appears %d times", year, month, k, seen[k])
		}
	}
}

func TestNewGridMonthStartingOnSunday(t *testing.T) {
	// September 2024 starts on a Sunday and ends on a Monday.
	g := NewGrid(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	if g.Keys[0] != "240901" {
		t.Fatalf("expected grid to start on the 1st, got %q", g.Keys[0])
	}
	if last := g.Keys[len(g.Keys)-1]; last != "241005" {
		t.Fatalf("expected last key 241005, got %q", last)
	}
}

func TestNewGridFebruary2015(t *testing.T) {
	// February 2015 fits exactly in four rows.
	g := NewGrid(time.Date(2015, 2, 10, 0, 0, 0, 0, time.UTC))
	if len(g.Keys) != 28 || g.Keys[0] != "150201" || g.Keys[27] != "150228" {
		t.Fatalf("unexpected grid: len=%d first=%s", len(g.Keys), g.Keys[0])
	}
}

func TestNewGridYearBoundary(t *testing.T) {
	g := NewGrid(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if g.Keys[0] != "241229" {
		t.Fatalf("expected grid to start in December 2024, got %q", g.Keys[0])
	}
	dec := NewGrid(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	if last := dec.Keys[len(dec.Keys)-1]; last != "250104" {
		t.Fatalf("expected December grid to end 250104, got %q", last)
	}
}

func TestNewGridAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	for _, month := range []time.Month{time.March, time.November} {
		d := time.Date(2024, month, 10, 23, 30, 0, 0, loc)
		checkGrid(t, NewGrid(d), 2024, month)
	}
}

func TestGridShiftAndWeeks(t *testing.T) {
	g := NewGrid(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	prev := g.Shift(-1)
	if prev.Year != 2023 || prev.Month != time.December {
		t.Fatalf("expected December 2023, got %d-%d", prev.Year, prev.Month)
	}
	next := g.Shift(12)
	if next.Year != 2025 || next.Month != time.January {
		t.Fatalf("expected January 2025, got %d-%d", next.Year, next.Month)
	}

	weeks := g.Weeks()
	if len(weeks)*7 != len(g.Keys) {
		t.Fatalf("weeks do not cover the grid")
	}
	for _, w := range weeks {
		if len(w) != 7 {
			t.Fatalf("week of length %d", len(w))
		}
	}
}

func TestGridContainsAndInMonth(t *testing.T) {
	g := NewGrid(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if !g.Contains("240225") || !g.Contains("240406") || !g.Contains("240315") {
		t.Fatalf("expected grid to contain its edges")
	}
	if g.Contains("240224") || g.Contains("240407") || g.Contains("bogus!") {
		t.Fatalf("expected keys outside the grid to be rejected")
	}
	if g.InMonth("240225") || !g.InMonth("240331") {
		t.Fatalf("InMonth mismatch")
	}
	if len(g.Set()) != len(g.Keys) {
		t.Fatalf("set size mismatch")
	}
}
