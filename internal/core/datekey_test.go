package core

import (
	"errors"
	"testing"
	"time"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		t    time.Time
		want DateKey
	}{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "240301"},
		{time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), "241231"},
		{time.Date(2009, 1, 5, 12, 0, 0, 0, time.UTC), "090105"},
	}
	for _, tc := range cases {
		if got := Encode(tc.t); got != tc.want {
			t.Fatalf("Encode(%v) = %q, want %q", tc.t, got, tc.want)
		}
	}
}

func TestEncodeUsesLocalFields(t *testing.T) {
	loc := time.FixedZone("UTC+13", 13*60*60)
	// 2024-03-01 05:00 at +13 is still Feb 29 in UTC.
	d := time.Date(2024, 3, 1, 5, 0, 0, 0, loc)
	if got := Encode(d); got != "240301" {
		t.Fatalf("expected 240301, got %q", got)
	}
}

func TestDecode(t *testing.T) {
	y, m, d, err := DateKey("240229").Decode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if y != 2024 || m != 2 || d != 29 {
		t.Fatalf("got %d-%d-%d", y, m, d)
	}

	bads := []string{"", "2403", "2403011", "24-301", "abcdef", "241301", "240001", "240230", "230229", "240300"}
	for _, s := range bads {
		if _, _, _, err := DateKey(s).Decode(); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("%q expected ErrInvalidKey, got %v", s, err)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)
	for ; !day.After(end); day = day.AddDate(0, 0, 1) {
		k := Encode(day)
		y, m, d, err := k.Decode()
		if err != nil {
			t.Fatalf("%q: %v", k, err)
		}
		if got := EncodeDate(y, m, d); got != k {
			t.Fatalf("round trip %q -> %q", k, got)
		}
	}
}

func TestParseKey(t *testing.T) {
	if k, err := ParseKey("240406"); err != nil || k != "240406" {
		t.Fatalf("unexpected: %q %v", k, err)
	}
	if _, err := ParseKey("2404"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestDisplayLong(t *testing.T) {
	cases := map[DateKey]string{
		"240301": "Mar 1, 2024",
		"241225": "Dec 25, 2024",
		"000101": "Jan 1, 2000",
	}
	for k, want := range cases {
		got, err := k.DisplayLong()
		if err != nil || got != want {
			t.Fatalf("%q: got %q (err=%v), want %q", k, got, err, want)
		}
	}
	if _, err := DateKey("x").DisplayLong(); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}
