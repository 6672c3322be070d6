package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidKey is returned when a string is not a well-formed YYMMDD date key.
var ErrInvalidKey = errors.New("invalid date key")

// DateKey identifies a calendar day as a compact YYMMDD string.
// Lexicographic order equals chronological order within one century.
type DateKey string

// displayLayout renders keys as "Mar 1, 2024".
const displayLayout = "Jan 2, 2006"

// Encode returns the key for the calendar date of t, using t's own
// year/month/day fields (no timezone conversion).
func Encode(t time.Time) DateKey {
	year, month, day := t.Date()
	return DateKey(fmt.Sprintf("%02d%02d%02d", year%100, int(month), day))
}

// EncodeDate returns the key for a year/month/day triple.
func EncodeDate(year, month, day int) DateKey {
	return DateKey(fmt.Sprintf("%02d%02d%02d", year%100, month, day))
}

// ParseKey validates s and returns it as a DateKey.
func ParseKey(s string) (DateKey, error) {
	k := DateKey(s)
	if _, _, _, err := k.Decode(); err != nil {
		return "", err
	}
	return k, nil
}

// Decode splits the key into a 4-digit year (prefixed with 20), a 1-based
// month and a day. Keys that are not exactly six digits, or that name a
// day that does not exist, fail with ErrInvalidKey.
func (k DateKey) Decode() (year, month, day int, err error) {
	if len(k) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: %q must be 6 digits", ErrInvalidKey, string(k))
	}
	var parts [3]int
	for i := 0; i < 3; i++ {
		hi, lo := k[i*2], k[i*2+1]
		if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
			return 0, 0, 0, fmt.Errorf("%w: %q must be 6 digits", ErrInvalidKey, string(k))
		}
		parts[i] = int(hi-'0')*10 + int(lo-'0')
	}
	year, month, day = 2000+parts[0], parts[1], parts[2]
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("%w: %q has month %d", ErrInvalidKey, string(k), month)
	}
	if day < 1 || day > daysIn(year, time.Month(month)) {
		return 0, 0, 0, fmt.Errorf("%w: %q has day %d", ErrInvalidKey, string(k), day)
	}
	return year, month, day, nil
}

// Time returns midnight UTC of the key's calendar day.
func (k DateKey) Time() (time.Time, error) {
	year, month, day, err := k.Decode()
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// DisplayLong renders the key as "Mon D, YYYY".
func (k DateKey) DisplayLong() (string, error) {
	t, err := k.Time()
	if err != nil {
		return "", err
	}
	return t.Format(displayLayout), nil
}

// Valid reports whether the key decodes.
func (k DateKey) Valid() bool {
	_, _, _, err := k.Decode()
	return err == nil
}

func (k DateKey) String() string {
	return string(k)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
