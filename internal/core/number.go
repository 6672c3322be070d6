// Package core provides the date keys, calendar grid, ledger records and
// the per-day aggregation used across the application.
//
// This file contains the parsing rules for the numeric fields of a food
// record. Older ledgers store calories and quantity as the raw text typed
// into the form, so both JSON numbers and numeric strings are accepted.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidNumber is returned when a value cannot be read as a number.
var ErrInvalidNumber = errors.New("invalid number")

// ParseNumber converts user text to a float.
//
// It accepts both dot (1.5) and comma (1,5) decimal separators and
// surrounding whitespace. Empty input, NaN and infinities are rejected.
//
// Examples:
//
//	ParseNumber("70")   -> 70, nil
//	ParseNumber("1,5")  -> 1.5, nil
//	ParseNumber(" 2 ")  -> 2, nil
//	ParseNumber("abc")  -> 0, ErrInvalidNumber
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidNumber
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidNumber
	}
	return v, nil
}

// decodeNumberLike reads a JSON value that should hold a number.
// null, "" and non-numeric strings yield nil, which aggregation treats as 0.
func decodeNumberLike(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		v, err := ParseNumber(s)
		if err != nil {
			return nil, nil
		}
		return &v, nil
	default:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	}
}

// Float returns a pointer to v, for building optional record fields.
func Float(v float64) *float64 {
	return &v
}
