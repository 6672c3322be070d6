package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nutrilog/internal/core"
)

// errBadRequest marks malformed requests that are not domain validation
// failures.
var errBadRequest = errors.New("bad request")

// MonthParams holds the month selected by query parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams reads year and month from query, defaulting each to the
// month of now. Out-of-range values are an error.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	p := MonthParams{Year: now.Year(), Month: now.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 2000 || y > 2099 {
			return p, fmt.Errorf("%w: year must be between 2000 and 2099", errBadRequest)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return p, fmt.Errorf("%w: month must be between 1 and 12", errBadRequest)
		}
		p.Month = time.Month(m)
	}
	return p, nil
}

// parseDelta reads the month offset for a calendar shift. Months must stay
// within the 2000-2099 range of date keys, so offsets beyond a century are
// rejected outright.
func parseDelta(query url.Values) (int, error) {
	raw := strings.TrimSpace(query.Get("delta"))
	d, err := strconv.Atoi(raw)
	if err != nil || d < -1200 || d > 1200 {
		return 0, fmt.Errorf("%w: delta must be an integer between -1200 and 1200", errBadRequest)
	}
	return d, nil
}

// Time returns the first day of the selected month.
func (p MonthParams) Time() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// parseKey reads the {key} path value. "today" resolves against now.
func parseKey(r *http.Request, now time.Time) (core.DateKey, error) {
	raw := r.PathValue("key")
	if raw == "today" {
		return core.Encode(now), nil
	}
	return core.ParseKey(raw)
}

// parseIndex reads the {index} path value.
func parseIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q is not a number", errBadRequest, raw)
	}
	return i, nil
}

// recordRequest is the JSON body accepted for record writes.
type recordRequest struct {
	Kind     string   `json:"kind"`
	Name     string   `json:"name"`
	Done     bool     `json:"done"`
	Calories *float64 `json:"calories,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
}

// parseRecord decodes and validates a record from the request body.
func parseRecord(r *http.Request) (core.Record, error) {
	var req recordRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return core.Record{}, fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return core.Record{}, fmt.Errorf("%w: empty body", errBadRequest)
		default:
			return core.Record{}, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
		}
	}

	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: %w", core.ErrInvalidRecord, err)
	}
	rec := core.Record{
		Kind:     kind,
		Name:     sanitizeInput(req.Name),
		Done:     req.Done,
		Calories: req.Calories,
		Quantity: req.Quantity,
	}
	if rec.Kind == core.KindFood {
		if rec.Calories != nil && *rec.Calories < 0 {
			return core.Record{}, fmt.Errorf("%w: calories must not be negative", core.ErrInvalidRecord)
		}
		if rec.Quantity != nil && *rec.Quantity < 0 {
			return core.Record{}, fmt.Errorf("%w: quantity must not be negative", core.ErrInvalidRecord)
		}
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}
