package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"nutrilog/internal/core"
	"nutrilog/internal/ledger"
	applog "nutrilog/internal/log"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// recordDTO is a record as served by the API.
type recordDTO struct {
	ID                string   `json:"id"`
	Index             int      `json:"index"`
	Kind              string   `json:"kind"`
	Name              string   `json:"name"`
	Done              bool     `json:"done"`
	Calories          *float64 `json:"calories,omitempty"`
	Quantity          *float64 `json:"quantity,omitempty"`
	EffectiveCalories float64  `json:"effective_calories"`
}

type dayResponse struct {
	Key     core.DateKey    `json:"key"`
	Display string          `json:"display"`
	Records []recordDTO     `json:"records"`
	Summary core.DaySummary `json:"summary"`
}

type calendarDay struct {
	core.DaySummary
	InMonth bool `json:"in_month"`
}

type calendarResponse struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Version uint64          `json:"version"`
	Stale   bool            `json:"stale"`
	Weeks   [][]calendarDay `json:"weeks"`
}

func newDayResponse(key core.DateKey, l core.DayLedger) dayResponse {
	display, _ := key.DisplayLong()
	records := make([]recordDTO, len(l))
	for i, rec := range l {
		records[i] = recordDTO{
			ID:                rec.ID,
			Index:             i,
			Kind:              rec.Kind.String(),
			Name:              rec.Name,
			Done:              rec.Done,
			Calories:          rec.Calories,
			Quantity:          rec.Quantity,
			EffectiveCalories: rec.EffectiveCalories(),
		}
	}
	summary := core.Summarize(l)
	summary.Key = key
	return dayResponse{Key: key, Display: display, Records: records, Summary: summary}
}

func newCalendarResponse(grid core.Grid, version uint64, stale bool, days []core.DaySummary) calendarResponse {
	weeks := make([][]calendarDay, 0, len(days)/7)
	for i := 0; i+7 <= len(days); i += 7 {
		week := make([]calendarDay, 7)
		for j, d := range days[i : i+7] {
			week[j] = calendarDay{DaySummary: d, InMonth: grid.InMonth(d.Key)}
		}
		weeks = append(weeks, week)
	}
	return calendarResponse{
		Year:    grid.Year,
		Month:   int(grid.Month),
		Version: version,
		Stale:   stale,
		Weeks:   weeks,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorStatus(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// errorStatus maps domain errors to HTTP status codes and stable codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, core.ErrInvalidKey):
		return http.StatusBadRequest, "invalid_key"
	case errors.Is(err, core.ErrInvalidRecord):
		return http.StatusBadRequest, "invalid_record"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		return http.StatusConflict, "index_out_of_range"
	case errors.Is(err, ledger.ErrDuplicateID):
		return http.StatusConflict, "duplicate_id"
	case errors.Is(err, ledger.ErrRecordNotFound):
		return http.StatusNotFound, "record_not_found"
	case errors.Is(err, ledger.ErrCorruptLedger):
		return http.StatusInternalServerError, "corrupt_ledger"
	case errors.Is(err, ledger.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError writes err as a JSON error. Server-side failures are logged
// and their details are not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status >= 500 {
		fields := applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "")
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, r.Pattern, fields)
		msg = http.StatusText(status)
	}
	writeErrorStatus(w, status, code, msg)
}
