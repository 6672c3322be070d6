package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"nutrilog/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth time.Month
		wantErr   bool
	}{
		{"defaults to now", url.Values{}, 2024, time.March, false},
		{"explicit", url.Values{"year": {"2023"}, "month": {"12"}}, 2023, time.December, false},
		{"month only", url.Values{"month": {"1"}}, 2024, time.January, false},
		{"whitespace", url.Values{"month": {" 7 "}}, 2024, time.July, false},
		{"month zero", url.Values{"month": {"0"}}, 0, 0, true},
		{"month thirteen", url.Values{"month": {"13"}}, 0, 0, true},
		{"year before century", url.Values{"year": {"1999"}}, 0, 0, true},
		{"year after century", url.Values{"year": {"2100"}}, 0, 0, true},
		{"not a number", url.Values{"year": {"abc"}}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseMonthParams(tt.query, now)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("err = %v, want errBadRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Year != tt.wantYear || p.Month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", p.Year, p.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestMonthParamsTime(t *testing.T) {
	got := MonthParams{Year: 2024, Month: time.February}.Time()
	if !got.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Time() = %v", got)
	}
}

func newBodyRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseRecord(t *testing.T) {
	rec, err := parseRecord(newBodyRequest(`{"kind":"food","name":"  Egg\u0001 ","calories":70,"quantity":2,"done":true}`))
	if err != nil {
		t.Fatalf("parseRecord: %v", err)
	}
	if rec.Kind != core.KindFood || rec.Name != "Egg" || !rec.Done {
		t.Errorf("record = %+v", rec)
	}
	if rec.EffectiveCalories() != 140 {
		t.Errorf("effective calories = %v", rec.EffectiveCalories())
	}

	rec, err = parseRecord(newBodyRequest(`{"kind":"c","name":"Run"}`))
	if err != nil || rec.Kind != core.KindCardio {
		t.Fatalf("cardio: %+v, %v", rec, err)
	}
}

func TestParseRecordErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty", "", errBadRequest},
		{"malformed", `{"kind"`, errBadRequest},
		{"unknown field", `{"kind":"food","name":"x","extra":1}`, errBadRequest},
		{"string calories", `{"kind":"food","name":"x","calories":"70"}`, errBadRequest},
		{"unknown kind", `{"kind":"snack","name":"x"}`, core.ErrInvalidRecord},
		{"missing name", `{"kind":"food"}`, core.ErrInvalidRecord},
		{"negative quantity", `{"kind":"food","name":"x","quantity":-1}`, core.ErrInvalidRecord},
		{"long name", `{"kind":"food","name":"` + strings.Repeat("a", 201) + `"}`, core.ErrInvalidRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r *http.Request
			if tt.body == "" {
				r = httptest.NewRequest(http.MethodPost, "/", nil)
			} else {
				r = newBodyRequest(tt.body)
			}
			if _, err := parseRecord(r); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseRecordBodyLimit(t *testing.T) {
	body := `{"kind":"food","name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	r := newBodyRequest(body)
	r.Body = http.MaxBytesReader(httptest.NewRecorder(), r.Body, maxBodyBytes)
	if _, err := parseRecord(r); !errors.Is(err, errBadRequest) {
		t.Errorf("err = %v, want errBadRequest", err)
	}
}

func TestParseKey(t *testing.T) {
	now := time.Date(2024, time.March, 1, 23, 0, 0, 0, time.UTC)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	r.SetPathValue("key", "today")
	if k, err := parseKey(r, now); err != nil || k != "240301" {
		t.Errorf("today = %q, %v", k, err)
	}
	r.SetPathValue("key", "240229")
	if k, err := parseKey(r, now); err != nil || k != "240229" {
		t.Errorf("leap day = %q, %v", k, err)
	}
	r.SetPathValue("key", "230229")
	if _, err := parseKey(r, now); !errors.Is(err, core.ErrInvalidKey) {
		t.Errorf("230229 err = %v", err)
	}
}

func TestParseIndex(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.SetPathValue("index", "3")
	if i, err := parseIndex(r); err != nil || i != 3 {
		t.Errorf("index = %d, %v", i, err)
	}
	r.SetPathValue("index", "x")
	if _, err := parseIndex(r); !errors.Is(err, errBadRequest) {
		t.Errorf("err = %v", err)
	}
}
