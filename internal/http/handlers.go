package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"nutrilog/internal/core"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reads today's ledger to verify the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]any{}

	if _, err := s.service.Day(ctx, core.Encode(time.Now())); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	grid := s.service.Grid()
	checks["view"] = map[string]any{
		"year":  grid.Year,
		"month": int(grid.Month),
		"days":  len(grid.Keys),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.activeClients(),
		"hits":           s.rateLimiter.hits.Load(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.service.ShowMonth(r.Context(), params.Time())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalendarResponse(view.Grid, view.Version, view.Stale, view.Days))
}

// handleShift moves the active month by ?delta= months (prev/next).
func (s *Server) handleShift(w http.ResponseWriter, r *http.Request) {
	delta, err := parseDelta(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	base := time.Now()
	if g := s.service.Grid(); len(g.Keys) > 0 {
		base = time.Date(g.Year, g.Month, 1, 0, 0, 0, 0, time.UTC)
	}
	if y := time.Date(base.Year(), base.Month()+time.Month(delta), 1, 0, 0, 0, 0, time.UTC).Year(); y < 2000 || y > 2099 {
		writeError(w, r, fmt.Errorf("%w: shift lands outside 2000-2099", errBadRequest))
		return
	}
	view, err := s.service.ShiftMonth(r.Context(), delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalendarResponse(view.Grid, view.Version, view.Stale, view.Days))
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	key, err := parseKey(r, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.service.Day(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDayResponse(key, l))
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	key, err := parseKey(r, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := parseRecord(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.service.Add(r.Context(), key, rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDayResponse(key, l))
}

func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	s.withIndex(w, r, func(key core.DateKey, index int) (core.DayLedger, error) {
		rec, err := parseRecord(r)
		if err != nil {
			return nil, err
		}
		return s.service.Edit(r.Context(), key, index, rec)
	})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	s.withIndex(w, r, func(key core.DateKey, index int) (core.DayLedger, error) {
		return s.service.Remove(r.Context(), key, index)
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.withIndex(w, r, func(key core.DateKey, index int) (core.DayLedger, error) {
		return s.service.Toggle(r.Context(), key, index)
	})
}

func (s *Server) handleUpdateByID(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(key core.DateKey, id string) (core.DayLedger, error) {
		rec, err := parseRecord(r)
		if err != nil {
			return nil, err
		}
		return s.service.EditByID(r.Context(), key, id, rec)
	})
}

func (s *Server) handleRemoveByID(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(key core.DateKey, id string) (core.DayLedger, error) {
		return s.service.RemoveByID(r.Context(), key, id)
	})
}

// withIndex parses {key} and {index} and writes the resulting ledger.
func (s *Server) withIndex(w http.ResponseWriter, r *http.Request, fn func(core.DateKey, int) (core.DayLedger, error)) {
	key, err := parseKey(r, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := parseIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := fn(key, index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDayResponse(key, l))
}

// withID parses {key} and {id} and writes the resulting ledger.
func (s *Server) withID(w http.ResponseWriter, r *http.Request, fn func(core.DateKey, string) (core.DayLedger, error)) {
	key, err := parseKey(r, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := fn(key, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDayResponse(key, l))
}
