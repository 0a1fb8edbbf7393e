package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"healthcore/internal/healthstore"
	"healthcore/internal/service"
	"healthcore/internal/sleep"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sleep.ErrNotEnoughRawData),
		errors.Is(err, sleep.ErrMicroSleepNotFound),
		errors.Is(err, service.ErrSummaryNotFound):
		return http.StatusNotFound
	case errors.Is(err, healthstore.ErrAuthorizationDenied):
		return http.StatusForbidden
	case errors.Is(err, healthstore.ErrUnsupportedType),
		errors.Is(err, service.ErrInvalidSeriesType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), Fail(err.Error()))
}

// parseTime accepts RFC3339 or unix seconds; empty returns def.
func parseTime(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}
