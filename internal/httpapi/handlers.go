package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"healthcore/internal/export"
	"healthcore/internal/models"
	"healthcore/internal/timeseries"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SessionResponse body of GET /api/v1/sleep/session
type SessionResponse struct {
	Summary   models.SessionSummary `json:"summary"`
	Segments  []models.MicroSleep   `json:"segments"`
	HeartRate []models.QuantityData `json:"heart_rate"`
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	bundle := r.URL.Query().Get("bundle")

	session, err := h.svc.Reconstruct(r.Context(), bundle)
	if err != nil {
		h.logFailure("reconstruct", bundle, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(SessionResponse{
		Summary:   session.Summary,
		Segments:  session.Sleep.Samples,
		HeartRate: timeseries.Downsample(session.Sleep.HeartRate()),
	}))
}

func (h *Handler) GetLatestSummary(w http.ResponseWriter, r *http.Request) {
	bundle := r.URL.Query().Get("bundle")

	summary, err := h.svc.LatestSummary(r.Context(), bundle)
	if err != nil {
		h.logFailure("latest_summary", bundle, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

func (h *Handler) ExportSession(w http.ResponseWriter, r *http.Request) {
	bundle := r.URL.Query().Get("bundle")

	session, err := h.svc.Reconstruct(r.Context(), bundle)
	if err != nil {
		h.logFailure("export", bundle, err)
		writeError(w, err)
		return
	}

	data, err := export.SessionWorkbook(session.Sleep)
	if err != nil {
		h.logger.Error("Failed to generate session workbook", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate workbook"))
		return
	}

	filename := fmt.Sprintf("sleep_session_%s.xlsx", session.Summary.SleepEnd.Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) GetQuantitySeries(w http.ResponseWriter, r *http.Request) {
	t, err := models.ParseSampleType(mux.Vars(r)["type"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}

	q := r.URL.Query()
	now := h.now()
	end, err := parseTime(q.Get("end"), now)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid end: "+err.Error()))
		return
	}
	start, err := parseTime(q.Get("start"), end.Add(-24*time.Hour))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid start: "+err.Error()))
		return
	}
	if end.Before(start) {
		writeJSON(w, http.StatusBadRequest, Fail("end before start"))
		return
	}

	series, err := h.svc.QuantitySeries(r.Context(), t, models.NewDateInterval(start, end),
		q.Get("bundle"), parseBool(q.Get("downsample"), true))
	if err != nil {
		h.logFailure("quantity_series", q.Get("bundle"), err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(series))
}

func (h *Handler) PostAuthorize(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Authorize(r.Context()); err != nil {
		h.logFailure("authorize", "", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"authorized": true}))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
}

func (h *Handler) logFailure(op, bundle string, err error) {
	if statusFor(err) >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("op", op), zap.String("bundle", bundle), zap.Error(err))
		return
	}
	h.logger.Debug("Request rejected", zap.String("op", op), zap.String("bundle", bundle), zap.Error(err))
}
