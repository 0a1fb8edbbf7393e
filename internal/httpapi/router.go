// Package httpapi serves the sleep session API.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"healthcore/internal/metrics"
	"healthcore/internal/models"
	"healthcore/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SleepAPI operations exposed over HTTP
type SleepAPI interface {
	Reconstruct(ctx context.Context, bundlePrefix string) (*service.Session, error)
	LatestSummary(ctx context.Context, bundlePrefix string) (*models.SessionSummary, error)
	QuantitySeries(ctx context.Context, t models.SampleType, interval models.DateInterval, bundlePrefix string, downsample bool) ([]models.QuantityData, error)
	Authorize(ctx context.Context) error
}

// Handler HTTP handlers of the sleep API
type Handler struct {
	svc     SleepAPI
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewHandler(svc SleepAPI, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, metrics: m, logger: logger, now: time.Now}
}

// NewRouter registers every route; accessLog receives Apache-style request logs when non-nil.
func NewRouter(h *Handler, accessLog io.Writer) http.Handler {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	}

	// the subrouter goes last so its method mismatch is reported as 405
	api := r.PathPrefix("/api/v1").Subrouter()
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	api.Handle("/sleep/session", h.metrics.WrapHandler("session", http.HandlerFunc(h.GetSession))).Methods(http.MethodGet)
	api.Handle("/sleep/session/latest", h.metrics.WrapHandler("session_latest", http.HandlerFunc(h.GetLatestSummary))).Methods(http.MethodGet)
	api.Handle("/sleep/session/export", h.metrics.WrapHandler("session_export", http.HandlerFunc(h.ExportSession))).Methods(http.MethodGet)
	api.Handle("/quantity/{type}", h.metrics.WrapHandler("quantity", http.HandlerFunc(h.GetQuantitySeries))).Methods(http.MethodGet)
	api.Handle("/authorize", h.metrics.WrapHandler("authorize", http.HandlerFunc(h.PostAuthorize))).Methods(http.MethodPost)

	var handler http.Handler = r
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(handler)
	if accessLog != nil {
		handler = handlers.LoggingHandler(accessLog, handler)
	}
	return handler
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, Fail("method "+r.Method+" not allowed"))
}
