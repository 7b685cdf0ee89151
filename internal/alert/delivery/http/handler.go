package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medtrack/pharmacy-portal/internal/alert/domain"
	"github.com/medtrack/pharmacy-portal/internal/alert/usecase/query"
	inventory "github.com/medtrack/pharmacy-portal/internal/inventory/domain"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// AlertHandler handles HTTP requests for inventory alerts
type AlertHandler struct {
	evaluateHandler *query.EvaluateAlertsHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	activeAlerts   *prometheus.GaugeVec
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(repo inventory.SnapshotRepository) *AlertHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_alert_requests_total",
			Help: "Total number of alert poll requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_alert_request_duration_seconds",
			Help:    "Duration of alert poll requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	activeAlerts := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portal_active_alerts",
			Help: "Number of active alerts by kind at the last evaluation",
		},
		[]string{"kind"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(activeAlerts)

	return &AlertHandler{
		evaluateHandler: query.NewEvaluateAlertsHandler(repo),
		requestCounter:  requestCounter,
		requestLatency:  requestLatency,
		activeAlerts:    activeAlerts,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *AlertHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// GetPollPayload handles GET /api/alerts
//
// Returns the grouped sidebar payload: low_stock, expiring_soon, expired.
func (h *AlertHandler) GetPollPayload(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseUint(r.URL.Query().Get("branch_id"), 10, 32)

	events, err := h.evaluateHandler.Handle(query.EvaluateAlertsQuery{
		BranchID: uint(branchID),
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to evaluate alerts")
		respondJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Failed to load alerts",
		})
		return
	}

	h.recordAlertGauges(events)

	respondJSON(w, http.StatusOK, domain.BuildPollPayload(events))
}

// ListAlertEvents handles GET /api/alerts/events
//
// Raw typed events with severity, for consumers that do their own grouping.
func (h *AlertHandler) ListAlertEvents(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseUint(r.URL.Query().Get("branch_id"), 10, 32)

	events, err := h.evaluateHandler.Handle(query.EvaluateAlertsQuery{
		BranchID: uint(branchID),
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to evaluate alerts")
		respondJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Failed to load alerts",
		})
		return
	}

	type eventWithSeverity struct {
		domain.Event
		Severity string `json:"severity"`
	}

	out := make([]eventWithSeverity, 0, len(events))
	for _, ev := range events {
		out = append(out, eventWithSeverity{Event: ev, Severity: domain.Severity(ev.Kind)})
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    out,
	})
}

func (h *AlertHandler) recordAlertGauges(events []domain.Event) {
	counts := map[string]int{
		domain.KindOutOfStock:   0,
		domain.KindLowStock:     0,
		domain.KindExpired:      0,
		domain.KindExpiringSoon: 0,
	}
	for _, ev := range events {
		counts[ev.Kind]++
	}
	for kind, n := range counts {
		h.activeAlerts.WithLabelValues(kind).Set(float64(n))
	}
}

// RegisterRoutes registers all alert routes
func (h *AlertHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/alerts", h.metricsMiddleware("/api/alerts", h.GetPollPayload)).Methods("GET")
	router.HandleFunc("/api/alerts/events", h.metricsMiddleware("/api/alerts/events", h.ListAlertEvents)).Methods("GET")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
