package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medtrack/pharmacy-portal/internal/notification"
	"github.com/medtrack/pharmacy-portal/internal/notification/usecase/command"
	"github.com/medtrack/pharmacy-portal/internal/notification/usecase/query"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// NotificationHandler handles HTTP requests for the notification feed
type NotificationHandler struct {
	aggregator *notification.Aggregator

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	unreadGauge    prometheus.Gauge
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(aggregator *notification.Aggregator) *NotificationHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_notification_requests_total",
			Help: "Total number of requests to the notification feed",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_notification_request_duration_seconds",
			Help:    "Duration of notification feed requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	unreadGauge := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_notification_last_unread_count",
			Help: "Unread count returned by the most recent feed request",
		},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(unreadGauge)

	return &NotificationHandler{
		aggregator:     aggregator,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		unreadGauge:    unreadGauge,
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
func (h *NotificationHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// ListFeed handles GET /api/notifications?tab=&search=&cursor=
func (h *NotificationHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	page, err := h.aggregator.List(query.ListFeedQuery{
		RecipientID: userID,
		Tab:         r.URL.Query().Get("tab"),
		Search:      r.URL.Query().Get("search"),
		Cursor:      r.URL.Query().Get("cursor"),
	})
	if err != nil {
		logger.Logger.Error().Err(err).Uint("user_id", userID).Msg("Failed to list notifications")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to load notifications",
		})
		return
	}

	unread, err := h.aggregator.UnreadCount(query.UnreadCountQuery{RecipientID: userID})
	if err != nil {
		logger.Logger.Error().Err(err).Uint("user_id", userID).Msg("Failed to count unread notifications")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to load notifications",
		})
		return
	}

	h.unreadGauge.Set(float64(unread))

	respondJSON(w, http.StatusOK, struct {
		Records     interface{} `json:"records"`
		UnreadCount int64       `json:"unread_count"`
		NextCursor  string      `json:"next_cursor,omitempty"`
	}{
		Records:     page.Records,
		UnreadCount: unread,
		NextCursor:  page.NextCursor,
	})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	count, err := h.aggregator.UnreadCount(query.UnreadCountQuery{RecipientID: userID})
	if err != nil {
		logger.Logger.Error().Err(err).Uint("user_id", userID).Msg("Failed to count unread notifications")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to load unread count",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]int64{"unread_count": count},
	})
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid notification ID",
		})
		return
	}

	if err := h.aggregator.MarkRead(command.MarkReadCommand{
		RecipientID:    userID,
		NotificationID: uint(id),
	}); err != nil {
		logger.Logger.Error().Err(err).Uint("user_id", userID).Msg("Failed to mark notification read")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to mark notification read",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Notification marked read",
	})
}

// MarkAllRead handles POST /api/notifications/read-all?tab=
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	if err := h.aggregator.MarkAllRead(command.MarkAllReadCommand{
		RecipientID: userID,
		Tab:         r.URL.Query().Get("tab"),
	}); err != nil {
		logger.Logger.Error().Err(err).Uint("user_id", userID).Msg("Failed to mark all notifications read")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to mark all read",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "All notifications marked read",
	})
}

// RegisterRoutes registers all notification routes
func (h *NotificationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/notifications",
		h.metricsMiddleware("/api/notifications", AuthMiddleware(h.ListFeed))).Methods("GET")
	router.HandleFunc("/api/notifications/unread-count",
		h.metricsMiddleware("/api/notifications/unread-count", AuthMiddleware(h.UnreadCount))).Methods("GET")
	router.HandleFunc("/api/notifications/read-all",
		h.metricsMiddleware("/api/notifications/read-all", AuthMiddleware(h.MarkAllRead))).Methods("POST")
	router.HandleFunc("/api/notifications/{id}/read",
		h.metricsMiddleware("/api/notifications/{id}/read", AuthMiddleware(h.MarkRead))).Methods("POST")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
