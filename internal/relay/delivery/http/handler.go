package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	notifhttp "github.com/medtrack/pharmacy-portal/internal/notification/delivery/http"
	"github.com/medtrack/pharmacy-portal/internal/relay"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// RelayHandler exposes the cross-context relay over HTTP: opening a
// detached chat surface, delivering its single bootstrap message, and the
// autonomous backend calls it makes afterwards.
type RelayHandler struct {
	relay *relay.Relay
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(r *relay.Relay) *RelayHandler {
	return &RelayHandler{relay: r}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OpenContext handles POST /api/relay
func (h *RelayHandler) OpenContext(w http.ResponseWriter, r *http.Request) {
	userID := notifhttp.UserIDFromContext(r.Context())

	c := h.relay.Open(userID)

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Data: map[string]string{
			"context_id": c.ID,
			"state":      string(c.State()),
		},
	})
}

// Bootstrap handles POST /api/relay/{id}/bootstrap
func (h *RelayHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var msg relay.BootstrapMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	if err := c.Deliver(msg); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, relay.ErrAlreadyBootstrapped) {
			status = http.StatusConflict
		}
		respondJSON(w, status, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Context bootstrapped",
		Data:    map[string]string{"state": string(c.State())},
	})
}

// GetContent handles GET /api/relay/{id}/content
func (h *RelayHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	content, err := c.Content()
	if err != nil {
		respondJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]string{"payload": content},
	})
}

// ListUsers handles GET /api/relay/{id}/users
func (h *RelayHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	users, err := c.ListUsers(r.Context())
	if err != nil {
		h.respondContextError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    users,
	})
}

// CreateConversation handles POST /api/relay/{id}/conversations
func (h *RelayHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		CounterpartID uint `json:"counterpart_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CounterpartID == 0 {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "counterpart_id is required",
		})
		return
	}

	conversation, err := c.CreateConversation(r.Context(), req.CounterpartID)
	if err != nil {
		h.respondContextError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Data:    conversation,
	})
}

// CloseContext handles DELETE /api/relay/{id}
func (h *RelayHandler) CloseContext(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.relay.Close(vars["id"])

	// Closing is silent and idempotent, so an unknown id still succeeds.
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Context closed",
	})
}

func (h *RelayHandler) lookup(w http.ResponseWriter, r *http.Request) (*relay.SecondaryContext, bool) {
	vars := mux.Vars(r)
	c, err := h.relay.Get(vars["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Relay context not found",
		})
		return nil, false
	}
	return c, true
}

func (h *RelayHandler) respondContextError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, relay.ErrContextClosed), errors.Is(err, relay.ErrNotActive):
		respondJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   err.Error(),
		})
	default:
		logger.Logger.Error().Err(err).Msg("Relay backend call failed")
		respondJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error:   "Messaging service unavailable",
		})
	}
}

// RegisterRoutes registers all relay routes
func (h *RelayHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/relay", notifhttp.AuthMiddleware(h.OpenContext)).Methods("POST")
	router.HandleFunc("/api/relay/{id}/bootstrap", notifhttp.AuthMiddleware(h.Bootstrap)).Methods("POST")
	router.HandleFunc("/api/relay/{id}/content", notifhttp.AuthMiddleware(h.GetContent)).Methods("GET")
	router.HandleFunc("/api/relay/{id}/users", notifhttp.AuthMiddleware(h.ListUsers)).Methods("GET")
	router.HandleFunc("/api/relay/{id}/conversations", notifhttp.AuthMiddleware(h.CreateConversation)).Methods("POST")
	router.HandleFunc("/api/relay/{id}", notifhttp.AuthMiddleware(h.CloseContext)).Methods("DELETE")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
