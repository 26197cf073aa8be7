package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/sports-trading-agent/internal/ledger"
	"github.com/cypherlabdev/sports-trading-agent/internal/service"
)

// CaptureController pauses and resumes feed collection at runtime.
type CaptureController interface {
	StartCapture() bool
	StopCapture() bool
	CaptureActive() bool
}

// CreditReporter reports the remaining daily request budget.
type CreditReporter interface {
	Remaining() int
}

// APIHandler handles HTTP requests for quotes, signals, events and capture
// control.
type APIHandler struct {
	service *service.AgentService
	events  *ledger.EventIndex
	capture CaptureController
	credits CreditReporter // nil when no budgeted provider is configured
	logger  zerolog.Logger
}

// NewAPIHandler creates a new API handler. credits may be nil.
func NewAPIHandler(
	svc *service.AgentService,
	events *ledger.EventIndex,
	capture CaptureController,
	credits CreditReporter,
	logger zerolog.Logger,
) *APIHandler {
	return &APIHandler{
		service: svc,
		events:  events,
		capture: capture,
		credits: credits,
		logger:  logger.With().Str("component", "api_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes with the provided mux
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	// GET /api/v1/quotes/:event_id - Current quotes for an event
	mux.HandleFunc("/api/v1/quotes/", h.handleGetQuotes)

	// GET /api/v1/signals/:event_id - Recent signals for an event
	mux.HandleFunc("/api/v1/signals/", h.handleGetSignals)

	// GET /api/v1/events - Tracked fixtures
	mux.HandleFunc("/api/v1/events", h.handleListEvents)

	// POST /api/v1/capture/start|stop, GET /api/v1/capture
	mux.HandleFunc("/api/v1/capture", h.handleCaptureStatus)
	mux.HandleFunc("/api/v1/capture/", h.handleCaptureControl)

	// GET /api/v1/credits - Remaining daily request budget
	mux.HandleFunc("/api/v1/credits", h.handleGetCredits)
}

// handleGetQuotes handles GET /api/v1/quotes/:event_id
func (h *APIHandler) handleGetQuotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	eventID := strings.TrimPrefix(r.URL.Path, "/api/v1/quotes/")
	if eventID == "" || strings.Contains(eventID, "/") {
		h.errorResponse(w, http.StatusBadRequest, "invalid path: expected /api/v1/quotes/:event_id")
		return
	}

	quotes, err := h.service.EventQuotes(r.Context(), eventID)
	if err != nil {
		h.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to retrieve quotes")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve quotes")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_id": eventID,
		"count":    len(quotes),
		"quotes":   quotes,
	})
}

// handleGetSignals handles GET /api/v1/signals/:event_id?limit=n
func (h *APIHandler) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	eventID := strings.TrimPrefix(r.URL.Path, "/api/v1/signals/")
	if eventID == "" || strings.Contains(eventID, "/") {
		h.errorResponse(w, http.StatusBadRequest, "invalid path: expected /api/v1/signals/:event_id")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			h.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	signals, err := h.service.EventSignals(r.Context(), eventID, limit)
	if err != nil {
		if errors.Is(err, service.ErrHistoryDisabled) {
			h.errorResponse(w, http.StatusNotImplemented, "signal history is disabled")
			return
		}
		h.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to retrieve signals")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve signals")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_id": eventID,
		"count":    len(signals),
		"signals":  signals,
	})
}

// handleListEvents handles GET /api/v1/events
func (h *APIHandler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	events := h.events.List()
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

// handleCaptureStatus handles GET /api/v1/capture
func (h *APIHandler) handleCaptureStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]bool{
		"active": h.capture.CaptureActive(),
	})
}

// handleCaptureControl handles POST /api/v1/capture/start and
// POST /api/v1/capture/stop
func (h *APIHandler) handleCaptureControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	action := strings.TrimPrefix(r.URL.Path, "/api/v1/capture/")

	var changed bool
	switch action {
	case "start":
		changed = h.capture.StartCapture()
	case "stop":
		changed = h.capture.StopCapture()
	default:
		h.errorResponse(w, http.StatusBadRequest, "invalid action: expected start or stop")
		return
	}

	h.logger.Info().Str("action", action).Bool("changed", changed).Msg("capture control")
	h.jsonResponse(w, http.StatusOK, map[string]bool{
		"active":  h.capture.CaptureActive(),
		"changed": changed,
	})
}

// handleGetCredits handles GET /api/v1/credits
func (h *APIHandler) handleGetCredits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.credits == nil {
		h.errorResponse(w, http.StatusNotImplemented, "no budgeted provider configured")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]int{
		"remaining_today": h.credits.Remaining(),
	})
}

// jsonResponse writes a JSON response
func (h *APIHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *APIHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
