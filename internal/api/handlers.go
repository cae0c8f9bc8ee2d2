// Package api wires the gateway's HTTP surface: routing, middleware, and
// request/response translation. Handlers stay thin; business rules live in
// internal/advisor and input rules in the models guard functions.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"finadvisor/internal/advisor"
	"finadvisor/internal/models"
	"finadvisor/internal/ratelimit"
	"finadvisor/internal/storage"
	"finadvisor/internal/version"

	"github.com/gorilla/mux"
)

// Listing defaults for the history endpoint. The cap keeps one request from
// dragging the whole audit table over the wire.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Handlers contains HTTP handlers for the advice gateway API
type Handlers struct {
	advisor advisor.ServiceInterface
	storage storage.Storage
	started time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(service advisor.ServiceInterface, store storage.Storage) *Handlers {
	return &Handlers{
		advisor: service,
		storage: store,
		started: time.Now(),
	}
}

// GetAdvice handles financial advice requests
// POST /api/v1/advice
func (h *Handlers) GetAdvice(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	// The guard runs against the raw map so absent and mistyped fields
	// produce distinct messages.
	if result := models.ValidateQuestion(payload); !result.OK {
		h.writeErrorResponse(w, r, result.Code, models.ErrorCodeValidation, result.Message)
		return
	}

	question, _ := payload["question"].(string)
	req := &models.AdviceRequest{
		Question:  question,
		ClientKey: ratelimit.ClientKey(r),
	}

	advice, err := h.advisor.Ask(r.Context(), req)
	if err != nil {
		h.writeServiceErrorResponse(w, r, err)
		return
	}

	response := &models.AdviceResponse{}
	response.FromAdvice(advice)
	response.RequestID = requestIDFromContext(r.Context())

	h.writeJSONResponse(w, http.StatusOK, response)
}

// GetQuote handles market quote requests
// GET /api/v1/market/{symbol}
func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if result := models.ValidateSymbol(symbol); !result.OK {
		h.writeErrorResponse(w, r, result.Code, models.ErrorCodeValidation, result.Message)
		return
	}

	quote, err := h.advisor.Quote(r.Context(), symbol)
	if err != nil {
		h.writeServiceErrorResponse(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, quote)
}

// GetNews handles business headline requests
// GET /api/v1/news
func (h *Handlers) GetNews(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 0)

	items, err := h.advisor.Headlines(r.Context(), limit)
	if err != nil {
		h.writeServiceErrorResponse(w, r, err)
		return
	}

	if items == nil {
		items = []models.NewsItem{}
	}
	h.writeJSONResponse(w, http.StatusOK, items)
}

// GetAnalysis handles combined quote and sentiment requests
// GET /api/v1/analysis/{symbol}
func (h *Handlers) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if result := models.ValidateSymbol(symbol); !result.OK {
		h.writeErrorResponse(w, r, result.Code, models.ErrorCodeValidation, result.Message)
		return
	}

	analysis, err := h.advisor.Analyze(r.Context(), symbol)
	if err != nil {
		h.writeServiceErrorResponse(w, r, err)
		return
	}

	response := &models.AnalysisResponse{}
	response.FromAnalysis(analysis)

	h.writeJSONResponse(w, http.StatusOK, response)
}

// GetHistory handles query history requests
// GET /api/v1/history
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := h.advisor.History(r.Context(), limit)
	if err != nil {
		h.writeServiceErrorResponse(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, sanitizeRecords(records))
}

// GetHistoryRecord handles single query record requests
// GET /api/v1/history/{id}
func (h *Handlers) GetHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.storage.GetQuery(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "Query record not found")
			return
		}
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Failed to load query record")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, sanitizeRecord(record))
}

// HealthCheck handles health check requests
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = version.GetInfo().Version
	response.Uptime = time.Since(h.started).Round(time.Second).String()

	if err := h.storage.Ping(r.Context()); err != nil {
		response.Status = models.StatusDegraded
		response.AddComponent("storage", models.StatusUnhealthy, err.Error())
	} else {
		response.AddComponent("storage", models.StatusHealthy, "Storage is operational")
	}
	response.AddComponent("api", models.StatusHealthy, "API is operational")

	h.writeJSONResponse(w, http.StatusOK, response)
}

// parseLimit reads the limit query parameter, falling back to def when the
// parameter is absent or not a positive integer.
func parseLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

// sanitizeRecord copies a record without the client key. Keys are kept for
// abuse investigations, not for the public history listing.
func sanitizeRecord(record *models.QueryRecord) *models.QueryRecord {
	sanitized := *record
	sanitized.ClientKey = ""
	return &sanitized
}

func sanitizeRecords(records []*models.QueryRecord) []*models.QueryRecord {
	sanitized := make([]*models.QueryRecord, len(records))
	for i, record := range records {
		sanitized[i] = sanitizeRecord(record)
	}
	return sanitized
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If we can't encode the response, log it but don't try to send another response
		// as headers have already been written
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	errorResp.RequestID = requestIDFromContext(r.Context())

	h.writeJSONResponse(w, statusCode, errorResp)
}

// writeServiceErrorResponse maps an advisor error onto the error envelope,
// keeping the status and code the service attached when there is one.
func (h *Handlers) writeServiceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *advisor.ServiceError
	if errors.As(err, &svcErr) {
		h.writeErrorResponse(w, r, svcErr.StatusCode, svcErr.Code, svcErr.Message)
		return
	}

	h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "An unexpected error occurred")
}
