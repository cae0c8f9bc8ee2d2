// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Advice, analysis, and error envelopes carry a "success" flag so clients
//   can branch without inspecting HTTP status codes; plain resources
//   (quotes, news, history) go out as-is
// - Optional fields use omitempty to reduce response size
// - Machine-readable error codes alongside human-readable messages
// - Request ID for distributed tracing and support
// - RFC3339 timestamps for international compatibility
package models

import (
	"time"
)

// AdviceResponse is the answer to a financial question.
//
// Client Usage:
// - Answer is the model's text, unmodified
// - RiskLevel is derived from the answer by keyword scan and is advisory
// - Model echoes which upstream model produced the answer
type AdviceResponse struct {
	Success   bool      `json:"success"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	RiskLevel RiskLevel `json:"risk_level"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

type AnalysisResponse struct {
	Success    bool       `json:"success"`
	Symbol     string     `json:"symbol"`
	Quote      *Quote     `json:"quote"`
	Headlines  []NewsItem `json:"headlines"`
	Commentary string     `json:"commentary,omitempty"`
	RiskLevel  RiskLevel  `json:"risk_level"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ErrorResponse provides structured error information with debugging context.
//
// Error Handling Design:
// - Success is always false; clients branch on it
// - Error carries the human-readable reason text
// - Code is machine-readable for programmatic handling
// - Details map for field-specific validation errors
// - Request ID for distributed tracing and support
type ErrorResponse struct {
	Success   bool              `json:"success"`              // Always false
	Error     string            `json:"error"`                // Human-readable reason text
	Code      string            `json:"code,omitempty"`       // Machine-readable error code
	Details   map[string]string `json:"details,omitempty"`    // Field-specific error details
	Timestamp time.Time         `json:"timestamp"`            // Error occurrence time
	RequestID string            `json:"request_id,omitempty"` // Unique request identifier
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Metrics    map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
	StatusUnknown   = "unknown"   // Status indeterminate
)

// Standard Error Codes
//
// Error Code Strategy:
// - Upper-case with underscores for consistency
// - Maps to standard HTTP status codes
// - Machine-readable for client error handling
const (
	ErrorCodeNotFound           = "NOT_FOUND"            // 404: Resource doesn't exist
	ErrorCodeSymbolNotFound     = "SYMBOL_NOT_FOUND"     // 404: Unknown ticker symbol
	ErrorCodeBadRequest         = "BAD_REQUEST"          // 400: Invalid request format
	ErrorCodeInvalidRequest     = "INVALID_REQUEST"      // 400: Invalid request data
	ErrorCodeValidation         = "VALIDATION_ERROR"     // 400: Input validation failed
	ErrorCodeRateLimited        = "RATE_LIMIT_EXCEEDED"  // 429: Client over request budget
	ErrorCodeInternalError      = "INTERNAL_ERROR"       // 500: Server-side error
	ErrorCodeUpstreamError      = "UPSTREAM_UNAVAILABLE" // 502: Provider call failed
	ErrorCodeUpstreamTimeout    = "UPSTREAM_TIMEOUT"     // 504: Provider call timed out
	ErrorCodeModelRefusal       = "MODEL_REFUSAL"        // 502: Model returned no usable answer
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE"  // 503: Service temporarily down
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// FromAdvice fills the response from a completed advice exchange.
func (r *AdviceResponse) FromAdvice(advice *Advice) {
	r.Success = true
	r.Question = advice.Question
	r.Answer = advice.Answer
	r.RiskLevel = advice.RiskLevel
	r.Model = advice.Model
	r.Timestamp = advice.CreatedAt
}

// FromAnalysis fills the response from a merged symbol analysis.
func (r *AnalysisResponse) FromAnalysis(analysis *Analysis) {
	r.Success = true
	r.Symbol = analysis.Symbol
	r.Quote = analysis.Quote
	r.Headlines = analysis.Headlines
	r.Commentary = analysis.Commentary
	r.RiskLevel = analysis.RiskLevel
	r.Timestamp = analysis.CreatedAt
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}
