// Package models - Advice domain types.
// This file defines the answer, market-quote, news, and audit structures the
// gateway assembles from its upstream providers.
//
// Design Decisions:
// - Upstream payloads are mapped into these types at the client boundary so
//   the rest of the service never sees provider-specific JSON
// - Risk levels are coarse labels derived from answer text, advisory only
// - Query records are the only durable entity and carry no client secrets
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RiskLevel is a coarse label attached to model output by keyword scan.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"      // No cautionary or speculative language detected
	RiskModerate RiskLevel = "moderate" // Cautionary language present
	RiskHigh     RiskLevel = "high"     // Speculative or leveraged instruments mentioned
)

// IsValid reports whether the label is one of the known risk levels.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	}
	return false
}

// Advice is a completed question/answer exchange with the model.
type Advice struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	RiskLevel RiskLevel `json:"risk_level"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Quote is a point-in-time market quote for one symbol.
//
// The symbol is upper-cased by the market-data client; the validator upstream
// preserves case so the client owns normalization.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Currency      string    `json:"currency,omitempty"`
	AsOf          time.Time `json:"as_of"`
	Source        string    `json:"source,omitempty"`
}

// NewsItem is one headline from the news provider.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Analysis merges a quote, related headlines, and model commentary for one
// symbol. Headlines and commentary are best-effort; the quote is mandatory.
type Analysis struct {
	Symbol     string     `json:"symbol"`
	Quote      *Quote     `json:"quote"`
	Headlines  []NewsItem `json:"headlines"`
	Commentary string     `json:"commentary,omitempty"`
	RiskLevel  RiskLevel  `json:"risk_level"`
	CreatedAt  time.Time  `json:"created_at"`
}

// QueryRecord is the persisted audit row for one answered question.
//
// Design Principles:
// - ID is a UUID assigned at creation and used in API URLs
// - ClientKey is the throttling key (typically a network address), kept for
//   abuse investigations, never returned to other clients
// - LatencyMS measures the full upstream round trip
type QueryRecord struct {
	ID        string    `json:"id"`
	ClientKey string    `json:"client_key,omitempty"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	RiskLevel RiskLevel `json:"risk_level"`
	Model     string    `json:"model,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// NewQueryRecord creates an audit row for a question that is about to be
// answered. The answer fields are filled in once the upstream call returns.
func NewQueryRecord(clientKey, question string) *QueryRecord {
	return &QueryRecord{
		ID:        uuid.New().String(),
		ClientKey: clientKey,
		Question:  question,
		CreatedAt: time.Now().UTC(),
	}
}

func (q *QueryRecord) Validate() error {
	if q.ID == "" {
		return errors.New("query record ID cannot be empty")
	}

	if strings.TrimSpace(q.Question) == "" {
		return errors.New("query record question cannot be empty")
	}

	if q.RiskLevel != "" && !q.RiskLevel.IsValid() {
		return errors.New("invalid risk level")
	}

	if q.LatencyMS < 0 {
		return errors.New("latency cannot be negative")
	}

	return nil
}
