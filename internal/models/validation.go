// Package models - Request guard functions.
// This file defines the stateless validators that reject malformed input
// before it reaches the throttled business handlers.
//
// Validation Philosophy:
// - Guards are pure functions: no shared state, no panics, no logging
// - Each guard returns a discriminated result; the routing layer translates
//   rejections into HTTP responses
// - Checks run in a fixed order and stop at the first failure so exactly one
//   reason is reported
package models

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Reject reasons reported by the guard functions.
const (
	ReasonMissing       = "missing"        // Field absent from the payload
	ReasonWrongType     = "wrong-type"     // Field present but not text
	ReasonEmpty         = "empty"          // Text blank after trimming
	ReasonTooLong       = "too-long"       // Text over the length ceiling
	ReasonInvalidFormat = "invalid-format" // Character outside the allowed set
)

// MaxQuestionChars is the longest accepted question, counted in characters
// before any trimming.
const MaxQuestionChars = 1000

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidationResult is the outcome of a guard function: either OK, or a
// rejection carrying a machine-readable reason, a human-readable message,
// and the HTTP status code the routing layer should emit.
type ValidationResult struct {
	OK      bool
	Reason  string
	Message string
	Code    int
}

func pass() ValidationResult {
	return ValidationResult{OK: true}
}

func reject(reason, message string) ValidationResult {
	return ValidationResult{
		Reason:  reason,
		Message: message,
		Code:    http.StatusBadRequest,
	}
}

// ValidateQuestion checks a decoded request body for a usable question field.
//
// Checks run in order, first match wins:
//  1. missing: the question key is absent (a nil payload counts as absent)
//  2. wrong-type: the value is present but not a string
//  3. empty: the text is blank after trimming whitespace
//  4. too-long: the text exceeds MaxQuestionChars, measured before trimming
func ValidateQuestion(payload map[string]any) ValidationResult {
	raw, present := payload["question"]
	if !present {
		return reject(ReasonMissing, "question is required")
	}

	text, ok := raw.(string)
	if !ok {
		return reject(ReasonWrongType, "question must be a string")
	}

	if strings.TrimSpace(text) == "" {
		return reject(ReasonEmpty, "question cannot be empty")
	}

	if utf8.RuneCountInString(text) > MaxQuestionChars {
		return reject(ReasonTooLong, fmt.Sprintf("question cannot exceed %d characters", MaxQuestionChars))
	}

	return pass()
}

// ValidateSymbol checks a ticker path parameter. Case is preserved here;
// normalization, if any, happens downstream in the market-data client.
func ValidateSymbol(symbol string) ValidationResult {
	if symbol == "" {
		return reject(ReasonMissing, "symbol is required")
	}

	if !symbolPattern.MatchString(symbol) {
		return reject(ReasonInvalidFormat, "symbol may only contain letters, digits, and hyphens")
	}

	return pass()
}
