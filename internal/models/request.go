// Package models - API request types.
// This file defines incoming request structures.
//
// The advice body is first checked by the guard functions in validation.go
// against the decoded JSON map, because a struct decode cannot distinguish
// "field absent" from "field has the wrong type". The struct below is the
// bound form handed to the service layer after the guards pass.
package models

import (
	"errors"
	"strings"
)

// AdviceRequest is the bound body of POST /api/v1/advice.
//
// ClientKey is not part of the wire body; the handler fills it from the
// same key the throttle uses so the audit row can name the caller.
type AdviceRequest struct {
	Question  string `json:"question" validate:"required"`
	ClientKey string `json:"-"`
}

// Validate re-checks the bound form. The map-level guards run first; this
// exists so the service layer can be called safely from other entry points.
func (r *AdviceRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return errors.New("question is required")
	}

	if res := ValidateQuestion(map[string]any{"question": r.Question}); !res.OK {
		return errors.New(res.Message)
	}

	return nil
}

func (r *AdviceRequest) Normalize() {
	r.Question = strings.TrimSpace(r.Question)
}
