// Package domain holds DTOs for persisted rewrites
package domain

import "uwhatgov/internal/core/record"

// Status values accepted for a stored rewrite
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// PutInput is the upsert body, records are stored in the order given
type PutInput struct {
	Records []record.Record `json:"records" validate:"required,min=1,dive"`
	Status  string          `json:"status" validate:"required,oneof=success failed" example:"success"`
}

// Rewrite is a stored rewrite of one debate
type Rewrite struct {
	DebateID  string          `json:"debate_id" example:"2024-05-14a.112.0"`
	Status    string          `json:"status" example:"success"`
	Records   []record.Record `json:"records"`
	SessionID string          `json:"session_id,omitempty"`
	UpdatedAt string          `json:"updated_at" example:"2025-09-03T13:05:00Z"`
}
