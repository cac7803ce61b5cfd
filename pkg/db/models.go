package db

import (
	"time"

	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// AssignmentRecord is one persisted (candidate, slot) assignment. Uniqueness
// is keyed on (candidate_id, slot_id) so writes are idempotent upserts.
type AssignmentRecord struct {
	ID             string
	CandidateID    string
	SlotID         string
	BundleID       string
	UnitID         string
	Date           string // ISO yyyy-mm-dd
	State          model.AssignmentState
	Classification model.Classification
	Role           model.Role
	Score          float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SlotRow is one slot as stored, before the service maps it to the engine's
// slot model. Required may be zero when only a participant count is known;
// the match service derives the headcount from the configured divisor.
type SlotRow struct {
	ID           string
	PeriodID     string
	Date         string
	Required     int
	Participants int
	LocationID   string
	Existing     []model.ExistingAssignment
}

// PenaltyAuditEntry is one entry in a penalty's audit trail
type PenaltyAuditEntry struct {
	UnitID string    `json:"unit_id"`
	Date   string    `json:"date"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// PenaltyRecord is a candidate's accumulating, expiring demerit
type PenaltyRecord struct {
	CandidateID string
	Count       int
	ExpiresAt   time.Time
	Audit       []PenaltyAuditEntry
}

// PriorityCreditRecord is a candidate's banked credit balance. The row is
// deleted when the balance reaches zero.
type PriorityCreditRecord struct {
	CandidateID string
	Balance     int
}
