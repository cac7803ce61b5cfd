package db

import (
	"context"

	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// MatchStore defines the database operations the match service needs
type MatchStore interface {
	// ListCandidates returns candidate snapshots with availability inside the
	// window, lookback statistics and priority credits attached.
	ListCandidates(ctx context.Context, from, to string) ([]model.Candidate, error)

	// ListTrainingPeriods returns periods with at least one slot in the window
	ListTrainingPeriods(ctx context.Context, from, to string) ([]model.TrainingPeriod, error)

	// ListSlots returns slot rows in the window with pre-existing live
	// assignments attached.
	ListSlots(ctx context.Context, from, to string) ([]SlotRow, error)

	// GetDistances returns the candidate→unit distance lookup in kilometres
	GetDistances(ctx context.Context) (map[string]map[string]float64, error)

	// GetBlocklist returns slotID → blocked candidate IDs
	GetBlocklist(ctx context.Context) (map[string]map[string]bool, error)

	// UpsertAssignments persists engine results idempotently, keyed on
	// (candidate_id, slot_id), in a single transaction.
	UpsertAssignments(ctx context.Context, records []AssignmentRecord) error

	// DecrementPriorityCredit drops the candidate's balance by one, floored
	// at zero; the row is deleted when it reaches zero.
	DecrementPriorityCredit(ctx context.Context, candidateID string) error
}

// LifecycleStore defines the database operations the lifecycle service needs
type LifecycleStore interface {
	GetAssignment(ctx context.Context, candidateID, slotID string) (*AssignmentRecord, error)

	// TransitionAssignment applies an optimistic state transition: the update
	// only matches when the record is still in the expected prior state, and
	// ErrStateConflict is returned otherwise.
	TransitionAssignment(ctx context.Context, candidateID, slotID string, from, to model.AssignmentState) error

	ListBundleAssignments(ctx context.Context, bundleID string) ([]AssignmentRecord, error)
	SetBundleClassification(ctx context.Context, bundleID string, class model.Classification) error
	UpdateAssignmentRole(ctx context.Context, candidateID, slotID string, role model.Role) error

	GetTrainingPeriod(ctx context.Context, periodID string) (*model.TrainingPeriod, error)
	ListBundleSlots(ctx context.Context, bundleID string) ([]SlotRow, error)
	GetCandidates(ctx context.Context, ids []string) ([]model.Candidate, error)

	GetPenalty(ctx context.Context, candidateID string) (*PenaltyRecord, error)
	UpsertPenalty(ctx context.Context, penalty *PenaltyRecord) error
}
