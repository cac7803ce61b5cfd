package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calderhart/instructor-rota/internal/config"
	"github.com/calderhart/instructor-rota/pkg/core/engine"
	"github.com/calderhart/instructor-rota/pkg/core/model"
	"github.com/calderhart/instructor-rota/pkg/db"
	"github.com/calderhart/instructor-rota/pkg/notify"
)

var (
	// ErrAssignmentNotFound means no record exists for the (candidate, slot)
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrAlreadyAccepted means the record was accepted before this response
	ErrAlreadyAccepted = errors.New("assignment already accepted")

	// ErrTerminalState means the record is Rejected or Canceled and immutable
	ErrTerminalState = errors.New("assignment is in a terminal state")

	// ErrNotAccepted means cancel was attempted on a non-accepted record
	ErrNotAccepted = errors.New("assignment is not accepted")

	// ErrForbidden means the actor is not allowed to perform the operation
	ErrForbidden = errors.New("operation not permitted for this actor")
)

// PenaltyReasonRejection and PenaltyReasonCancel label penalty audit entries
const (
	PenaltyReasonRejection = "rejection"
	PenaltyReasonCancel    = "admin_cancel_of_accepted"
)

// Actor identifies who is performing a lifecycle operation
type Actor struct {
	ID      string
	IsAdmin bool
}

// LifecycleService owns the assignment state machine: candidate responses,
// admin cancellations, auto-confirmation of fully staffed bundles, penalty
// issuance, and the notifications those side effects produce.
type LifecycleService struct {
	store  db.LifecycleStore
	cfg    *config.Config
	logger *zap.Logger

	// sender is optional; nil disables notification side effects
	sender notify.Sender
}

// NewLifecycleService creates a LifecycleService
func NewLifecycleService(store db.LifecycleStore, cfg *config.Config, logger *zap.Logger, sender notify.Sender) *LifecycleService {
	return &LifecycleService{store: store, cfg: cfg, logger: logger, sender: sender}
}

// Respond applies a candidate's accept or reject to a Pending assignment.
//
// Transitions are optimistic: the store only flips the state when it is still
// Pending, so a duplicate or racing response surfaces as a conflict instead
// of being processed twice. Accepting triggers the bundle auto-confirm check;
// rejecting issues a penalty as a fire-and-forget side effect.
func (s *LifecycleService) Respond(ctx context.Context, candidateID, slotID string, accept bool) error {
	rec, err := s.store.GetAssignment(ctx, candidateID, slotID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to load assignment: %w", err)
	}

	switch {
	case rec.State == model.StateAccepted:
		return ErrAlreadyAccepted
	case rec.State.Terminal():
		return ErrTerminalState
	}

	target := model.StateRejected
	if accept {
		target = model.StateAccepted
	}
	if err := s.store.TransitionAssignment(ctx, candidateID, slotID, model.StatePending, target); err != nil {
		if errors.Is(err, db.ErrStateConflict) {
			return ErrTerminalState
		}
		return fmt.Errorf("failed to transition assignment: %w", err)
	}

	s.logger.Info("Assignment response applied",
		zap.String("candidate", candidateID),
		zap.String("slot", slotID),
		zap.String("state", string(target)))

	if accept {
		if err := s.autoConfirm(ctx, rec.BundleID); err != nil {
			return fmt.Errorf("auto-confirm check failed: %w", err)
		}
		return nil
	}

	s.issuePenalty(ctx, rec, PenaltyReasonRejection)
	return nil
}

// Cancel withdraws an Accepted assignment. Only admins may cancel. The
// attribution decides the semantics: candidate-attributable cancellations
// become rejections and carry a penalty, organization-attributable ones
// become cancellations with none. A confirmed bundle reverts to Temporary
// and has its roles recomputed.
func (s *LifecycleService) Cancel(ctx context.Context, actor Actor, candidateID, slotID string, attribution model.CancelAttribution) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if !attribution.IsValid() {
		return fmt.Errorf("invalid cancel attribution %q", attribution)
	}

	rec, err := s.store.GetAssignment(ctx, candidateID, slotID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to load assignment: %w", err)
	}

	if rec.State.Terminal() {
		return ErrTerminalState
	}
	if rec.State != model.StateAccepted {
		return ErrNotAccepted
	}

	target := model.StateCanceled
	if attribution == model.AttributedToCandidate {
		target = model.StateRejected
	}
	if err := s.store.TransitionAssignment(ctx, candidateID, slotID, model.StateAccepted, target); err != nil {
		if errors.Is(err, db.ErrStateConflict) {
			return ErrNotAccepted
		}
		return fmt.Errorf("failed to transition assignment: %w", err)
	}

	s.logger.Info("Assignment canceled",
		zap.String("candidate", candidateID),
		zap.String("slot", slotID),
		zap.String("attribution", string(attribution)),
		zap.String("actor", actor.ID))

	if attribution == model.AttributedToCandidate {
		s.issuePenalty(ctx, rec, PenaltyReasonCancel)
	}

	if rec.Classification == model.ClassConfirmed {
		if err := s.revertConfirmation(ctx, rec.BundleID); err != nil {
			return fmt.Errorf("failed to revert bundle confirmation: %w", err)
		}
	}
	return nil
}

// autoConfirm flips a bundle to Confirmed once no Pending records remain and
// either the period is staff-locked or every slot's accepted count meets its
// required headcount.
func (s *LifecycleService) autoConfirm(ctx context.Context, bundleID string) error {
	records, err := s.store.ListBundleAssignments(ctx, bundleID)
	if err != nil {
		return fmt.Errorf("failed to list bundle assignments: %w", err)
	}

	acceptedBySlot := make(map[string]int)
	for _, rec := range records {
		switch rec.State {
		case model.StatePending:
			return nil // unresolved responses remain
		case model.StateAccepted:
			acceptedBySlot[rec.SlotID]++
		}
	}

	period, err := s.store.GetTrainingPeriod(ctx, bundleID)
	if err != nil {
		return fmt.Errorf("failed to load training period: %w", err)
	}

	if !period.StaffLocked {
		slots, err := s.store.ListBundleSlots(ctx, bundleID)
		if err != nil {
			return fmt.Errorf("failed to list bundle slots: %w", err)
		}
		for _, slot := range slots {
			if acceptedBySlot[slot.ID] < requiredHeadcount(slot, s.cfg.HeadcountDivisor) {
				return nil
			}
		}
	}

	if err := s.store.SetBundleClassification(ctx, bundleID, model.ClassConfirmed); err != nil {
		return fmt.Errorf("failed to confirm bundle: %w", err)
	}
	s.logger.Info("Bundle confirmed", zap.String("bundle", bundleID))
	return nil
}

// revertConfirmation returns a confirmed bundle to Temporary and recomputes
// Head/Supervisor roles over its remaining live assignments.
func (s *LifecycleService) revertConfirmation(ctx context.Context, bundleID string) error {
	if err := s.store.SetBundleClassification(ctx, bundleID, model.ClassTemporary); err != nil {
		return fmt.Errorf("failed to revert classification: %w", err)
	}
	s.logger.Info("Bundle reverted to temporary", zap.String("bundle", bundleID))
	return s.recomputeRoles(ctx, bundleID)
}

func (s *LifecycleService) recomputeRoles(ctx context.Context, bundleID string) error {
	records, err := s.store.ListBundleAssignments(ctx, bundleID)
	if err != nil {
		return fmt.Errorf("failed to list bundle assignments: %w", err)
	}

	var live []db.AssignmentRecord
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.State == model.StatePending || rec.State == model.StateAccepted {
			live = append(live, rec)
			ids = append(ids, rec.CandidateID)
		}
	}
	if len(live) == 0 {
		return nil
	}

	candidates, err := s.store.GetCandidates(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}
	byID := make(map[string]*model.Candidate, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	results := make([]model.AssignmentResult, 0, len(live))
	for _, rec := range live {
		results = append(results, model.AssignmentResult{
			SlotID:      rec.SlotID,
			CandidateID: rec.CandidateID,
		})
	}
	engine.DetermineRoles(results, byID)

	for i, rec := range live {
		if results[i].Role == rec.Role {
			continue
		}
		if err := s.store.UpdateAssignmentRole(ctx, rec.CandidateID, rec.SlotID, results[i].Role); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
	}
	return nil
}

// issuePenalty extends (never resets) the candidate's penalty and appends an
// audit entry. Failures are logged, not propagated: penalties are a side
// effect of the response, not a precondition for it.
func (s *LifecycleService) issuePenalty(ctx context.Context, rec *db.AssignmentRecord, reason string) {
	now := time.Now().UTC()

	penalty, err := s.store.GetPenalty(ctx, rec.CandidateID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.logger.Error("Failed to load penalty", zap.String("candidate", rec.CandidateID), zap.Error(err))
		return
	}
	if penalty == nil {
		penalty = &db.PenaltyRecord{CandidateID: rec.CandidateID, ExpiresAt: now}
	}

	// Extension is additive from whichever is later, now or the current
	// expiry, so stacked rejections extend rather than reset.
	base := penalty.ExpiresAt
	if base.Before(now) {
		base = now
	}
	penalty.Count++
	penalty.ExpiresAt = base.AddDate(0, 0, s.cfg.PenaltyDays)
	penalty.Audit = append(penalty.Audit, db.PenaltyAuditEntry{
		UnitID: rec.UnitID,
		Date:   rec.Date,
		Reason: reason,
		At:     now,
	})

	if err := s.store.UpsertPenalty(ctx, penalty); err != nil {
		s.logger.Error("Failed to persist penalty", zap.String("candidate", rec.CandidateID), zap.Error(err))
		return
	}

	s.logger.Info("Penalty issued",
		zap.String("candidate", rec.CandidateID),
		zap.Int("count", penalty.Count),
		zap.Time("expires", penalty.ExpiresAt))

	s.sendPenaltyNotice(ctx, rec, penalty)
}

var penaltyNoticeTemplate = []notify.Token{
	{Kind: notify.KindText, Text: "Your response for "},
	{Kind: notify.KindVariable, Key: "date"},
	{Kind: notify.KindText, Text: " has been recorded."},
	{Kind: notify.KindNewline},
	{Kind: notify.KindText, Text: "Active penalties: "},
	{Kind: notify.KindVariable, Key: "count"},
	{Kind: notify.KindText, Text: ", expiring "},
	{Kind: notify.KindVariable, Key: "expires"},
	{Kind: notify.KindNewline},
}

func (s *LifecycleService) sendPenaltyNotice(ctx context.Context, rec *db.AssignmentRecord, penalty *db.PenaltyRecord) {
	if s.sender == nil {
		return
	}
	body := notify.Render(penaltyNoticeTemplate, map[string]any{
		"date":    rec.Date,
		"count":   penalty.Count,
		"expires": penalty.ExpiresAt.Format("2006-01-02"),
	})
	if err := s.sender.Send(ctx, rec.CandidateID, body); err != nil {
		s.logger.Warn("Failed to send penalty notice",
			zap.String("candidate", rec.CandidateID), zap.Error(err))
	}
}
