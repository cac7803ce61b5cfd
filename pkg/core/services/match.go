package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calderhart/instructor-rota/internal/config"
	"github.com/calderhart/instructor-rota/pkg/core/engine"
	"github.com/calderhart/instructor-rota/pkg/core/model"
	"github.com/calderhart/instructor-rota/pkg/db"
)

// MatchOptions controls one matching run
type MatchOptions struct {
	// DryRun computes the matching without persisting anything (preview)
	DryRun bool

	// Force persists results even when the run ends with a shortfall
	Force bool

	// DebugScores includes the per-slot top-K score breakdowns in the result
	DebugScores bool
}

// MatchResult is what the caller gets back from a matching run
type MatchResult struct {
	Outcome   *engine.MatchOutcome
	Reason    engine.NoResultReason
	Persisted int
}

// RunMatching loads candidate and slot snapshots for the query window, runs
// the matching engine, and (unless dry-run) persists the results as Pending
// Temporary assignment records and consumes priority credits.
//
// Snapshot reads happen strictly before engine execution and writes strictly
// after: the engine itself is a pure in-memory computation. Persistence is an
// idempotent upsert keyed on (candidate, slot), so a duplicate invocation
// never creates duplicate rows.
func RunMatching(
	ctx context.Context,
	store db.MatchStore,
	cfg *config.Config,
	logger *zap.Logger,
	from, to string,
	opts MatchOptions,
) (*MatchResult, error) {
	logger.Debug("Starting matching run",
		zap.String("from", from),
		zap.String("to", to),
		zap.Bool("dry_run", opts.DryRun))

	if from == "" || to == "" || from > to {
		return nil, fmt.Errorf("invalid query window %q..%q", from, to)
	}

	periods, err := store.ListTrainingPeriods(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training periods: %w", err)
	}
	logger.Debug("Found training periods", zap.Int("count", len(periods)))
	if len(periods) == 0 {
		return &MatchResult{Reason: engine.ReasonNoBundles}, nil
	}

	candidates, err := store.ListCandidates(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	logger.Debug("Found candidates", zap.Int("count", len(candidates)))
	if len(candidates) == 0 {
		return &MatchResult{Reason: engine.ReasonNoCandidates}, nil
	}

	slotRows, err := store.ListSlots(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slots: %w", err)
	}

	distances, err := store.GetDistances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch distances: %w", err)
	}

	blocklist, err := store.GetBlocklist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blocklist: %w", err)
	}

	blackout, err := cfg.BlackoutDates(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to expand blackout rules: %w", err)
	}

	slots := prepareSlots(slotRows, blackout, cfg.HeadcountDivisor)
	periods = attachBlackoutExclusions(periods, blackout)

	bundles := engine.BuildBundles(periods, slots)
	if len(bundles) == 0 {
		return &MatchResult{Reason: engine.ReasonNoBundles}, nil
	}

	eng := engine.New(engine.Config{
		Weights:               cfg.EngineWeights(),
		TraineeMaxDistanceKM:  cfg.TraineeMaxDistanceKM,
		OverlapSlackThreshold: cfg.OverlapSlackThreshold,
		DebugScores:           opts.DebugScores,
	})

	outcome, err := eng.Execute(&engine.Snapshot{
		WindowStart: from,
		WindowEnd:   to,
		Candidates:  candidates,
		Bundles:     bundles,
		Distances:   distances,
		Blocklist:   blocklist,
	})
	if err != nil {
		return nil, fmt.Errorf("matching engine failed: %w", err)
	}

	logger.Info("Matching computed",
		zap.Int("assigned", outcome.Stats.TotalAssigned),
		zap.Int("shortfall", outcome.Stats.TotalShortfall),
		zap.String("reason", string(outcome.Reason)))

	result := &MatchResult{Outcome: outcome, Reason: outcome.Reason}
	if opts.DryRun || len(outcome.Results) == 0 {
		return result, nil
	}
	if outcome.Stats.TotalShortfall > 0 && !opts.Force {
		logger.Warn("Shortfall present, not persisting (use force to commit)",
			zap.Int("shortfall", outcome.Stats.TotalShortfall))
		return result, nil
	}

	records := toRecords(outcome.Results)
	if err := store.UpsertAssignments(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist assignments: %w", err)
	}

	// Each engine-produced assignment consumes one banked priority credit
	for _, r := range outcome.Results {
		if err := store.DecrementPriorityCredit(ctx, r.CandidateID); err != nil {
			return nil, fmt.Errorf("failed to consume priority credit for %s: %w", r.CandidateID, err)
		}
	}

	result.Persisted = len(records)
	logger.Info("Assignments persisted", zap.Int("count", len(records)))
	return result, nil
}

// prepareSlots maps slot rows to engine slots, dropping blackout dates and
// deriving required headcount from participant counts where needed.
func prepareSlots(rows []db.SlotRow, blackout map[string]bool, headcountDivisor int) []model.Slot {
	slots := make([]model.Slot, 0, len(rows))
	for _, row := range rows {
		if blackout[row.Date] {
			continue
		}
		slots = append(slots, model.Slot{
			ID:         row.ID,
			BundleID:   row.PeriodID,
			Date:       row.Date,
			Required:   requiredHeadcount(row, headcountDivisor),
			LocationID: row.LocationID,
			Existing:   row.Existing,
		})
	}
	return slots
}

// requiredHeadcount resolves a slot's instructor headcount: an explicit
// requirement wins, otherwise it is derived from the participant count and
// the configured per-instructor divisor, rounded up.
func requiredHeadcount(row db.SlotRow, divisor int) int {
	if row.Required > 0 {
		return row.Required
	}
	if row.Participants > 0 && divisor > 0 {
		return (row.Participants + divisor - 1) / divisor
	}
	return row.Required
}

// attachBlackoutExclusions appends blackout dates to each period's excluded
// dates so bundle continuity scoring skips them.
func attachBlackoutExclusions(periods []model.TrainingPeriod, blackout map[string]bool) []model.TrainingPeriod {
	if len(blackout) == 0 {
		return periods
	}
	for i := range periods {
		for date := range blackout {
			periods[i].ExcludedDates = append(periods[i].ExcludedDates, date)
		}
	}
	return periods
}

func toRecords(results []model.AssignmentResult) []db.AssignmentRecord {
	now := time.Now().UTC()
	records := make([]db.AssignmentRecord, 0, len(results))
	for _, r := range results {
		records = append(records, db.AssignmentRecord{
			ID:             uuid.New().String(),
			CandidateID:    r.CandidateID,
			SlotID:         r.SlotID,
			BundleID:       r.BundleID,
			UnitID:         r.UnitID,
			Date:           r.Date,
			State:          model.StatePending,
			Classification: r.Classification,
			Role:           r.Role,
			Score:          r.Score,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return records
}
