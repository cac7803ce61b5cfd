package engine

import (
	"fmt"
	"sort"

	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// NoResultReason explains an empty outcome to the caller. An empty result is
// not an engine error; the caller decides how to treat it.
type NoResultReason string

const (
	ReasonOK           NoResultReason = "ok"
	ReasonNoBundles    NoResultReason = "no_bundles_in_range"
	ReasonNoCandidates NoResultReason = "no_candidates_in_range"
	ReasonAllFiltered  NoResultReason = "all_candidates_filtered"
)

// Config configures one engine build
type Config struct {
	// Weights for the soft-scoring pipeline
	Weights Weights

	// TraineeMaxDistanceKM caps trainee travel regardless of preference
	TraineeMaxDistanceKM float64

	// OverlapSlackThreshold marks shared dates as contended below this slack
	OverlapSlackThreshold int

	// DebugScores enables the per-slot top-K score breakdown payload
	DebugScores bool

	// DebugTopK is the number of breakdowns kept per slot (default 5)
	DebugTopK int
}

// Stats summarizes one run for the caller
type Stats struct {
	TotalAssigned  int
	TotalShortfall int
	PerUnit        map[string]int
}

// MatchOutcome is the full result of one engine run
type MatchOutcome struct {
	Results    []model.AssignmentResult
	Stats      Stats
	Reason     NoResultReason
	Risks      []BundleRisk
	Imbalances []TeamImbalance

	// Breakdowns is only populated when DebugScores is enabled
	Breakdowns []model.ScoreBreakdown
}

// Engine runs the hard-filter / soft-score matching pass. It is a pure
// synchronous computation over a snapshot: no I/O, no randomness, no shared
// state, so independent runs may execute in parallel goroutines.
type Engine struct {
	filters []Filter
	scorers []Scorer
	cfg     Config
}

// New builds an engine with the default filter and scorer pipelines
func New(cfg Config) *Engine {
	if cfg.DebugTopK <= 0 {
		cfg.DebugTopK = 5
	}
	return &Engine{
		filters: DefaultFilters(cfg.TraineeMaxDistanceKM),
		scorers: DefaultScorers(cfg.Weights),
		cfg:     cfg,
	}
}

// NewWithPipelines builds an engine with explicit filter and scorer lists,
// for tests and callers composing custom pipelines.
func NewWithPipelines(cfg Config, filters []Filter, scorers []Scorer) *Engine {
	if cfg.DebugTopK <= 0 {
		cfg.DebugTopK = 5
	}
	return &Engine{filters: filters, scorers: scorers, cfg: cfg}
}

// Execute runs the full matching pass over the snapshot.
//
// Bundles are processed riskiest-first, slots in date order. Each open seat is
// filled one at a time: filters and scorers see the running state, so a Lead
// lands before juniors and continuity compounds day over day. Ties break by
// candidate ID ascending, which makes the whole run deterministic.
func (e *Engine) Execute(snap *Snapshot) (*MatchOutcome, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}

	candidatesByID := make(map[string]*model.Candidate, len(snap.Candidates))
	maxApplicationDays := 0
	for i := range snap.Candidates {
		c := &snap.Candidates[i]
		candidatesByID[c.ID] = c
		if len(c.AvailableDates) > maxApplicationDays {
			maxApplicationDays = len(c.AvailableDates)
		}
	}

	risks := RankBundles(snap.Bundles, snap.Candidates, e.cfg.OverlapSlackThreshold)
	bundlesByID := make(map[string]*model.Bundle, len(snap.Bundles))
	for i := range snap.Bundles {
		bundlesByID[snap.Bundles[i].ID] = &snap.Bundles[i]
	}

	scarcity := buildScarcityIndex(snap.Bundles, snap.Candidates, e.cfg.OverlapSlackThreshold)
	rs := newRunState()
	seedExistingAssignments(rs, snap.Bundles, candidatesByID)

	outcome := &MatchOutcome{
		Reason: ReasonOK,
		Risks:  risks,
		Stats:  Stats{PerUnit: make(map[string]int)},
	}

	for _, risk := range risks {
		bundle := bundlesByID[risk.BundleID]
		for i := range bundle.Slots {
			slot := &bundle.Slots[i]
			sctx := &SlotContext{
				Slot:               slot,
				Bundle:             bundle,
				snapshot:           snap,
				state:              rs,
				scarcity:           scarcity,
				maxApplicationDays: maxApplicationDays,
			}

			need := slot.Required - len(slot.LiveExistingIDs())
			if need <= 0 {
				continue
			}

			for seat := 0; seat < need; seat++ {
				scored := e.scoreEligible(sctx)
				if e.cfg.DebugScores && seat == 0 {
					outcome.Breakdowns = append(outcome.Breakdowns, topBreakdowns(scored, slot.ID, e.cfg.DebugTopK)...)
				}
				if len(scored) == 0 {
					break // partial fill, reported in stats
				}

				best := scored[0]
				rs.record(best.candidate, slot, bundle.ID, true)
				outcome.Results = append(outcome.Results, model.AssignmentResult{
					SlotID:         slot.ID,
					BundleID:       bundle.ID,
					UnitID:         bundle.UnitID,
					Date:           slot.Date,
					CandidateID:    best.candidate.ID,
					Score:          best.total,
					Classification: model.ClassTemporary,
				})
				outcome.Stats.TotalAssigned++
				outcome.Stats.PerUnit[bundle.UnitID]++
			}

			assigned := len(rs.bySlot[slot.ID])
			if assigned < need {
				outcome.Stats.TotalShortfall += need - assigned
			}
		}
	}

	DetermineRoles(outcome.Results, candidatesByID)
	outcome.Imbalances = auditWeeklyBalance(outcome.Results, candidatesByID, snap.Candidates)

	// A seat is either filled by the top eligible candidate or left open when
	// the filtered pool is empty, so zero results always means every candidate
	// was filtered from every open seat.
	if len(outcome.Results) == 0 {
		outcome.Reason = ReasonAllFiltered
	}
	return outcome, nil
}

type scoredCandidate struct {
	candidate     *model.Candidate
	total         float64
	contributions []model.ScoreContribution
}

// scoreEligible filters and scores the candidate pool for one open seat
func (e *Engine) scoreEligible(sctx *SlotContext) []scoredCandidate {
	var scored []scoredCandidate
	for i := range sctx.snapshot.Candidates {
		c := &sctx.snapshot.Candidates[i]
		if !e.eligible(c, sctx) {
			continue
		}
		total := 0.0
		var contributions []model.ScoreContribution
		for _, scorer := range e.scorers {
			raw := scorer.Score(c, sctx)
			weighted := raw * scorer.Weight()
			total += weighted
			if e.cfg.DebugScores {
				contributions = append(contributions, model.ScoreContribution{
					Scorer:   scorer.Name(),
					Raw:      raw,
					Weighted: weighted,
				})
			}
		}
		scored = append(scored, scoredCandidate{candidate: c, total: total, contributions: contributions})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].total != scored[j].total {
			return scored[i].total > scored[j].total
		}
		return scored[i].candidate.ID < scored[j].candidate.ID
	})
	return scored
}

func (e *Engine) eligible(c *model.Candidate, sctx *SlotContext) bool {
	for _, f := range e.filters {
		if !f.Eligible(c, sctx) {
			return false
		}
	}
	return true
}

// seedExistingAssignments loads pre-existing Pending/Accepted records into the
// running state so they count toward headcount, block double-booking, and
// feed continuity. Candidates missing from the snapshot still occupy their
// date and seat.
func seedExistingAssignments(rs *runState, bundles []model.Bundle, candidatesByID map[string]*model.Candidate) {
	for i := range bundles {
		bundle := &bundles[i]
		for j := range bundle.Slots {
			slot := &bundle.Slots[j]
			for _, id := range slot.LiveExistingIDs() {
				c, ok := candidatesByID[id]
				if !ok {
					c = &model.Candidate{ID: id}
				}
				rs.record(c, slot, bundle.ID, false)
			}
		}
	}
}

func topBreakdowns(scored []scoredCandidate, slotID string, k int) []model.ScoreBreakdown {
	if len(scored) < k {
		k = len(scored)
	}
	breakdowns := make([]model.ScoreBreakdown, 0, k)
	for _, sc := range scored[:k] {
		breakdowns = append(breakdowns, model.ScoreBreakdown{
			SlotID:        slotID,
			CandidateID:   sc.candidate.ID,
			Total:         sc.total,
			Contributions: sc.contributions,
		})
	}
	return breakdowns
}

func validateSnapshot(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if snap.WindowStart != "" && snap.WindowEnd != "" && snap.WindowStart > snap.WindowEnd {
		return fmt.Errorf("inverted query window: %s after %s", snap.WindowStart, snap.WindowEnd)
	}
	if len(snap.Candidates) == 0 {
		return fmt.Errorf("empty candidate set")
	}
	if len(snap.Bundles) == 0 {
		return fmt.Errorf("empty bundle set")
	}
	return nil
}
