package engine

import (
	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// Scorer is one soft-scoring strategy. Score returns a raw value; the scorer's
// weight is applied on top, so raw values stay in a small natural range and
// the relative importance lives entirely in the weight set.
type Scorer interface {
	Name() string
	Weight() float64
	Score(c *model.Candidate, sctx *SlotContext) float64
}

// DefaultScorers returns the standard scoring pipeline for the given weights
func DefaultScorers(w Weights) []Scorer {
	return []Scorer{
		&ContinuityScorer{weight: w.Continuity},
		&FullPeriodScorer{weight: w.FullPeriod},
		&PriorityCreditScorer{weight: w.PriorityCredit},
		&FairnessScorer{weight: w.Fairness},
		&TeamMatchScorer{weight: w.TeamMatch},
		&DistanceScorer{weight: w.Distance},
		&ApplicationVolumeScorer{weight: w.ApplicationVolume},
		&TeamDiversityScorer{weight: w.TeamDiversity},
		&RejectionPenaltyScorer{weight: w.RejectionPenalty},
		&OpportunityCostScorer{weight: w.OpportunityCost},
	}
}

// ContinuityScorer scales with how many prior slots of the same bundle the
// candidate already holds: 0 for none, half for one day, three quarters for
// two, full for three or more. With the default weight this dominates every
// other scorer, so a 3-day training keeps its day-1 staff to the end.
type ContinuityScorer struct {
	weight float64
}

func (s *ContinuityScorer) Name() string    { return "Continuity" }
func (s *ContinuityScorer) Weight() float64 { return s.weight }

func (s *ContinuityScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	switch days := sctx.BundleDaysHeld(c.ID); {
	case days <= 0:
		return 0
	case days == 1:
		return 0.5
	case days == 2:
		return 0.75
	default:
		return 1.0
	}
}

// FullPeriodScorer rewards candidates able to cover every date of the bundle,
// excluded dates aside, even before any assignment exists.
type FullPeriodScorer struct {
	weight float64
}

func (s *FullPeriodScorer) Name() string    { return "FullPeriod" }
func (s *FullPeriodScorer) Weight() float64 { return s.weight }

func (s *FullPeriodScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	for _, slot := range sctx.Bundle.Slots {
		if !c.Available(slot.Date) {
			return 0
		}
	}
	return 1.0
}

// PriorityCreditScorer converts banked credits into a bonus capped at three
type PriorityCreditScorer struct {
	weight float64
}

func (s *PriorityCreditScorer) Name() string    { return "PriorityCredit" }
func (s *PriorityCreditScorer) Weight() float64 { return s.weight }

func (s *PriorityCreditScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	credits := c.PriorityCredits
	if credits > 3 {
		credits = 3
	}
	if credits < 0 {
		credits = 0
	}
	return float64(credits) / 3.0
}

// FairnessScorer decreases as the candidate's total load rises: each
// assignment (historical lookback plus this run) subtracts a fifth, floored
// at zero, so lightly-loaded candidates come out ahead.
type FairnessScorer struct {
	weight float64
}

func (s *FairnessScorer) Name() string    { return "Fairness" }
func (s *FairnessScorer) Weight() float64 { return s.weight }

func (s *FairnessScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	total := c.RecentAssignments + sctx.RunAssignments(c.ID)
	score := 1.0 - 0.2*float64(total)
	if score < 0 {
		return 0
	}
	return score
}

// TeamMatchScorer awards a flat bonus when a teammate is already assigned to
// this exact slot.
type TeamMatchScorer struct {
	weight float64
}

func (s *TeamMatchScorer) Name() string    { return "TeamMatch" }
func (s *TeamMatchScorer) Weight() float64 { return s.weight }

func (s *TeamMatchScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	if sctx.SlotTeamAssigned(c.TeamID) {
		return 1.0
	}
	return 0
}

// DistanceScorer decreases monotonically with travel distance,
// max(0, (100−km)/20), capped at 5. Unknown distances score zero.
type DistanceScorer struct {
	weight float64
}

func (s *DistanceScorer) Name() string    { return "Distance" }
func (s *DistanceScorer) Weight() float64 { return s.weight }

func (s *DistanceScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	km, ok := sctx.Distance(c.ID)
	if !ok {
		return 0
	}
	score := (100.0 - km) / 20.0
	if score < 0 {
		return 0
	}
	if score > 5 {
		return 5
	}
	return score
}

// ApplicationVolumeScorer is proportional to how many days the candidate
// registered as available, normalized by the snapshot maximum.
type ApplicationVolumeScorer struct {
	weight float64
}

func (s *ApplicationVolumeScorer) Name() string    { return "ApplicationVolume" }
func (s *ApplicationVolumeScorer) Weight() float64 { return s.weight }

func (s *ApplicationVolumeScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	if sctx.maxApplicationDays <= 0 {
		return 0
	}
	return float64(len(c.AvailableDates)) / float64(sctx.maxApplicationDays)
}

// TeamDiversityScorer returns the amount by which the candidate's team
// exceeds its even-split share of other bundles' assignments. The weight is
// negative, so monopolizing teams are pushed back.
type TeamDiversityScorer struct {
	weight float64
}

func (s *TeamDiversityScorer) Name() string    { return "TeamDiversity" }
func (s *TeamDiversityScorer) Weight() float64 { return s.weight }

func (s *TeamDiversityScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	share, evenSplit := sctx.TeamBundleShare(c.TeamID)
	if share <= evenSplit {
		return 0
	}
	return share - evenSplit
}

// RejectionPenaltyScorer counts recent rejections; the negative weight
// subtracts once per rejection on record.
type RejectionPenaltyScorer struct {
	weight float64
}

func (s *RejectionPenaltyScorer) Name() string    { return "RejectionPenalty" }
func (s *RejectionPenaltyScorer) Weight() float64 { return s.weight }

func (s *RejectionPenaltyScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	if c.RecentRejections < 0 {
		return 0
	}
	return float64(c.RecentRejections)
}

// OpportunityCostScorer measures how many other scarce slots the candidate
// could still cover beyond the snapshot average. The negative weight keeps
// flexible candidates in reserve for the slots that need them.
type OpportunityCostScorer struct {
	weight float64
}

func (s *OpportunityCostScorer) Name() string    { return "OpportunityCost" }
func (s *OpportunityCostScorer) Weight() float64 { return s.weight }

func (s *OpportunityCostScorer) Score(c *model.Candidate, sctx *SlotContext) float64 {
	if sctx.scarcity == nil {
		return 0
	}
	coverable := sctx.scarcity.coverableScarceSlots(c, sctx.Slot.ID)
	excess := float64(coverable) - sctx.scarcity.averageCoverable
	if excess <= 0 {
		return 0
	}
	return excess
}
