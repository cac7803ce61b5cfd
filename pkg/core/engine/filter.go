package engine

import (
	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// Filter is one hard eligibility predicate. A candidate must pass every
// registered filter to be considered for a slot. Filters are pure: they read
// the slot context and never mutate it, so ordering only affects how early a
// candidate short-circuits out, not the result.
type Filter interface {
	Name() string
	Eligible(c *model.Candidate, sctx *SlotContext) bool
}

// DefaultFilters returns the standard hard-filter chain, cheapest checks first
func DefaultFilters(traineeMaxDistanceKM float64) []Filter {
	return []Filter{
		&AvailabilityFilter{},
		&AlreadyAssignedFilter{},
		&BlocklistFilter{},
		&RegionBanFilter{},
		&DistanceLimitFilter{},
		&TraineeDistanceFilter{MaxKM: traineeMaxDistanceKM},
		&LeadRequiredFilter{},
		&TraineePairingFilter{},
	}
}

// AvailabilityFilter requires the candidate to have registered the slot's date
type AvailabilityFilter struct{}

func (f *AvailabilityFilter) Name() string { return "Availability" }

func (f *AvailabilityFilter) Eligible(c *model.Candidate, sctx *SlotContext) bool {
	return c.Available(sctx.Slot.Date)
}

// AlreadyAssignedFilter blocks candidates who already hold a live assignment
// on the slot's date anywhere in this pass, across all units.
type AlreadyAssignedFilter struct{}

func (f *AlreadyAssignedFilter) Name() string { return "AlreadyAssigned" }

func (f *AlreadyAssignedFilter) Eligible(c *model.Candidate, sctx *SlotContext) bool {
	return !sctx.AssignedOnDate(c.ID)
}

// BlocklistFilter blocks candidates an admin explicitly removed from the slot
type BlocklistFilter struct{}

func (f *BlocklistFilter) Name() string { return "Blocklist" }

func (f *BlocklistFilter) Eligible(c *model.Candidate, sctx *SlotContext) bool {
	return !sctx.Blocked(c.ID)
}

// RegionBanFilter blocks candidates who banned the unit's region
type RegionBanFilter struct{}

func (f *RegionBanFilter) Name() string { return "RegionBan" }

func (f *RegionBanFilter) Eligible(c *model.Candidate, sctx *SlotContext) bool {
	return !c.RegionBanned(sctx.Bundle.Region)
}

// DistanceLimitFilter enforces the candidate's own declared travel limit.
// Candidates without a limit, and pairs without a precomputed distance, pass.
type DistanceLimitFilter struct{}

func (f *DistanceLimitFilter) Name() string { return "DistanceLimit" }

func (f *DistanceLimitFilter) Eligible(c *model.Candidate, sctx *SlotContext) bool {
	if c.MaxDistanceKM == nil {
		return true
	}
	km, ok := sctx.Distance(c.ID)
	if !ok {
		return true
	}
	return km <= *c.MaxDistanceKM
}

// TraineeDistanceFilter caps trainees at a fixed distance regardless of their
// personal preference.
type TraineeDistanceFilter struct {
	MaxKM float64
}

func (f *TraineeDistanceFilter) Name() string { return "TraineeDistance" }

func (f *TraineeDistanceFilter) Eligible(c *model.Candidate, sctx *SlotContext) bool {
	if c.Category != model.CategoryTrainee || f.MaxKM <= 0 {
		return true
	}
	km, ok := sctx.Distance(c.ID)
	if !ok {
		return true
	}
	return km <= f.MaxKM
}

// LeadRequiredFilter lets only Lead candidates through until the slot has at
// least one Lead assigned, guaranteeing a senior instructor before junior
// roles are filled.
type LeadRequiredFilter struct{}

func (f *LeadRequiredFilter) Name() string { return "LeadRequired" }

func (f *LeadRequiredFilter) Eligible(c *model.Candidate, sctx *SlotContext) bool {
	if sctx.SlotHasLead() {
		return true
	}
	return c.Category == model.CategoryLead
}

// TraineePairingFilter keeps a trainee off a slot that already has a Lead from
// the trainee's own team, so trainees rotate instead of shadowing their lead.
type TraineePairingFilter struct{}

func (f *TraineePairingFilter) Name() string { return "TraineePairing" }

func (f *TraineePairingFilter) Eligible(c *model.Candidate, sctx *SlotContext) bool {
	if c.Category != model.CategoryTrainee || c.TeamID == "" {
		return true
	}
	for _, team := range sctx.SlotLeadTeams() {
		if team == c.TeamID {
			return false
		}
	}
	return true
}
