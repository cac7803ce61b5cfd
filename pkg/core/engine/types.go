package engine

import (
	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// Snapshot is the complete in-memory input for one engine run. It is read-only
// from the engine's point of view; concurrent runs must each receive their own.
type Snapshot struct {
	// WindowStart/WindowEnd bound the query window (ISO yyyy-mm-dd, inclusive)
	WindowStart string
	WindowEnd   string

	Candidates []model.Candidate
	Bundles    []model.Bundle

	// Distances maps (candidateID, unitID) to kilometres. Missing entries are
	// treated as unknown distance (no limit violation, zero distance score).
	Distances map[string]map[string]float64

	// Blocklist maps slotID to the candidate IDs an admin explicitly removed
	// from that slot. Blocked candidates never return to the same slot.
	Blocklist map[string]map[string]bool
}

// DistanceTo returns the precomputed candidate→unit distance, ok=false if unknown
func (s *Snapshot) DistanceTo(candidateID, unitID string) (float64, bool) {
	byUnit, ok := s.Distances[candidateID]
	if !ok {
		return 0, false
	}
	km, ok := byUnit[unitID]
	return km, ok
}

// runState is the mutable accumulator threaded through a single engine pass.
// It is owned by one Execute call and never shared between runs.
type runState struct {
	// byDate maps date → candidateID → true for every live assignment in this
	// pass, pre-existing records included. Guards the one-per-date invariant.
	byDate map[string]map[string]bool

	// bySlot maps slotID → candidate IDs assigned in this pass (new results only)
	bySlot map[string][]string

	// slotTeams maps slotID → teamID → true for teams already on the slot
	// (pre-existing and new), used by the team-match scorer and trainee rules.
	slotTeams map[string]map[string]bool

	// slotLeads maps slotID → teamID of each assigned Lead ("" for teamless),
	// used by the lead-required filter and the trainee-pairing ban.
	slotLeads map[string][]leadAssignment

	// bundleDays maps bundleID → candidateID → count of days held in that
	// bundle this pass (pre-existing live records included), for continuity.
	bundleDays map[string]map[string]int

	// bundleTeams maps bundleID → teamID → assignment count, for cross-bundle
	// team diversity.
	bundleTeams map[string]map[string]int

	// assignedTotal maps candidateID → new assignments produced this pass,
	// added to the historical lookback count by the fairness scorer.
	assignedTotal map[string]int
}

type leadAssignment struct {
	candidateID string
	teamID      string
}

func newRunState() *runState {
	return &runState{
		byDate:        make(map[string]map[string]bool),
		bySlot:        make(map[string][]string),
		slotTeams:     make(map[string]map[string]bool),
		slotLeads:     make(map[string][]leadAssignment),
		bundleDays:    make(map[string]map[string]int),
		bundleTeams:   make(map[string]map[string]int),
		assignedTotal: make(map[string]int),
	}
}

// record notes one live assignment (new or pre-existing) in the running state.
// newResult distinguishes engine-produced assignments from pre-existing ones.
func (rs *runState) record(c *model.Candidate, slot *model.Slot, bundleID string, newResult bool) {
	if rs.byDate[slot.Date] == nil {
		rs.byDate[slot.Date] = make(map[string]bool)
	}
	rs.byDate[slot.Date][c.ID] = true

	if rs.slotTeams[slot.ID] == nil {
		rs.slotTeams[slot.ID] = make(map[string]bool)
	}
	if c.TeamID != "" {
		rs.slotTeams[slot.ID][c.TeamID] = true
	}

	if c.Category == model.CategoryLead {
		rs.slotLeads[slot.ID] = append(rs.slotLeads[slot.ID], leadAssignment{
			candidateID: c.ID,
			teamID:      c.TeamID,
		})
	}

	if rs.bundleDays[bundleID] == nil {
		rs.bundleDays[bundleID] = make(map[string]int)
	}
	rs.bundleDays[bundleID][c.ID]++

	if newResult {
		rs.bySlot[slot.ID] = append(rs.bySlot[slot.ID], c.ID)
		rs.assignedTotal[c.ID]++
		if c.TeamID != "" {
			if rs.bundleTeams[bundleID] == nil {
				rs.bundleTeams[bundleID] = make(map[string]int)
			}
			rs.bundleTeams[bundleID][c.TeamID]++
		}
	}
}

// assignedOn reports whether the candidate already holds an assignment that date
func (rs *runState) assignedOn(date, candidateID string) bool {
	return rs.byDate[date][candidateID]
}

// hasLead reports whether the slot already has a Lead-category assignee
func (rs *runState) hasLead(slotID string) bool {
	return len(rs.slotLeads[slotID]) > 0
}

// leadTeams returns the team IDs of Leads already on the slot
func (rs *runState) leadTeams(slotID string) []string {
	teams := make([]string, 0, len(rs.slotLeads[slotID]))
	for _, la := range rs.slotLeads[slotID] {
		if la.teamID != "" {
			teams = append(teams, la.teamID)
		}
	}
	return teams
}

// SlotContext is the per-slot view handed to filters and scorers. It bundles
// the slot, its owning bundle, the snapshot, and read access to the running
// state; filters and scorers never mutate it.
type SlotContext struct {
	Slot   *model.Slot
	Bundle *model.Bundle

	snapshot *Snapshot
	state    *runState

	// scarcity precomputed once per run for the opportunity-cost scorer
	scarcity *scarcityIndex

	// maxApplicationDays is the largest available-day count in the snapshot,
	// used to normalize the application-volume score.
	maxApplicationDays int
}

// Distance returns the candidate→unit distance for this slot's unit
func (sc *SlotContext) Distance(candidateID string) (float64, bool) {
	return sc.snapshot.DistanceTo(candidateID, sc.Bundle.UnitID)
}

// Blocked reports whether an admin removed the candidate from this slot
func (sc *SlotContext) Blocked(candidateID string) bool {
	return sc.snapshot.Blocklist[sc.Slot.ID][candidateID]
}

// AssignedOnDate reports whether the candidate already holds any assignment
// on this slot's date in the current pass.
func (sc *SlotContext) AssignedOnDate(candidateID string) bool {
	return sc.state.assignedOn(sc.Slot.Date, candidateID)
}

// SlotHasLead reports whether a Lead is already assigned to this slot
func (sc *SlotContext) SlotHasLead() bool {
	return sc.state.hasLead(sc.Slot.ID)
}

// SlotLeadTeams returns the teams of Leads already assigned to this slot
func (sc *SlotContext) SlotLeadTeams() []string {
	return sc.state.leadTeams(sc.Slot.ID)
}

// SlotTeamAssigned reports whether the team already has a member on this slot
func (sc *SlotContext) SlotTeamAssigned(teamID string) bool {
	if teamID == "" {
		return false
	}
	return sc.state.slotTeams[sc.Slot.ID][teamID]
}

// BundleDaysHeld returns how many slots of this bundle the candidate already
// holds in the current pass, pre-existing live records included.
func (sc *SlotContext) BundleDaysHeld(candidateID string) int {
	return sc.state.bundleDays[sc.Bundle.ID][candidateID]
}

// RunAssignments returns the number of new assignments the candidate received
// in this pass so far.
func (sc *SlotContext) RunAssignments(candidateID string) int {
	return sc.state.assignedTotal[candidateID]
}

// TeamBundleShare returns the team's share of assignments across all bundles
// other than this one, and the even-split share it would have if every team
// with any assignment were used equally.
func (sc *SlotContext) TeamBundleShare(teamID string) (share, evenSplit float64) {
	if teamID == "" {
		return 0, 0
	}
	teamCount := 0
	total := 0
	teams := make(map[string]bool)
	for bundleID, byTeam := range sc.state.bundleTeams {
		if bundleID == sc.Bundle.ID {
			continue
		}
		for t, n := range byTeam {
			teams[t] = true
			total += n
			if t == teamID {
				teamCount += n
			}
		}
	}
	if total == 0 || len(teams) == 0 {
		return 0, 0
	}
	return float64(teamCount) / float64(total), 1.0 / float64(len(teams))
}
