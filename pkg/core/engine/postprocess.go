package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// TeamImbalance flags a team with zero assignments in a week that had
// activity. Informational only: no corrective swap is performed, the signal
// feeds future manual rebalancing.
type TeamImbalance struct {
	ISOWeek string // e.g. "2026-W14"
	TeamID  string
}

// DetermineRoles determines Head/Supervisor per slot over a complete result
// set, in place. Exactly one assigned Lead gets Head. Two or more Leads: the
// top by (team-leader flag, then seniority rank, then ID) gets Supervisor and
// no one gets Head. Zero Leads: no role. At most one role per slot, never
// both. The lifecycle service reuses this when a confirmed bundle reverts.
func DetermineRoles(results []model.AssignmentResult, candidatesByID map[string]*model.Candidate) {
	leadsBySlot := make(map[string][]int)
	for i := range results {
		c, ok := candidatesByID[results[i].CandidateID]
		if !ok || c.Category != model.CategoryLead {
			continue
		}
		leadsBySlot[results[i].SlotID] = append(leadsBySlot[results[i].SlotID], i)
	}

	for _, indices := range leadsBySlot {
		if len(indices) == 1 {
			results[indices[0]].Role = model.RoleHead
			continue
		}

		sort.Slice(indices, func(a, b int) bool {
			ca := candidatesByID[results[indices[a]].CandidateID]
			cb := candidatesByID[results[indices[b]].CandidateID]
			if ca.IsTeamLeader != cb.IsTeamLeader {
				return ca.IsTeamLeader
			}
			if ca.SeniorityRank != cb.SeniorityRank {
				return ca.SeniorityRank < cb.SeniorityRank
			}
			return ca.ID < cb.ID
		})
		results[indices[0]].Role = model.RoleSupervisor
	}
}

// auditWeeklyBalance tallies assignments per team per ISO week and reports
// every team that sat out a week with activity. Teams are the set of team IDs
// present among the snapshot's candidates.
func auditWeeklyBalance(results []model.AssignmentResult, candidatesByID map[string]*model.Candidate, candidates []model.Candidate) []TeamImbalance {
	allTeams := make(map[string]bool)
	for i := range candidates {
		if candidates[i].TeamID != "" {
			allTeams[candidates[i].TeamID] = true
		}
	}
	if len(allTeams) == 0 {
		return nil
	}

	weekTeams := make(map[string]map[string]int)
	for i := range results {
		week, ok := isoWeek(results[i].Date)
		if !ok {
			continue
		}
		if weekTeams[week] == nil {
			weekTeams[week] = make(map[string]int)
		}
		c, ok := candidatesByID[results[i].CandidateID]
		if ok && c.TeamID != "" {
			weekTeams[week][c.TeamID]++
		}
	}

	var imbalances []TeamImbalance
	for week, byTeam := range weekTeams {
		for team := range allTeams {
			if byTeam[team] == 0 {
				imbalances = append(imbalances, TeamImbalance{ISOWeek: week, TeamID: team})
			}
		}
	}

	sort.Slice(imbalances, func(i, j int) bool {
		if imbalances[i].ISOWeek != imbalances[j].ISOWeek {
			return imbalances[i].ISOWeek < imbalances[j].ISOWeek
		}
		return imbalances[i].TeamID < imbalances[j].TeamID
	})
	return imbalances
}

func isoWeek(date string) (string, bool) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", false
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week), true
}
