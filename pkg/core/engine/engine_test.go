package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderhart/instructor-rota/pkg/core/model"
)

func defaultTestEngine() *Engine {
	return New(Config{Weights: DefaultWeights(), TraineeMaxDistanceKM: 40})
}

func TestExecute_ValidatesSnapshot(t *testing.T) {
	e := defaultTestEngine()

	_, err := e.Execute(nil)
	assert.Error(t, err)

	_, err = e.Execute(&Snapshot{
		Candidates: []model.Candidate{{ID: "c1"}},
	})
	assert.Error(t, err, "empty bundle set")

	_, err = e.Execute(&Snapshot{
		Bundles: []model.Bundle{{ID: "p1", Slots: []model.Slot{{ID: "s1", Date: "2026-04-01", Required: 1}}}},
	})
	assert.Error(t, err, "empty candidate set")

	_, err = e.Execute(&Snapshot{
		WindowStart: "2026-05-01",
		WindowEnd:   "2026-04-01",
		Candidates:  []model.Candidate{{ID: "c1"}},
		Bundles:     []model.Bundle{{ID: "p1", Slots: []model.Slot{{ID: "s1", Date: "2026-04-01", Required: 1}}}},
	})
	assert.Error(t, err, "inverted window")
}

func TestExecute_AssignsOnlyAvailableCandidates(t *testing.T) {
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "l1", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
			{ID: "l2", Category: model.CategoryLead, AvailableDates: avail("2026-04-02")},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
		}}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "l1", outcome.Results[0].CandidateID)
	assert.Equal(t, ReasonOK, outcome.Reason)
	assert.Equal(t, 1, outcome.Stats.TotalAssigned)
	assert.Equal(t, 0, outcome.Stats.TotalShortfall)
}

func TestExecute_NeverDoubleBooksADate(t *testing.T) {
	// One Lead, two units training on the same date
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "l1", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
		},
		Bundles: []model.Bundle{
			{ID: "p1", UnitID: "u1", Slots: []model.Slot{
				{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
			}},
			{ID: "p2", UnitID: "u2", Slots: []model.Slot{
				{ID: "s2", BundleID: "p2", Date: "2026-04-01", Required: 1},
			}},
		},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, 1, outcome.Stats.TotalShortfall)
}

func TestExecute_RespectsHeadcount(t *testing.T) {
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "l1", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
			{ID: "l2", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
			{ID: "l3", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 2},
		}}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	assert.Len(t, outcome.Results, 2)
}

func TestExecute_LeadLandsBeforeJuniors(t *testing.T) {
	// The junior has a far better soft score, but the first seat must go to a
	// Lead; the junior fills the second seat.
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "co", Category: model.CategoryCo, AvailableDates: avail("2026-04-01"), PriorityCredits: 3},
			{ID: "lead", Category: model.CategoryLead, AvailableDates: avail("2026-04-01"), RecentRejections: 2},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 2},
		}}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, "lead", outcome.Results[0].CandidateID)
	assert.Equal(t, "co", outcome.Results[1].CandidateID)
	assert.Equal(t, model.RoleHead, outcome.Results[0].Role)
}

func TestExecute_SlotStaysOpenWithoutEligibleLead(t *testing.T) {
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "co", Category: model.CategoryCo, AvailableDates: avail("2026-04-01")},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
		}}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	assert.Empty(t, outcome.Results)
	assert.Equal(t, 1, outcome.Stats.TotalShortfall)
	assert.Equal(t, ReasonAllFiltered, outcome.Reason)
}

func TestExecute_EmptyResultsAlwaysReportAllFiltered(t *testing.T) {
	// Only one no-result reason exists for a validated snapshot: a seat is
	// either filled from a non-empty eligible pool or left open, so an empty
	// result set means the filters removed everyone, whatever the cause.
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "l1", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
		}}},
		Blocklist: map[string]map[string]bool{"s1": {"l1": true}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	assert.Empty(t, outcome.Results)
	assert.Equal(t, ReasonAllFiltered, outcome.Reason)
}

func TestExecute_FairnessPrefersLightlyLoaded(t *testing.T) {
	// Equal in every respect except the historical load
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "busy", Category: model.CategoryLead, AvailableDates: avail("2026-04-01"), RecentAssignments: 3},
			{ID: "fresh", Category: model.CategoryLead, AvailableDates: avail("2026-04-01"), RecentAssignments: 0},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
		}}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "fresh", outcome.Results[0].CandidateID)
}

func TestExecute_ContinuityKeepsStaffAcrossThreeDays(t *testing.T) {
	dates := []string{"2026-04-01", "2026-04-02", "2026-04-03"}
	snap := &Snapshot{
		Candidates: []model.Candidate{
			// keeper available the whole period; drifters each a single day
			{ID: "keeper", Category: model.CategoryLead, AvailableDates: avail(dates...)},
			{ID: "day2", Category: model.CategoryLead, AvailableDates: avail("2026-04-02")},
			{ID: "day3", Category: model.CategoryLead, AvailableDates: avail("2026-04-03")},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{ID: "s1", BundleID: "p1", Date: dates[0], Required: 1},
			{ID: "s2", BundleID: "p1", Date: dates[1], Required: 1},
			{ID: "s3", BundleID: "p1", Date: dates[2], Required: 1},
		}}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 3)
	for _, r := range outcome.Results {
		assert.Equal(t, "keeper", r.CandidateID)
	}
}

func TestExecute_SeedsPreExistingAssignments(t *testing.T) {
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "held", Category: model.CategoryLead, AvailableDates: avail("2026-04-01", "2026-04-02")},
			{ID: "l2", Category: model.CategoryLead, AvailableDates: avail("2026-04-01", "2026-04-02")},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{
				ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1,
				Existing: []model.ExistingAssignment{{CandidateID: "held", State: model.StateAccepted}},
			},
			{ID: "s2", BundleID: "p1", Date: "2026-04-02", Required: 1},
		}}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)

	// s1 is already full; only s2 produces a result, and continuity keeps the
	// existing holder on it.
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "s2", outcome.Results[0].SlotID)
	assert.Equal(t, "held", outcome.Results[0].CandidateID)
	assert.Equal(t, 0, outcome.Stats.TotalShortfall)
}

func TestExecute_ExistingRejectedRecordsDoNotHoldSeats(t *testing.T) {
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "l1", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{
				ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1,
				Existing: []model.ExistingAssignment{{CandidateID: "gone", State: model.StateRejected}},
			},
		}}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "l1", outcome.Results[0].CandidateID)
}

func TestExecute_TieBreaksByCandidateID(t *testing.T) {
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "zed", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
			{ID: "amy", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
		}}},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "amy", outcome.Results[0].CandidateID)
}

func TestExecute_Deterministic(t *testing.T) {
	build := func() *Snapshot {
		return &Snapshot{
			Candidates: []model.Candidate{
				{ID: "l1", Category: model.CategoryLead, TeamID: "alpha", AvailableDates: avail("2026-04-01", "2026-04-02")},
				{ID: "l2", Category: model.CategoryLead, TeamID: "beta", AvailableDates: avail("2026-04-01", "2026-04-02")},
				{ID: "c1", Category: model.CategoryCo, TeamID: "alpha", AvailableDates: avail("2026-04-01", "2026-04-02")},
				{ID: "t1", Category: model.CategoryTrainee, TeamID: "beta", AvailableDates: avail("2026-04-01")},
			},
			Bundles: []model.Bundle{
				{ID: "p1", UnitID: "u1", Slots: []model.Slot{
					{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 2},
					{ID: "s2", BundleID: "p1", Date: "2026-04-02", Required: 2},
				}},
				{ID: "p2", UnitID: "u2", Slots: []model.Slot{
					{ID: "s3", BundleID: "p2", Date: "2026-04-01", Required: 1},
				}},
			},
		}
	}

	first, err := defaultTestEngine().Execute(build())
	require.NoError(t, err)
	second, err := defaultTestEngine().Execute(build())
	require.NoError(t, err)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, first.Risks, second.Risks)
}

func TestExecute_RiskiestBundleStaffedFirst(t *testing.T) {
	// Two bundles contend for the same date. The tight bundle needs both
	// Leads and must claim them before the easy one takes either.
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "l1", Category: model.CategoryLead, AvailableDates: avail("2026-04-01", "2026-04-02")},
			{ID: "l2", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
		},
		Bundles: []model.Bundle{
			{ID: "easy", UnitID: "u1", Slots: []model.Slot{
				{ID: "e1", BundleID: "easy", Date: "2026-04-01", Required: 1},
			}},
			{ID: "tight", UnitID: "u2", Slots: []model.Slot{
				{ID: "t1", BundleID: "tight", Date: "2026-04-01", Required: 2},
			}},
		},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	require.Len(t, outcome.Risks, 2)
	assert.Equal(t, "tight", outcome.Risks[0].BundleID)

	bySlot := make(map[string][]string)
	for _, r := range outcome.Results {
		bySlot[r.SlotID] = append(bySlot[r.SlotID], r.CandidateID)
	}
	assert.ElementsMatch(t, []string{"l1", "l2"}, bySlot["t1"])
	assert.Empty(t, bySlot["e1"])
	assert.Equal(t, 1, outcome.Stats.TotalShortfall)
}

func TestExecute_DebugScoresProducesBreakdowns(t *testing.T) {
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "l1", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
			{ID: "l2", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
		},
		Bundles: []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
			{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
		}}},
	}

	e := New(Config{Weights: DefaultWeights(), DebugScores: true, DebugTopK: 1})
	outcome, err := e.Execute(snap)
	require.NoError(t, err)
	require.Len(t, outcome.Breakdowns, 1)
	assert.Equal(t, "s1", outcome.Breakdowns[0].SlotID)
	assert.NotEmpty(t, outcome.Breakdowns[0].Contributions)

	// Disabled by default
	outcome, err = defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	assert.Empty(t, outcome.Breakdowns)
}

func TestExecute_PerUnitStats(t *testing.T) {
	snap := &Snapshot{
		Candidates: []model.Candidate{
			{ID: "l1", Category: model.CategoryLead, AvailableDates: avail("2026-04-01")},
			{ID: "l2", Category: model.CategoryLead, AvailableDates: avail("2026-04-02")},
		},
		Bundles: []model.Bundle{
			{ID: "p1", UnitID: "u1", Slots: []model.Slot{
				{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
			}},
			{ID: "p2", UnitID: "u2", Slots: []model.Slot{
				{ID: "s2", BundleID: "p2", Date: "2026-04-02", Required: 1},
			}},
		},
	}

	outcome, err := defaultTestEngine().Execute(snap)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Stats.TotalAssigned)
	assert.Equal(t, map[string]int{"u1": 1, "u2": 1}, outcome.Stats.PerUnit)
}
