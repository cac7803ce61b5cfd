package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calderhart/instructor-rota/pkg/core/model"
)

func TestContinuityScorer_ScalesWithDaysHeld(t *testing.T) {
	scorer := &ContinuityScorer{weight: 100}
	assert.Equal(t, "Continuity", scorer.Name())
	assert.Equal(t, 100.0, scorer.Weight())

	bundle := &model.Bundle{ID: "p1", UnitID: "u1", Slots: []model.Slot{
		{ID: "s1", Date: "2026-04-01"},
		{ID: "s2", Date: "2026-04-02"},
		{ID: "s3", Date: "2026-04-03"},
		{ID: "s4", Date: "2026-04-04"},
	}}
	c := &model.Candidate{ID: "c1"}
	sctx := testSlotContext(&Snapshot{}, bundle, &bundle.Slots[3])

	assert.Equal(t, 0.0, scorer.Score(c, sctx))

	sctx.state.record(c, &bundle.Slots[0], bundle.ID, true)
	assert.Equal(t, 0.5, scorer.Score(c, sctx))

	sctx.state.record(c, &bundle.Slots[1], bundle.ID, true)
	assert.Equal(t, 0.75, scorer.Score(c, sctx))

	sctx.state.record(c, &bundle.Slots[2], bundle.ID, true)
	assert.Equal(t, 1.0, scorer.Score(c, sctx))
}

func TestFullPeriodScorer(t *testing.T) {
	scorer := &FullPeriodScorer{weight: 80}

	bundle := &model.Bundle{ID: "p1", UnitID: "u1", Slots: []model.Slot{
		{ID: "s1", Date: "2026-04-01"},
		{ID: "s2", Date: "2026-04-02"},
	}}
	sctx := testSlotContext(&Snapshot{}, bundle, &bundle.Slots[0])

	full := &model.Candidate{ID: "c1", AvailableDates: avail("2026-04-01", "2026-04-02")}
	partial := &model.Candidate{ID: "c2", AvailableDates: avail("2026-04-01")}

	assert.Equal(t, 1.0, scorer.Score(full, sctx))
	assert.Equal(t, 0.0, scorer.Score(partial, sctx))
}

func TestPriorityCreditScorer_CapsAtThree(t *testing.T) {
	scorer := &PriorityCreditScorer{weight: 25}
	sctx := testSlotContext(&Snapshot{}, &model.Bundle{ID: "p1"}, &model.Slot{ID: "s1"})

	assert.Equal(t, 0.0, scorer.Score(&model.Candidate{ID: "c1"}, sctx))
	assert.InDelta(t, 1.0/3.0, scorer.Score(&model.Candidate{ID: "c2", PriorityCredits: 1}, sctx), 1e-9)
	assert.Equal(t, 1.0, scorer.Score(&model.Candidate{ID: "c3", PriorityCredits: 3}, sctx))
	assert.Equal(t, 1.0, scorer.Score(&model.Candidate{ID: "c4", PriorityCredits: 7}, sctx))
}

func TestFairnessScorer_DecreasesWithLoad(t *testing.T) {
	scorer := &FairnessScorer{weight: 20}
	slot := &model.Slot{ID: "s1", Date: "2026-04-01"}
	sctx := testSlotContext(&Snapshot{}, &model.Bundle{ID: "p1"}, slot)

	fresh := &model.Candidate{ID: "c1"}
	loaded := &model.Candidate{ID: "c2", RecentAssignments: 3}
	saturated := &model.Candidate{ID: "c3", RecentAssignments: 9}

	assert.Equal(t, 1.0, scorer.Score(fresh, sctx))
	assert.InDelta(t, 0.4, scorer.Score(loaded, sctx), 1e-9)
	assert.Equal(t, 0.0, scorer.Score(saturated, sctx))

	// Assignments made this run count as well
	sctx.state.record(fresh, slot, "p1", true)
	assert.InDelta(t, 0.8, scorer.Score(fresh, sctx), 1e-9)
}

func TestTeamMatchScorer(t *testing.T) {
	scorer := &TeamMatchScorer{weight: 15}
	slot := &model.Slot{ID: "s1", Date: "2026-04-01"}
	sctx := testSlotContext(&Snapshot{}, &model.Bundle{ID: "p1"}, slot)

	teammate := &model.Candidate{ID: "c1", TeamID: "alpha"}
	sctx.state.record(teammate, slot, "p1", true)

	assert.Equal(t, 1.0, scorer.Score(&model.Candidate{ID: "c2", TeamID: "alpha"}, sctx))
	assert.Equal(t, 0.0, scorer.Score(&model.Candidate{ID: "c3", TeamID: "beta"}, sctx))
	assert.Equal(t, 0.0, scorer.Score(&model.Candidate{ID: "c4"}, sctx))
}

func TestDistanceScorer(t *testing.T) {
	scorer := &DistanceScorer{weight: 12}

	snap := &Snapshot{Distances: map[string]map[string]float64{
		"near": {"u1": 0},
		"mid":  {"u1": 60},
		"far":  {"u1": 150},
	}}
	sctx := testSlotContext(snap, &model.Bundle{ID: "p1", UnitID: "u1"}, &model.Slot{ID: "s1"})

	assert.Equal(t, 5.0, scorer.Score(&model.Candidate{ID: "near"}, sctx))
	assert.InDelta(t, 2.0, scorer.Score(&model.Candidate{ID: "mid"}, sctx), 1e-9)
	assert.Equal(t, 0.0, scorer.Score(&model.Candidate{ID: "far"}, sctx))
	assert.Equal(t, 0.0, scorer.Score(&model.Candidate{ID: "unknown"}, sctx))
}

func TestApplicationVolumeScorer(t *testing.T) {
	scorer := &ApplicationVolumeScorer{weight: 10}
	sctx := testSlotContext(&Snapshot{}, &model.Bundle{ID: "p1"}, &model.Slot{ID: "s1"})
	sctx.maxApplicationDays = 4

	assert.Equal(t, 1.0, scorer.Score(&model.Candidate{ID: "c1", AvailableDates: avail("a", "b", "c", "d")}, sctx))
	assert.Equal(t, 0.25, scorer.Score(&model.Candidate{ID: "c2", AvailableDates: avail("a")}, sctx))

	sctx.maxApplicationDays = 0
	assert.Equal(t, 0.0, scorer.Score(&model.Candidate{ID: "c1", AvailableDates: avail("a")}, sctx))
}

func TestTeamDiversityScorer_PenalizesMonopoly(t *testing.T) {
	scorer := &TeamDiversityScorer{weight: -15}
	slotOther := &model.Slot{ID: "s0", Date: "2026-03-30"}
	sctx := testSlotContext(&Snapshot{}, &model.Bundle{ID: "p2"}, &model.Slot{ID: "s1", Date: "2026-04-01"})

	// Three alpha assignments, one beta, both in a different bundle
	alpha := &model.Candidate{ID: "a", TeamID: "alpha"}
	beta := &model.Candidate{ID: "b", TeamID: "beta"}
	sctx.state.record(alpha, slotOther, "p1", true)
	sctx.state.record(alpha, &model.Slot{ID: "s0b", Date: "2026-03-31"}, "p1", true)
	sctx.state.record(alpha, &model.Slot{ID: "s0c", Date: "2026-04-02"}, "p1", true)
	sctx.state.record(beta, &model.Slot{ID: "s0d", Date: "2026-04-03"}, "p1", true)

	// alpha holds 3/4 against an even split of 1/2
	assert.InDelta(t, 0.25, scorer.Score(&model.Candidate{ID: "a2", TeamID: "alpha"}, sctx), 1e-9)
	assert.Equal(t, 0.0, scorer.Score(&model.Candidate{ID: "b2", TeamID: "beta"}, sctx))
	assert.Equal(t, 0.0, scorer.Score(&model.Candidate{ID: "c", TeamID: ""}, sctx))
}

func TestRejectionPenaltyScorer(t *testing.T) {
	scorer := &RejectionPenaltyScorer{weight: -10}
	sctx := testSlotContext(&Snapshot{}, &model.Bundle{ID: "p1"}, &model.Slot{ID: "s1"})

	assert.Equal(t, 0.0, scorer.Score(&model.Candidate{ID: "c1"}, sctx))
	assert.Equal(t, 2.0, scorer.Score(&model.Candidate{ID: "c2", RecentRejections: 2}, sctx))
}

func TestOpportunityCostScorer_PenalizesFlexibleCandidates(t *testing.T) {
	scorer := &OpportunityCostScorer{weight: -5}

	bundles := []model.Bundle{{ID: "p1", UnitID: "u1", Slots: []model.Slot{
		{ID: "s1", Date: "2026-04-01", Required: 1},
		{ID: "s2", Date: "2026-04-02", Required: 1},
		{ID: "s3", Date: "2026-04-03", Required: 1},
	}}}
	// Two candidates against three one-seat slots: every date has slack 1,
	// below the default threshold of 2, so all three slots are scarce.
	candidates := []model.Candidate{
		{ID: "flex", AvailableDates: avail("2026-04-01", "2026-04-02", "2026-04-03")},
		{ID: "narrow", AvailableDates: avail("2026-04-01")},
	}

	sctx := testSlotContext(&Snapshot{}, &bundles[0], &bundles[0].Slots[0])
	sctx.scarcity = buildScarcityIndex(bundles, candidates, 0)

	// flex covers 2 other scarce slots, narrow covers 0; the average (with s1
	// included for both) is (3+1)/2 = 2.
	assert.Equal(t, 0.0, scorer.Score(&candidates[0], sctx))
	assert.Equal(t, 0.0, scorer.Score(&candidates[1], sctx))

	// Excluding nothing, flex sits above average
	sctxAll := testSlotContext(&Snapshot{}, &bundles[0], &model.Slot{ID: "other", Date: "2026-04-01"})
	sctxAll.scarcity = sctx.scarcity
	assert.Equal(t, 1.0, scorer.Score(&candidates[0], sctxAll))
}

func TestDefaultScorers_CarryConfiguredWeights(t *testing.T) {
	w := DefaultWeights()
	scorers := DefaultScorers(w)

	byName := make(map[string]float64, len(scorers))
	for _, s := range scorers {
		byName[s.Name()] = s.Weight()
	}

	assert.Equal(t, w.Continuity, byName["Continuity"])
	assert.Equal(t, w.FullPeriod, byName["FullPeriod"])
	assert.Equal(t, w.TeamDiversity, byName["TeamDiversity"])
	assert.Negative(t, byName["RejectionPenalty"])
	assert.Negative(t, byName["OpportunityCost"])
}
