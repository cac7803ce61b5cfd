package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderhart/instructor-rota/pkg/core/model"
)

func TestBuildBundles_GroupsByPeriod(t *testing.T) {
	periods := []model.TrainingPeriod{
		{ID: "p1", UnitID: "u1", UnitName: "North Unit", Region: "north"},
		{ID: "p2", UnitID: "u2", UnitName: "South Unit", Region: "south"},
	}
	slots := []model.Slot{
		{ID: "s3", BundleID: "p2", Date: "2026-04-02", Required: 1},
		{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 2},
		{ID: "s2", BundleID: "p1", Date: "2026-04-02", Required: 2},
	}

	bundles := BuildBundles(periods, slots)
	require.Len(t, bundles, 2)

	assert.Equal(t, "p1", bundles[0].ID)
	require.Len(t, bundles[0].Slots, 2)
	assert.Equal(t, "s1", bundles[0].Slots[0].ID)
	assert.Equal(t, "s2", bundles[0].Slots[1].ID)

	assert.Equal(t, "p2", bundles[1].ID)
	assert.Equal(t, "South Unit", bundles[1].UnitName)
}

func TestBuildBundles_DiscardsEmptyPeriods(t *testing.T) {
	periods := []model.TrainingPeriod{
		{ID: "p1", UnitID: "u1"},
		{ID: "p2", UnitID: "u2"},
	}
	slots := []model.Slot{
		{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
	}

	bundles := BuildBundles(periods, slots)
	require.Len(t, bundles, 1)
	assert.Equal(t, "p1", bundles[0].ID)
}

func TestBuildBundles_ExcludedDateDoesNotSplitPeriod(t *testing.T) {
	// Two slots separated by an excluded mid-date stay in one bundle:
	// the grouping key is the period, not calendar adjacency.
	periods := []model.TrainingPeriod{
		{ID: "p1", UnitID: "u1", ExcludedDates: []string{"2026-04-02"}},
	}
	slots := []model.Slot{
		{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
		{ID: "s2", BundleID: "p1", Date: "2026-04-03", Required: 1},
	}

	bundles := BuildBundles(periods, slots)
	require.Len(t, bundles, 1)
	assert.Len(t, bundles[0].Slots, 2)
	assert.Equal(t, []string{"2026-04-02"}, bundles[0].ExcludedDates)
}

func TestBuildBundles_DropsSlotsOfUnknownPeriods(t *testing.T) {
	periods := []model.TrainingPeriod{{ID: "p1", UnitID: "u1"}}
	slots := []model.Slot{
		{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 1},
		{ID: "s2", BundleID: "ghost", Date: "2026-04-01", Required: 1},
	}

	bundles := BuildBundles(periods, slots)
	require.Len(t, bundles, 1)
	assert.Len(t, bundles[0].Slots, 1)
}

func TestBuildBundles_StaffLockedBundleStillBuilt(t *testing.T) {
	periods := []model.TrainingPeriod{{ID: "p1", UnitID: "u1", StaffLocked: true}}
	slots := []model.Slot{
		{ID: "s1", BundleID: "p1", Date: "2026-04-01", Required: 3},
	}

	bundles := BuildBundles(periods, slots)
	require.Len(t, bundles, 1)
	assert.True(t, bundles[0].StaffLocked)
}
