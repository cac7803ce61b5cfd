package engine

import (
	"sort"

	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// BuildBundles groups slot snapshots into one bundle per training period.
//
// The grouping key is the period identifier, never date adjacency: two slots
// of the same period stay in one bundle even when an excluded date splits
// their calendar continuity. Slots referencing an unknown period are dropped,
// as are periods that end up with zero slots.
func BuildBundles(periods []model.TrainingPeriod, slots []model.Slot) []model.Bundle {
	byPeriod := make(map[string][]model.Slot)
	for _, slot := range slots {
		byPeriod[slot.BundleID] = append(byPeriod[slot.BundleID], slot)
	}

	bundles := make([]model.Bundle, 0, len(periods))
	for _, p := range periods {
		periodSlots := byPeriod[p.ID]
		if len(periodSlots) == 0 {
			continue
		}
		sort.Slice(periodSlots, func(i, j int) bool {
			if periodSlots[i].Date != periodSlots[j].Date {
				return periodSlots[i].Date < periodSlots[j].Date
			}
			return periodSlots[i].ID < periodSlots[j].ID
		})
		bundles = append(bundles, model.Bundle{
			ID:            p.ID,
			UnitID:        p.UnitID,
			UnitName:      p.UnitName,
			Region:        p.Region,
			StaffLocked:   p.StaffLocked,
			ExcludedDates: p.ExcludedDates,
			Slots:         periodSlots,
		})
	}

	sort.Slice(bundles, func(i, j int) bool { return bundles[i].ID < bundles[j].ID })
	return bundles
}
