package engine

import (
	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// scarcityIndex is a per-run precomputation for the opportunity-cost scorer.
// A slot is scarce when its date's slack (available candidates − required) is
// below the overlap slack threshold; the index answers how many scarce slots
// each candidate could still cover and what the snapshot average is.
type scarcityIndex struct {
	// scarceSlots holds (slotID, date) of every scarce slot in the snapshot
	scarceSlots []scarceSlot

	averageCoverable float64
}

type scarceSlot struct {
	slotID string
	date   string
}

func buildScarcityIndex(bundles []model.Bundle, candidates []model.Candidate, slackThreshold int) *scarcityIndex {
	if slackThreshold <= 0 {
		slackThreshold = defaultOverlapSlackThreshold
	}

	availableByDate := make(map[string]int)
	for i := range candidates {
		for date := range candidates[i].AvailableDates {
			availableByDate[date]++
		}
	}

	idx := &scarcityIndex{}
	for _, b := range bundles {
		for _, slot := range b.Slots {
			if availableByDate[slot.Date]-slot.Required < slackThreshold {
				idx.scarceSlots = append(idx.scarceSlots, scarceSlot{slotID: slot.ID, date: slot.Date})
			}
		}
	}

	if len(candidates) > 0 {
		total := 0
		for i := range candidates {
			total += idx.coverableScarceSlots(&candidates[i], "")
		}
		idx.averageCoverable = float64(total) / float64(len(candidates))
	}
	return idx
}

// coverableScarceSlots counts scarce slots the candidate is available for,
// excluding the slot currently being filled.
func (idx *scarcityIndex) coverableScarceSlots(c *model.Candidate, excludeSlotID string) int {
	n := 0
	for _, s := range idx.scarceSlots {
		if s.slotID == excludeSlotID {
			continue
		}
		if c.Available(s.date) {
			n++
		}
	}
	return n
}
