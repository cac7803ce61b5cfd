package engine

import (
	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// avail builds an availability set from ISO dates
func avail(dates ...string) map[string]bool {
	m := make(map[string]bool, len(dates))
	for _, d := range dates {
		m[d] = true
	}
	return m
}

func floatPtr(v float64) *float64 { return &v }

// testSlotContext builds a SlotContext over a fresh run state, for exercising
// filters and scorers in isolation.
func testSlotContext(snap *Snapshot, bundle *model.Bundle, slot *model.Slot) *SlotContext {
	return &SlotContext{
		Slot:     slot,
		Bundle:   bundle,
		snapshot: snap,
		state:    newRunState(),
	}
}
