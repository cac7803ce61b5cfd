package engine

import (
	"sort"

	"github.com/calderhart/instructor-rota/pkg/core/model"
)

// defaultOverlapSlackThreshold is the slack below which a date shared with
// another bundle is considered contended even without an outright deficit.
const defaultOverlapSlackThreshold = 2

// BundleRisk is the scarcity measure used to order bundle processing
type BundleRisk struct {
	BundleID       string
	MinSlack       int
	OverlapPenalty int
	RiskScore      int
}

// RankBundles orders bundles from riskiest to safest.
//
// Per bundle, slack on a date is the number of candidates available that date
// minus the required headcount; minSlack is the tightest date. Dates shared
// with other bundles add an overlap penalty: 2× the deficit when the combined
// demand exceeds the available candidates, or a flat 1 when slack is merely
// below the threshold. riskScore = minSlack − overlapPenalty, ascending, so
// bundles with the least room are staffed before easier bundles starve them.
func RankBundles(bundles []model.Bundle, candidates []model.Candidate, slackThreshold int) []BundleRisk {
	if slackThreshold <= 0 {
		slackThreshold = defaultOverlapSlackThreshold
	}

	availableByDate := make(map[string]int)
	countDate := func(date string) int {
		if n, ok := availableByDate[date]; ok {
			return n
		}
		n := 0
		for i := range candidates {
			if candidates[i].Available(date) {
				n++
			}
		}
		availableByDate[date] = n
		return n
	}

	// Combined demand per date across all bundles, for overlap detection
	demandByDate := make(map[string]int)
	bundlesByDate := make(map[string]int)
	for _, b := range bundles {
		for _, slot := range b.Slots {
			demandByDate[slot.Date] += slot.Required
			bundlesByDate[slot.Date]++
		}
	}

	risks := make([]BundleRisk, 0, len(bundles))
	for _, b := range bundles {
		risk := BundleRisk{BundleID: b.ID}
		first := true
		for _, slot := range b.Slots {
			available := countDate(slot.Date)
			slack := available - slot.Required
			if first || slack < risk.MinSlack {
				risk.MinSlack = slack
				first = false
			}

			if bundlesByDate[slot.Date] > 1 {
				deficit := demandByDate[slot.Date] - available
				if deficit > 0 {
					risk.OverlapPenalty += 2 * deficit
				} else if slack < slackThreshold {
					risk.OverlapPenalty++
				}
			}
		}
		risk.RiskScore = risk.MinSlack - risk.OverlapPenalty
		risks = append(risks, risk)
	}

	sort.Slice(risks, func(i, j int) bool {
		if risks[i].RiskScore != risks[j].RiskScore {
			return risks[i].RiskScore < risks[j].RiskScore
		}
		return risks[i].BundleID < risks[j].BundleID
	})
	return risks
}
