package engine

// Default scorer weights. Values are relative, not normalized: continuity
// dominates so a multi-day bundle strongly prefers identical staffing, while
// the negative weights push back on rejection-prone or over-flexible picks.
const (
	// WeightContinuity rewards candidates already holding prior days of the
	// same bundle.
	WeightContinuity = 100.0

	// WeightFullPeriod rewards candidates available for every date in the
	// bundle, before any assignment exists.
	WeightFullPeriod = 80.0

	// WeightPriorityCredit converts banked credits into a capped bonus
	WeightPriorityCredit = 25.0

	// WeightFairness prefers lightly-loaded candidates
	WeightFairness = 20.0

	// WeightTeamMatch rewards joining a teammate already on the same slot
	WeightTeamMatch = 15.0

	// WeightDistance prefers shorter travel
	WeightDistance = 12.0

	// WeightApplicationVolume rewards candidates who registered many days
	WeightApplicationVolume = 10.0

	// WeightTeamDiversity penalizes a team already over its even split of
	// other bundles' assignments.
	WeightTeamDiversity = -15.0

	// WeightRejectionPenalty subtracts once per recent rejection
	WeightRejectionPenalty = -10.0

	// WeightOpportunityCost conserves candidates who can still cover many
	// other scarce slots.
	WeightOpportunityCost = -5.0
)

// Weights carries the scorer weight set for one engine build. Zero values are
// meaningful (a scorer can be switched off), so construct from DefaultWeights
// and override.
type Weights struct {
	Continuity        float64
	FullPeriod        float64
	PriorityCredit    float64
	Fairness          float64
	TeamMatch         float64
	Distance          float64
	ApplicationVolume float64
	TeamDiversity     float64
	RejectionPenalty  float64
	OpportunityCost   float64
}

// DefaultWeights returns the standard weight set
func DefaultWeights() Weights {
	return Weights{
		Continuity:        WeightContinuity,
		FullPeriod:        WeightFullPeriod,
		PriorityCredit:    WeightPriorityCredit,
		Fairness:          WeightFairness,
		TeamMatch:         WeightTeamMatch,
		Distance:          WeightDistance,
		ApplicationVolume: WeightApplicationVolume,
		TeamDiversity:     WeightTeamDiversity,
		RejectionPenalty:  WeightRejectionPenalty,
		OpportunityCost:   WeightOpportunityCost,
	}
}
