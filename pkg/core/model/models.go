package model

// Category is an instructor's seniority category
type Category string

const (
	CategoryLead      Category = "Lead"
	CategoryCo        Category = "Co"
	CategoryAssistant Category = "Assistant"
	CategoryTrainee   Category = "Trainee"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryLead, CategoryCo, CategoryAssistant, CategoryTrainee:
		return true
	}
	return false
}

// Seniority returns the category's ordinal, lower is more senior
func (c Category) Seniority() int {
	switch c {
	case CategoryLead:
		return 0
	case CategoryCo:
		return 1
	case CategoryAssistant:
		return 2
	case CategoryTrainee:
		return 3
	}
	return 4
}

// AssignmentState is the lifecycle state of a (candidate, slot) assignment
type AssignmentState string

const (
	StatePending  AssignmentState = "Pending"
	StateAccepted AssignmentState = "Accepted"
	StateRejected AssignmentState = "Rejected"
	StateCanceled AssignmentState = "Canceled"
)

func (s AssignmentState) IsValid() bool {
	switch s {
	case StatePending, StateAccepted, StateRejected, StateCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from this state
func (s AssignmentState) Terminal() bool {
	return s == StateRejected || s == StateCanceled
}

// Role is the leadership role assigned to at most one instructor per slot
type Role string

const (
	RoleNone       Role = ""
	RoleHead       Role = "Head"
	RoleSupervisor Role = "Supervisor"
)

// Classification marks whether a bundle's staffing is settled
type Classification string

const (
	ClassTemporary Classification = "Temporary"
	ClassConfirmed Classification = "Confirmed"
)

// CancelAttribution determines the semantics of cancelling an accepted assignment
type CancelAttribution string

const (
	// AttributedToCandidate applies reject semantics: the record becomes
	// Rejected and a penalty is issued.
	AttributedToCandidate CancelAttribution = "candidate"

	// AttributedToOrganization applies cancel semantics: the record becomes
	// Canceled with no penalty.
	AttributedToOrganization CancelAttribution = "organization"
)

func (a CancelAttribution) IsValid() bool {
	return a == AttributedToCandidate || a == AttributedToOrganization
}

// Candidate is an instructor eligible for assignment. Immutable per engine run.
type Candidate struct {
	ID            string
	Category      Category
	TeamID        string // empty if the candidate has no team
	IsTeamLeader  bool
	SeniorityRank int // lower = more senior within category
	HomeRegion    string

	// AvailableDates holds ISO dates (yyyy-mm-dd) the candidate registered for
	AvailableDates map[string]bool

	// MaxDistanceKM is the candidate's declared travel limit, nil = unlimited
	MaxDistanceKM *float64

	BannedRegions []string

	// Lookback-window statistics and credits supplied by the snapshot loader
	RecentAssignments int
	RecentRejections  int
	PriorityCredits   int
}

// Available reports whether the candidate registered the given ISO date
func (c *Candidate) Available(date string) bool {
	return c.AvailableDates[date]
}

// RegionBanned reports whether the candidate refuses assignments in the region
func (c *Candidate) RegionBanned(region string) bool {
	for _, r := range c.BannedRegions {
		if r == region {
			return true
		}
	}
	return false
}

// ExistingAssignment is a pre-existing record the engine must respect
type ExistingAssignment struct {
	CandidateID string
	State       AssignmentState // Pending or Accepted
}

// Slot is one required instructor-day within a bundle
type Slot struct {
	ID         string
	BundleID   string
	Date       string // ISO yyyy-mm-dd
	Required   int
	LocationID string

	// Existing holds Pending/Accepted assignments from a prior partial run.
	// The engine never re-assigns these candidates and counts them toward
	// the slot's required headcount.
	Existing []ExistingAssignment
}

// LiveExistingIDs returns the candidate IDs of pre-existing live assignments
func (s *Slot) LiveExistingIDs() []string {
	ids := make([]string, 0, len(s.Existing))
	for _, e := range s.Existing {
		if e.State == StatePending || e.State == StateAccepted {
			ids = append(ids, e.CandidateID)
		}
	}
	return ids
}

// TrainingPeriod describes one multi-day training at one unit, as loaded
// from the snapshot source before its slots are grouped into a bundle.
type TrainingPeriod struct {
	ID            string
	UnitID        string
	UnitName      string
	Region        string
	StaffLocked   bool
	ExcludedDates []string
}

// Bundle is the set of all slots belonging to one training period at one unit
type Bundle struct {
	ID       string // training-period identifier
	UnitID   string
	UnitName string
	Region   string

	// StaffLocked makes the required headcount advisory: continuity is the
	// goal and the minimum-headcount condition is relaxed downstream.
	StaffLocked bool

	// ExcludedDates are mid-period dates that do not break continuity
	ExcludedDates []string

	// Slots ordered by date ascending
	Slots []Slot
}

// Dates returns the bundle's slot dates in order, excluded dates omitted
func (b *Bundle) Dates() []string {
	dates := make([]string, 0, len(b.Slots))
	for _, s := range b.Slots {
		dates = append(dates, s.Date)
	}
	return dates
}

// AssignmentResult is one engine-produced assignment awaiting persistence
type AssignmentResult struct {
	SlotID         string
	BundleID       string
	UnitID         string
	Date           string
	CandidateID    string
	Score          float64
	Role           Role
	Classification Classification
}

// ScoreContribution is one scorer's weighted share of a candidate's total
type ScoreContribution struct {
	Scorer   string
	Raw      float64
	Weighted float64
}

// ScoreBreakdown is the tuning-visibility payload for one candidate on one slot
type ScoreBreakdown struct {
	SlotID        string
	CandidateID   string
	Total         float64
	Contributions []ScoreContribution
}
