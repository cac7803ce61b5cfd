package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/calderhart/instructor-rota/pkg/core/model"
	"github.com/calderhart/instructor-rota/pkg/db"
)

// ListCandidates returns candidate snapshots with availability inside the
// window and lookback statistics and priority credits attached.
func (d *DB) ListCandidates(ctx context.Context, from, to string) ([]model.Candidate, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, category, team_id, is_team_leader, seniority_rank,
		       home_region, max_distance_km, banned_regions
		FROM candidate
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		var c model.Candidate
		var teamID *string
		var category string
		if err := rows.Scan(&c.ID, &category, &teamID, &c.IsTeamLeader, &c.SeniorityRank,
			&c.HomeRegion, &c.MaxDistanceKM, &c.BannedRegions); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.Category = model.Category(category)
		if teamID != nil {
			c.TeamID = *teamID
		}
		c.AvailableDates = make(map[string]bool)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	byID := make(map[string]*model.Candidate, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	if err := d.attachAvailability(ctx, byID, from, to); err != nil {
		return nil, err
	}
	if err := d.attachStatistics(ctx, byID); err != nil {
		return nil, err
	}
	if err := d.attachCredits(ctx, byID); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (d *DB) attachAvailability(ctx context.Context, byID map[string]*model.Candidate, from, to string) error {
	rows, err := d.pool.Query(ctx, `
		SELECT candidate_id, avail_date::text
		FROM candidate_availability
		WHERE avail_date BETWEEN $1 AND $2
	`, from, to)
	if err != nil {
		return fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var candidateID, date string
		if err := rows.Scan(&candidateID, &date); err != nil {
			return fmt.Errorf("failed to scan availability: %w", err)
		}
		if c, ok := byID[candidateID]; ok {
			c.AvailableDates[date] = true
		}
	}
	return rows.Err()
}

// attachStatistics fills the recent-assignment and recent-rejection counts
// from the assignment table over the configured lookback windows.
func (d *DB) attachStatistics(ctx context.Context, byID map[string]*model.Candidate) error {
	now := time.Now().UTC()
	assignmentCutoff := now.AddDate(0, -d.assignmentLookbackMonths, 0).Format("2006-01-02")
	rejectionCutoff := now.AddDate(0, -d.rejectionLookbackMonths, 0).Format("2006-01-02")

	rows, err := d.pool.Query(ctx, `
		SELECT candidate_id,
		       COUNT(*) FILTER (WHERE state IN ('Pending','Accepted') AND assignment_date >= $1),
		       COUNT(*) FILTER (WHERE state = 'Rejected' AND assignment_date >= $2)
		FROM assignment
		GROUP BY candidate_id
	`, assignmentCutoff, rejectionCutoff)
	if err != nil {
		return fmt.Errorf("failed to query assignment statistics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var candidateID string
		var assignments, rejections int
		if err := rows.Scan(&candidateID, &assignments, &rejections); err != nil {
			return fmt.Errorf("failed to scan statistics: %w", err)
		}
		if c, ok := byID[candidateID]; ok {
			c.RecentAssignments = assignments
			c.RecentRejections = rejections
		}
	}
	return rows.Err()
}

func (d *DB) attachCredits(ctx context.Context, byID map[string]*model.Candidate) error {
	rows, err := d.pool.Query(ctx, `SELECT candidate_id, balance FROM priority_credit`)
	if err != nil {
		return fmt.Errorf("failed to query priority credits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var candidateID string
		var balance int
		if err := rows.Scan(&candidateID, &balance); err != nil {
			return fmt.Errorf("failed to scan priority credit: %w", err)
		}
		if c, ok := byID[candidateID]; ok {
			c.PriorityCredits = balance
		}
	}
	return rows.Err()
}

// ListTrainingPeriods returns periods with at least one slot in the window
func (d *DB) ListTrainingPeriods(ctx context.Context, from, to string) ([]model.TrainingPeriod, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT DISTINCT p.id, p.unit_id, u.name, u.region, p.staff_locked,
		       ARRAY(SELECT x::text FROM unnest(p.excluded_dates) AS x)
		FROM training_period p
		JOIN unit u ON u.id = p.unit_id
		JOIN slot s ON s.period_id = p.id
		WHERE s.slot_date BETWEEN $1 AND $2
		ORDER BY p.id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query training periods: %w", err)
	}
	defer rows.Close()

	var periods []model.TrainingPeriod
	for rows.Next() {
		var p model.TrainingPeriod
		if err := rows.Scan(&p.ID, &p.UnitID, &p.UnitName, &p.Region, &p.StaffLocked, &p.ExcludedDates); err != nil {
			return nil, fmt.Errorf("failed to scan training period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// ListSlots returns slot rows in the window with pre-existing live
// assignments attached.
func (d *DB) ListSlots(ctx context.Context, from, to string) ([]db.SlotRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, period_id, slot_date::text, required, participants, location_id
		FROM slot
		WHERE slot_date BETWEEN $1 AND $2
		ORDER BY slot_date, id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []db.SlotRow
	byID := make(map[string]int)
	for rows.Next() {
		var s db.SlotRow
		if err := rows.Scan(&s.ID, &s.PeriodID, &s.Date, &s.Required, &s.Participants, &s.LocationID); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		byID[s.ID] = len(slots)
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}
	rows.Close()

	existing, err := d.pool.Query(ctx, `
		SELECT slot_id, candidate_id, state
		FROM assignment
		WHERE assignment_date BETWEEN $1 AND $2 AND state IN ('Pending','Accepted')
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing assignments: %w", err)
	}
	defer existing.Close()

	for existing.Next() {
		var slotID, candidateID, state string
		if err := existing.Scan(&slotID, &candidateID, &state); err != nil {
			return nil, fmt.Errorf("failed to scan existing assignment: %w", err)
		}
		if idx, ok := byID[slotID]; ok {
			slots[idx].Existing = append(slots[idx].Existing, model.ExistingAssignment{
				CandidateID: candidateID,
				State:       model.AssignmentState(state),
			})
		}
	}
	return slots, existing.Err()
}

// GetDistances returns the candidate→unit distance lookup in kilometres
func (d *DB) GetDistances(ctx context.Context) (map[string]map[string]float64, error) {
	rows, err := d.pool.Query(ctx, `SELECT candidate_id, unit_id, km FROM candidate_distance`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distances: %w", err)
	}
	defer rows.Close()

	distances := make(map[string]map[string]float64)
	for rows.Next() {
		var candidateID, unitID string
		var km float64
		if err := rows.Scan(&candidateID, &unitID, &km); err != nil {
			return nil, fmt.Errorf("failed to scan distance: %w", err)
		}
		if distances[candidateID] == nil {
			distances[candidateID] = make(map[string]float64)
		}
		distances[candidateID][unitID] = km
	}
	return distances, rows.Err()
}

// GetBlocklist returns slotID → candidate IDs an admin removed from that slot
func (d *DB) GetBlocklist(ctx context.Context) (map[string]map[string]bool, error) {
	rows, err := d.pool.Query(ctx, `SELECT slot_id, candidate_id FROM slot_block`)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocklist: %w", err)
	}
	defer rows.Close()

	blocklist := make(map[string]map[string]bool)
	for rows.Next() {
		var slotID, candidateID string
		if err := rows.Scan(&slotID, &candidateID); err != nil {
			return nil, fmt.Errorf("failed to scan block entry: %w", err)
		}
		if blocklist[slotID] == nil {
			blocklist[slotID] = make(map[string]bool)
		}
		blocklist[slotID][candidateID] = true
	}
	return blocklist, rows.Err()
}

// GetTrainingPeriod loads a single training period by ID
func (d *DB) GetTrainingPeriod(ctx context.Context, periodID string) (*model.TrainingPeriod, error) {
	var p model.TrainingPeriod
	err := d.pool.QueryRow(ctx, `
		SELECT p.id, p.unit_id, u.name, u.region, p.staff_locked,
		       ARRAY(SELECT x::text FROM unnest(p.excluded_dates) AS x)
		FROM training_period p
		JOIN unit u ON u.id = p.unit_id
		WHERE p.id = $1
	`, periodID).Scan(&p.ID, &p.UnitID, &p.UnitName, &p.Region, &p.StaffLocked, &p.ExcludedDates)
	if err != nil {
		if isNoRows(err) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load training period: %w", err)
	}
	return &p, nil
}

// ListBundleSlots returns the slots of one training period
func (d *DB) ListBundleSlots(ctx context.Context, bundleID string) ([]db.SlotRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, period_id, slot_date::text, required, participants, location_id
		FROM slot
		WHERE period_id = $1
		ORDER BY slot_date, id
	`, bundleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bundle slots: %w", err)
	}
	defer rows.Close()

	var slots []db.SlotRow
	for rows.Next() {
		var s db.SlotRow
		if err := rows.Scan(&s.ID, &s.PeriodID, &s.Date, &s.Required, &s.Participants, &s.LocationID); err != nil {
			return nil, fmt.Errorf("failed to scan bundle slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// GetCandidates loads candidates by ID, without availability or statistics
func (d *DB) GetCandidates(ctx context.Context, ids []string) ([]model.Candidate, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, category, team_id, is_team_leader, seniority_rank, home_region
		FROM candidate
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates by id: %w", err)
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		var c model.Candidate
		var teamID *string
		var category string
		if err := rows.Scan(&c.ID, &category, &teamID, &c.IsTeamLeader, &c.SeniorityRank, &c.HomeRegion); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.Category = model.Category(category)
		if teamID != nil {
			c.TeamID = *teamID
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
