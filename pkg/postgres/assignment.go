package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/calderhart/instructor-rota/pkg/core/model"
	"github.com/calderhart/instructor-rota/pkg/db"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// UpsertAssignments persists engine results in one transaction. The upsert is
// keyed on (candidate_id, slot_id) so duplicate or concurrent invocations
// never create duplicate rows; a re-run refreshes score, role and timestamps
// of a still-Pending row and leaves responded rows untouched.
func (d *DB) UpsertAssignments(ctx context.Context, records []db.AssignmentRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, `
			INSERT INTO assignment
				(id, candidate_id, slot_id, bundle_id, unit_id, assignment_date,
				 state, classification, role, score, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (candidate_id, slot_id) DO UPDATE
			SET score = EXCLUDED.score,
			    role = EXCLUDED.role,
			    classification = EXCLUDED.classification,
			    updated_at = EXCLUDED.updated_at
			WHERE assignment.state = 'Pending'
		`, r.ID, r.CandidateID, r.SlotID, r.BundleID, r.UnitID, r.Date,
			string(r.State), string(r.Classification), string(r.Role), r.Score,
			r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert assignment (%s, %s): %w", r.CandidateID, r.SlotID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAssignment loads one assignment by its (candidate, slot) key
func (d *DB) GetAssignment(ctx context.Context, candidateID, slotID string) (*db.AssignmentRecord, error) {
	var r db.AssignmentRecord
	var state, classification, role string
	err := d.pool.QueryRow(ctx, `
		SELECT id, candidate_id, slot_id, bundle_id, unit_id, assignment_date::text,
		       state, classification, role, score, created_at, updated_at
		FROM assignment
		WHERE candidate_id = $1 AND slot_id = $2
	`, candidateID, slotID).Scan(&r.ID, &r.CandidateID, &r.SlotID, &r.BundleID, &r.UnitID,
		&r.Date, &state, &classification, &role, &r.Score, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	r.State = model.AssignmentState(state)
	r.Classification = model.Classification(classification)
	r.Role = model.Role(role)
	return &r, nil
}

// TransitionAssignment applies an optimistic state transition. The UPDATE
// only matches while the record is still in the expected prior state;
// ErrStateConflict is returned when another response got there first.
func (d *DB) TransitionAssignment(ctx context.Context, candidateID, slotID string, from, to model.AssignmentState) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE assignment
		SET state = $1, updated_at = NOW()
		WHERE candidate_id = $2 AND slot_id = $3 AND state = $4
	`, string(to), candidateID, slotID, string(from))
	if err != nil {
		return fmt.Errorf("failed to transition assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrStateConflict
	}
	return nil
}

// ListBundleAssignments returns every assignment record of one bundle
func (d *DB) ListBundleAssignments(ctx context.Context, bundleID string) ([]db.AssignmentRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, candidate_id, slot_id, bundle_id, unit_id, assignment_date::text,
		       state, classification, role, score, created_at, updated_at
		FROM assignment
		WHERE bundle_id = $1
		ORDER BY assignment_date, slot_id, candidate_id
	`, bundleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bundle assignments: %w", err)
	}
	defer rows.Close()

	var records []db.AssignmentRecord
	for rows.Next() {
		var r db.AssignmentRecord
		var state, classification, role string
		if err := rows.Scan(&r.ID, &r.CandidateID, &r.SlotID, &r.BundleID, &r.UnitID,
			&r.Date, &state, &classification, &role, &r.Score, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		r.State = model.AssignmentState(state)
		r.Classification = model.Classification(classification)
		r.Role = model.Role(role)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SetBundleClassification updates the classification of all the bundle's rows
func (d *DB) SetBundleClassification(ctx context.Context, bundleID string, class model.Classification) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE assignment
		SET classification = $1, updated_at = NOW()
		WHERE bundle_id = $2
	`, string(class), bundleID)
	if err != nil {
		return fmt.Errorf("failed to set bundle classification: %w", err)
	}
	return nil
}

// UpdateAssignmentRole updates the role on one assignment record
func (d *DB) UpdateAssignmentRole(ctx context.Context, candidateID, slotID string, role model.Role) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE assignment
		SET role = $1, updated_at = NOW()
		WHERE candidate_id = $2 AND slot_id = $3
	`, string(role), candidateID, slotID)
	if err != nil {
		return fmt.Errorf("failed to update assignment role: %w", err)
	}
	return nil
}
