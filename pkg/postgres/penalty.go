package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calderhart/instructor-rota/pkg/db"
)

// GetPenalty loads a candidate's penalty record, db.ErrNotFound if none
func (d *DB) GetPenalty(ctx context.Context, candidateID string) (*db.PenaltyRecord, error) {
	var p db.PenaltyRecord
	var audit []byte
	err := d.pool.QueryRow(ctx, `
		SELECT candidate_id, count, expires_at, audit
		FROM penalty
		WHERE candidate_id = $1
	`, candidateID).Scan(&p.CandidateID, &p.Count, &p.ExpiresAt, &audit)
	if err != nil {
		if isNoRows(err) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load penalty: %w", err)
	}
	if err := json.Unmarshal(audit, &p.Audit); err != nil {
		return nil, fmt.Errorf("failed to decode penalty audit: %w", err)
	}
	return &p, nil
}

// UpsertPenalty writes a candidate's penalty record with its audit trail
func (d *DB) UpsertPenalty(ctx context.Context, penalty *db.PenaltyRecord) error {
	audit, err := json.Marshal(penalty.Audit)
	if err != nil {
		return fmt.Errorf("failed to encode penalty audit: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO penalty (candidate_id, count, expires_at, audit)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (candidate_id) DO UPDATE
		SET count = EXCLUDED.count,
		    expires_at = EXCLUDED.expires_at,
		    audit = EXCLUDED.audit
	`, penalty.CandidateID, penalty.Count, penalty.ExpiresAt, audit)
	if err != nil {
		return fmt.Errorf("failed to upsert penalty: %w", err)
	}
	return nil
}
