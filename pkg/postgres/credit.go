package postgres

import (
	"context"
	"fmt"
)

// DecrementPriorityCredit drops a candidate's balance by one, floored at
// zero. The row is removed once the balance reaches zero, so a candidate
// without credits has no record at all.
func (d *DB) DecrementPriorityCredit(ctx context.Context, candidateID string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE priority_credit
		SET balance = balance - 1
		WHERE candidate_id = $1 AND balance > 0
	`, candidateID)
	if err != nil {
		return fmt.Errorf("failed to decrement priority credit: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM priority_credit
		WHERE candidate_id = $1 AND balance <= 0
	`, candidateID)
	if err != nil {
		return fmt.Errorf("failed to remove exhausted priority credit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
