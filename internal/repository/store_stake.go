package repository

import (
	"context"
	"fmt"
)

// UpsertStake records or updates a user's stake on a battle side (spec
// §4.9 "Stake placement").
func (s *Store) UpsertStake(ctx context.Context, battleID int64, agentKey string, side int, amount int64, signature string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert stake tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stakes (battle_id, user_address, side, amount_minor, tx_signature)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (battle_id, user_address, side) DO UPDATE SET
			amount_minor = stakes.amount_minor + EXCLUDED.amount_minor,
			tx_signature = EXCLUDED.tx_signature
	`, battleID, agentKey, side, amount, signature)
	if err != nil {
		return fmt.Errorf("upsert stake for battle %d: %w", battleID, err)
	}

	column := "total_stake_a"
	countColumn := "stake_count_a"
	if side == 1 {
		column = "total_stake_b"
		countColumn = "stake_count_b"
	}
	query := fmt.Sprintf(`
		UPDATE scheduled_battles SET %s = %s + $2, %s = %s + 1 WHERE id = $1
	`, column, column, countColumn, countColumn)
	if _, err := tx.ExecContext(ctx, query, battleID, amount); err != nil {
		return fmt.Errorf("update stake totals for battle %d: %w", battleID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert stake tx: %w", err)
	}
	return nil
}
