package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wagerlab/arenacore/internal/coordinator"
	"github.com/wagerlab/arenacore/internal/domain"
)

const battleSelectColumns = `
	SELECT id, external_id, agent_a_key, agent_b_key, agent_a_rating, agent_b_rating,
		discipline, game_mode, status, matched_at, staking_ends_at, arena_address,
		total_stake_a, total_stake_b, stake_count_a, stake_count_b, winner_key,
		agent_a_new_rating, agent_b_new_rating, battle_started_at, battle_ended_at
`

func scanBattle(row rowScanner) (*domain.ScheduledBattle, error) {
	var b domain.ScheduledBattle
	var stakingEndsAt, battleStartedAt, battleEndedAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.ExternalID, &b.AgentAKey, &b.AgentBKey, &b.AgentARating, &b.AgentBRating,
		&b.Discipline, &b.GameMode, &b.Status, &b.MatchedAt, &stakingEndsAt, &b.ArenaAddress,
		&b.TotalStakeA, &b.TotalStakeB, &b.StakeCountA, &b.StakeCountB, &b.WinnerKey,
		&b.AgentANewRating, &b.AgentBNewRating, &battleStartedAt, &battleEndedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StakingEndsAt = stakingEndsAt.Time
	b.BattleStartedAt = battleStartedAt.Time
	b.BattleEndedAt = battleEndedAt.Time
	return &b, nil
}

// InsertBattle persists a newly created battle (spec §4.9 "Creation
// protocol" step 4).
func (s *Store) InsertBattle(ctx context.Context, battle *domain.ScheduledBattle) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO scheduled_battles (
			external_id, agent_a_key, agent_b_key, agent_a_rating, agent_b_rating,
			discipline, game_mode, status, matched_at, staking_ends_at, arena_address,
			battle_started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, battle.ExternalID, battle.AgentAKey, battle.AgentBKey, battle.AgentARating, battle.AgentBRating,
		battle.Discipline, battle.GameMode, battle.Status, battle.MatchedAt,
		nullableTime(battle.StakingEndsAt), battle.ArenaAddress, nullableTime(battle.BattleStartedAt),
	).Scan(&battle.ID)
	if err != nil {
		return fmt.Errorf("insert battle %s: %w", battle.ExternalID, err)
	}
	return nil
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// GetBattleByExternalID loads a battle by its opaque external identifier,
// used by the read-only battle-detail endpoint (spec §6 "GET
// /api/matchmaking/battle/:id").
func (s *Store) GetBattleByExternalID(ctx context.Context, externalID string) (*domain.ScheduledBattle, error) {
	row := s.db.QueryRowContext(ctx, battleSelectColumns+`FROM scheduled_battles WHERE external_id = $1`, externalID)
	battle, err := scanBattle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get battle by external id %s: %w", externalID, err)
	}
	return battle, nil
}

// GetBattleByArenaAddress loads the battle bound to an on-chain arena
// address (spec §6 "GET /api/arena/:address").
func (s *Store) GetBattleByArenaAddress(ctx context.Context, arenaAddress string) (*domain.ScheduledBattle, error) {
	row := s.db.QueryRowContext(ctx, battleSelectColumns+`FROM scheduled_battles WHERE arena_address = $1`, arenaAddress)
	battle, err := scanBattle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get battle by arena address %s: %w", arenaAddress, err)
	}
	return battle, nil
}

// ListActiveBattles returns every battle not yet completed or cancelled
// (spec §6 "GET /api/matchmaking/battles").
func (s *Store) ListActiveBattles(ctx context.Context) ([]domain.ScheduledBattle, error) {
	return s.queryBattles(ctx, battleSelectColumns+`
		FROM scheduled_battles WHERE status NOT IN ($1, $2) ORDER BY matched_at DESC
	`, domain.BattleCompleted, domain.BattleCancelled)
}

// ListActiveArenas returns non-terminal battles that carry an on-chain
// arena address (spec §6 "GET /api/arena/active").
func (s *Store) ListActiveArenas(ctx context.Context) ([]domain.ScheduledBattle, error) {
	return s.queryBattles(ctx, battleSelectColumns+`
		FROM scheduled_battles WHERE status NOT IN ($1, $2) AND arena_address <> '' ORDER BY matched_at DESC
	`, domain.BattleCompleted, domain.BattleCancelled)
}

// ListSettledArenas returns completed battles that carry an on-chain arena
// address (spec §6 "GET /api/arena/settled").
func (s *Store) ListSettledArenas(ctx context.Context) ([]domain.ScheduledBattle, error) {
	return s.queryBattles(ctx, battleSelectColumns+`
		FROM scheduled_battles WHERE status = $1 AND arena_address <> '' ORDER BY battle_ended_at DESC
	`, domain.BattleCompleted)
}

// GetBattle loads a battle by its internal ID.
func (s *Store) GetBattle(ctx context.Context, id int64) (*domain.ScheduledBattle, error) {
	row := s.db.QueryRowContext(ctx, battleSelectColumns+`FROM scheduled_battles WHERE id = $1`, id)
	battle, err := scanBattle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get battle %d: %w", id, err)
	}
	return battle, nil
}

// UpdateBattleArena records the on-chain arena address a battle was bound
// to after CreateArena succeeds.
func (s *Store) UpdateBattleArena(ctx context.Context, id int64, arenaAddress string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE scheduled_battles SET arena_address = $2 WHERE id = $1`, id, arenaAddress)
	if err != nil {
		return fmt.Errorf("update battle %d arena: %w", id, err)
	}
	return nil
}

// ListStakingBattlesDue returns staking-mode battles whose staking window
// has elapsed, for the readiness loop to promote (spec §4.9 "Readiness
// loop").
func (s *Store) ListStakingBattlesDue(ctx context.Context, now time.Time) ([]domain.ScheduledBattle, error) {
	return s.queryBattles(ctx, battleSelectColumns+`
		FROM scheduled_battles WHERE status = $1 AND staking_ends_at <= $2
	`, domain.BattleStaking, now)
}

// ListStakingBattles returns every battle currently in its staking window,
// for the countdown loop to broadcast remaining seconds (spec §4.9
// "Countdown loop").
func (s *Store) ListStakingBattles(ctx context.Context) ([]domain.ScheduledBattle, error) {
	return s.queryBattles(ctx, battleSelectColumns+`FROM scheduled_battles WHERE status = $1`, domain.BattleStaking)
}

// ListStuckBattles returns battling-status battles that started before
// cutoff, bounded by limit (spec §4.9 "Stuck-battle recovery").
func (s *Store) ListStuckBattles(ctx context.Context, cutoff time.Time, limit int) ([]domain.ScheduledBattle, error) {
	return s.queryBattles(ctx, battleSelectColumns+`
		FROM scheduled_battles WHERE status = $1 AND battle_started_at <= $2
		ORDER BY battle_started_at ASC LIMIT $3
	`, domain.BattleBattling, cutoff, limit)
}

// ListRecyclableArenas returns the arena addresses of completed battles
// whose recycle delay has elapsed (spec §4.9 "Arena recycling").
func (s *Store) ListRecyclableArenas(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT arena_address FROM scheduled_battles
		WHERE status = $1 AND arena_address <> '' AND battle_ended_at <= $2
	`, domain.BattleCompleted, now.Add(-domain.ArenaRecycleDelay))
	if err != nil {
		return nil, fmt.Errorf("list recyclable arenas: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, fmt.Errorf("scan recyclable arena: %w", err)
		}
		addresses = append(addresses, address)
	}
	return addresses, rows.Err()
}

// TransitionToBattling flips a due staking battle to battling, stamping its
// start time.
func (s *Store) TransitionToBattling(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_battles SET status = $2, battle_started_at = now() WHERE id = $1
	`, id, domain.BattleBattling)
	if err != nil {
		return fmt.Errorf("transition battle %d to battling: %w", id, err)
	}
	return nil
}

// CompleteBattleTx atomically records a battle's outcome, both agents'
// updated ratings and tallies, and their history rows in one transaction
// (spec §4.9 "Completion" step 2). A stuck/error-defaulted battle still
// reaches BattleCompleted with winner=0 (spec §8): isError only means the
// outcome was forced rather than engine-decided, it never leaves the
// battle non-terminal or skips the rating/history writes.
func (s *Store) CompleteBattleTx(ctx context.Context, params coordinator.CompletionParams) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete-battle tx: %w", err)
	}
	defer tx.Rollback()

	agentANewRating, agentBNewRating := params.WinnerNewRating, params.LoserNewRating
	if params.WinnerSide == 1 {
		agentANewRating, agentBNewRating = params.LoserNewRating, params.WinnerNewRating
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE scheduled_battles
		SET status = $2, winner_key = $3, battle_ended_at = $4,
			agent_a_new_rating = $5, agent_b_new_rating = $6
		WHERE id = $1
	`, params.BattleID, domain.BattleCompleted, params.WinnerKey, params.EndedAt,
		agentANewRating, agentBNewRating); err != nil {
		return fmt.Errorf("update battle %d on completion: %w", params.BattleID, err)
	}

	if err := updateAgentOnOutcome(ctx, tx, params.WinnerKey, params.WinnerNewRating, true); err != nil {
		return err
	}
	if err := updateAgentOnOutcome(ctx, tx, params.LoserKey, params.LoserNewRating, false); err != nil {
		return err
	}

	if err := insertHistoryRow(ctx, tx, params.WinnerKey, params.LoserKey, true, params.EndedAt); err != nil {
		return err
	}
	if err := insertHistoryRow(ctx, tx, params.LoserKey, params.WinnerKey, false, params.EndedAt); err != nil {
		return err
	}

	for _, resetKey := range []string{params.WinnerKey, params.LoserKey} {
		if resetKey == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE agents SET queue_status = $2, updated_at = now() WHERE public_key = $1
		`, resetKey, domain.QueueIdle); err != nil {
			return fmt.Errorf("reset queue status for %s: %w", resetKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit complete-battle tx: %w", err)
	}
	return nil
}

func insertHistoryRow(ctx context.Context, tx *sql.Tx, agentKey, opponentKey string, won bool, playedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO history_rows (agent_key, opponent_key, won, played_at)
		VALUES ($1, $2, $3, $4)
	`, agentKey, opponentKey, won, playedAt)
	if err != nil {
		return fmt.Errorf("insert history row for %s: %w", agentKey, err)
	}
	return nil
}

func updateAgentOnOutcome(ctx context.Context, tx *sql.Tx, agentKey string, newRating int, won bool) error {
	winIncrement := 0
	if won {
		winIncrement = 1
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE agents SET
			current_rating = $2,
			peak_rating = GREATEST(peak_rating, $2),
			wins = wins + $3,
			battles = battles + 1,
			updated_at = now()
		WHERE public_key = $1
	`, agentKey, newRating, winIncrement)
	if err != nil {
		return fmt.Errorf("update agent %s rating: %w", agentKey, err)
	}
	return nil
}

func (s *Store) queryBattles(ctx context.Context, query string, args ...interface{}) ([]domain.ScheduledBattle, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query battles: %w", err)
	}
	defer rows.Close()

	var battles []domain.ScheduledBattle
	for rows.Next() {
		battle, err := scanBattle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan battle: %w", err)
		}
		battles = append(battles, *battle)
	}
	return battles, rows.Err()
}
