// Package repository implements the matchmaker and coordinator persistence
// seams against PostgreSQL, grounded on the teacher's internal/app/storage/
// postgres.Store (one Store struct, one constructor, narrow per-concern
// files).
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/wagerlab/arenacore/internal/coordinator"
	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/matchmaker"
)

// Store implements matchmaker.Repository and coordinator.Repository against
// a single PostgreSQL connection pool.
type Store struct {
	db *sql.DB
}

var _ matchmaker.Repository = (*Store)(nil)
var _ coordinator.Repository = (*Store)(nil)

// Open opens a PostgreSQL connection, tunes the pool, and verifies
// connectivity with a bounded ping, matching the teacher's indexer storage
// constructor.
func Open(ctx context.Context, dsn string, maxOpenConns, maxIdleConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// New builds a Store using an already-opened database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetAgent loads an agent by public key, returning (nil, nil) when absent.
func (s *Store) GetAgent(ctx context.Context, key string) (*domain.Agent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT public_key, display_name, discipline, endpoint_url, owner_wallet,
			status, wins, battles, peak_rating, current_rating, queue_status,
			created_at, updated_at
		FROM agents WHERE public_key = $1
	`, key)
	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agent %s: %w", key, err)
	}
	return agent, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAgent(row rowScanner) (*domain.Agent, error) {
	var a domain.Agent
	err := row.Scan(
		&a.PublicKey, &a.DisplayName, &a.Discipline, &a.EndpointURL, &a.OwnerWallet,
		&a.Status, &a.Wins, &a.Battles, &a.PeakRating, &a.CurrentRating, &a.QueueStatus,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertAgent registers a new agent (spec §3 "Created by owner
// registration"). Callers perform the endpoint health check before calling
// this; Store only persists the outcome.
func (s *Store) InsertAgent(ctx context.Context, agent *domain.Agent) error {
	now := time.Now().UTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now
	if agent.CurrentRating == 0 {
		agent.CurrentRating = domain.DefaultRating
		agent.PeakRating = domain.DefaultRating
	}
	if agent.QueueStatus == "" {
		agent.QueueStatus = domain.QueueIdle
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (public_key, display_name, discipline, endpoint_url, owner_wallet,
			status, wins, battles, peak_rating, current_rating, queue_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, agent.PublicKey, agent.DisplayName, agent.Discipline, agent.EndpointURL, agent.OwnerWallet,
		agent.Status, agent.Wins, agent.Battles, agent.PeakRating, agent.CurrentRating, agent.QueueStatus,
		agent.CreatedAt, agent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert agent %s: %w", agent.PublicKey, err)
	}
	return nil
}

// UpdateAgent persists owner-initiated mutations to an existing agent row
// (spec §3 "Only its owner may mutate it" — ownership is enforced by the
// API layer before this is called).
func (s *Store) UpdateAgent(ctx context.Context, agent *domain.Agent) error {
	agent.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE agents SET display_name = $2, endpoint_url = $3, status = $4, updated_at = $5
		WHERE public_key = $1
	`, agent.PublicKey, agent.DisplayName, agent.EndpointURL, agent.Status, agent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update agent %s: %w", agent.PublicKey, err)
	}
	return nil
}

// SetAgentQueueStatus updates only the queue_status column.
func (s *Store) SetAgentQueueStatus(ctx context.Context, agentKey string, status domain.QueueStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE agents SET queue_status = $2, updated_at = now() WHERE public_key = $1
	`, agentKey, status)
	if err != nil {
		return fmt.Errorf("set queue status for %s: %w", agentKey, err)
	}
	return nil
}

// HasNonTerminalBattle reports whether agentKey participates in a battle
// that is neither completed nor cancelled.
func (s *Store) HasNonTerminalBattle(ctx context.Context, agentKey string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM scheduled_battles
			WHERE (agent_a_key = $1 OR agent_b_key = $1)
			AND status NOT IN ('completed', 'cancelled')
		)
	`, agentKey).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check non-terminal battle for %s: %w", agentKey, err)
	}
	return exists, nil
}

// GetActiveBattleForAgent returns the agent's single non-terminal battle, if
// any, used by CreateBattle's idempotent re-check (spec §4.9 step 1).
func (s *Store) GetActiveBattleForAgent(ctx context.Context, agentKey string) (*domain.ScheduledBattle, error) {
	row := s.db.QueryRowContext(ctx, battleSelectColumns+`
		FROM scheduled_battles
		WHERE (agent_a_key = $1 OR agent_b_key = $1)
		AND status NOT IN ('completed', 'cancelled')
		LIMIT 1
	`, agentKey)
	battle, err := scanBattle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active battle for %s: %w", agentKey, err)
	}
	return battle, nil
}
