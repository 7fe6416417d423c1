// Package api wires the coordinator, matchmaker, ledger bridge, and event
// hub behind the HTTP/WS surface spec §6 names (spec §4.10 "Coordination
// API shim").
package api

import (
	"context"
	"time"

	"github.com/wagerlab/arenacore/infrastructure/logging"
	"github.com/wagerlab/arenacore/infrastructure/metrics"
	"github.com/wagerlab/arenacore/infrastructure/middleware"
	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/hub"
	"github.com/wagerlab/arenacore/internal/ledger"
)

// Coordinator is the seam into the battle lifecycle the HTTP layer drives.
type Coordinator interface {
	CreateBattle(ctx context.Context, agentAKey, agentBKey string, discipline domain.Discipline) error
	PlaceStake(ctx context.Context, battleID int64, agentKey string, amount int64, signature string) error
}

// Matchmaker is the seam into queue entry/exit.
type Matchmaker interface {
	EnterQueue(ctx context.Context, agentKey string) error
	LeaveQueue(ctx context.Context, agentKey string) error
}

// Repository is the read-side persistence seam the handlers need directly,
// beyond what Coordinator/Matchmaker already expose.
type Repository interface {
	GetAgent(ctx context.Context, key string) (*domain.Agent, error)
	GetActiveBattleForAgent(ctx context.Context, agentKey string) (*domain.ScheduledBattle, error)
	GetBattle(ctx context.Context, id int64) (*domain.ScheduledBattle, error)
	GetBattleByExternalID(ctx context.Context, externalID string) (*domain.ScheduledBattle, error)
	GetBattleByArenaAddress(ctx context.Context, arenaAddress string) (*domain.ScheduledBattle, error)
	ListActiveBattles(ctx context.Context) ([]domain.ScheduledBattle, error)
	ListActiveArenas(ctx context.Context) ([]domain.ScheduledBattle, error)
	ListSettledArenas(ctx context.Context) ([]domain.ScheduledBattle, error)
}

// Bridge is the seam into on-chain arena operations the HTTP layer drives
// directly (reset/sync), distinct from the coordinator's own ledger calls.
type Bridge interface {
	ResetArena(ctx context.Context, arenaAddress string) error
	SyncArena(ctx context.Context, arenaAddress string) (*ledger.DecodedArena, error)
}

// Deps bundles every collaborator NewRouter needs.
type Deps struct {
	Coordinator Coordinator
	Matchmaker  Matchmaker
	Repo        Repository
	Bridge      Bridge
	Hub         *hub.Hub
	Oracle      *ledger.Oracle
	Signer      *OracleSigner
	Auth        Authenticator
	RateLimiter *middleware.RateLimiter
	Log         *logging.Logger
	Health      *middleware.HealthChecker
	Metrics     *metrics.Metrics
	StartedAt   time.Time
}
