// Package coordinator owns a scheduled battle's full lifecycle: creation,
// staking, execution, completion, and settlement (spec §4.9).
package coordinator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine"
	"github.com/wagerlab/arenacore/internal/engine/agentclient"
)

// DefaultMaxConcurrentBattles is MAX_CONCURRENT_BATTLES' default (spec §6).
const DefaultMaxConcurrentBattles = 3

// Repository is the persistence seam for everything the coordinator needs
// beyond the matchmaker's queue tables.
type Repository interface {
	GetAgent(ctx context.Context, key string) (*domain.Agent, error)
	GetActiveBattleForAgent(ctx context.Context, agentKey string) (*domain.ScheduledBattle, error)
	RemoveQueueEntry(ctx context.Context, agentKey string) error
	SetAgentQueueStatus(ctx context.Context, agentKey string, status domain.QueueStatus) error
	InsertBattle(ctx context.Context, battle *domain.ScheduledBattle) error
	GetBattle(ctx context.Context, id int64) (*domain.ScheduledBattle, error)
	UpdateBattleArena(ctx context.Context, id int64, arenaAddress string) error
	ListStakingBattlesDue(ctx context.Context, now time.Time) ([]domain.ScheduledBattle, error)
	TransitionToBattling(ctx context.Context, id int64) error
	CompleteBattleTx(ctx context.Context, params CompletionParams) error
	ListStuckBattles(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledBattle, error)
	ListRecyclableArenas(ctx context.Context, now time.Time) ([]string, error)
	ListStakingBattles(ctx context.Context) ([]domain.ScheduledBattle, error)
	UpsertStake(ctx context.Context, battleID int64, agentKey string, side int, amount int64, signature string) error
}

// LedgerBridge is the coordinator's seam into the external settlement
// ledger (spec §4.6, §4.9).
type LedgerBridge interface {
	CreateArena(ctx context.Context, externalBattleID string) (address string, err error)
	SettleGame(ctx context.Context, arenaAddress string, winnerSide int) error
	ResetArena(ctx context.Context, arenaAddress string) error
	ArenaSettledAndEmpty(ctx context.Context, arenaAddress string) (bool, error)
	VerifyStakeSignature(ctx context.Context, signature string) (bool, error)
}

// EventPublisher is the coordinator's seam into the event hub.
type EventPublisher interface {
	Publish(room, eventType string, payload interface{})
}

// EngineRunner runs one battle; satisfied by engine.Run.
type EngineRunner func(ctx context.Context, agentA, agentB agentclient.Client, mode domain.GameMode, opts engine.Options) *domain.BattleResult

// Coordinator orchestrates battles in either immediate or wagering mode.
type Coordinator struct {
	repo   Repository
	ledger LedgerBridge
	events EventPublisher
	run    EngineRunner

	mode domain.CoordinatorMode
	sem  chan struct{}
	clock func() time.Time

	cron *cron.Cron
	log  *logrus.Entry

	stakeCache *stakeVerificationCache

	readinessRunning atomic.Bool
	countdownRunning atomic.Bool
	recyclingRunning atomic.Bool
	stuckRunning     atomic.Bool
}

// runGuarded runs fn only if flag is currently false, setting it for the
// duration — the single-flight guard spec §5 requires for every background
// loop.
func (c *Coordinator) runGuarded(flag *atomic.Bool, fn func()) {
	if !flag.CompareAndSwap(false, true) {
		return
	}
	defer flag.Store(false)
	fn()
}

// Options configures a new Coordinator.
type Options struct {
	Mode                domain.CoordinatorMode
	MaxConcurrentBattles int
	Clock               func() time.Time
}

// New builds a Coordinator. It does not start any background loop; call
// Start for that.
func New(repo Repository, ledger LedgerBridge, events EventPublisher, run EngineRunner, opts Options) *Coordinator {
	if opts.MaxConcurrentBattles <= 0 {
		opts.MaxConcurrentBattles = DefaultMaxConcurrentBattles
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Coordinator{
		repo:       repo,
		ledger:     ledger,
		events:     events,
		run:        run,
		mode:       opts.Mode,
		sem:        make(chan struct{}, opts.MaxConcurrentBattles),
		clock:      opts.Clock,
		cron:       cron.New(cron.WithSeconds()),
		log:        logrus.WithField("component", "coordinator"),
		stakeCache: newStakeVerificationCache(),
	}
}

// Start registers the readiness, countdown, recycling, and stuck-battle
// recovery loops and begins the cron scheduler (spec §5 "four background
// loops" — the fifth, pairing, lives in the matchmaker).
func (c *Coordinator) Start(ctx context.Context) error {
	loops := []struct {
		schedule string
		fn       func()
	}{
		{readinessPeriod, func() { c.runGuarded(&c.readinessRunning, func() { c.runReadinessIteration(ctx) }) }},
		{countdownPeriod, func() { c.runGuarded(&c.countdownRunning, func() { c.runCountdownIteration(ctx) }) }},
		{recyclingPeriod, func() { c.runGuarded(&c.recyclingRunning, func() { c.runRecyclingIteration(ctx) }) }},
		{stuckBattlePeriod, func() { c.runGuarded(&c.stuckRunning, func() { c.runStuckBattleIteration(ctx) }) }},
	}
	for _, l := range loops {
		if _, err := c.cron.AddFunc(l.schedule, l.fn); err != nil {
			return fmt.Errorf("register coordinator loop %q: %w", l.schedule, err)
		}
	}
	c.cron.Start()
	return nil
}

// Stop halts the cron scheduler, waiting for in-flight jobs.
func (c *Coordinator) Stop() {
	<-c.cron.Stop().Done()
}

// CreateBattle implements spec §4.9's creation protocol.
func (c *Coordinator) CreateBattle(ctx context.Context, agentAKey, agentBKey string, discipline domain.Discipline) error {
	// Step 1: idempotent re-check.
	if existing, err := c.repo.GetActiveBattleForAgent(ctx, agentAKey); err != nil {
		return fmt.Errorf("check active battle for %s: %w", agentAKey, err)
	} else if existing != nil {
		return nil
	}
	if existing, err := c.repo.GetActiveBattleForAgent(ctx, agentBKey); err != nil {
		return fmt.Errorf("check active battle for %s: %w", agentBKey, err)
	} else if existing != nil {
		return nil
	}

	agentA, err := c.repo.GetAgent(ctx, agentAKey)
	if err != nil {
		return fmt.Errorf("get agent %s: %w", agentAKey, err)
	}
	agentB, err := c.repo.GetAgent(ctx, agentBKey)
	if err != nil {
		return fmt.Errorf("get agent %s: %w", agentBKey, err)
	}

	// Step 2.
	if err := c.repo.RemoveQueueEntry(ctx, agentAKey); err != nil {
		c.log.WithError(err).Warn("remove queue entry on battle creation")
	}
	if err := c.repo.RemoveQueueEntry(ctx, agentBKey); err != nil {
		c.log.WithError(err).Warn("remove queue entry on battle creation")
	}

	now := c.clock()
	gameMode := domain.GameModeForDiscipline(discipline)
	battle := &domain.ScheduledBattle{
		ExternalID:   newExternalID(),
		AgentAKey:    agentAKey,
		AgentBKey:    agentBKey,
		AgentARating: agentA.CurrentRating,
		AgentBRating: agentB.CurrentRating,
		Discipline:   discipline,
		GameMode:     gameMode,
		MatchedAt:    now,
	}

	statusForBothAgents := domain.QueueMatched
	if c.mode == domain.ModeImmediate {
		battle.Status = domain.BattleBattling
		battle.BattleStartedAt = now
		statusForBothAgents = domain.QueueBattling
	} else {
		// Step 3: wagering mode arena creation; failure degrades to a
		// DB-only battle rather than blocking creation.
		battle.Status = domain.BattleStaking
		battle.StakingEndsAt = now.Add(domain.StakingWindow)
		if address, err := c.ledger.CreateArena(ctx, battle.ExternalID); err != nil {
			c.log.WithError(err).Warn("create on-chain arena failed, continuing DB-only")
		} else {
			battle.ArenaAddress = address
		}
	}

	// Step 4.
	if err := c.repo.InsertBattle(ctx, battle); err != nil {
		return fmt.Errorf("insert battle: %w", err)
	}

	// Step 5.
	if err := c.repo.SetAgentQueueStatus(ctx, agentAKey, statusForBothAgents); err != nil {
		c.log.WithError(err).Warn("set queue status for agent A")
	}
	if err := c.repo.SetAgentQueueStatus(ctx, agentBKey, statusForBothAgents); err != nil {
		c.log.WithError(err).Warn("set queue status for agent B")
	}

	if c.mode == domain.ModeImmediate {
		go c.executeBattle(context.Background(), battle)
	}
	return nil
}

// newExternalID produces an opaque external battle identifier. Real
// deployments may prefer a ledger-compatible identifier scheme; any unique
// string satisfies the coordinator's own invariants.
func newExternalID() string {
	return "b_" + uuid.NewString()
}
