// Package matchmaker runs the fixed-period pairing loop and the synchronous
// enterQueue entry point described in spec §4.8.
package matchmaker

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/wagerlab/arenacore/internal/domain"
)

// PairingPeriod is the fixed-period pairing loop's default schedule (spec
// §4.8 "runs at a fixed period (10 s default)").
const PairingPeriod = "@every 10s"

// Repository is the persistence seam the matchmaker needs: queue entries
// and agent status.
type Repository interface {
	ListActiveQueueEntries(ctx context.Context) ([]domain.QueueEntry, error)
	RemoveQueueEntry(ctx context.Context, agentKey string) error
	SetAgentQueueStatus(ctx context.Context, agentKey string, status domain.QueueStatus) error
	GetAgent(ctx context.Context, agentKey string) (*domain.Agent, error)
	InsertQueueEntry(ctx context.Context, entry domain.QueueEntry) error
	HasNonTerminalBattle(ctx context.Context, agentKey string) (bool, error)
}

// Coordinator is the seam into the battle coordinator's createBattle
// protocol (spec §4.9 "Creation protocol").
type Coordinator interface {
	CreateBattle(ctx context.Context, agentAKey, agentBKey string, discipline domain.Discipline) error
}

// ErrAgentNotEligible is returned by EnterQueue's rejection rules (spec
// §4.8 "enterQueue is synchronous... It rejects if...").
type ErrAgentNotEligible struct {
	Reason string
}

func (e *ErrAgentNotEligible) Error() string {
	return fmt.Sprintf("agent not eligible to queue: %s", e.Reason)
}

// Matchmaker owns the queue repository and the pairing loop's cron entry.
type Matchmaker struct {
	repo        Repository
	coordinator Coordinator
	clock       func() time.Time
	cron        *cron.Cron
	running     atomic.Bool
	log         *logrus.Entry
}

// New builds a Matchmaker. clock defaults to time.Now when nil, overridable
// in tests.
func New(repo Repository, coordinator Coordinator, clock func() time.Time) *Matchmaker {
	if clock == nil {
		clock = time.Now
	}
	return &Matchmaker{
		repo:        repo,
		coordinator: coordinator,
		clock:       clock,
		cron:        cron.New(cron.WithSeconds()),
		log:         logrus.WithField("component", "matchmaker"),
	}
}

// Start registers the pairing loop and begins the cron scheduler.
func (m *Matchmaker) Start(ctx context.Context) error {
	_, err := m.cron.AddFunc(PairingPeriod, func() {
		m.runPairingIteration(ctx)
	})
	if err != nil {
		return fmt.Errorf("register pairing loop: %w", err)
	}
	m.cron.Start()
	return nil
}

// Stop halts the cron scheduler and waits for any in-flight job to finish.
func (m *Matchmaker) Stop() {
	<-m.cron.Stop().Done()
}

// runPairingIteration is single-flight: a slow iteration skips rather than
// overlapping with the next tick (spec §4.8 "single-flight — one instance
// only").
func (m *Matchmaker) runPairingIteration(ctx context.Context) {
	if !m.running.CompareAndSwap(false, true) {
		m.log.Debug("pairing iteration already running, skipping tick")
		return
	}
	defer m.running.Store(false)

	if err := m.pairOnce(ctx); err != nil {
		m.log.WithError(err).Error("pairing iteration failed")
	}
}

// pairOnce implements spec §4.8 steps 1-4.
func (m *Matchmaker) pairOnce(ctx context.Context) error {
	entries, err := m.repo.ListActiveQueueEntries(ctx)
	if err != nil {
		return fmt.Errorf("list queue entries: %w", err)
	}

	now := m.clock()
	var live []domain.QueueEntry
	for _, e := range entries {
		if e.Expired(now) {
			if err := m.expire(ctx, e); err != nil {
				m.log.WithError(err).WithField("agent", e.AgentKey).Warn("expire queue entry")
			}
			continue
		}
		live = append(live, e)
	}

	sort.SliceStable(live, func(i, j int) bool {
		return live[i].EnqueuedAt.Before(live[j].EnqueuedAt)
	})

	paired := make(map[string]bool)
	for i, a := range live {
		if paired[a.AgentKey] {
			continue
		}
		best, ok := findBestOpponent(live, i, paired)
		if !ok {
			continue
		}

		if err := m.coordinator.CreateBattle(ctx, a.AgentKey, best.AgentKey, a.Discipline); err != nil {
			m.log.WithError(err).WithFields(logrus.Fields{
				"agent_a": a.AgentKey,
				"agent_b": best.AgentKey,
			}).Error("create battle")
			continue
		}

		paired[a.AgentKey] = true
		paired[best.AgentKey] = true
		if err := m.repo.RemoveQueueEntry(ctx, a.AgentKey); err != nil {
			m.log.WithError(err).Warn("remove queue entry for paired agent")
		}
		if err := m.repo.RemoveQueueEntry(ctx, best.AgentKey); err != nil {
			m.log.WithError(err).Warn("remove queue entry for paired agent")
		}
	}
	return nil
}

// findBestOpponent walks the remaining unpaired entries greedily, returning
// the same-discipline candidate with the smallest rating gap within
// MaxRatingGap; earlier-enqueued candidates win ties (spec §4.8 step 2,
// "Tie-break").
func findBestOpponent(live []domain.QueueEntry, fromIdx int, paired map[string]bool) (domain.QueueEntry, bool) {
	subject := live[fromIdx]
	var best *domain.QueueEntry
	bestGap := domain.MaxRatingGap + 1

	for j := fromIdx + 1; j < len(live); j++ {
		candidate := live[j]
		if paired[candidate.AgentKey] || candidate.AgentKey == subject.AgentKey {
			continue
		}
		if candidate.Discipline != subject.Discipline {
			continue
		}
		gap := domain.RatingGap(subject, candidate)
		if gap > domain.MaxRatingGap {
			continue
		}
		if gap < bestGap {
			bestGap = gap
			c := candidate
			best = &c
		}
	}
	if best == nil {
		return domain.QueueEntry{}, false
	}
	return *best, true
}

func (m *Matchmaker) expire(ctx context.Context, entry domain.QueueEntry) error {
	if err := m.repo.RemoveQueueEntry(ctx, entry.AgentKey); err != nil {
		return err
	}
	return m.repo.SetAgentQueueStatus(ctx, entry.AgentKey, domain.QueueIdle)
}

// EnterQueue is the synchronous entry point: it validates eligibility,
// inserts the queue entry, and attempts an immediate pairing pass before
// returning (spec §4.8 "enterQueue is synchronous and also attempts
// immediate pairing").
func (m *Matchmaker) EnterQueue(ctx context.Context, agentKey string) error {
	agent, err := m.repo.GetAgent(ctx, agentKey)
	if err != nil {
		return fmt.Errorf("get agent: %w", err)
	}
	if agent == nil {
		return &ErrAgentNotEligible{Reason: "agent does not exist"}
	}
	if agent.Status != domain.AgentActive {
		return &ErrAgentNotEligible{Reason: "agent is not active"}
	}
	if agent.QueueStatus == domain.QueueQueued {
		return &ErrAgentNotEligible{Reason: "agent is already queued"}
	}
	if agent.HasNonTerminalBattle() {
		return &ErrAgentNotEligible{Reason: "agent is already matched or battling"}
	}
	hasBattle, err := m.repo.HasNonTerminalBattle(ctx, agentKey)
	if err != nil {
		return fmt.Errorf("check non-terminal battles: %w", err)
	}
	if hasBattle {
		return &ErrAgentNotEligible{Reason: "agent has a non-terminal scheduled battle"}
	}

	now := m.clock()
	entry := domain.NewQueueEntry(agentKey, agent.Discipline, agent.CurrentRating, now)
	if err := m.repo.InsertQueueEntry(ctx, entry); err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	if err := m.repo.SetAgentQueueStatus(ctx, agentKey, domain.QueueQueued); err != nil {
		return fmt.Errorf("set queue status: %w", err)
	}

	m.runPairingIteration(ctx)
	return nil
}

// LeaveQueue withdraws agentKey from the pairing queue (spec §6 "POST
// /api/matchmaking/leave"). It is a no-op, not an error, for an agent that
// is not currently queued.
func (m *Matchmaker) LeaveQueue(ctx context.Context, agentKey string) error {
	agent, err := m.repo.GetAgent(ctx, agentKey)
	if err != nil {
		return fmt.Errorf("get agent: %w", err)
	}
	if agent == nil {
		return &ErrAgentNotEligible{Reason: "agent does not exist"}
	}
	if agent.QueueStatus != domain.QueueQueued {
		return nil
	}
	if err := m.repo.RemoveQueueEntry(ctx, agentKey); err != nil {
		return fmt.Errorf("remove queue entry: %w", err)
	}
	return m.repo.SetAgentQueueStatus(ctx, agentKey, domain.QueueIdle)
}
