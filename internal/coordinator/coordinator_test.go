package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine"
	"github.com/wagerlab/arenacore/internal/engine/agentclient"
)

type fakeRepo struct {
	mu       sync.Mutex
	agents   map[string]*domain.Agent
	battles  map[int64]*domain.ScheduledBattle
	nextID   int64
	active   map[string]*domain.ScheduledBattle
	completed []CompletionParams
	stakes   []stakeCall
}

type stakeCall struct {
	battleID  int64
	agentKey  string
	side      int
	amount    int64
	signature string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		agents:  make(map[string]*domain.Agent),
		battles: make(map[int64]*domain.ScheduledBattle),
		active:  make(map[string]*domain.ScheduledBattle),
	}
}

func (r *fakeRepo) GetAgent(_ context.Context, key string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agents[key], nil
}

func (r *fakeRepo) GetActiveBattleForAgent(_ context.Context, agentKey string) (*domain.ScheduledBattle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[agentKey], nil
}

func (r *fakeRepo) RemoveQueueEntry(context.Context, string) error { return nil }

func (r *fakeRepo) SetAgentQueueStatus(_ context.Context, agentKey string, status domain.QueueStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[agentKey]; ok {
		a.QueueStatus = status
	}
	return nil
}

func (r *fakeRepo) InsertBattle(_ context.Context, battle *domain.ScheduledBattle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	battle.ID = r.nextID
	r.battles[battle.ID] = battle
	return nil
}

func (r *fakeRepo) GetBattle(_ context.Context, id int64) (*domain.ScheduledBattle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.battles[id], nil
}

func (r *fakeRepo) UpdateBattleArena(_ context.Context, id int64, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.battles[id]; ok {
		b.ArenaAddress = address
	}
	return nil
}

func (r *fakeRepo) ListStakingBattlesDue(_ context.Context, now time.Time) ([]domain.ScheduledBattle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ScheduledBattle
	for _, b := range r.battles {
		if b.Status == domain.BattleStaking && !b.StakingEndsAt.After(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeRepo) TransitionToBattling(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.battles[id]; ok {
		b.Status = domain.BattleBattling
	}
	return nil
}

func (r *fakeRepo) CompleteBattleTx(_ context.Context, params CompletionParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, params)
	if b, ok := r.battles[params.BattleID]; ok {
		b.Status = domain.BattleCompleted
	}
	return nil
}

func (r *fakeRepo) ListStuckBattles(_ context.Context, cutoff time.Time, limit int) ([]domain.ScheduledBattle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ScheduledBattle
	for _, b := range r.battles {
		if b.Status == domain.BattleBattling && b.BattleStartedAt.Before(cutoff) {
			out = append(out, *b)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) ListRecyclableArenas(context.Context, time.Time) ([]string, error) { return nil, nil }

func (r *fakeRepo) ListStakingBattles(_ context.Context) ([]domain.ScheduledBattle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ScheduledBattle
	for _, b := range r.battles {
		if b.Status == domain.BattleStaking {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpsertStake(_ context.Context, battleID int64, agentKey string, side int, amount int64, signature string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stakes = append(r.stakes, stakeCall{battleID, agentKey, side, amount, signature})
	return nil
}

type fakeLedger struct {
	createArenaErr error
	arenaAddress   string
	settleCalls    []int
	verifyOK       map[string]bool
}

func (l *fakeLedger) CreateArena(context.Context, string) (string, error) {
	if l.createArenaErr != nil {
		return "", l.createArenaErr
	}
	return l.arenaAddress, nil
}

func (l *fakeLedger) SettleGame(_ context.Context, _ string, winnerSide int) error {
	l.settleCalls = append(l.settleCalls, winnerSide)
	return nil
}

func (l *fakeLedger) ResetArena(context.Context, string) error { return nil }

func (l *fakeLedger) ArenaSettledAndEmpty(context.Context, string) (bool, error) { return false, nil }

func (l *fakeLedger) VerifyStakeSignature(_ context.Context, signature string) (bool, error) {
	return l.verifyOK[signature], nil
}

type fakeEvents struct {
	mu        sync.Mutex
	published []string
}

func (e *fakeEvents) Publish(_ string, eventType string, _ interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.published = append(e.published, eventType)
}

func fakeRunner(winner int) EngineRunner {
	return func(_ context.Context, _, _ agentclient.Client, _ domain.GameMode, opts engine.Options) *domain.BattleResult {
		if opts.OnLog != nil {
			opts.OnLog(domain.LogLine{Side: 0, Type: domain.LogInfo, Message: "started"})
		}
		if opts.OnDominance != nil {
			opts.OnDominance(60)
		}
		return &domain.BattleResult{Winner: winner, Summary: "done"}
	}
}

func seedAgents(repo *fakeRepo) {
	repo.agents["a"] = &domain.Agent{PublicKey: "a", CurrentRating: 1000, Discipline: domain.DisciplineChess, Status: domain.AgentActive}
	repo.agents["b"] = &domain.Agent{PublicKey: "b", CurrentRating: 1000, Discipline: domain.DisciplineChess, Status: domain.AgentActive}
}

func TestCreateBattleImmediateModeExecutesAtOnce(t *testing.T) {
	repo := newFakeRepo()
	seedAgents(repo)
	events := &fakeEvents{}
	coord := New(repo, &fakeLedger{}, events, fakeRunner(0), Options{Mode: domain.ModeImmediate})

	if err := coord.CreateBattle(context.Background(), "a", "b", domain.DisciplineChess); err != nil {
		t.Fatalf("CreateBattle() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		repo.mu.Lock()
		done := len(repo.completed) > 0
		repo.mu.Unlock()
		if done {
			break
		}
		time.Sleep(time.Millisecond)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.battles) != 1 {
		t.Fatalf("expected one battle, got %d", len(repo.battles))
	}
	if len(repo.completed) != 1 {
		t.Fatal("expected immediate-mode battle to complete")
	}
}

func TestCreateBattleIsIdempotentForActiveAgent(t *testing.T) {
	repo := newFakeRepo()
	seedAgents(repo)
	repo.active["a"] = &domain.ScheduledBattle{ID: 99}

	coord := New(repo, &fakeLedger{}, &fakeEvents{}, fakeRunner(0), Options{Mode: domain.ModeWagering})
	if err := coord.CreateBattle(context.Background(), "a", "b", domain.DisciplineChess); err != nil {
		t.Fatalf("CreateBattle() error = %v", err)
	}
	if len(repo.battles) != 0 {
		t.Fatal("expected no new battle when agent already has an active one")
	}
}

func TestCreateBattleWageringModeDegradesToDBOnlyOnArenaFailure(t *testing.T) {
	repo := newFakeRepo()
	seedAgents(repo)
	coord := New(repo, &fakeLedger{createArenaErr: errArenaDown}, &fakeEvents{}, fakeRunner(0), Options{Mode: domain.ModeWagering})

	if err := coord.CreateBattle(context.Background(), "a", "b", domain.DisciplineChess); err != nil {
		t.Fatalf("CreateBattle() error = %v", err)
	}
	for _, b := range repo.battles {
		if b.ArenaAddress != "" {
			t.Fatal("expected empty arena address on ledger failure")
		}
		if b.Status != domain.BattleStaking {
			t.Fatalf("status = %v, want staking", b.Status)
		}
	}
}

var errArenaDown = &testLedgerError{"arena rpc down"}

type testLedgerError struct{ msg string }

func (e *testLedgerError) Error() string { return e.msg }

func TestCompleteBattleAppliesEloAndSettles(t *testing.T) {
	repo := newFakeRepo()
	seedAgents(repo)
	ledger := &fakeLedger{arenaAddress: "arena1"}
	coord := New(repo, ledger, &fakeEvents{}, fakeRunner(0), Options{Mode: domain.ModeWagering})

	battle := &domain.ScheduledBattle{ID: 1, AgentAKey: "a", AgentBKey: "b", AgentARating: 1000, AgentBRating: 1000, ArenaAddress: "arena1"}
	repo.battles[1] = battle

	coord.CompleteBattle(context.Background(), battle, 0, false)

	if len(repo.completed) != 1 {
		t.Fatal("expected one completion record")
	}
	if repo.completed[0].WinnerNewRating != 1016 {
		t.Fatalf("winner rating = %d, want 1016", repo.completed[0].WinnerNewRating)
	}
	if len(ledger.settleCalls) != 1 || ledger.settleCalls[0] != 0 {
		t.Fatalf("expected settle_game(0) called once, got %v", ledger.settleCalls)
	}
}

func TestPlaceStakeRejectsOutsideStakingWindow(t *testing.T) {
	repo := newFakeRepo()
	battle := &domain.ScheduledBattle{ID: 1, AgentAKey: "a", AgentBKey: "b", Status: domain.BattleBattling}
	repo.battles[1] = battle
	coord := New(repo, &fakeLedger{}, &fakeEvents{}, fakeRunner(0), Options{})

	if err := coord.PlaceStake(context.Background(), 1, "a", 100, ""); err == nil {
		t.Fatal("expected rejection for a non-staking battle")
	}
}

func TestPlaceStakeRequiresSignatureWhenArenaExists(t *testing.T) {
	repo := newFakeRepo()
	battle := &domain.ScheduledBattle{ID: 1, AgentAKey: "a", AgentBKey: "b", Status: domain.BattleStaking, StakingEndsAt: time.Now().Add(time.Minute), ArenaAddress: "arena1"}
	repo.battles[1] = battle
	coord := New(repo, &fakeLedger{}, &fakeEvents{}, fakeRunner(0), Options{})

	if err := coord.PlaceStake(context.Background(), 1, "a", 100, ""); err == nil {
		t.Fatal("expected rejection when no signature is supplied but an arena exists")
	}
}

func TestPlaceStakeVerifiesSignatureAndRecords(t *testing.T) {
	repo := newFakeRepo()
	battle := &domain.ScheduledBattle{ID: 1, AgentAKey: "a", AgentBKey: "b", Status: domain.BattleStaking, StakingEndsAt: time.Now().Add(time.Minute), ArenaAddress: "arena1"}
	repo.battles[1] = battle
	ledger := &fakeLedger{verifyOK: map[string]bool{"sig1": true}}
	coord := New(repo, ledger, &fakeEvents{}, fakeRunner(0), Options{})

	if err := coord.PlaceStake(context.Background(), 1, "a", 500, "sig1"); err != nil {
		t.Fatalf("PlaceStake() error = %v", err)
	}
	if len(repo.stakes) != 1 || repo.stakes[0].side != 0 {
		t.Fatalf("expected one stake recorded for side 0, got %+v", repo.stakes)
	}
}

func TestPlaceStakeCachesSignatureVerification(t *testing.T) {
	repo := newFakeRepo()
	battle := &domain.ScheduledBattle{ID: 1, AgentAKey: "a", AgentBKey: "b", Status: domain.BattleStaking, StakingEndsAt: time.Now().Add(time.Minute), ArenaAddress: "arena1"}
	repo.battles[1] = battle
	ledger := &fakeLedger{verifyOK: map[string]bool{"sig1": true}}
	coord := New(repo, ledger, &fakeEvents{}, fakeRunner(0), Options{})

	coord.PlaceStake(context.Background(), 1, "a", 100, "sig1")
	ledger.verifyOK["sig1"] = false // would reject if re-verified
	if err := coord.PlaceStake(context.Background(), 1, "a", 100, "sig1"); err != nil {
		t.Fatalf("expected cached verification to still succeed, got %v", err)
	}
}

func TestStuckBattleRecoveryCompletesWithWinnerZeroAndError(t *testing.T) {
	repo := newFakeRepo()
	seedAgents(repo)
	battle := &domain.ScheduledBattle{ID: 1, AgentAKey: "a", AgentBKey: "b", AgentARating: 1000, AgentBRating: 1000, Status: domain.BattleBattling, BattleStartedAt: time.Now().Add(-10 * time.Minute)}
	repo.battles[1] = battle

	coord := New(repo, &fakeLedger{}, &fakeEvents{}, fakeRunner(0), Options{})
	coord.runStuckBattleIteration(context.Background())

	if len(repo.completed) != 1 || !repo.completed[0].IsError {
		t.Fatalf("expected one isError completion, got %+v", repo.completed)
	}
}

func TestReadinessLoopPromotesDueStakingBattles(t *testing.T) {
	repo := newFakeRepo()
	seedAgents(repo)
	battle := &domain.ScheduledBattle{ID: 1, AgentAKey: "a", AgentBKey: "b", AgentARating: 1000, AgentBRating: 1000, Status: domain.BattleStaking, StakingEndsAt: time.Now().Add(-time.Second)}
	repo.battles[1] = battle

	coord := New(repo, &fakeLedger{}, &fakeEvents{}, fakeRunner(0), Options{})
	coord.runReadinessIteration(context.Background())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		repo.mu.Lock()
		b := repo.battles[1]
		repo.mu.Unlock()
		if b.Status == domain.BattleCompleted {
			break
		}
		time.Sleep(time.Millisecond)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.battles[1].Status != domain.BattleCompleted {
		t.Fatalf("expected battle to be promoted and run, got status %v", repo.battles[1].Status)
	}
}
