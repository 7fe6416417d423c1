package domain

import "time"

// BattleStatus is the lifecycle state of a scheduled battle.
type BattleStatus string

const (
	BattleStaking   BattleStatus = "staking"
	BattleBattling  BattleStatus = "battling"
	BattleCompleted BattleStatus = "completed"
	BattleCancelled BattleStatus = "cancelled"
)

// CoordinatorMode selects whether battles skip the wagering window.
type CoordinatorMode string

const (
	ModeImmediate CoordinatorMode = "immediate"
	ModeWagering  CoordinatorMode = "wagering"
)

// StakingWindow is the fixed duration a wagering-mode battle stays open for
// stakes before it is promoted to battling (spec §4.9).
const StakingWindow = 120 * time.Second

// StuckBattleThreshold is how long a battle may remain in BattleBattling
// before the recovery loop considers it stuck (spec §4.9).
const StuckBattleThreshold = 5 * time.Minute

// ArenaRecycleDelay is how long after completion a battle's arena becomes
// eligible for recycling (spec §4.9).
const ArenaRecycleDelay = 5 * time.Minute

// ScheduledBattle is the authoritative record of a match.
type ScheduledBattle struct {
	ID               int64
	ExternalID       string
	AgentAKey        string
	AgentBKey        string
	AgentARating     int
	AgentBRating     int
	Discipline       Discipline
	GameMode         GameMode
	Status           BattleStatus
	MatchedAt        time.Time
	StakingEndsAt    time.Time
	ArenaAddress     string
	TotalStakeA      int64
	TotalStakeB      int64
	StakeCountA      int
	StakeCountB      int
	WinnerKey        string
	AgentANewRating  int
	AgentBNewRating  int
	BattleStartedAt  time.Time
	BattleEndedAt    time.Time
}

// IsTerminal reports whether the battle has reached a terminal status.
func (b *ScheduledBattle) IsTerminal() bool {
	return b.Status == BattleCompleted || b.Status == BattleCancelled
}

// SideForAgent returns 0 if key is side A, 1 if side B, and -1 otherwise.
func (b *ScheduledBattle) SideForAgent(key string) int {
	switch key {
	case b.AgentAKey:
		return 0
	case b.AgentBKey:
		return 1
	default:
		return -1
	}
}

// AgentForSide returns the agent key for the given side (0 or 1).
func (b *ScheduledBattle) AgentForSide(side int) string {
	if side == 0 {
		return b.AgentAKey
	}
	return b.AgentBKey
}

// HistoryRow is an append-only fact per agent per battle.
type HistoryRow struct {
	AgentKey    string
	OpponentKey string
	Won         bool
	PlayedAt    time.Time
}
