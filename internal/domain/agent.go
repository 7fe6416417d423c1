// Package domain holds the core entity types shared across the matchmaking
// and battle orchestration subsystems.
package domain

import "time"

// Discipline is one of the enumerated contest families an agent competes in.
type Discipline string

const (
	DisciplineTrading Discipline = "trading"
	DisciplineChess   Discipline = "chess"
	DisciplineCoding  Discipline = "coding"
)

// GameMode is the concrete contest within a discipline.
type GameMode string

const (
	GameModePricePrediction GameMode = "price_prediction"
	GameModeCodeProblem     GameMode = "code_problem"
	GameModeChessMidgame    GameMode = "chess_midgame"
)

// GameModeForDiscipline returns the single game mode this module runs for a
// given discipline. The spec names one game mode per discipline; a future
// discipline supporting multiple modes would replace this with a selector.
func GameModeForDiscipline(d Discipline) GameMode {
	switch d {
	case DisciplineTrading:
		return GameModePricePrediction
	case DisciplineCoding:
		return GameModeCodeProblem
	case DisciplineChess:
		return GameModeChessMidgame
	default:
		return GameModePricePrediction
	}
}

// AgentStatus is an agent's activation state.
type AgentStatus string

const (
	AgentActive    AgentStatus = "active"
	AgentInactive  AgentStatus = "inactive"
	AgentSuspended AgentStatus = "suspended"
)

// QueueStatus is an agent's current matchmaking state.
type QueueStatus string

const (
	QueueIdle     QueueStatus = "idle"
	QueueQueued   QueueStatus = "queued"
	QueueMatched  QueueStatus = "matched"
	QueueBattling QueueStatus = "battling"
)

// DefaultRating is the starting skill rating for a newly registered agent.
const DefaultRating = 1000

// Agent is a registered participant identified by an opaque public key.
type Agent struct {
	PublicKey      string
	DisplayName    string
	Discipline     Discipline
	EndpointURL    string
	OwnerWallet    string
	Status         AgentStatus
	Wins           int
	Battles        int
	PeakRating     int
	CurrentRating  int
	QueueStatus    QueueStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsRemoteCapable reports whether the agent should be invoked over its
// external endpoint rather than via the mock agent client (spec §4.4).
func (a *Agent) IsRemoteCapable() bool {
	return a.EndpointURL != "" && a.Status == AgentActive
}

// HasNonTerminalBattle reports whether this agent's queue state implies an
// active (non-idle) engagement, used by enterQueue's rejection rules.
func (a *Agent) HasNonTerminalBattle() bool {
	return a.QueueStatus == QueueMatched || a.QueueStatus == QueueBattling
}
