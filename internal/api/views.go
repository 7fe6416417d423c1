package api

import (
	"time"

	"github.com/wagerlab/arenacore/internal/domain"
)

// agentView is the JSON projection of domain.Agent returned by the
// matchmaking status endpoint.
type agentView struct {
	PublicKey     string              `json:"publicKey"`
	DisplayName   string              `json:"displayName"`
	Discipline    domain.Discipline   `json:"discipline"`
	Status        domain.AgentStatus  `json:"status"`
	QueueStatus   domain.QueueStatus  `json:"queueStatus"`
	CurrentRating int                 `json:"currentRating"`
	PeakRating    int                 `json:"peakRating"`
	Wins          int                 `json:"wins"`
	Battles       int                 `json:"battles"`
}

// battleView is the JSON projection of domain.ScheduledBattle returned by
// the matchmaking/arena read endpoints.
type battleView struct {
	ID              int64              `json:"id"`
	ExternalID      string             `json:"externalId"`
	AgentAKey       string             `json:"agentAKey"`
	AgentBKey       string             `json:"agentBKey"`
	AgentARating    int                `json:"agentARating"`
	AgentBRating    int                `json:"agentBRating"`
	Discipline      domain.Discipline  `json:"discipline"`
	GameMode        domain.GameMode    `json:"gameMode"`
	Status          domain.BattleStatus `json:"status"`
	MatchedAt       time.Time          `json:"matchedAt"`
	StakingEndsAt   *time.Time         `json:"stakingEndsAt,omitempty"`
	ArenaAddress    string             `json:"arenaAddress,omitempty"`
	TotalStakeA     int64              `json:"totalStakeA"`
	TotalStakeB     int64              `json:"totalStakeB"`
	StakeCountA     int                `json:"stakeCountA"`
	StakeCountB     int                `json:"stakeCountB"`
	WinnerKey       string             `json:"winnerKey,omitempty"`
	AgentANewRating int                `json:"agentANewRating,omitempty"`
	AgentBNewRating int                `json:"agentBNewRating,omitempty"`
}

func toBattleView(b *domain.ScheduledBattle) battleView {
	view := battleView{
		ID:              b.ID,
		ExternalID:      b.ExternalID,
		AgentAKey:       b.AgentAKey,
		AgentBKey:       b.AgentBKey,
		AgentARating:    b.AgentARating,
		AgentBRating:    b.AgentBRating,
		Discipline:      b.Discipline,
		GameMode:        b.GameMode,
		Status:          b.Status,
		MatchedAt:       b.MatchedAt,
		ArenaAddress:    b.ArenaAddress,
		TotalStakeA:     b.TotalStakeA,
		TotalStakeB:     b.TotalStakeB,
		StakeCountA:     b.StakeCountA,
		StakeCountB:     b.StakeCountB,
		WinnerKey:       b.WinnerKey,
		AgentANewRating: b.AgentANewRating,
		AgentBNewRating: b.AgentBNewRating,
	}
	if !b.StakingEndsAt.IsZero() {
		stakingEndsAt := b.StakingEndsAt
		view.StakingEndsAt = &stakingEndsAt
	}
	return view
}

func toBattleViews(battles []domain.ScheduledBattle) []battleView {
	views := make([]battleView, 0, len(battles))
	for i := range battles {
		views = append(views, toBattleView(&battles[i]))
	}
	return views
}
