package coordinator

import (
	"context"
	"time"

	"github.com/wagerlab/arenacore/internal/domain"
)

// CompletionParams is the atomic write CompleteBattle asks the repository
// to perform (spec §4.9 "Completion" step 2).
type CompletionParams struct {
	BattleID        int64
	WinnerKey       string
	LoserKey        string
	WinnerSide      int
	WinnerNewRating int
	LoserNewRating  int
	IsError         bool
	EndedAt         time.Time
}

// CompleteBattle implements spec §4.9's completion algorithm: rating
// update, a single atomic persistence step, and a best-effort ledger
// settlement.
func (c *Coordinator) CompleteBattle(ctx context.Context, battle *domain.ScheduledBattle, winnerSide int, isError bool) {
	winnerKey := battle.AgentForSide(winnerSide)
	loserKey := battle.AgentForSide(1 - winnerSide)
	winnerRating := battle.AgentARating
	loserRating := battle.AgentBRating
	if winnerSide == 1 {
		winnerRating, loserRating = battle.AgentBRating, battle.AgentARating
	}

	newWinnerRating, newLoserRating := EloUpdate(winnerRating, loserRating)

	params := CompletionParams{
		BattleID:        battle.ID,
		WinnerKey:       winnerKey,
		LoserKey:        loserKey,
		WinnerSide:      winnerSide,
		WinnerNewRating: newWinnerRating,
		LoserNewRating:  newLoserRating,
		IsError:         isError,
		EndedAt:         c.clock(),
	}

	if err := c.repo.CompleteBattleTx(ctx, params); err != nil {
		c.log.WithError(err).WithField("battle_id", battle.ID).Error("complete battle transaction")
		return
	}

	if battle.ArenaAddress == "" {
		return
	}
	if err := c.ledger.SettleGame(ctx, battle.ArenaAddress, winnerSide); err != nil {
		// Ledger failure does not roll back the DB (spec §4.9 step 3).
		c.log.WithError(err).WithField("battle_id", battle.ID).Warn("settle_game failed, DB already completed")
	}
}
