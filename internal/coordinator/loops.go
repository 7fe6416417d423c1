package coordinator

import (
	"context"

	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/hub"
)

// Background loop schedules (spec §5 "four background loops").
const (
	readinessPeriod   = "@every 3s"
	countdownPeriod   = "@every 1s"
	recyclingPeriod   = "@every 60s"
	stuckBattlePeriod = "@every 30s"
)

// stuckBattleRecoveryLimit bounds how many stuck battles one iteration
// recovers (spec §4.9 "Stuck-battle recovery... LIMIT 5").
const stuckBattleRecoveryLimit = 5

// runReadinessIteration promotes due staking battles to battling and runs
// them without awaiting (spec §4.9 "Readiness loop").
func (c *Coordinator) runReadinessIteration(ctx context.Context) {
	due, err := c.repo.ListStakingBattlesDue(ctx, c.clock())
	if err != nil {
		c.log.WithError(err).Error("list staking battles due")
		return
	}
	for i := range due {
		battle := due[i]
		if err := c.repo.TransitionToBattling(ctx, battle.ID); err != nil {
			c.log.WithError(err).WithField("battle_id", battle.ID).Error("transition battle to battling")
			continue
		}
		battle.Status = domain.BattleBattling
		battle.BattleStartedAt = c.clock()
		go c.executeBattle(context.Background(), &battle)
	}
}

// runCountdownIteration emits battle:countdown to every staking battle's
// room once per second (spec §4.7, §4.9).
func (c *Coordinator) runCountdownIteration(ctx context.Context) {
	staking, err := c.repo.ListStakingBattles(ctx)
	if err != nil {
		c.log.WithError(err).Error("list staking battles for countdown")
		return
	}
	now := c.clock()
	for _, battle := range staking {
		remaining := int(battle.StakingEndsAt.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		c.events.Publish(hub.Room(battle.ExternalID), hub.EventBattleCountdown, remaining)
	}
}

// runRecyclingIteration resets arenas that are settled on-chain and whose
// vault is empty, a fixed period after the owning battle completed (spec
// §4.9 "Arena recycling").
func (c *Coordinator) runRecyclingIteration(ctx context.Context) {
	arenas, err := c.repo.ListRecyclableArenas(ctx, c.clock())
	if err != nil {
		c.log.WithError(err).Error("list recyclable arenas")
		return
	}
	for _, address := range arenas {
		empty, err := c.ledger.ArenaSettledAndEmpty(ctx, address)
		if err != nil {
			c.log.WithError(err).WithField("arena", address).Warn("check arena settlement status")
			continue
		}
		if !empty {
			continue
		}
		if err := c.ledger.ResetArena(ctx, address); err != nil {
			// "Vault must be empty" is benign and expected; log, don't alarm.
			c.log.WithError(err).WithField("arena", address).Info("reset_arena rejected")
		}
	}
}

// runStuckBattleIteration force-completes battles that have been battling
// past StuckBattleThreshold (spec §4.9 "Stuck-battle recovery").
func (c *Coordinator) runStuckBattleIteration(ctx context.Context) {
	cutoff := c.clock().Add(-domain.StuckBattleThreshold)
	stuck, err := c.repo.ListStuckBattles(ctx, cutoff, stuckBattleRecoveryLimit)
	if err != nil {
		c.log.WithError(err).Error("list stuck battles")
		return
	}
	for i := range stuck {
		battle := stuck[i]
		c.log.WithField("battle_id", battle.ID).Warn("recovering stuck battle")
		c.CompleteBattle(ctx, &battle, 0, true)
	}
}
