package coordinator

import (
	"context"

	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine"
	"github.com/wagerlab/arenacore/internal/engine/agentclient"
	"github.com/wagerlab/arenacore/internal/hub"
)

// executeBattle runs one battle end-to-end: acquire the concurrency
// semaphore, stream events, run the engine, and complete. It never returns
// an error to its caller — failures surface as an isError completion (spec
// §4.5 step 8, §4.9 "Readiness loop... engine errors are caught").
func (c *Coordinator) executeBattle(ctx context.Context, battle *domain.ScheduledBattle) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return
	}

	room := hub.Room(battle.ExternalID)
	c.events.Publish(room, hub.EventBattleStart, map[string]interface{}{
		"agent_a":   battle.AgentAKey,
		"agent_b":   battle.AgentBKey,
		"game_mode": battle.GameMode,
	})

	agentA, err := c.repo.GetAgent(ctx, battle.AgentAKey)
	if err != nil {
		c.log.WithError(err).Error("load agent A for battle execution")
		c.CompleteBattle(ctx, battle, 0, true)
		return
	}
	agentB, err := c.repo.GetAgent(ctx, battle.AgentBKey)
	if err != nil {
		c.log.WithError(err).Error("load agent B for battle execution")
		c.CompleteBattle(ctx, battle, 0, true)
		return
	}

	clientA := agentclient.Select(agentA, nil, battle.ID)
	clientB := agentclient.Select(agentB, nil, battle.ID^1)

	pacer := hub.NewLogPacer(c.events, room, hub.LogIntervalFromEnv())
	result := c.run(ctx, clientA, clientB, battle.GameMode, engine.Options{
		OnLog: func(line domain.LogLine) {
			pacer.Enqueue(line)
		},
		OnDominance: func(d int) {
			c.events.Publish(room, hub.EventBattleDominance, d)
		},
	})
	pacer.Stop()

	c.events.Publish(room, hub.EventBattleEnd, map[string]interface{}{
		"winner":  result.Winner,
		"summary": result.Summary,
	})

	c.CompleteBattle(ctx, battle, result.Winner, result.IsError)
}
