package coordinator

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wagerlab/arenacore/internal/domain"
)

// stakeVerificationCacheSize and TTL mirror spec §4.9 "Stake placement"'s
// "60 s result cache, LRU-evicted at 1000 entries".
const (
	stakeVerificationCacheSize = 1000
	stakeVerificationCacheTTL  = 60 * time.Second
)

type stakeVerificationEntry struct {
	verifiedAt time.Time
	ok         bool
}

// stakeVerificationCache wraps an LRU cache of ledger signature-verification
// results keyed by transaction signature.
type stakeVerificationCache struct {
	cache *lru.Cache[string, stakeVerificationEntry]
}

func newStakeVerificationCache() *stakeVerificationCache {
	cache, _ := lru.New[string, stakeVerificationEntry](stakeVerificationCacheSize)
	return &stakeVerificationCache{cache: cache}
}

// get returns a cached verification result if present and not expired.
func (s *stakeVerificationCache) get(signature string, now time.Time) (ok bool, found bool) {
	entry, found := s.cache.Get(signature)
	if !found || now.Sub(entry.verifiedAt) > stakeVerificationCacheTTL {
		return false, false
	}
	return entry.ok, true
}

func (s *stakeVerificationCache) set(signature string, ok bool, now time.Time) {
	s.cache.Add(signature, stakeVerificationEntry{verifiedAt: now, ok: ok})
}

// ErrStakeRejected is returned by PlaceStake's validation rules.
type ErrStakeRejected struct {
	Reason string
}

func (e *ErrStakeRejected) Error() string {
	return fmt.Sprintf("stake rejected: %s", e.Reason)
}

// PlaceStake implements spec §4.9 "Stake placement".
func (c *Coordinator) PlaceStake(ctx context.Context, battleID int64, agentKey string, amount int64, signature string) error {
	battle, err := c.repo.GetBattle(ctx, battleID)
	if err != nil {
		return fmt.Errorf("get battle: %w", err)
	}
	if battle == nil {
		return &ErrStakeRejected{Reason: "battle does not exist"}
	}
	now := c.clock()
	if battle.Status != domain.BattleStaking || now.After(battle.StakingEndsAt) {
		return &ErrStakeRejected{Reason: "battle is not within its staking window"}
	}

	side := battle.SideForAgent(agentKey)
	if side < 0 {
		return &ErrStakeRejected{Reason: "agent key is not a participant in this battle"}
	}

	if signature != "" {
		verified, err := c.verifySignatureCached(ctx, signature, now)
		if err != nil {
			return fmt.Errorf("verify stake signature: %w", err)
		}
		if !verified {
			return &ErrStakeRejected{Reason: "ledger transaction signature did not verify"}
		}
	} else if battle.ArenaAddress != "" {
		return &ErrStakeRejected{Reason: "on-chain arena exists; a transaction signature is required"}
	}

	if err := c.repo.UpsertStake(ctx, battleID, agentKey, side, amount, signature); err != nil {
		return fmt.Errorf("upsert stake: %w", err)
	}
	return nil
}

func (c *Coordinator) verifySignatureCached(ctx context.Context, signature string, now time.Time) (bool, error) {
	if ok, found := c.stakeCache.get(signature, now); found {
		return ok, nil
	}
	verified, err := c.ledger.VerifyStakeSignature(ctx, signature)
	if err != nil {
		return false, err
	}
	c.stakeCache.set(signature, verified, now)
	return verified, nil
}
