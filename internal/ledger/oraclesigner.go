package ledger

import (
	"sync"
	"time"
)

// nonceReplayWindow bounds how long a co-signing nonce is remembered before
// it is safe to forget (the request round trip this guards against replay
// for is sub-second; anything older than a few minutes is stale traffic,
// not a replay attempt).
const nonceReplayWindow = 5 * time.Minute

// OracleSigner signs co-signature requests from peer oracle nodes for the
// local Oracle key, rejecting any nonce it has already seen (spec §6
// "POST /api/oracle/sign(-reset) (multisig peers only)").
type OracleSigner struct {
	Oracle *Oracle

	mu     sync.Mutex
	seen   map[string]time.Time
	lastGC time.Time
	now    func() time.Time
}

// NewOracleSigner builds an OracleSigner around oracle.
func NewOracleSigner(oracle *Oracle) *OracleSigner {
	return &OracleSigner{Oracle: oracle, seen: make(map[string]time.Time), now: time.Now}
}

// ErrNonceReplayed is returned when a nonce has already been redeemed.
type ErrNonceReplayed struct{ Nonce string }

func (e *ErrNonceReplayed) Error() string {
	return "co-sign nonce already used: " + e.Nonce
}

// Sign verifies nonce has not been seen within the replay window, signs
// payload with the local oracle key, and remembers nonce.
func (s *OracleSigner) Sign(nonce string, payload []byte) ([]byte, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastGC) > nonceReplayWindow {
		for n, seenAt := range s.seen {
			if now.Sub(seenAt) > nonceReplayWindow {
				delete(s.seen, n)
			}
		}
		s.lastGC = now
	}

	if _, replayed := s.seen[nonce]; replayed {
		return nil, &ErrNonceReplayed{Nonce: nonce}
	}
	s.seen[nonce] = now
	return s.Oracle.Sign(payload), nil
}
