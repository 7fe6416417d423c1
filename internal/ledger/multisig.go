package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/wagerlab/arenacore/infrastructure/errors"
)

// MultisigThreshold is the number of oracle co-signatures required to settle
// or reset an arena when multisig mode is enabled (spec §4.6 "2-of-3").
const MultisigThreshold = 2

// MultisigParticipants is the fixed quorum size.
const MultisigParticipants = 3

// CoSigner requests a signature over payload from a remote oracle
// participant, one HTTP round trip per quorum member.
type CoSigner interface {
	RequestSignature(ctx context.Context, endpoint string, payload []byte) ([]byte, error)
}

// MultisigCollector gathers co-signatures from a fixed oracle quorum and
// reports success once MultisigThreshold valid signatures are collected,
// verifying each against its claimed public key before counting it.
type MultisigCollector struct {
	Signer      CoSigner
	Endpoints   []string // /api/oracle/sign endpoints, one per participant
	PublicKeys  []string // matching base58 public keys, same order as Endpoints
}

// Collect gathers signatures concurrently and returns the valid ones once
// the threshold is met, or an error if the quorum can't be reached.
func (m *MultisigCollector) Collect(ctx context.Context, payload []byte) ([][]byte, error) {
	if len(m.Endpoints) != len(m.PublicKeys) {
		return nil, fmt.Errorf("multisig: endpoints/publicKeys length mismatch")
	}

	var (
		mu    sync.Mutex
		valid [][]byte
		wg    sync.WaitGroup
	)

	for i := range m.Endpoints {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig, err := m.Signer.RequestSignature(ctx, m.Endpoints[i], payload)
			if err != nil {
				return
			}
			if !VerifySignature(m.PublicKeys[i], payload, sig) {
				return
			}
			mu.Lock()
			valid = append(valid, sig)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(valid) < MultisigThreshold {
		return nil, errors.LedgerInsufficientSignatures(len(valid), MultisigThreshold)
	}
	return valid[:MultisigThreshold], nil
}
