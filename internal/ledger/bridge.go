package ledger

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/wagerlab/arenacore/infrastructure/config"
	"github.com/wagerlab/arenacore/infrastructure/logging"
)

// Bridge composes Client, Oracle, and the instruction/PDA helpers into the
// single seam the coordinator uses for every on-chain operation (spec
// §4.6, §4.9). It implements coordinator.LedgerBridge.
type Bridge struct {
	Client    *Client
	Oracle    *Oracle
	ProgramID string
	Log       *logging.Logger
}

// NewBridge builds a Bridge from an already-constructed Client and Oracle.
func NewBridge(client *Client, oracle *Oracle, programID string, log *logging.Logger) *Bridge {
	return &Bridge{Client: client, Oracle: oracle, ProgramID: programID, Log: log}
}

// encodeAndSign base64-encodes an instruction payload and signs it with the
// oracle key, standing in for the real transaction-building step a full
// client SDK would perform (account keys, recent blockhash, fee payer).
func (b *Bridge) encodeAndSign(instruction []byte) (instructionB64, signedTxB64 string) {
	instructionB64 = base64.StdEncoding.EncodeToString(instruction)
	sig := b.Oracle.Sign(instruction)
	signedTxB64 = base64.StdEncoding.EncodeToString(append(instruction, sig...))
	return instructionB64, signedTxB64
}

// CreateArena derives the arena PDA for externalBattleID and submits
// initialize_arena, returning the derived address regardless of whether
// submission later fails to confirm — callers treat a returned error as
// "continue DB-only" (spec §4.9 step 3).
func (b *Bridge) CreateArena(ctx context.Context, externalBattleID string) (string, error) {
	address, _ := DeriveArenaPDA(b.ProgramID, externalBattleID)
	instructionB64, signedTxB64 := b.encodeAndSign(EncodeInitializeArena(0))
	if _, err := b.Client.SubmitAndConfirm(ctx, instructionB64, signedTxB64); err != nil {
		return address, fmt.Errorf("initialize_arena for %s: %w", externalBattleID, err)
	}
	return address, nil
}

// SettleGame submits settle_game with the winning side against the given
// arena address.
func (b *Bridge) SettleGame(ctx context.Context, arenaAddress string, winnerSide int) error {
	instructionB64, signedTxB64 := b.encodeAndSign(EncodeSettleGame(uint8(winnerSide)))
	_, err := b.Client.SubmitAndConfirm(ctx, instructionB64, signedTxB64)
	if err != nil {
		return fmt.Errorf("settle_game for %s: %w", arenaAddress, err)
	}
	return nil
}

// ResetArena submits reset_arena, which the external program rejects when
// its vault still holds unclaimed funds (spec §4.9 "Arena recycling").
func (b *Bridge) ResetArena(ctx context.Context, arenaAddress string) error {
	instructionB64, signedTxB64 := b.encodeAndSign(EncodeResetArena())
	_, err := b.Client.SubmitAndConfirm(ctx, instructionB64, signedTxB64)
	if err != nil {
		return fmt.Errorf("reset_arena for %s: %w", arenaAddress, err)
	}
	return nil
}

// ArenaSettledAndEmpty fetches and decodes the arena account, reporting
// whether it is settled with both pools drained to zero — the recycling
// loop's precondition before calling ResetArena.
func (b *Bridge) ArenaSettledAndEmpty(ctx context.Context, arenaAddress string) (bool, error) {
	data, err := b.Client.GetAccountInfo(ctx, arenaAddress)
	if err != nil {
		return false, fmt.Errorf("fetch arena account %s: %w", arenaAddress, err)
	}
	arena, err := DecodeArenaAccount(data)
	if err != nil {
		return false, fmt.Errorf("decode arena account %s: %w", arenaAddress, err)
	}
	return arena.Status == ArenaAccountSettled && arena.PoolA == 0 && arena.PoolB == 0, nil
}

// SyncArena re-fetches and decodes an arena account directly from the
// ledger, for the operator-triggered reconciliation endpoint (spec §6
// "POST /api/arena/sync").
func (b *Bridge) SyncArena(ctx context.Context, arenaAddress string) (*DecodedArena, error) {
	data, err := b.Client.GetAccountInfo(ctx, arenaAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch arena account %s: %w", arenaAddress, err)
	}
	return DecodeArenaAccount(data)
}

// VerifyStakeSignature confirms a user-supplied transaction signature
// actually landed on the ledger, the stake-placement validation step (spec
// §4.9 "Stake placement"). Bounded by LedgerCall so a caller's own request
// timeout does not leave this polling indefinitely.
func (b *Bridge) VerifyStakeSignature(ctx context.Context, signature string) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.GetDefaultTimeouts().LedgerCall)
	defer cancel()
	if _, err := b.Client.Confirm(callCtx, signature); err != nil {
		return false, nil
	}
	return true, nil
}
