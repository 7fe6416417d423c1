package ledger

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

func decodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64 account data: %w", err)
	}
	return b, nil
}

// arenaAccountLayout mirrors the byte layout initialize_arena writes:
// discriminator(8) | status(1) | winner_side(1, 0xff = none) |
// pool_a(8) | pool_b(8) | started_at(8) | ended_at(8).
const arenaAccountMinLen = 8 + 1 + 1 + 8 + 8 + 8 + 8

// DecodedArena is the on-chain arena account state, decoded from raw bytes.
type DecodedArena struct {
	Status     ArenaAccountStatus
	WinnerSide *int
	PoolA      uint64
	PoolB      uint64
	StartedAt  int64
	EndedAt    int64
}

// ArenaAccountStatus mirrors the external ledger's on-chain status byte.
type ArenaAccountStatus uint8

const (
	ArenaAccountPending   ArenaAccountStatus = 0
	ArenaAccountLive      ArenaAccountStatus = 1
	ArenaAccountSettled   ArenaAccountStatus = 2
	ArenaAccountCancelled ArenaAccountStatus = 3
)

// DecodeArenaAccount parses raw account bytes into a DecodedArena.
func DecodeArenaAccount(data []byte) (*DecodedArena, error) {
	if len(data) < arenaAccountMinLen {
		return nil, fmt.Errorf("arena account data too short: %d bytes", len(data))
	}
	off := 8 // discriminator
	status := ArenaAccountStatus(data[off])
	off++
	winnerByte := data[off]
	off++
	poolA := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	poolB := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	startedAt := int64(binary.LittleEndian.Uint64(data[off : off+8]))
	off += 8
	endedAt := int64(binary.LittleEndian.Uint64(data[off : off+8]))

	var winner *int
	if winnerByte != 0xff {
		w := int(winnerByte)
		winner = &w
	}

	return &DecodedArena{
		Status:     status,
		WinnerSide: winner,
		PoolA:      poolA,
		PoolB:      poolB,
		StartedAt:  startedAt,
		EndedAt:    endedAt,
	}, nil
}

// stakeAccountMinLen mirrors place_stake's written layout: discriminator(8)
// | side(1) | claimed(1) | amount_minor(8).
const stakeAccountMinLen = 8 + 1 + 1 + 8

// DecodedStake is the on-chain stake account state.
type DecodedStake struct {
	Side        int
	Claimed     bool
	AmountMinor uint64
}

// DecodeStakeAccount parses raw account bytes into a DecodedStake.
func DecodeStakeAccount(data []byte) (*DecodedStake, error) {
	if len(data) < stakeAccountMinLen {
		return nil, fmt.Errorf("stake account data too short: %d bytes", len(data))
	}
	off := 8
	side := int(data[off])
	off++
	claimed := data[off] != 0
	off++
	amount := binary.LittleEndian.Uint64(data[off : off+8])
	return &DecodedStake{Side: side, Claimed: claimed, AmountMinor: amount}, nil
}
