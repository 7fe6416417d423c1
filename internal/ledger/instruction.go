// Package ledger builds, signs, submits, and confirms ledger instructions,
// and decodes on-chain account state (spec §4.6).
package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
)

// Instruction names recognised by the external ledger program (spec §6).
const (
	InstrInitializeArena = "initialize_arena"
	InstrPlaceStake      = "place_stake"
	InstrSettleGame      = "settle_game"
	InstrResetArena      = "reset_arena"
	InstrClaimReward     = "claim_reward"
)

// Discriminator returns the first 8 bytes of SHA-256("global:"<name>), the
// instruction's wire-format prefix (spec §4.6, §6).
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// EncodeInitializeArena builds the initialize_arena instruction payload:
// discriminator + u16 fee_bps little-endian.
func EncodeInitializeArena(feeBps uint16) []byte {
	d := Discriminator(InstrInitializeArena)
	buf := bytes.NewBuffer(d[:])
	_ = binary.Write(buf, binary.LittleEndian, feeBps)
	return buf.Bytes()
}

// EncodePlaceStake builds the place_stake instruction payload: discriminator
// + u64 amount_minor + u8 side, little-endian.
func EncodePlaceStake(amountMinor uint64, side uint8) []byte {
	d := Discriminator(InstrPlaceStake)
	buf := bytes.NewBuffer(d[:])
	_ = binary.Write(buf, binary.LittleEndian, amountMinor)
	buf.WriteByte(side)
	return buf.Bytes()
}

// EncodeSettleGame builds the settle_game instruction payload: discriminator
// + u8 winner.
func EncodeSettleGame(winner uint8) []byte {
	d := Discriminator(InstrSettleGame)
	buf := bytes.NewBuffer(d[:])
	buf.WriteByte(winner)
	return buf.Bytes()
}

// EncodeResetArena builds the reset_arena instruction payload: discriminator
// only, no additional fields.
func EncodeResetArena() []byte {
	d := Discriminator(InstrResetArena)
	return d[:]
}

// EncodeClaimReward builds the claim_reward instruction payload:
// discriminator only, no additional fields.
func EncodeClaimReward() []byte {
	d := Discriminator(InstrClaimReward)
	return d[:]
}
