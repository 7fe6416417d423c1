package ledger

import (
	"crypto/sha256"
	"fmt"
)

// maxSeedLen mirrors the external ledger's program-derived-address seed
// length limit.
const maxSeedLen = 32

// ArenaSeed is the fixed seed prefix for an arena account PDA.
const ArenaSeed = "arena"

// VaultSeed is the fixed seed prefix for a stake vault PDA.
const VaultSeed = "vault"

// offCurveMarker is appended by the real derivation loop (spec §4.6:
// "off-curve, bump-seeded"); this package derives a deterministic
// placeholder address rather than performing elliptic-curve point
// validation, which belongs to the external ledger program itself.
const offCurveMarker = "\xffoffcurve"

// DeriveArenaPDA derives the arena account address for a battle's external
// identifier, returning the address and the bump seed used.
func DeriveArenaPDA(programID string, externalBattleID string) (address string, bump uint8) {
	return derivePDA(programID, [][]byte{[]byte(ArenaSeed), []byte(externalBattleID)})
}

// DeriveVaultPDA derives the stake vault address nested under an arena.
func DeriveVaultPDA(programID, arenaAddress string) (address string, bump uint8) {
	return derivePDA(programID, [][]byte{[]byte(VaultSeed), []byte(arenaAddress)})
}

// derivePDA mirrors the canonical find-program-address search, which walks
// bump seeds from 255 down to 0 until an off-curve candidate is found. Real
// elliptic-curve point validation belongs to the external ledger program;
// here the highest bump (255) always yields a deterministic placeholder.
func derivePDA(programID string, seeds [][]byte) (string, uint8) {
	const bump = 255
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > maxSeedLen {
			seed = seed[:maxSeedLen]
		}
		h.Write(seed)
	}
	h.Write([]byte{byte(bump)})
	h.Write([]byte(programID))
	h.Write([]byte(offCurveMarker))
	sum := h.Sum(nil)
	return fmt.Sprintf("%x", sum[:32]), uint8(bump)
}
