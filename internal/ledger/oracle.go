package ledger

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/wagerlab/arenacore/infrastructure/config"
)

// Oracle signs settlement instructions with the arena's result-attesting key
// (spec §4.6, §4.9 "settlement").
type Oracle struct {
	PublicKey ed25519.PublicKey
	privKey   ed25519.PrivateKey
}

// NewOracleFromEnv loads ORACLE_PRIVATE_KEY, accepting either a base58-encoded
// 64-byte secret key or a JSON byte array (the two formats the external
// tooling commonly emits).
func NewOracleFromEnv() (*Oracle, error) {
	raw, err := config.RequireEnv("ORACLE_PRIVATE_KEY")
	if err != nil {
		return nil, err
	}
	return NewOracle(raw)
}

// NewOracle parses a raw secret key string in either base58 or JSON-array
// form and returns an Oracle able to sign with it.
func NewOracle(raw string) (*Oracle, error) {
	secret, err := decodeSecretKey(raw)
	if err != nil {
		return nil, err
	}
	if len(secret) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("oracle secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(secret))
	}
	priv := ed25519.PrivateKey(secret)
	return &Oracle{PublicKey: priv.Public().(ed25519.PublicKey), privKey: priv}, nil
}

func decodeSecretKey(raw string) ([]byte, error) {
	var asArray []byte
	if err := json.Unmarshal([]byte(raw), &asArray); err == nil {
		return asArray, nil
	}
	decoded, err := base58.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode oracle secret key: %w", err)
	}
	return decoded, nil
}

// Sign signs an arbitrary instruction payload, producing the 64-byte
// ed25519 signature the external ledger verifies against the arena's
// recorded oracle public key.
func (o *Oracle) Sign(payload []byte) []byte {
	return ed25519.Sign(o.privKey, payload)
}

// PublicKeyBase58 returns the oracle's public key in the external ledger's
// address encoding.
func (o *Oracle) PublicKeyBase58() string {
	return base58.Encode(o.PublicKey)
}

// VerifySignature checks sig against payload under the given base58-encoded
// public key, used by the multisig quorum path to validate a co-signer's
// contribution before counting it (spec §4.6 "2-of-3 multisig").
func VerifySignature(pubKeyBase58 string, payload, sig []byte) bool {
	pub, err := base58.Decode(pubKeyBase58)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), payload, sig)
}
