package ledger

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/mr-tron/base58"
)

func TestNewOracleFromBase58(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	encoded := base58.Encode(priv)

	o, err := NewOracle(encoded)
	if err != nil {
		t.Fatalf("NewOracle() error = %v", err)
	}
	if o.PublicKeyBase58() != base58.Encode(priv.Public().(ed25519.PublicKey)) {
		t.Fatal("public key mismatch")
	}
}

func TestNewOracleFromJSONArray(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	raw, err := json.Marshal([]byte(priv))
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	o, err := NewOracle(string(raw))
	if err != nil {
		t.Fatalf("NewOracle() error = %v", err)
	}
	if len(o.PublicKey) != ed25519.PublicKeySize {
		t.Fatalf("public key size = %d, want %d", len(o.PublicKey), ed25519.PublicKeySize)
	}
}

func TestSignAndVerifySignature(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(nil)
	o, err := NewOracle(base58.Encode(priv))
	if err != nil {
		t.Fatalf("NewOracle() error = %v", err)
	}

	payload := []byte("settle_game:winner=0")
	sig := o.Sign(payload)

	if !VerifySignature(o.PublicKeyBase58(), payload, sig) {
		t.Fatal("expected signature to verify against its own public key")
	}
	if VerifySignature(o.PublicKeyBase58(), []byte("tampered"), sig) {
		t.Fatal("signature should not verify against a different payload")
	}
}

func TestNewOracleRejectsWrongLength(t *testing.T) {
	_, err := NewOracle(base58.Encode([]byte("too-short")))
	if err == nil {
		t.Fatal("expected an error for a secret key of the wrong length")
	}
}
