package ledger

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
)

type fakeCoSigner struct {
	keys map[string]ed25519.PrivateKey
	fail map[string]bool
}

func (f fakeCoSigner) RequestSignature(_ context.Context, endpoint string, payload []byte) ([]byte, error) {
	if f.fail[endpoint] {
		return nil, errTestSignerUnreachable
	}
	return ed25519.Sign(f.keys[endpoint], payload), nil
}

var errTestSignerUnreachable = &multisigTestError{"signer unreachable"}

type multisigTestError struct{ msg string }

func (e *multisigTestError) Error() string { return e.msg }

func TestMultisigCollectorMeetsThreshold(t *testing.T) {
	endpoints := []string{"http://a", "http://b", "http://c"}
	keys := make(map[string]ed25519.PrivateKey)
	var pubKeys []string
	for _, ep := range endpoints {
		pub, priv, _ := ed25519.GenerateKey(nil)
		keys[ep] = priv
		pubKeys = append(pubKeys, base58.Encode(pub))
	}

	signer := fakeCoSigner{keys: keys, fail: map[string]bool{"http://c": true}}
	collector := &MultisigCollector{Signer: signer, Endpoints: endpoints, PublicKeys: pubKeys}

	sigs, err := collector.Collect(context.Background(), []byte("settle"))
	if err != nil {
		t.Fatalf("Collect() error = %v, want success with 2/3", err)
	}
	if len(sigs) != MultisigThreshold {
		t.Fatalf("got %d signatures, want %d", len(sigs), MultisigThreshold)
	}
}

func TestMultisigCollectorBelowThresholdFails(t *testing.T) {
	endpoints := []string{"http://a", "http://b", "http://c"}
	keys := make(map[string]ed25519.PrivateKey)
	var pubKeys []string
	for _, ep := range endpoints {
		pub, priv, _ := ed25519.GenerateKey(nil)
		keys[ep] = priv
		pubKeys = append(pubKeys, base58.Encode(pub))
	}

	signer := fakeCoSigner{keys: keys, fail: map[string]bool{"http://b": true, "http://c": true}}
	collector := &MultisigCollector{Signer: signer, Endpoints: endpoints, PublicKeys: pubKeys}

	if _, err := collector.Collect(context.Background(), []byte("settle")); err == nil {
		t.Fatal("expected an error when only 1/3 signers respond")
	}
}
