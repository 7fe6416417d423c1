package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/wagerlab/arenacore/infrastructure/errors"
	"github.com/wagerlab/arenacore/internal/ledger"
)

// NonceTTL bounds how long an issued login nonce remains redeemable.
const NonceTTL = 5 * time.Minute

// SessionTTL bounds how long a verified session token is accepted.
const SessionTTL = 24 * time.Hour

// nonceSigningPrefix is prepended to a nonce before signature verification,
// so a wallet signature produced for this purpose can never be replayed
// against an unrelated message of the same raw bytes.
const nonceSigningPrefix = "arenacore-auth:"

// Authenticator is the wallet-ownership proof-of-possession seam: a caller
// requests a nonce, signs it with their wallet's private key off-band, and
// redeems the signature for a bearer session token. This is narrower than a
// full HTTP-edge authentication/authorization system (session refresh,
// revocation lists, role grants), which spec §1 places out of scope; it
// exists only to give AUTH-marked routes in spec §6 something concrete to
// check, reusing the same ed25519/base58 verification the ledger bridge
// already performs for multisig co-signers.
type Authenticator interface {
	IssueNonce(ctx context.Context, walletAddress string) (nonce string, err error)
	Verify(ctx context.Context, walletAddress, signatureB58, nonce string) (token string, err error)
	Authenticate(ctx context.Context, token string) (walletAddress string, ok bool)
}

type nonceEntry struct {
	value     string
	expiresAt time.Time
}

type sessionEntry struct {
	walletAddress string
	expiresAt     time.Time
}

// WalletAuthenticator is the in-memory Authenticator implementation. A
// multi-instance deployment would back this with a shared store instead;
// a single process is all this module's scope requires.
type WalletAuthenticator struct {
	mu       sync.Mutex
	nonces   map[string]nonceEntry
	sessions map[string]sessionEntry
	now      func() time.Time
}

// NewWalletAuthenticator builds an empty WalletAuthenticator.
func NewWalletAuthenticator() *WalletAuthenticator {
	return &WalletAuthenticator{
		nonces:   make(map[string]nonceEntry),
		sessions: make(map[string]sessionEntry),
		now:      time.Now,
	}
}

// IssueNonce mints a fresh single-use nonce for walletAddress, overwriting
// any previously issued, unredeemed nonce for the same address.
func (a *WalletAuthenticator) IssueNonce(ctx context.Context, walletAddress string) (string, error) {
	if walletAddress == "" {
		return "", errors.InvalidInput("walletAddress", "must not be empty")
	}
	nonce := uuid.NewString()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nonces[walletAddress] = nonceEntry{value: nonce, expiresAt: a.now().Add(NonceTTL)}
	return nonce, nil
}

// Verify checks signatureB58 against the outstanding nonce for
// walletAddress and, on success, issues a bearer session token.
func (a *WalletAuthenticator) Verify(ctx context.Context, walletAddress, signatureB58, nonce string) (string, error) {
	a.mu.Lock()
	entry, ok := a.nonces[walletAddress]
	if ok {
		delete(a.nonces, walletAddress)
	}
	a.mu.Unlock()

	if !ok || entry.value != nonce || a.now().After(entry.expiresAt) {
		return "", errors.Unauthorized("nonce is unknown, already redeemed, or expired")
	}

	sig, err := decodeBase58Signature(signatureB58)
	if err != nil {
		return "", errors.InvalidSignature(err)
	}
	if !ledger.VerifySignature(walletAddress, []byte(nonceSigningPrefix+nonce), sig) {
		return "", errors.InvalidSignature(fmt.Errorf("signature does not match wallet address"))
	}

	token := uuid.NewString()
	a.mu.Lock()
	a.sessions[token] = sessionEntry{walletAddress: walletAddress, expiresAt: a.now().Add(SessionTTL)}
	a.mu.Unlock()
	return token, nil
}

// Authenticate resolves a bearer token to the wallet address it was issued
// for, rejecting expired tokens.
func (a *WalletAuthenticator) Authenticate(ctx context.Context, token string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.sessions[token]
	if !ok {
		return "", false
	}
	if a.now().After(entry.expiresAt) {
		delete(a.sessions, token)
		return "", false
	}
	return entry.walletAddress, true
}

// ValidateToken implements hub.TokenValidator, letting the websocket hub
// reuse the same session tokens HTTP routes accept.
func (a *WalletAuthenticator) ValidateToken(token string) (string, bool) {
	return a.Authenticate(context.Background(), token)
}

func decodeBase58Signature(raw string) ([]byte, error) {
	sig, err := base58.Decode(raw)
	if err != nil {
		return nil, err
	}
	if len(sig) != 64 {
		return nil, fmt.Errorf("signature must be 64 bytes, got %d", len(sig))
	}
	return sig, nil
}
