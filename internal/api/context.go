package api

import (
	"context"

	"github.com/wagerlab/arenacore/infrastructure/logging"
)

// withAuthenticatedWallet attaches the authenticated wallet address using
// the same context key infrastructure/logging and
// infrastructure/middleware.RateLimiter already read via GetUserID, so the
// rate limiter keys per-identity once a route has authenticated, not just
// per-IP.
func withAuthenticatedWallet(ctx context.Context, walletAddress string) context.Context {
	return logging.WithUserID(ctx, walletAddress)
}

func authenticatedWallet(ctx context.Context) string {
	return logging.GetUserID(ctx)
}
