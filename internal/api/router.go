package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wagerlab/arenacore/infrastructure/middleware"
)

// NewRouter builds the full HTTP surface spec §6 names, wiring the shared
// infrastructure/middleware stack ahead of every route and
// RateLimiter.Handler plus the Authenticator seam ahead of AUTH-marked
// routes (spec §4.10).
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggingMiddleware(deps.Log))
	r.Use(middleware.NewRecoveryMiddleware(deps.Log).Handler)
	r.Use(middleware.NewSecurityHeadersMiddleware(middleware.DefaultSecurityHeaders()).Handler)
	r.Use(middleware.NewTracingMiddleware(deps.Log).Handler)
	r.Use(middleware.NewTimeoutMiddleware(10 * time.Second).Handler)
	r.Use(middleware.NewBodyLimitMiddleware(maxRequestBody).Handler)

	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Handler)
	}
	if deps.Metrics != nil {
		r.Use(middleware.MetricsMiddleware("arenacore", deps.Metrics))
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	h := &handlers{deps: deps}

	r.HandleFunc("/api/auth/nonce", h.authNonce).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/verify", h.authVerify).Methods(http.MethodPost)

	r.HandleFunc("/api/matchmaking/enter", h.requireAuth(h.matchmakingEnter)).Methods(http.MethodPost)
	r.HandleFunc("/api/matchmaking/leave", h.requireAuth(h.matchmakingLeave)).Methods(http.MethodPost)
	r.HandleFunc("/api/matchmaking/status/{pubkey}", h.matchmakingStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/matchmaking/battles", h.matchmakingBattles).Methods(http.MethodGet)
	r.HandleFunc("/api/matchmaking/battle/{id}", h.matchmakingBattle).Methods(http.MethodGet)
	r.HandleFunc("/api/matchmaking/stake", h.requireAuth(h.matchmakingStake)).Methods(http.MethodPost)

	r.HandleFunc("/battle/start", h.requireAuth(h.battleStart)).Methods(http.MethodPost)

	r.HandleFunc("/api/arena/reset", h.requireAuth(h.arenaReset)).Methods(http.MethodPost)
	r.HandleFunc("/api/arena/sync", h.arenaSync).Methods(http.MethodPost)
	r.HandleFunc("/api/arena/active", h.arenaActive).Methods(http.MethodGet)
	r.HandleFunc("/api/arena/settled", h.arenaSettled).Methods(http.MethodGet)
	r.HandleFunc("/api/arena/{address}", h.arenaByAddress).Methods(http.MethodGet)

	r.HandleFunc("/api/oracle/sign", h.oracleSign).Methods(http.MethodPost)
	r.HandleFunc("/api/oracle/sign-reset", h.oracleSignReset).Methods(http.MethodPost)

	if deps.Health != nil {
		r.HandleFunc("/health", deps.Health.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/ws", h.socket).Methods(http.MethodGet)

	return r
}

type handlers struct {
	deps Deps
}

// requireAuth wraps an AUTH-marked route's handler with the bearer-token
// check, rejecting with 401 before the handler's body runs. On success the
// authenticated wallet address is attached to the request context under
// the key infrastructure/logging's GetUserID reads (which the middleware
// rate limiter uses).
func (h *handlers) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Auth == nil {
			writeErrorResponse(w, r, http.StatusInternalServerError, "SVC_5001", "authenticator not configured", nil)
			return
		}
		token := bearerToken(r)
		if token == "" {
			writeErrorResponse(w, r, http.StatusUnauthorized, "AUTH_1001", "missing bearer token", nil)
			return
		}
		walletAddress, ok := h.deps.Auth.Authenticate(r.Context(), token)
		if !ok {
			writeErrorResponse(w, r, http.StatusUnauthorized, "AUTH_1002", "invalid or expired session", nil)
			return
		}
		ctx := withAuthenticatedWallet(r.Context(), walletAddress)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
