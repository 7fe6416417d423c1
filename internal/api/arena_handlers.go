package api

import (
	"net/http"

	"github.com/gorilla/mux"

	arenaerrors "github.com/wagerlab/arenacore/infrastructure/errors"
	"github.com/wagerlab/arenacore/internal/ledger"
)

type arenaResetRequest struct {
	ArenaAddress string `json:"arenaAddress"`
}

// arenaReset implements "POST /api/arena/reset AUTH {arenaAddress}". Per
// spec §8's reset contract, an arena whose on-chain status is still Active
// (a prior reset already landed, or the DB is stale) reports
// alreadyActive rather than re-submitting reset_arena.
func (h *handlers) arenaReset(w http.ResponseWriter, r *http.Request) {
	var req arenaResetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireNonEmpty("arenaAddress", req.ArenaAddress); err != nil {
		writeError(w, r, err)
		return
	}

	synced, err := h.deps.Bridge.SyncArena(r.Context(), req.ArenaAddress)
	if err != nil {
		writeError(w, r, arenaerrors.BlockchainError("sync arena before reset", err))
		return
	}
	if synced.Status != ledger.ArenaAccountSettled {
		writeOK(w, map[string]interface{}{"ok": true, "alreadyActive": true})
		return
	}

	if err := h.deps.Bridge.ResetArena(r.Context(), req.ArenaAddress); err != nil {
		writeError(w, r, arenaerrors.BlockchainError("reset arena", err))
		return
	}
	writeOK(w, map[string]bool{"ok": true})
}

type arenaSyncRequest struct {
	ArenaAddress string `json:"arenaAddress"`
}

// arenaSync implements "POST /api/arena/sync {arenaAddress}".
func (h *handlers) arenaSync(w http.ResponseWriter, r *http.Request) {
	var req arenaSyncRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireNonEmpty("arenaAddress", req.ArenaAddress); err != nil {
		writeError(w, r, err)
		return
	}

	arena, err := h.deps.Bridge.SyncArena(r.Context(), req.ArenaAddress)
	if err != nil {
		writeError(w, r, arenaerrors.BlockchainError("sync arena", err))
		return
	}
	writeOK(w, map[string]interface{}{
		"address": req.ArenaAddress,
		"status":  arena.Status,
		"poolA":   arena.PoolA,
		"poolB":   arena.PoolB,
	})
}

// arenaActive implements "GET /api/arena/active".
func (h *handlers) arenaActive(w http.ResponseWriter, r *http.Request) {
	battles, err := h.deps.Repo.ListActiveArenas(r.Context())
	if err != nil {
		writeError(w, r, arenaerrors.DatabaseError("list active arenas", err))
		return
	}
	writeOK(w, map[string]interface{}{"arenas": toBattleViews(battles)})
}

// arenaSettled implements "GET /api/arena/settled".
func (h *handlers) arenaSettled(w http.ResponseWriter, r *http.Request) {
	battles, err := h.deps.Repo.ListSettledArenas(r.Context())
	if err != nil {
		writeError(w, r, arenaerrors.DatabaseError("list settled arenas", err))
		return
	}
	writeOK(w, map[string]interface{}{"arenas": toBattleViews(battles)})
}

// arenaByAddress implements "GET /api/arena/:address".
func (h *handlers) arenaByAddress(w http.ResponseWriter, r *http.Request) {
	address, err := pathVar(mux.Vars(r), "address")
	if err != nil {
		writeError(w, r, err)
		return
	}
	battle, err := h.deps.Repo.GetBattleByArenaAddress(r.Context(), address)
	if err != nil {
		writeError(w, r, arenaerrors.DatabaseError("get battle by arena address", err))
		return
	}
	if battle == nil {
		writeError(w, r, arenaerrors.NotFound("arena", address))
		return
	}
	writeOK(w, toBattleView(battle))
}
