package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	arenaerrors "github.com/wagerlab/arenacore/infrastructure/errors"
	"github.com/wagerlab/arenacore/internal/coordinator"
	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/matchmaker"
)

type matchmakingEnterRequest struct {
	AgentPubkey string            `json:"agentPubkey"`
	Category    domain.Discipline `json:"category"`
}

type matchmakingEnterResponse struct {
	Battle *battleView `json:"battle,omitempty"`
}

// matchmakingEnter implements "POST /api/matchmaking/enter AUTH
// {agentPubkey,category} → {battle?}".
func (h *handlers) matchmakingEnter(w http.ResponseWriter, r *http.Request) {
	var req matchmakingEnterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireNonEmpty("agentPubkey", req.AgentPubkey); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.deps.Matchmaker.EnterQueue(r.Context(), req.AgentPubkey); err != nil {
		var notEligible *matchmaker.ErrAgentNotEligible
		if errors.As(err, &notEligible) {
			writeError(w, r, arenaerrors.Conflict(notEligible.Reason))
			return
		}
		writeError(w, r, arenaerrors.Internal("enter queue", err))
		return
	}

	battle, err := h.deps.Repo.GetActiveBattleForAgent(r.Context(), req.AgentPubkey)
	if err != nil {
		writeError(w, r, arenaerrors.DatabaseError("get active battle", err))
		return
	}
	resp := matchmakingEnterResponse{}
	if battle != nil {
		view := toBattleView(battle)
		resp.Battle = &view
	}
	writeOK(w, resp)
}

type matchmakingLeaveRequest struct {
	AgentPubkey string `json:"agentPubkey"`
}

// matchmakingLeave implements "POST /api/matchmaking/leave AUTH
// {agentPubkey} → {ok}".
func (h *handlers) matchmakingLeave(w http.ResponseWriter, r *http.Request) {
	var req matchmakingLeaveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireNonEmpty("agentPubkey", req.AgentPubkey); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.deps.Matchmaker.LeaveQueue(r.Context(), req.AgentPubkey); err != nil {
		var notEligible *matchmaker.ErrAgentNotEligible
		if errors.As(err, &notEligible) {
			writeError(w, r, arenaerrors.NotFound("agent", req.AgentPubkey))
			return
		}
		writeError(w, r, arenaerrors.Internal("leave queue", err))
		return
	}
	writeOK(w, map[string]bool{"ok": true})
}

// matchmakingStatus implements "GET /api/matchmaking/status/:pubkey".
func (h *handlers) matchmakingStatus(w http.ResponseWriter, r *http.Request) {
	pubkey, err := pathVar(mux.Vars(r), "pubkey")
	if err != nil {
		writeError(w, r, err)
		return
	}
	agent, err := h.deps.Repo.GetAgent(r.Context(), pubkey)
	if err != nil {
		writeError(w, r, arenaerrors.DatabaseError("get agent", err))
		return
	}
	if agent == nil {
		writeError(w, r, arenaerrors.NotFound("agent", pubkey))
		return
	}
	writeOK(w, agentView{
		PublicKey:     agent.PublicKey,
		DisplayName:   agent.DisplayName,
		Discipline:    agent.Discipline,
		Status:        agent.Status,
		QueueStatus:   agent.QueueStatus,
		CurrentRating: agent.CurrentRating,
		PeakRating:    agent.PeakRating,
		Wins:          agent.Wins,
		Battles:       agent.Battles,
	})
}

// matchmakingBattles implements "GET /api/matchmaking/battles".
func (h *handlers) matchmakingBattles(w http.ResponseWriter, r *http.Request) {
	battles, err := h.deps.Repo.ListActiveBattles(r.Context())
	if err != nil {
		writeError(w, r, arenaerrors.DatabaseError("list active battles", err))
		return
	}
	writeOK(w, map[string]interface{}{"battles": toBattleViews(battles)})
}

// matchmakingBattle implements "GET /api/matchmaking/battle/:id".
func (h *handlers) matchmakingBattle(w http.ResponseWriter, r *http.Request) {
	externalID, err := pathVar(mux.Vars(r), "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	battle, err := h.deps.Repo.GetBattleByExternalID(r.Context(), externalID)
	if err != nil {
		writeError(w, r, arenaerrors.DatabaseError("get battle", err))
		return
	}
	if battle == nil {
		writeError(w, r, arenaerrors.NotFound("battle", externalID))
		return
	}
	writeOK(w, toBattleView(battle))
}

type matchmakingStakeRequest struct {
	BattleID    string `json:"battleId"`
	AgentPubkey string `json:"agentPubkey"`
	Amount      int64  `json:"amount"`
	TxSig       string `json:"txSig"`
}

// matchmakingStake implements "POST /api/matchmaking/stake AUTH
// {battleId,agentPubkey,amount,txSig?}".
func (h *handlers) matchmakingStake(w http.ResponseWriter, r *http.Request) {
	var req matchmakingStakeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireNonEmpty("battleId", req.BattleID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireNonEmpty("agentPubkey", req.AgentPubkey); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		writeError(w, r, err)
		return
	}

	battle, err := h.deps.Repo.GetBattleByExternalID(r.Context(), req.BattleID)
	if err != nil {
		writeError(w, r, arenaerrors.DatabaseError("get battle", err))
		return
	}
	if battle == nil {
		writeError(w, r, arenaerrors.NotFound("battle", req.BattleID))
		return
	}

	if err := h.deps.Coordinator.PlaceStake(r.Context(), battle.ID, req.AgentPubkey, req.Amount, req.TxSig); err != nil {
		var rejected *coordinator.ErrStakeRejected
		if errors.As(err, &rejected) {
			writeError(w, r, arenaerrors.InvalidInput("stake", rejected.Reason))
			return
		}
		writeError(w, r, arenaerrors.Internal("place stake", err))
		return
	}
	writeOK(w, map[string]bool{"ok": true})
}
