package api

import (
	"context"
	"encoding/json"
	"net/http"

	arenaerrors "github.com/wagerlab/arenacore/infrastructure/errors"
	"github.com/wagerlab/arenacore/internal/domain"
)

// StartBattlePayload is the shared shape for "POST /battle/start" and the
// inbound "battle:request" socket frame (spec §6).
type StartBattlePayload struct {
	AgentAKey  string            `json:"agentAKey"`
	AgentBKey  string            `json:"agentBKey"`
	Discipline domain.Discipline `json:"discipline"`
}

func validateStartBattlePayload(p StartBattlePayload) error {
	if err := requireNonEmpty("agentAKey", p.AgentAKey); err != nil {
		return err
	}
	if err := requireNonEmpty("agentBKey", p.AgentBKey); err != nil {
		return err
	}
	if p.AgentAKey == p.AgentBKey {
		return arenaerrors.InvalidInput("agentBKey", "must differ from agentAKey")
	}
	switch p.Discipline {
	case domain.DisciplineTrading, domain.DisciplineChess, domain.DisciplineCoding:
	default:
		return arenaerrors.InvalidInput("discipline", "must be one of trading, chess, coding")
	}
	return nil
}

// battleStart implements "POST /battle/start AUTH StartBattlePayload".
func (h *handlers) battleStart(w http.ResponseWriter, r *http.Request) {
	var payload StartBattlePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateStartBattlePayload(payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.deps.Coordinator.CreateBattle(r.Context(), payload.AgentAKey, payload.AgentBKey, payload.Discipline); err != nil {
		writeError(w, r, arenaerrors.Internal("create battle", err))
		return
	}
	writeOK(w, map[string]bool{"ok": true})
}

// handleSocketBattleRequest adapts the hub's battle:request ack callback to
// the same creation path battleStart uses, returning a JSON-serialisable
// ack value (spec §6 "Socket events").
func (h *handlers) handleSocketBattleRequest(raw json.RawMessage) interface{} {
	var payload StartBattlePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return map[string]interface{}{"ok": false, "error": "malformed battle:request payload"}
	}
	if err := validateStartBattlePayload(payload); err != nil {
		return map[string]interface{}{"ok": false, "error": err.Error()}
	}
	if err := h.deps.Coordinator.CreateBattle(context.Background(), payload.AgentAKey, payload.AgentBKey, payload.Discipline); err != nil {
		return map[string]interface{}{"ok": false, "error": err.Error()}
	}
	return map[string]interface{}{"ok": true}
}
