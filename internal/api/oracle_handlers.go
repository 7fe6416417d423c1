package api

import (
	"encoding/base64"
	"errors"
	"net/http"

	arenaerrors "github.com/wagerlab/arenacore/infrastructure/errors"
	"github.com/wagerlab/arenacore/internal/ledger"
)

type oracleSignRequest struct {
	Payload string `json:"payload"`
	Nonce   string `json:"nonce"`
}

type oracleSignResponse struct {
	Signature string `json:"signature"`
}

// oracleSign implements "POST /api/oracle/sign (multisig peers only)": it
// signs an already-built settle_game/reset_arena instruction payload with
// this node's oracle key, the receiving side of ledger.HTTPCoSigner's
// co-signature request (spec §6, §4.6 "2-of-3 multisig").
func (h *handlers) oracleSign(w http.ResponseWriter, r *http.Request) {
	h.signCoSignRequest(w, r)
}

// oracleSignReset implements "POST /api/oracle/sign-reset (multisig peers
// only)" — the same co-signing contract, kept as a distinct route because
// spec §6 lists it separately, even though signing itself does not
// distinguish instruction kinds (the oracle blind-signs whatever bytes the
// requester built).
func (h *handlers) oracleSignReset(w http.ResponseWriter, r *http.Request) {
	h.signCoSignRequest(w, r)
}

func (h *handlers) signCoSignRequest(w http.ResponseWriter, r *http.Request) {
	var req oracleSignRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireNonEmpty("payload", req.Payload); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireNonEmpty("nonce", req.Nonce); err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		writeError(w, r, arenaerrors.InvalidFormat("payload", "base64"))
		return
	}

	if h.deps.Signer == nil {
		writeError(w, r, arenaerrors.Internal("oracle signer not configured", nil))
		return
	}

	sig, err := h.deps.Signer.Sign(req.Nonce, payload)
	if err != nil {
		var replayed *ledger.ErrNonceReplayed
		if errors.As(err, &replayed) {
			writeError(w, r, arenaerrors.Conflict(replayed.Error()))
			return
		}
		writeError(w, r, arenaerrors.Internal("sign co-sign request", err))
		return
	}

	writeOK(w, oracleSignResponse{Signature: base64.StdEncoding.EncodeToString(sig)})
}
