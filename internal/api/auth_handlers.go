package api

import "net/http"

type authNonceRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type authNonceResponse struct {
	Nonce string `json:"nonce"`
}

// authNonce implements "POST /api/auth/nonce {walletAddress} → {nonce}".
func (h *handlers) authNonce(w http.ResponseWriter, r *http.Request) {
	var req authNonceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireNonEmpty("walletAddress", req.WalletAddress); err != nil {
		writeError(w, r, err)
		return
	}

	nonce, err := h.deps.Auth.IssueNonce(r.Context(), req.WalletAddress)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, authNonceResponse{Nonce: nonce})
}

type authVerifyRequest struct {
	WalletAddress string `json:"walletAddress"`
	Sig           string `json:"sig"`
	Nonce         string `json:"nonce"`
}

type authVerifyResponse struct {
	Token string `json:"token"`
}

// authVerify implements "POST /api/auth/verify {walletAddress,sig,nonce} →
// {token}".
func (h *handlers) authVerify(w http.ResponseWriter, r *http.Request) {
	var req authVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	for field, value := range map[string]string{
		"walletAddress": req.WalletAddress,
		"sig":           req.Sig,
		"nonce":         req.Nonce,
	} {
		if err := requireNonEmpty(field, value); err != nil {
			writeError(w, r, err)
			return
		}
	}

	token, err := h.deps.Auth.Verify(r.Context(), req.WalletAddress, req.Sig, req.Nonce)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, authVerifyResponse{Token: token})
}
