package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPCoSigner requests a co-signature from a peer oracle node's
// /api/oracle/sign(-reset) endpoint, the concrete CoSigner a MultisigCollector
// is wired with outside of tests.
type HTTPCoSigner struct {
	HTTPClient *http.Client
}

type coSignRequest struct {
	Payload string `json:"payload"`
	Nonce   string `json:"nonce"`
}

type coSignResponse struct {
	Signature string `json:"signature"`
}

// RequestSignature implements CoSigner.
func (h *HTTPCoSigner) RequestSignature(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	client := h.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	body, err := json.Marshal(coSignRequest{
		Payload: base64.StdEncoding.EncodeToString(payload),
		Nonce:   uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode co-sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build co-sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("co-sign request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("co-sign %s returned status %d", endpoint, resp.StatusCode)
	}

	var decoded coSignResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode co-sign response: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(decoded.Signature)
	if err != nil {
		return nil, fmt.Errorf("decode co-sign signature: %w", err)
	}
	return sig, nil
}
