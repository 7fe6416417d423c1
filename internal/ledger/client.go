// Client provides JSON-RPC access to the external settlement ledger,
// grounded on the teacher's infrastructure/chain RPC client (spec §4.6).
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wagerlab/arenacore/infrastructure/errors"
	"github.com/wagerlab/arenacore/infrastructure/logging"
	"github.com/wagerlab/arenacore/infrastructure/resilience"
)

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// defaultConfirmPollInterval is how often Confirm polls for a signature's
// status when ConfirmPollInterval is left unset.
const defaultConfirmPollInterval = 2 * time.Second

// Client talks to the external ledger's RPC endpoint.
type Client struct {
	RPCURL              string
	ProgramID           string
	HTTPClient          *http.Client
	Log                 *logging.Logger
	Retry               resilience.RetryConfig
	ConfirmPollInterval time.Duration
}

// NewClient builds a Client whose submit step is tried up to 3 times, about
// 2s apart.
func NewClient(rpcURL, programID string, log *logging.Logger) *Client {
	retry := resilience.DefaultRetryConfig()
	retry.InitialDelay = 2 * time.Second
	retry.Multiplier = 1
	return &Client{
		RPCURL:              rpcURL,
		ProgramID:           programID,
		HTTPClient:          &http.Client{Timeout: 30 * time.Second},
		Log:                 log,
		Retry:               retry,
		ConfirmPollInterval: defaultConfirmPollInterval,
	}
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RPCURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rpc call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rpc %s http status %d", method, resp.StatusCode)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if decoded.Error != nil {
		return nil, decoded.Error
	}
	return decoded.Result, nil
}

// SubmitResult is the outcome of a simulate→submit→confirm round trip.
type SubmitResult struct {
	Signature string
	Slot      uint64
}

// Simulate dry-runs an instruction against the ledger without broadcasting
// it, surfacing program-side rejections before a real submission is made
// (spec §4.6 "simulate→submit→confirm").
func (c *Client) Simulate(ctx context.Context, instructionB64 string) error {
	_, err := c.call(ctx, "simulateTransaction", []interface{}{instructionB64})
	if err != nil {
		return errors.LedgerSimulationFailed(err)
	}
	return nil
}

// Submit broadcasts a signed transaction and returns its signature.
func (c *Client) Submit(ctx context.Context, signedTxB64 string) (string, error) {
	result, err := c.call(ctx, "sendTransaction", []interface{}{signedTxB64})
	if err != nil {
		return "", errors.LedgerSubmissionFailed(err)
	}
	var sig string
	if err := json.Unmarshal(result, &sig); err != nil {
		return "", errors.LedgerSubmissionFailed(fmt.Errorf("decode signature: %w", err))
	}
	return sig, nil
}

// Confirm polls for a transaction's finalized status until ctx is done,
// returning the slot it landed in.
func (c *Client) Confirm(ctx context.Context, signature string) (uint64, error) {
	interval := c.ConfirmPollInterval
	if interval <= 0 {
		interval = defaultConfirmPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, errors.LedgerConfirmTimeout(signature)
		case <-ticker.C:
			result, err := c.call(ctx, "getSignatureStatus", []interface{}{signature})
			if err != nil {
				continue
			}
			var status struct {
				Slot       uint64 `json:"slot"`
				Confirmed  bool   `json:"confirmed"`
			}
			if err := json.Unmarshal(result, &status); err != nil {
				continue
			}
			if status.Confirmed {
				return status.Slot, nil
			}
		}
	}
}

// SubmitAndConfirm runs the full simulate→submit→confirm sequence with
// exponential-backoff retry on the submit step, the ledger bridge's
// standard settlement path (spec §4.6).
func (c *Client) SubmitAndConfirm(ctx context.Context, instructionB64, signedTxB64 string) (*SubmitResult, error) {
	if err := c.Simulate(ctx, instructionB64); err != nil {
		return nil, err
	}

	var signature string
	err := resilience.Retry(ctx, c.Retry, func() error {
		sig, submitErr := c.Submit(ctx, signedTxB64)
		if submitErr != nil {
			if c.Log != nil {
				c.Log.LogBlockchainTx(ctx, "", "submit", submitErr)
			}
			return submitErr
		}
		signature = sig
		return nil
	})
	if err != nil {
		return nil, err
	}

	slot, err := c.Confirm(ctx, signature)
	if err != nil {
		return nil, err
	}
	if c.Log != nil {
		c.Log.LogBlockchainTx(ctx, signature, "confirm", nil)
	}
	return &SubmitResult{Signature: signature, Slot: slot}, nil
}

// GetAccountInfo fetches the raw base64-encoded account data for address,
// the input to decode.go's arena/stake decoders.
func (c *Client) GetAccountInfo(ctx context.Context, address string) ([]byte, error) {
	result, err := c.call(ctx, "getAccountInfo", []interface{}{address})
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		return nil, fmt.Errorf("decode account info envelope: %w", err)
	}
	return decodeBase64(decoded.Data)
}
