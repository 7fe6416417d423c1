package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler func(method string) (interface{}, *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		result, rpcErr := handler(req.Method)
		resp := struct {
			Result interface{} `json:"result,omitempty"`
			Error  *rpcError   `json:"error,omitempty"`
		}{Result: result, Error: rpcErr}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestSimulateSuccess(t *testing.T) {
	srv := newTestServer(t, func(method string) (interface{}, *rpcError) {
		if method != "simulateTransaction" {
			t.Fatalf("unexpected method %s", method)
		}
		return map[string]bool{"ok": true}, nil
	})
	defer srv.Close()

	c := NewClient(srv.URL, "prog1", nil)
	if err := c.Simulate(context.Background(), "base64ix"); err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
}

func TestSimulateFailurePropagatesLedgerError(t *testing.T) {
	srv := newTestServer(t, func(method string) (interface{}, *rpcError) {
		return nil, &rpcError{Code: -1, Message: "insufficient funds"}
	})
	defer srv.Close()

	c := NewClient(srv.URL, "prog1", nil)
	err := c.Simulate(context.Background(), "base64ix")
	if err == nil {
		t.Fatal("expected a simulation error")
	}
}

func TestSubmitReturnsSignature(t *testing.T) {
	srv := newTestServer(t, func(method string) (interface{}, *rpcError) {
		if method != "sendTransaction" {
			t.Fatalf("unexpected method %s", method)
		}
		return "5sig...", nil
	})
	defer srv.Close()

	c := NewClient(srv.URL, "prog1", nil)
	sig, err := c.Submit(context.Background(), "signedtx")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if sig != "5sig..." {
		t.Fatalf("signature = %q, want %q", sig, "5sig...")
	}
}

func TestConfirmReturnsSlotOnceConfirmed(t *testing.T) {
	calls := 0
	srv := newTestServer(t, func(method string) (interface{}, *rpcError) {
		calls++
		confirmed := calls >= 2
		return map[string]interface{}{"slot": 42, "confirmed": confirmed}, nil
	})
	defer srv.Close()

	c := NewClient(srv.URL, "prog1", nil)
	c.ConfirmPollInterval = 10 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	slot, err := c.Confirm(ctx, "5sig...")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if slot != 42 {
		t.Fatalf("slot = %d, want 42", slot)
	}
}
