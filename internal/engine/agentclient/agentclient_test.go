package agentclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine/challenge"
)

func TestSelectPrefersRemoteWhenActive(t *testing.T) {
	agent := &domain.Agent{EndpointURL: "http://example.invalid", Status: domain.AgentActive}
	c := Select(agent, nil, 1)
	if _, ok := c.(*Remote); !ok {
		t.Fatalf("expected Remote client, got %T", c)
	}
}

func TestSelectFallsBackToMock(t *testing.T) {
	agent := &domain.Agent{Status: domain.AgentActive}
	c := Select(agent, nil, 1)
	if _, ok := c.(*Mock); !ok {
		t.Fatalf("expected Mock client, got %T", c)
	}
}

func TestRemoteInvokeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteResponse{Response: "ok"})
	}))
	defer srv.Close()

	c := &Remote{Endpoint: srv.URL}
	out, err := c.Invoke(context.Background(), challenge.Challenge{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Response != "ok" {
		t.Fatalf("resp = %v, want ok", out.Response)
	}
}

func TestRemoteInvokeNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Remote{Endpoint: srv.URL}
	_, err := c.Invoke(context.Background(), challenge.Challenge{})
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestMockChessReturnsLegalMove(t *testing.T) {
	m := &Mock{Discipline: domain.DisciplineChess, Seed: 1}
	pos := challenge.NewInitialPosition()
	out, err := m.Invoke(context.Background(), challenge.Challenge{Chess: &challenge.ChessChallenge{FEN: pos.FEN()}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Response == "" {
		t.Fatal("expected a non-empty move")
	}
}
