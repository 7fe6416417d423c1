// Package agentclient invokes an agent's external endpoint or, when none is
// reachable, a deterministic mock (spec §4.4).
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/wagerlab/arenacore/infrastructure/resilience"
	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine/challenge"
)

// Timeout is the hard cap on a remote agent call (spec §4.4).
const Timeout = 30 * time.Second

// Output is an agent's raw response plus any internal logs it chose to
// surface alongside it (spec §4.5 step 4, "stream any agent-provided
// internal logs verbatim into the event stream").
type Output struct {
	Response interface{}
	Logs     []string
}

// Client invokes an agent with a challenge and returns its raw response.
type Client interface {
	Invoke(ctx context.Context, ch challenge.Challenge) (Output, error)
}

// Select returns the Remote client if the agent has a reachable endpoint and
// is active, otherwise the Mock client (spec §4.4 "Selection").
func Select(agent *domain.Agent, httpClient *http.Client, seed int64) Client {
	if agent.IsRemoteCapable() {
		return &Remote{Endpoint: agent.EndpointURL, HTTPClient: httpClient}
	}
	return &Mock{Discipline: agent.Discipline, Seed: seed}
}

// Remote POSTs {challenge} to the agent's endpoint and expects {response}
// back. A non-2xx status or malformed body is an AgentFailure — the caller
// treats it as a null response, not a fatal error for the whole battle.
type Remote struct {
	Endpoint   string
	HTTPClient *http.Client
}

type remoteRequest struct {
	Challenge interface{} `json:"challenge"`
}

type remoteResponse struct {
	Response interface{} `json:"response"`
	Logs     []string    `json:"logs"`
}

// breakers holds one CircuitBreaker per agent endpoint, shared across the
// short-lived Remote values Select constructs per battle so that repeated
// failures against one unreachable agent trip its breaker instead of
// resetting every call.
var breakers sync.Map // endpoint string -> *resilience.CircuitBreaker

func breakerFor(endpoint string) *resilience.CircuitBreaker {
	if cb, ok := breakers.Load(endpoint); ok {
		return cb.(*resilience.CircuitBreaker)
	}
	cb, _ := breakers.LoadOrStore(endpoint, resilience.New(resilience.DefaultConfig()))
	return cb.(*resilience.CircuitBreaker)
}

func (r *Remote) Invoke(ctx context.Context, ch challenge.Challenge) (Output, error) {
	body, err := json.Marshal(remoteRequest{Challenge: ch})
	if err != nil {
		return Output{}, fmt.Errorf("encode challenge: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Output{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	var decoded remoteResponse
	err = breakerFor(r.Endpoint).Execute(callCtx, func() error {
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("agent call failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("agent returned status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("decode agent response: %w", err)
		}
		return nil
	})
	if err != nil {
		return Output{}, err
	}
	return Output{Response: decoded.Response, Logs: decoded.Logs}, nil
}

// Mock produces a deterministic, plausible response per discipline from a
// per-side seed, without calling out to any network endpoint.
type Mock struct {
	Discipline domain.Discipline
	Seed       int64
}

func (m *Mock) Invoke(_ context.Context, ch challenge.Challenge) (Output, error) {
	rng := rand.New(rand.NewPCG(uint64(m.Seed), uint64(m.Seed>>32)|1))

	var resp interface{}
	switch m.Discipline {
	case domain.DisciplineTrading:
		if ch.Price == nil || len(ch.Price.Bars) == 0 {
			resp = 0.0
			break
		}
		last := ch.Price.Bars[len(ch.Price.Bars)-1].Close
		perturb := (rng.Float64() - 0.5) * 0.02
		resp = last * (1 + perturb)
	case domain.DisciplineCoding:
		if ch.Code == nil {
			resp = ""
			break
		}
		resp = cannedSolution(ch.Code.FunctionName)
	case domain.DisciplineChess:
		if ch.Chess == nil {
			resp = ""
			break
		}
		pos, err := challenge.PositionFromFEN(ch.Chess.FEN)
		if err != nil {
			resp = ""
			break
		}
		moves := pos.LegalMoves()
		if len(moves) == 0 {
			resp = ""
			break
		}
		choice := moves[rng.IntN(len(moves))]
		resp = algebraic(choice)
	}
	return Output{Response: resp}, nil
}

func cannedSolution(functionName string) string {
	// A deliberately naive but syntactically valid stand-in: it satisfies
	// the sandbox's identifier and callability checks but is not expected
	// to pass every hidden test case, matching a "plausible" mock response.
	return fmt.Sprintf("function %s() { return null; }", functionName)
}

func algebraic(m challenge.Move) string {
	return squareToAlgebraic(m.From) + squareToAlgebraic(m.To)
}

func squareToAlgebraic(s int) string {
	file := s % 8
	rank := s / 8
	return string(rune('a'+file)) + string(rune('1'+rank))
}
