// Package engine runs a single battle: generate a challenge, broadcast it to
// both agents concurrently, score each response, and derive a winner and
// dominance score (spec §4.5).
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine/agentclient"
	"github.com/wagerlab/arenacore/internal/engine/challenge"
	"github.com/wagerlab/arenacore/internal/engine/validator"
)

// dominanceEpsilon avoids division by zero when both scores are zero (spec
// §4.5 step 5, "d = sB/(sA+sB+ε)").
const dominanceEpsilon = 1e-9

// LogCallback is invoked synchronously for every emitted log line.
type LogCallback func(domain.LogLine)

// DominanceCallback is invoked once per computed dominance value.
type DominanceCallback func(int)

// Options configures one engine run.
type Options struct {
	Seed          *int64
	OnLog         LogCallback
	OnDominance   DominanceCallback
}

// Run executes one battle between agentA and agentB for the given game mode
// and returns a terminal BattleResult. A global guard (spec §4.5 step 8)
// ensures any uncaught fault still yields a concrete result rather than
// propagating to the caller.
func Run(ctx context.Context, agentA, agentB agentclient.Client, gameMode domain.GameMode, opts Options) (result *domain.BattleResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &domain.BattleResult{
				Winner:   0,
				GameMode: gameMode,
				Summary:  fmt.Sprintf("engine panic: %v", r),
				IsError:  true,
			}
		}
	}()

	started := time.Now()

	logCh := make(chan domain.LogLine, 16)
	var logs []domain.LogLine
	logsDone := make(chan struct{})
	go func() {
		for line := range logCh {
			logs = append(logs, line)
			if opts.OnLog != nil {
				opts.OnLog(line)
			}
		}
		close(logsDone)
	}()

	emit := func(side int, level domain.LogLevel, message string) {
		logCh <- domain.LogLine{Side: side, Type: level, Message: message, Timestamp: time.Now().UnixMilli()}
	}

	emit(0, domain.LogInfo, "started")
	emit(1, domain.LogInfo, "started")

	gen := challenge.ForGameMode(gameMode)
	ch, truth := gen.Generate(opts.Seed)

	type invokeResult struct {
		side int
		out  agentclient.Output
		err  error
	}
	results := make(chan invokeResult, 2)

	go func() {
		out, err := agentA.Invoke(ctx, ch)
		results <- invokeResult{side: 0, out: out, err: err}
	}()
	go func() {
		out, err := agentB.Invoke(ctx, ch)
		results <- invokeResult{side: 1, out: out, err: err}
	}()

	responses := make([]interface{}, 2)
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			emit(r.side, domain.LogError, fmt.Sprintf("agent_%d failed: %v", r.side, r.err))
			responses[r.side] = nil
			continue
		}
		responses[r.side] = r.out.Response
		for _, line := range r.out.Logs {
			emit(r.side, domain.LogInfo, line)
		}
	}

	v := validatorForMode(gameMode)
	scoreA := v.Validate(ctx, responses[0], truth, ch)
	scoreB := v.Validate(ctx, responses[1], truth, ch)
	for _, line := range scoreA.Logs {
		emit(0, domain.LogInfo, line)
	}
	for _, line := range scoreB.Logs {
		emit(1, domain.LogInfo, line)
	}

	dominance := computeDominance(scoreA.Score, scoreB.Score, scoreA.LowerIsBetter)
	if opts.OnDominance != nil {
		opts.OnDominance(dominance)
	}

	winner := chooseWinner(gameMode, scoreA, scoreB)

	final := 100
	if winner == 1 {
		final = 0
	}
	if opts.OnDominance != nil {
		opts.OnDominance(final)
	}

	summary := fmt.Sprintf("winner=side%d scoreA=%.4f scoreB=%.4f", winner, scoreA.Score, scoreB.Score)
	emit(winner, domain.LogSuccess, "battle complete")

	close(logCh)
	<-logsDone

	return &domain.BattleResult{
		Winner:     winner,
		GameMode:   gameMode,
		DurationMs: time.Since(started).Milliseconds(),
		Summary:    summary,
		Scores:     domain.Scores{A: scoreA.Score, B: scoreB.Score},
		Logs:       logs,
	}
}

func validatorForMode(mode domain.GameMode) validator.Validator {
	switch mode {
	case domain.GameModePricePrediction:
		return validator.PriceValidator{}
	case domain.GameModeCodeProblem:
		return validator.CodeValidator{}
	case domain.GameModeChessMidgame:
		return validator.ChessValidator{}
	default:
		return validator.PriceValidator{}
	}
}

// computeDominance implements spec §4.5 step 5.
func computeDominance(scoreA, scoreB float64, lowerIsBetter bool) int {
	var d float64
	if lowerIsBetter {
		d = scoreB / (scoreA + scoreB + dominanceEpsilon)
	} else {
		d = scoreA / (scoreA + scoreB + dominanceEpsilon)
	}
	if math.IsNaN(d) {
		d = 0.5
	}
	if d < 0 {
		d = 0
	}
	if d > 1 {
		d = 1
	}
	return int(math.Round(d * 100))
}

// chooseWinner implements spec §4.5 step 6's tie-break rules per mode.
func chooseWinner(mode domain.GameMode, a, b validator.Result) int {
	switch mode {
	case domain.GameModeCodeProblem:
		if a.TestsPassed != b.TestsPassed {
			if a.TestsPassed > b.TestsPassed {
				return 0
			}
			return 1
		}
		// Equal tests passed: faster execution wins.
		if a.ElapsedMs <= b.ElapsedMs {
			return 0
		}
		return 1
	case domain.GameModeChessMidgame:
		if a.Passed && !b.Passed {
			return 0
		}
		if b.Passed && !a.Passed {
			return 1
		}
		if !a.Passed && !b.Passed {
			// Both illegal: a draw, but the engine must still produce a
			// concrete winner (spec §4.5 step 6) — resolves to side 0.
			return 0
		}
		if a.Score >= b.Score {
			return 0
		}
		return 1
	default: // price prediction: lower absolute error wins, exact tie → side 0
		if a.Score <= b.Score {
			return 0
		}
		return 1
	}
}
