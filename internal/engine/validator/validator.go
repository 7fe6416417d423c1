// Package validator scores an agent response against a challenge's hidden
// ground truth (spec §4.3).
package validator

import (
	"context"

	"github.com/wagerlab/arenacore/internal/engine/challenge"
)

// Result is a validator's verdict on one agent's response.
type Result struct {
	Score       float64
	Passed      bool
	Diagnostics string
	// LowerIsBetter mirrors the game mode's comparison direction so the
	// engine can compute dominance without re-deriving it per mode.
	LowerIsBetter bool
	// Code-mode extras, zero for other modes.
	TestsPassed int
	TestsTotal  int
	ElapsedMs   int64
	// Logs carries any internal log lines the candidate produced while being
	// scored (e.g. sandboxed console output), verbatim (spec §4.5 step 4).
	Logs []string
}

// Validator scores a single response against the hidden ground truth.
type Validator interface {
	Validate(ctx context.Context, resp interface{}, truth challenge.GroundTruth, ch challenge.Challenge) Result
}
