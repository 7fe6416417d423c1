// Package challenge produces contest instances and their hidden ground
// truth for each discipline's game mode (spec §4.2).
package challenge

import (
	"time"

	"github.com/wagerlab/arenacore/internal/domain"
)

// Bar is one synthetic OHLCV price bar.
type Bar struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	Vol   float64
}

// PriceChallenge is the price-prediction game mode's instance payload.
type PriceChallenge struct {
	Bars []Bar
}

// CodeChallenge is the code-problem game mode's instance payload.
type CodeChallenge struct {
	Statement    string
	FunctionName string
	Language     string
	TestCases    []TestCase
}

// TestCase is one hidden (input, expected) pair for a code problem.
type TestCase struct {
	Input    []interface{}
	Expected interface{}
}

// ChessChallenge is the chess mid-game game mode's instance payload.
type ChessChallenge struct {
	FEN         string
	SideToMove  string
	MovesPlayed int
}

// Challenge is the union of all game-mode instance payloads; exactly one
// field is populated depending on GameMode.
type Challenge struct {
	GameMode domain.GameMode
	Price    *PriceChallenge
	Code     *CodeChallenge
	Chess    *ChessChallenge
}

// GroundTruth is the union of all game-mode hidden answers.
type GroundTruth struct {
	GameMode  domain.GameMode
	PriceNext float64
	// Code ground truth lives in CodeChallenge.TestCases' Expected fields;
	// there is nothing additional to hide for this mode.
}

// Generator produces a (challenge, groundTruth) pair from an optional seed.
type Generator interface {
	Generate(seed *int64) (Challenge, GroundTruth)
}

// ForGameMode returns the generator for a game mode.
func ForGameMode(mode domain.GameMode) Generator {
	switch mode {
	case domain.GameModePricePrediction:
		return PriceGenerator{}
	case domain.GameModeCodeProblem:
		return CodeGenerator{}
	case domain.GameModeChessMidgame:
		return ChessGenerator{}
	default:
		return PriceGenerator{}
	}
}

func resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return time.Now().UnixNano()
}
