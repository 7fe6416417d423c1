package validator

import (
	"context"
	"strings"

	"github.com/wagerlab/arenacore/internal/engine/challenge"
)

// ChessValidator parses a candidate's move, rejects it if illegal or the
// wrong side to move, otherwise applies it and scores the resulting
// position by material + mobility (spec §4.3 "Chess"). The source leaves a
// TODO for a stronger engine; per spec §9's explicit Open Question, this
// heuristic is treated as the scoring contract, not a placeholder to
// improve on.
type ChessValidator struct{}

const illegalMoveScore = -10000

var pieceValue = map[challenge.Piece]float64{
	challenge.Pawn:   1,
	challenge.Knight: 3,
	challenge.Bishop: 3,
	challenge.Rook:   5,
	challenge.Queen:  9,
	challenge.King:   0,
}

func (ChessValidator) Validate(_ context.Context, resp interface{}, _ challenge.GroundTruth, ch challenge.Challenge) Result {
	if ch.Chess == nil {
		return Result{Score: illegalMoveScore, Passed: false, Diagnostics: "missing chess challenge"}
	}

	moveText, ok := resp.(string)
	if !ok || strings.TrimSpace(moveText) == "" {
		return Result{Score: illegalMoveScore, Passed: false, Diagnostics: "missing move"}
	}

	pos, err := positionFromFEN(ch.Chess.FEN)
	if err != nil {
		return Result{Score: illegalMoveScore, Passed: false, Diagnostics: "invalid position"}
	}

	move, ok := parseLongAlgebraic(moveText)
	if !ok {
		return Result{Score: illegalMoveScore, Passed: false, Diagnostics: "unparseable move"}
	}

	if !isLegal(pos, move) {
		return Result{Score: illegalMoveScore, Passed: false, Diagnostics: "illegal move or wrong side to move"}
	}

	next := pos.Apply(move)
	score := evaluate(next, pos.SideToMove)

	return Result{Score: score, Passed: true}
}

func isLegal(pos challenge.Position, m challenge.Move) bool {
	for _, legal := range pos.LegalMoves() {
		if legal.From == m.From && legal.To == m.To {
			return true
		}
	}
	return false
}

// evaluate scores the position from the perspective of movingSide: material
// (signed by colour) plus 0.1 * mobility of the side now to move, times 100,
// re-signed so positive means better for movingSide (spec §4.3).
func evaluate(pos challenge.Position, movingSide int8) float64 {
	material := 0.0
	for s := 0; s < 64; s++ {
		piece := pos.Board[s]
		if piece == challenge.Empty {
			continue
		}
		color := pos.Color[s]
		v := pieceValue[piece]
		if color == challenge.White {
			material += v
		} else {
			material -= v
		}
	}

	mobility := float64(len(pos.LegalMoves()))
	// pos.SideToMove is the opponent after Apply; mobility is always
	// measured for whoever is to move next, and then re-signed below.
	raw := material + 0.1*mobility
	if movingSide != challenge.White {
		raw = -raw
	}
	return raw * 100
}

func positionFromFEN(fen string) (challenge.Position, error) {
	return challenge.PositionFromFEN(fen)
}

// parseLongAlgebraic accepts a move like "e2e4" (long algebraic, files a-h
// ranks 1-8) optionally followed by a promotion letter, and SAN-like input
// with a capture marker or trailing check/mate symbol stripped.
func parseLongAlgebraic(s string) (challenge.Move, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "+")
	s = strings.TrimSuffix(s, "#")
	s = strings.ReplaceAll(s, "x", "")
	if len(s) < 4 {
		return challenge.Move{}, false
	}
	from, ok1 := challenge.SquareFromAlgebraic(s[0:2])
	to, ok2 := challenge.SquareFromAlgebraic(s[2:4])
	if !ok1 || !ok2 {
		return challenge.Move{}, false
	}
	promo := challenge.Empty
	if len(s) == 5 {
		promo = challenge.PromotionFromLetter(s[4])
	}
	return challenge.Move{From: from, To: to, Promotion: promo}, true
}
