package challenge

import (
	"fmt"
	"strings"
)

var letterToPiece = map[byte]Piece{'p': Pawn, 'n': Knight, 'b': Bishop, 'r': Rook, 'q': Queen, 'k': King}

// PositionFromFEN parses the board-placement and side-to-move fields of a
// FEN string produced by Position.FEN. Other FEN fields (castling, en
// passant, move counters) are accepted but ignored, matching the fields this
// package's simplified Position tracks.
func PositionFromFEN(fen string) (Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return Position{}, fmt.Errorf("invalid FEN: %q", fen)
	}

	var pos Position
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return Position{}, fmt.Errorf("invalid FEN ranks: %q", fen)
	}

	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece, ok := letterToPiece[lower(c)]
			if !ok {
				return Position{}, fmt.Errorf("invalid FEN piece %q", string(c))
			}
			color := Black
			if c >= 'A' && c <= 'Z' {
				color = White
			}
			if file >= 8 {
				return Position{}, fmt.Errorf("invalid FEN rank length: %q", rankStr)
			}
			pos.set(sq(file, rank), piece, color)
			file++
		}
	}

	pos.SideToMove = White
	if fields[1] == "b" {
		pos.SideToMove = Black
	}
	return pos, nil
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 32
	}
	return c
}

// SquareFromAlgebraic converts e.g. "e2" to its 0..63 index.
func SquareFromAlgebraic(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	file := int(lower(s[0]) - 'a')
	rank := int(s[1] - '1')
	if !onBoard(file, rank) {
		return 0, false
	}
	return sq(file, rank), true
}

// PromotionFromLetter maps a single promotion letter (q/r/b/n) to a Piece.
func PromotionFromLetter(c byte) Piece {
	if p, ok := letterToPiece[lower(c)]; ok && p != Pawn && p != King {
		return p
	}
	return Queen
}
