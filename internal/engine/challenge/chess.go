package challenge

import (
	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine/prng"
)

// ChessGenerator plays a uniformly-random sequence of legal moves from the
// initial position to reach a mid-game (spec §4.2 "Chess mid-game").
type ChessGenerator struct{}

// minMidgameMoves and maxMidgameMoves bound N per spec §4.2 ("N∈[12,27]").
const (
	minMidgameMoves = 12
	maxMidgameMoves = 27
)

func (ChessGenerator) Generate(seed *int64) (Challenge, GroundTruth) {
	s := prng.NewSource(resolveSeed(seed))
	pos := NewInitialPosition()

	target := s.IntRange(minMidgameMoves, maxMidgameMoves)
	played := 0
	for played < target {
		moves := pos.LegalMoves()
		if len(moves) == 0 {
			break
		}
		choice := moves[s.IntRange(0, len(moves)-1)]
		pos = pos.Apply(choice)
		played++
	}

	sideToMove := "white"
	if pos.SideToMove == Black {
		sideToMove = "black"
	}

	return Challenge{
		GameMode: domain.GameModeChessMidgame,
		Chess: &ChessChallenge{
			FEN:         pos.FEN(),
			SideToMove:  sideToMove,
			MovesPlayed: played,
		},
	}, GroundTruth{GameMode: domain.GameModeChessMidgame}
}

// Piece codes. Positive values are White, negative are Black; zero is empty.
type Piece int8

const (
	Empty Piece = 0
	Pawn  Piece = 1
	Knight Piece = 2
	Bishop Piece = 3
	Rook  Piece = 4
	Queen Piece = 5
	King  Piece = 6
)

const (
	White int8 = 1
	Black int8 = -1
)

// Move is a single chess move in 0..63 square coordinates.
type Move struct {
	From, To  int
	Promotion Piece
	Capture   bool
}

// Position is a simplified chess board: piece-placement and side to move.
// Castling rights, en passant, and the fifty-move rule are not modelled —
// they do not affect this spec's need for a plausible, legally-moving
// mid-game position and a move-legality check on the validator side.
type Position struct {
	Board      [64]Piece
	Color      [64]int8 // 0 where Board[i]==Empty
	SideToMove int8
}

// NewInitialPosition returns the standard chess starting position.
func NewInitialPosition() Position {
	var p Position
	p.SideToMove = White

	backRank := []Piece{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for f := 0; f < 8; f++ {
		p.set(sq(f, 0), backRank[f], White)
		p.set(sq(f, 1), Pawn, White)
		p.set(sq(f, 6), Pawn, Black)
		p.set(sq(f, 7), backRank[f], Black)
	}
	return p
}

func sq(file, rank int) int { return rank*8 + file }
func fileOf(s int) int      { return s % 8 }
func rankOf(s int) int      { return s / 8 }
func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

func (p *Position) set(s int, piece Piece, color int8) {
	p.Board[s] = piece
	if piece == Empty {
		p.Color[s] = 0
	} else {
		p.Color[s] = color
	}
}

func (p Position) pieceAt(s int) (Piece, int8) {
	return p.Board[s], p.Color[s]
}

var knightOffsets = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingOffsets = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var bishopDirs = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// pseudoLegalMoves generates moves for the side to move without filtering
// for king safety.
func (p Position) pseudoLegalMoves() []Move {
	var moves []Move
	for s := 0; s < 64; s++ {
		piece, color := p.pieceAt(s)
		if piece == Empty || color != p.SideToMove {
			continue
		}
		moves = append(moves, p.movesFrom(s, piece, color)...)
	}
	return moves
}

func (p Position) movesFrom(s int, piece Piece, color int8) []Move {
	file, rank := fileOf(s), rankOf(s)
	var moves []Move

	addSlide := func(dirs [][2]int) {
		for _, d := range dirs {
			f, r := file+d[0], rank+d[1]
			for onBoard(f, r) {
				target := sq(f, r)
				tp, tc := p.pieceAt(target)
				if tp == Empty {
					moves = append(moves, Move{From: s, To: target})
				} else {
					if tc != color {
						moves = append(moves, Move{From: s, To: target, Capture: true})
					}
					break
				}
				f += d[0]
				r += d[1]
			}
		}
	}

	switch piece {
	case Pawn:
		dir := 1
		startRank := 1
		promoRank := 7
		if color == Black {
			dir = -1
			startRank = 6
			promoRank = 0
		}
		// forward
		if onBoard(file, rank+dir) {
			fwd := sq(file, rank+dir)
			if p.Board[fwd] == Empty {
				moves = append(moves, p.maybePromote(s, fwd, rank+dir == promoRank)...)
				if rank == startRank {
					fwd2 := sq(file, rank+2*dir)
					if p.Board[fwd2] == Empty {
						moves = append(moves, Move{From: s, To: fwd2})
					}
				}
			}
		}
		// captures
		for _, df := range []int{-1, 1} {
			f, r := file+df, rank+dir
			if !onBoard(f, r) {
				continue
			}
			target := sq(f, r)
			tp, tc := p.pieceAt(target)
			if tp != Empty && tc != color {
				moves = append(moves, p.maybePromote(s, target, r == promoRank)...)
			}
		}
	case Knight:
		for _, o := range knightOffsets {
			f, r := file+o[0], rank+o[1]
			if !onBoard(f, r) {
				continue
			}
			target := sq(f, r)
			tp, tc := p.pieceAt(target)
			if tp == Empty {
				moves = append(moves, Move{From: s, To: target})
			} else if tc != color {
				moves = append(moves, Move{From: s, To: target, Capture: true})
			}
		}
	case King:
		for _, o := range kingOffsets {
			f, r := file+o[0], rank+o[1]
			if !onBoard(f, r) {
				continue
			}
			target := sq(f, r)
			tp, tc := p.pieceAt(target)
			if tp == Empty {
				moves = append(moves, Move{From: s, To: target})
			} else if tc != color {
				moves = append(moves, Move{From: s, To: target, Capture: true})
			}
		}
	case Bishop:
		addSlide(bishopDirs)
	case Rook:
		addSlide(rookDirs)
	case Queen:
		addSlide(append(append([][2]int{}, bishopDirs...), rookDirs...))
	}
	return moves
}

func (p Position) maybePromote(from, to int, promotes bool) []Move {
	if !promotes {
		return []Move{{From: from, To: to}}
	}
	return []Move{{From: from, To: to, Promotion: Queen}}
}

// IsSquareAttacked reports whether square s is attacked by any piece of the
// given color.
func (p Position) IsSquareAttacked(s int, byColor int8) bool {
	for from := 0; from < 64; from++ {
		piece, color := p.pieceAt(from)
		if piece == Empty || color != byColor {
			continue
		}
		for _, m := range p.movesFrom(from, piece, color) {
			if m.To == s {
				return true
			}
		}
	}
	return false
}

func (p Position) kingSquare(color int8) int {
	for s := 0; s < 64; s++ {
		if p.Board[s] == King && p.Color[s] == color {
			return s
		}
	}
	return -1
}

// LegalMoves returns pseudo-legal moves filtered to those that do not leave
// the moving side's own king in check.
func (p Position) LegalMoves() []Move {
	var legal []Move
	for _, m := range p.pseudoLegalMoves() {
		next := p.Apply(m)
		kingSq := next.kingSquare(p.SideToMove)
		if kingSq == -1 || !next.IsSquareAttacked(kingSq, next.SideToMove) {
			legal = append(legal, m)
		}
	}
	return legal
}

// Apply returns the position after playing m, without legality checking.
func (p Position) Apply(m Move) Position {
	next := p
	piece, color := p.pieceAt(m.From)
	if m.Promotion != Empty {
		piece = m.Promotion
	}
	next.set(m.To, piece, color)
	next.set(m.From, Empty, 0)
	next.SideToMove = -p.SideToMove
	return next
}

var pieceLetters = map[Piece]string{Pawn: "p", Knight: "n", Bishop: "b", Rook: "r", Queen: "q", King: "k"}

// FEN renders the board-placement and side-to-move fields of FEN; castling,
// en passant, and move-counter fields are fixed placeholders since this
// simplified model does not track them.
func (p Position) FEN() string {
	out := ""
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece, color := p.pieceAt(sq(file, rank))
			if piece == Empty {
				empty++
				continue
			}
			if empty > 0 {
				out += itoa(empty)
				empty = 0
			}
			letter := pieceLetters[piece]
			if color == White {
				letter = upper(letter)
			}
			out += letter
		}
		if empty > 0 {
			out += itoa(empty)
		}
		if rank > 0 {
			out += "/"
		}
	}
	side := "w"
	if p.SideToMove == Black {
		side = "b"
	}
	return out + " " + side + " - - 0 1"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func upper(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 32
	}
	return string(b)
}
