package board

import (
	"errors"
	"fmt"
)

// Move is a from/to square pair in grid coordinates. Row 0 is rank 8 and
// row 7 is rank 1, so White advances toward smaller row numbers. Castling
// is expressed as the king's two-square move; promotion is implicit, a
// pawn reaching its last rank always becomes a queen.
type Move struct {
	FromRow, FromCol int
	ToRow, ToCol     int
}

// NoMove is the sentinel for "no move available". Its string form is the
// UCI null move "0000".
var NoMove = Move{-1, -1, -1, -1}

// ErrBadNotation is returned for a move string that cannot be parsed.
var ErrBadNotation = errors.New("bad move notation")

// InBounds reports whether both squares lie on the board.
func (m Move) InBounds() bool {
	return inBounds(m.FromRow, m.FromCol) && inBounds(m.ToRow, m.ToCol)
}

// String returns the coordinate form of the move, for example "e2e4".
// Castles print as the underlying king move. NoMove prints as "0000".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	return SquareName(m.FromRow, m.FromCol) + SquareName(m.ToRow, m.ToCol)
}

// SquareName returns the algebraic name of a square, for example "e4".
func SquareName(r, c int) string {
	return string([]byte{byte('a' + c), byte('8' - r)})
}

// ParseMove parses coordinate notation: a four-character string such as
// "e2e4" (file a-h, rank 1-8, rank 8 being row 0), optionally followed by
// a promotion letter which is accepted but ignored since promotion is
// always to a queen. The castle forms "0-0" and "0-0-0" resolve to the
// king's two-square move on side's home rank.
func ParseMove(s string, side Color) (Move, error) {
	switch s {
	case "0-0":
		r := HomeRank(side)
		return Move{r, 4, r, 6}, nil
	case "0-0-0":
		r := HomeRank(side)
		return Move{r, 4, r, 2}, nil
	}
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrBadNotation, s)
	}
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
		default:
			return NoMove, fmt.Errorf("%w: %q", ErrBadNotation, s)
		}
	}
	m := Move{
		FromRow: int('8' - s[1]),
		FromCol: int(s[0] - 'a'),
		ToRow:   int('8' - s[3]),
		ToCol:   int(s[2] - 'a'),
	}
	if !m.InBounds() {
		return NoMove, fmt.Errorf("%w: %q", ErrBadNotation, s)
	}
	return m, nil
}

// HomeRank returns the row of side's back rank: 7 for White, 0 for Black.
func HomeRank(side Color) int {
	if side == White {
		return 7
	}
	return 0
}
