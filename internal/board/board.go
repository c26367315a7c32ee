package board

import (
	"errors"
	"strings"
)

// Errors returned by board mutations.
var (
	ErrOutOfBounds = errors.New("square out of bounds")
	ErrEmptySquare = errors.New("no piece at source square")
	ErrBadPiece    = errors.New("invalid piece code")
)

// CastleRights tracks which castle moves remain available. A right is
// lost when the king or the relevant rook leaves its home square, or when
// the rook is captured on it.
type CastleRights uint8

const (
	CastleWhiteKing CastleRights = 1 << iota
	CastleWhiteQueen
	CastleBlackKing
	CastleBlackQueen

	castleAll = CastleWhiteKing | CastleWhiteQueen | CastleBlackKing | CastleBlackQueen
)

// String returns the FEN castling field, "KQkq" style or "-".
func (cr CastleRights) String() string {
	if cr == 0 {
		return "-"
	}
	var sb strings.Builder
	if cr&CastleWhiteKing != 0 {
		sb.WriteByte('K')
	}
	if cr&CastleWhiteQueen != 0 {
		sb.WriteByte('Q')
	}
	if cr&CastleBlackKing != 0 {
		sb.WriteByte('k')
	}
	if cr&CastleBlackQueen != 0 {
		sb.WriteByte('q')
	}
	return sb.String()
}

// Snapshot is a detached copy of the grid, safe to hand across goroutines
// and to external consumers.
type Snapshot [8][8]int8

// Board holds the full state of one position: the 8x8 grid of signed
// piece codes, the side to move and the remaining castling rights. It is
// the single source of truth for one in-progress game and is not safe for
// concurrent use; callers either serialize access or work on copies.
type Board struct {
	grid   [8][8]int8
	turn   Color
	rights CastleRights
}

// startGrid is the standard initial arrangement. Row 0 is Black's home rank.
var startGrid = [8][8]int8{
	{-Rook, -Knight, -Bishop, -Queen, -King, -Bishop, -Knight, -Rook},
	{-Pawn, -Pawn, -Pawn, -Pawn, -Pawn, -Pawn, -Pawn, -Pawn},
	{},
	{},
	{},
	{},
	{Pawn, Pawn, Pawn, Pawn, Pawn, Pawn, Pawn, Pawn},
	{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook},
}

// New returns a board at the standard initial position, White to move.
func New() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// NewEmpty returns a board with no pieces, White to move and no castling
// rights. Positions are then built up with SetPiece.
func NewEmpty() *Board {
	return &Board{turn: White}
}

// Reset restores the initial arrangement, White to move, full rights.
func (b *Board) Reset() {
	b.grid = startGrid
	b.turn = White
	b.rights = castleAll
}

// Copy returns an independent deep copy of the board.
func (b *Board) Copy() *Board {
	nb := *b
	return &nb
}

// Snapshot returns a detached copy of the grid, never the live array.
func (b *Board) Snapshot() Snapshot {
	return Snapshot(b.grid)
}

// Turn returns the side to move.
func (b *Board) Turn() Color { return b.turn }

// SwitchTurn passes the move to the other side. Move application does not
// do this implicitly; the owner of the board serializes apply and flip.
func (b *Board) SwitchTurn() { b.turn = b.turn.Other() }

// Rights returns the remaining castling rights.
func (b *Board) Rights() CastleRights { return b.rights }

// PieceAt returns the piece code at (r, c).
func (b *Board) PieceAt(r, c int) (int8, error) {
	if !inBounds(r, c) {
		return Empty, ErrOutOfBounds
	}
	return b.grid[r][c], nil
}

// SetPiece places a piece code at (r, c), overwriting the square.
func (b *Board) SetPiece(r, c int, p int8) error {
	if !inBounds(r, c) {
		return ErrOutOfBounds
	}
	if p < -King || p > King {
		return ErrBadPiece
	}
	b.grid[r][c] = p
	return nil
}

// RemovePiece clears the square at (r, c).
func (b *Board) RemovePiece(r, c int) error {
	if !inBounds(r, c) {
		return ErrOutOfBounds
	}
	b.grid[r][c] = Empty
	return nil
}

// Effect reports what an applied move did beyond relocating the moving
// piece.
type Effect struct {
	Captured  int8 // piece code removed from the board, Empty if none
	Promotion bool
	Castle    bool
	EnPassant bool
}

// Apply executes a move mechanically: it relocates the piece, brings the
// rook across on a castle, clears an en-passant-captured pawn, promotes a
// pawn reaching its last rank to a queen, and degrades castling rights.
// It does not verify the movement pattern (move generation does) and does
// not flip the side to move. On error the board is unchanged.
func (b *Board) Apply(m Move) (Effect, error) {
	var eff Effect
	if !m.InBounds() {
		return eff, ErrOutOfBounds
	}
	piece := b.grid[m.FromRow][m.FromCol]
	if piece == Empty {
		return eff, ErrEmptySquare
	}
	dest := b.grid[m.ToRow][m.ToCol]

	// Castling: a king moving two files along its rank brings the rook
	// across to the far side of the king.
	if TypeOf(piece) == King && m.FromRow == m.ToRow && abs(m.ToCol-m.FromCol) == 2 {
		rookFrom, rookTo := 0, m.ToCol+1
		if m.ToCol > m.FromCol {
			rookFrom, rookTo = 7, m.ToCol-1
		}
		if b.grid[m.FromRow][rookFrom] == Rook*int8(ColorOf(piece)) {
			b.grid[m.FromRow][rookTo] = b.grid[m.FromRow][rookFrom]
			b.grid[m.FromRow][rookFrom] = Empty
			eff.Castle = true
		}
	}

	// En passant: a pawn stepping diagonally onto an empty square removes
	// the enemy pawn it bypassed, when one sits behind the destination.
	// This fires at apply time only; such moves are never generated.
	if TypeOf(piece) == Pawn && m.FromCol != m.ToCol && dest == Empty {
		if b.grid[m.FromRow][m.ToCol] == -piece {
			b.grid[m.FromRow][m.ToCol] = Empty
			eff.EnPassant = true
		}
	}

	if dest != Empty {
		eff.Captured = dest
	} else if eff.EnPassant {
		eff.Captured = -piece
	}

	b.grid[m.ToRow][m.ToCol] = piece
	b.grid[m.FromRow][m.FromCol] = Empty

	if piece == Pawn && m.ToRow == 0 {
		b.grid[m.ToRow][m.ToCol] = Queen
		eff.Promotion = true
	} else if piece == -Pawn && m.ToRow == 7 {
		b.grid[m.ToRow][m.ToCol] = -Queen
		eff.Promotion = true
	}

	b.degradeRights(m, piece)
	return eff, nil
}

// degradeRights clears castling rights affected by a move: both of a
// side's rights when its king moves, and the matching right when a rook
// leaves a corner or anything lands on one.
func (b *Board) degradeRights(m Move, piece int8) {
	switch piece {
	case King:
		b.rights &^= CastleWhiteKing | CastleWhiteQueen
	case -King:
		b.rights &^= CastleBlackKing | CastleBlackQueen
	}
	for _, sq := range [2][2]int{{m.FromRow, m.FromCol}, {m.ToRow, m.ToCol}} {
		switch sq {
		case [2]int{7, 0}:
			b.rights &^= CastleWhiteQueen
		case [2]int{7, 7}:
			b.rights &^= CastleWhiteKing
		case [2]int{0, 0}:
			b.rights &^= CastleBlackQueen
		case [2]int{0, 7}:
			b.rights &^= CastleBlackKing
		}
	}
}

func inBounds(r, c int) bool {
	return r >= 0 && r < 8 && c >= 0 && c < 8
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
