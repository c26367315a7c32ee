package board

// Piece codes stored in the grid. The magnitude selects the piece type,
// the sign selects the owner: positive is White, negative is Black, zero
// is an empty square.
const (
	Empty  int8 = 0
	Pawn   int8 = 1
	Rook   int8 = 2
	Knight int8 = 3
	Bishop int8 = 4
	Queen  int8 = 5
	King   int8 = 6
)

// Color identifies a side. The numeric values follow the sign convention
// of the piece codes, so Piece*int8(color) yields that side's signed code.
type Color int8

const (
	White Color = 1
	Black Color = -1
)

// Other returns the opposing side.
func (c Color) Other() Color { return -c }

// String returns the FEN side letter, "w" or "b".
func (c Color) String() string {
	if c == White {
		return "w"
	}
	return "b"
}

// ColorOf returns the owning side of a non-empty piece code.
func ColorOf(p int8) Color {
	if p > 0 {
		return White
	}
	return Black
}

// TypeOf strips the sign from a piece code.
func TypeOf(p int8) int8 {
	if p < 0 {
		return -p
	}
	return p
}
