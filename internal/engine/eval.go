package engine

import "montechess/internal/board"

// Material values indexed by piece type code.
var pieceValues = [...]int{
	board.Pawn:   100,
	board.Rook:   500,
	board.Knight: 320,
	board.Bishop: 330,
	board.Queen:  900,
	board.King:   20000,
}

// pawnTable rewards pushing the center pawns and discourages leaving them
// home. It is laid out from White's point of view; Black reads it
// mirrored, so both index by rank relative to their own direction of
// travel.
var pawnTable = [8][8]int{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{50, 50, 50, 50, 50, 50, 50, 50},
	{10, 10, 20, 30, 30, 20, 10, 10},
	{5, 5, 10, 25, 25, 10, 5, 5},
	{0, 0, 0, 20, 20, 0, 0, 0},
	{5, -5, -10, 0, 0, -10, -5, 5},
	{5, 10, 10, -20, -20, 10, 10, 5},
	{0, 0, 0, 0, 0, 0, 0, 0},
}

// Evaluate scores a position from White's perspective: material over all
// 64 squares plus the pawn table bonus, with Black's contributions
// negated. Positive favors White, negative favors Black. It is a pure
// function of the grid.
func Evaluate(b *board.Board) int {
	grid := b.Snapshot()
	score := 0
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := grid[r][c]
			if p == board.Empty {
				continue
			}
			v := pieceValues[board.TypeOf(p)]
			if board.TypeOf(p) == board.Pawn {
				if p > 0 {
					v += pawnTable[r][c]
				} else {
					v += pawnTable[7-r][c]
				}
			}
			if p < 0 {
				v = -v
			}
			score += v
		}
	}
	return score
}
