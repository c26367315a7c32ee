package board

// Fixed movement patterns.
var (
	knightOffsets = [8][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	rookDirs      = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirs    = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// PseudoMoves returns the movement-pattern moves for the piece at (r, c),
// ignoring whether the mover's king would be left in check. Castles are
// not part of the piece patterns; LegalMoves adds them. An empty or
// out-of-bounds square yields nil.
func (b *Board) PseudoMoves(r, c int) []Move {
	if !inBounds(r, c) {
		return nil
	}
	switch TypeOf(b.grid[r][c]) {
	case Pawn:
		return b.pawnMoves(r, c)
	case Rook:
		return b.slideMoves(r, c, rookDirs[:])
	case Knight:
		return b.offsetMoves(r, c, knightOffsets[:])
	case Bishop:
		return b.slideMoves(r, c, bishopDirs[:])
	case Queen:
		return append(b.slideMoves(r, c, rookDirs[:]), b.slideMoves(r, c, bishopDirs[:])...)
	case King:
		return b.offsetMoves(r, c, kingOffsets[:])
	}
	return nil
}

// pawnMoves: one forward onto an empty square, two forward from the
// starting rank across empty squares, diagonal onto an enemy piece only.
func (b *Board) pawnMoves(r, c int) []Move {
	side := ColorOf(b.grid[r][c])
	dir, startRow := -1, 6
	if side == Black {
		dir, startRow = 1, 1
	}
	var moves []Move
	if fwd := r + dir; inBounds(fwd, c) && b.grid[fwd][c] == Empty {
		moves = append(moves, Move{r, c, fwd, c})
		if r == startRow && b.grid[r+2*dir][c] == Empty {
			moves = append(moves, Move{r, c, r + 2*dir, c})
		}
	}
	for _, dc := range [2]int{-1, 1} {
		tr, tc := r+dir, c+dc
		if inBounds(tr, tc) && b.grid[tr][tc] != Empty && ColorOf(b.grid[tr][tc]) != side {
			moves = append(moves, Move{r, c, tr, tc})
		}
	}
	return moves
}

func (b *Board) offsetMoves(r, c int, offsets [][2]int) []Move {
	side := ColorOf(b.grid[r][c])
	var moves []Move
	for _, d := range offsets {
		tr, tc := r+d[0], c+d[1]
		if !inBounds(tr, tc) {
			continue
		}
		if b.grid[tr][tc] != Empty && ColorOf(b.grid[tr][tc]) == side {
			continue
		}
		moves = append(moves, Move{r, c, tr, tc})
	}
	return moves
}

func (b *Board) slideMoves(r, c int, dirs [][2]int) []Move {
	side := ColorOf(b.grid[r][c])
	var moves []Move
	for _, d := range dirs {
		for tr, tc := r+d[0], c+d[1]; inBounds(tr, tc); tr, tc = tr+d[0], tc+d[1] {
			target := b.grid[tr][tc]
			if target != Empty && ColorOf(target) == side {
				break
			}
			moves = append(moves, Move{r, c, tr, tc})
			if target != Empty {
				break
			}
		}
	}
	return moves
}

// LegalMoves returns every legal move for side: all pseudo-legal moves
// plus any available castle, each applied to a scratch copy and kept only
// when the mover's king is not left attacked. The filter runs per move,
// not batched.
func (b *Board) LegalMoves(side Color) []Move {
	var moves []Move
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b.grid[r][c]
			if p == Empty || ColorOf(p) != side {
				continue
			}
			moves = append(moves, b.PseudoMoves(r, c)...)
		}
	}
	moves = append(moves, b.castleMoves(side)...)

	legal := moves[:0]
	for _, m := range moves {
		scratch := b.Copy()
		if _, err := scratch.Apply(m); err != nil {
			continue
		}
		if !scratch.InCheck(side) {
			legal = append(legal, m)
		}
	}
	return legal
}

// castleMoves yields the castle moves side may still play: the right must
// be intact, the squares between king and rook empty, the king not in
// check, and the king's transit and landing squares not attacked.
func (b *Board) castleMoves(side Color) []Move {
	row := HomeRank(side)
	if b.grid[row][4] != King*int8(side) || b.InCheck(side) {
		return nil
	}
	kingBit, queenBit := CastleWhiteKing, CastleWhiteQueen
	if side == Black {
		kingBit, queenBit = CastleBlackKing, CastleBlackQueen
	}
	opp := side.Other()
	var moves []Move
	if b.rights&kingBit != 0 &&
		b.grid[row][5] == Empty && b.grid[row][6] == Empty &&
		b.grid[row][7] == Rook*int8(side) &&
		!b.attacked(row, 5, opp) && !b.attacked(row, 6, opp) {
		moves = append(moves, Move{row, 4, row, 6})
	}
	if b.rights&queenBit != 0 &&
		b.grid[row][1] == Empty && b.grid[row][2] == Empty && b.grid[row][3] == Empty &&
		b.grid[row][0] == Rook*int8(side) &&
		!b.attacked(row, 2, opp) && !b.attacked(row, 3, opp) {
		moves = append(moves, Move{row, 4, row, 2})
	}
	return moves
}
