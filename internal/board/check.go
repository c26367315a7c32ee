package board

// KingSquare returns the coordinates of side's king. ok is false when the
// king is absent, which only happens on hand-built positions.
func (b *Board) KingSquare(side Color) (r, c int, ok bool) {
	want := King * int8(side)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if b.grid[r][c] == want {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// InCheck reports whether side's king is attacked by the opponent.
func (b *Board) InCheck(side Color) bool {
	r, c, ok := b.KingSquare(side)
	if !ok {
		return false
	}
	return b.attacked(r, c, side.Other())
}

// attacked reports whether (r, c) is reachable by a capture of side by.
// For every piece but the pawn this is destination membership in its
// pseudo-legal moves. Pawns are special-cased: they attack their two
// forward diagonals whether or not those squares are occupied, while the
// move list only shows diagonals onto enemy pieces, and their forward
// pushes are not attacks at all.
func (b *Board) attacked(r, c int, by Color) bool {
	pawnDir := -1
	if by == Black {
		pawnDir = 1
	}
	for pr := 0; pr < 8; pr++ {
		for pc := 0; pc < 8; pc++ {
			p := b.grid[pr][pc]
			if p == Empty || ColorOf(p) != by {
				continue
			}
			if TypeOf(p) == Pawn {
				if pr+pawnDir == r && (pc-1 == c || pc+1 == c) {
					return true
				}
				continue
			}
			for _, m := range b.PseudoMoves(pr, pc) {
				if m.ToRow == r && m.ToCol == c {
					return true
				}
			}
		}
	}
	return false
}

// IsCheckmate reports whether side is in check with no legal reply.
func (b *Board) IsCheckmate(side Color) bool {
	return b.InCheck(side) && len(b.LegalMoves(side)) == 0
}

// IsStalemate reports whether side has no legal move while not in check.
// Callers must not conflate this with checkmate; it ends the game as a
// draw.
func (b *Board) IsStalemate(side Color) bool {
	return !b.InCheck(side) && len(b.LegalMoves(side)) == 0
}
