package board

import (
	"testing"
)

// perft counts leaf nodes of the legal move tree, copying the board per
// branch. Promotions count once (always a queen) and en-passant captures
// are never generated, so reference positions are chosen where neither
// occurs within the counted depth.
func perft(b *Board, side Color, depth int) int {
	moves := b.LegalMoves(side)
	if depth <= 1 {
		return len(moves)
	}
	nodes := 0
	for _, m := range moves {
		child := b.Copy()
		if _, err := child.Apply(m); err != nil {
			continue
		}
		nodes += perft(child, side.Other(), depth-1)
	}
	return nodes
}

// perftCases is shared with the oracle cross-check in oracle_test.go, so
// every expected count here is also pinned to the reference generator.
var perftCases = []struct {
	name  string
	fen   string
	depth int
	want  int
}{
	{"initial d1", StartFEN, 1, 20},
	{"initial d2", StartFEN, 2, 400},
	{"initial d3", StartFEN, 3, 8902},
	{"initial d4", StartFEN, 4, 197281},
	{"kiwipete d1", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 1, 48},
	{"rook endgame d1", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 1, 14},
	{"castled middlegame d1", "r4rk1/1pp1qppp/p1np1n2/2b1p1b1/2B1P1B1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10", 1, 46},
	{"castled middlegame d2", "r4rk1/1pp1qppp/p1np1n2/2b1p1b1/2B1P1B1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10", 2, 2060},
	{"bare castles d1", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", 1, 26},
}

func TestPerft(t *testing.T) {
	for _, tt := range perftCases {
		t.Run(tt.name, func(t *testing.T) {
			if testing.Short() && tt.depth >= 4 {
				t.Skip("deep perft skipped in short mode")
			}
			b := mustParseFEN(t, tt.fen)
			if got := perft(b, b.Turn(), tt.depth); got != tt.want {
				t.Errorf("perft(%d) = %d, want %d", tt.depth, got, tt.want)
			}
		})
	}
}

func TestPseudoMovesStayOnBoard(t *testing.T) {
	// Every destination generated for a lone piece on an otherwise empty
	// board must lie within the grid, from any square.
	pieces := []int8{Pawn, Rook, Knight, Bishop, Queen}
	for _, p := range pieces {
		for _, side := range []Color{White, Black} {
			piece := p * int8(side)
			for r := 0; r < 8; r++ {
				for c := 0; c < 8; c++ {
					b := NewEmpty()
					if err := b.SetPiece(r, c, piece); err != nil {
						t.Fatalf("SetPiece: %v", err)
					}
					for _, m := range b.PseudoMoves(r, c) {
						if !m.InBounds() {
							t.Fatalf("piece %d at (%d,%d) generated off-board move %v", piece, r, c, m)
						}
					}
				}
			}
		}
	}
}

func TestPawnMoves(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		from [2]int
		want int
	}{
		{"white start rank", "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", [2]int{6, 4}, 2},
		{"white advanced", "4k3/8/8/8/4P3/8/8/4K3 w - - 0 1", [2]int{4, 4}, 1},
		{"white blocked", "4k3/8/8/8/8/4p3/4P3/4K3 w - - 0 1", [2]int{6, 4}, 0},
		{"white double blocked", "4k3/8/8/8/4p3/8/4P3/4K3 w - - 0 1", [2]int{6, 4}, 1},
		{"white two captures", "4k3/8/8/8/3p1p2/4P3/8/4K3 w - - 0 1", [2]int{5, 4}, 3},
		{"no capture of own piece", "4k3/8/8/8/3P1p2/4P3/8/4K3 w - - 0 1", [2]int{5, 4}, 2},
		{"black start rank", "4k3/4p3/8/8/8/8/8/4K3 b - - 0 1", [2]int{1, 4}, 2},
		{"black capture", "4k3/8/8/8/2p5/3P4/8/4K3 b - - 0 1", [2]int{4, 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustParseFEN(t, tt.fen)
			if got := len(b.PseudoMoves(tt.from[0], tt.from[1])); got != tt.want {
				t.Errorf("got %d moves, want %d", got, tt.want)
			}
		})
	}
}

func TestSliderStopsAtPieces(t *testing.T) {
	// Rook on d4, friendly pawn on d6, enemy pawn on f4: the north ray
	// stops short, the east ray includes the capture square.
	b := mustParseFEN(t, "4k3/8/3P4/8/3R1p2/8/8/4K3 w - - 0 1")
	moves := b.PseudoMoves(4, 3)
	has := func(tr, tc int) bool {
		for _, m := range moves {
			if m.ToRow == tr && m.ToCol == tc {
				return true
			}
		}
		return false
	}
	if !has(3, 3) {
		t.Error("missing d5")
	}
	if has(2, 3) {
		t.Error("ray ran through the friendly pawn on d6")
	}
	if !has(4, 5) {
		t.Error("missing capture on f4")
	}
	if has(4, 6) {
		t.Error("ray ran through the enemy pawn on f4")
	}
}

func TestCastleGeneration(t *testing.T) {
	countCastles := func(b *Board, side Color) int {
		n := 0
		row := HomeRank(side)
		for _, m := range b.LegalMoves(side) {
			if m.FromRow == row && m.FromCol == 4 && m.ToRow == row && abs(m.ToCol-4) == 2 {
				n++
			}
		}
		return n
	}
	tests := []struct {
		name string
		fen  string
		side Color
		want int
	}{
		{"both available", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", White, 2},
		{"no rights", "r3k2r/8/8/8/8/8/8/R3K2R w - - 0 1", White, 0},
		{"blocked queenside", "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1", White, 1},
		{"king in check", "r3k2r/8/8/8/4r3/8/8/R3K2R w KQkq - 0 1", White, 0},
		{"transit attacked", "r3k2r/8/8/8/5r2/8/8/R3K2R w KQkq - 0 1", White, 1},
		{"landing attacked", "r3k2r/8/8/8/6r1/8/8/R3K2R w KQkq - 0 1", White, 1},
		// The e2 pawn attacks both d1 and f1 even though they are empty,
		// so neither castle may pass.
		{"transit pawn attacked", "r3k2r/8/8/8/8/8/4p3/R3K2R w KQkq - 0 1", White, 0},
		{"black both", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", Black, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustParseFEN(t, tt.fen)
			if got := countCastles(b, tt.side); got != tt.want {
				t.Errorf("castles = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLegalMovesExcludeSelfCheck(t *testing.T) {
	// The e-file knight is pinned by the rook; it has no legal move even
	// though it has pseudo-legal ones.
	b := mustParseFEN(t, "4k3/4r3/8/8/8/4N3/8/4K3 w - - 0 1")
	if n := len(b.PseudoMoves(5, 4)); n == 0 {
		t.Fatal("pinned knight generated no pseudo moves")
	}
	for _, m := range b.LegalMoves(White) {
		if m.FromRow == 5 && m.FromCol == 4 {
			t.Errorf("pinned knight escaped the legality filter: %v", m)
		}
	}
}
