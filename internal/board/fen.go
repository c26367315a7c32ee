package board

import (
	"fmt"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var fenPieces = map[byte]int8{
	'P': Pawn, 'R': Rook, 'N': Knight, 'B': Bishop, 'Q': Queen, 'K': King,
	'p': -Pawn, 'r': -Rook, 'n': -Knight, 'b': -Bishop, 'q': -Queen, 'k': -King,
}

var typeLetters = [...]byte{Pawn: 'p', Rook: 'r', Knight: 'n', Bishop: 'b', Queen: 'q', King: 'k'}

func fenLetter(p int8) byte {
	l := typeLetters[TypeOf(p)]
	if p > 0 {
		l -= 'a' - 'A'
	}
	return l
}

// ParseFEN builds a board from a FEN string. Piece placement, side to
// move and castling rights are honored. The en-passant, halfmove and
// fullmove fields are accepted but not modeled: en-passant is resolved at
// apply time, and there is no draw-rule tracking.
func ParseFEN(fen string) (*Board, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return nil, fmt.Errorf("fen %q: want at least placement and side to move", fen)
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("fen %q: want 8 ranks, got %d", fen, len(ranks))
	}
	b := &Board{}
	for r, rank := range ranks {
		c := 0
		for i := 0; i < len(rank); i++ {
			ch := rank[i]
			if ch >= '1' && ch <= '8' {
				c += int(ch - '0')
				continue
			}
			p, ok := fenPieces[ch]
			if !ok || c > 7 {
				return nil, fmt.Errorf("fen %q: bad rank %q", fen, rank)
			}
			b.grid[r][c] = p
			c++
		}
		if c != 8 {
			return nil, fmt.Errorf("fen %q: rank %q covers %d files", fen, rank, c)
		}
	}
	switch fields[1] {
	case "w":
		b.turn = White
	case "b":
		b.turn = Black
	default:
		return nil, fmt.Errorf("fen %q: bad side to move %q", fen, fields[1])
	}
	if len(fields) > 2 && fields[2] != "-" {
		for i := 0; i < len(fields[2]); i++ {
			switch fields[2][i] {
			case 'K':
				b.rights |= CastleWhiteKing
			case 'Q':
				b.rights |= CastleWhiteQueen
			case 'k':
				b.rights |= CastleBlackKing
			case 'q':
				b.rights |= CastleBlackQueen
			default:
				return nil, fmt.Errorf("fen %q: bad castling field %q", fen, fields[2])
			}
		}
	}
	return b, nil
}

// FEN renders the position. The unmodeled en-passant, halfmove and
// fullmove fields are emitted as "- 0 1".
func (b *Board) FEN() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		empty := 0
		for c := 0; c < 8; c++ {
			p := b.grid[r][c]
			if p == Empty {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(fenLetter(p))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < 7 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(b.turn.String())
	sb.WriteByte(' ')
	sb.WriteString(b.rights.String())
	sb.WriteString(" - 0 1")
	return sb.String()
}
