package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"montechess/internal/board"
)

func mustParseFEN(t *testing.T, fen string) *board.Board {
	t.Helper()
	b, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b
}

func TestSearchSingleLegalMove(t *testing.T) {
	// White's king on a1 is boxed in by the g2 queen; a1b1 is the only
	// legal move, so every seed must land on it.
	const fen = "7k/8/8/8/8/8/6q1/K7 w - - 0 1"
	want := board.Move{FromRow: 7, FromCol: 0, ToRow: 7, ToCol: 1}
	for seed := int64(0); seed < 5; seed++ {
		pos := mustParseFEN(t, fen)
		s := NewSearcher(seed)
		got, err := s.Search(context.Background(), pos, board.White, Limits{MoveTime: 50 * time.Millisecond, Plies: 4})
		if err != nil {
			t.Fatalf("seed %d: Search: %v", seed, err)
		}
		if got != want {
			t.Errorf("seed %d: Search = %v, want %v", seed, got, want)
		}
	}
}

func TestSearchNoLegalMoves(t *testing.T) {
	// Scholar's mate: Black is checkmated and has nothing to play.
	pos := mustParseFEN(t, "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4")
	s := NewSearcher(1)
	got, err := s.Search(context.Background(), pos, board.Black, Limits{MoveTime: 50 * time.Millisecond})
	if !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("Search error = %v, want ErrNoLegalMoves", err)
	}
	if got != board.NoMove {
		t.Errorf("Search = %v, want NoMove", got)
	}
}

func TestSearchReturnsLegalMove(t *testing.T) {
	pos := board.New()
	legal := pos.LegalMoves(board.White)
	s := NewSearcher(7)
	got, err := s.Search(context.Background(), pos, board.White, Limits{MoveTime: 100 * time.Millisecond, Plies: 4})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, m := range legal {
		if m == got {
			return
		}
	}
	t.Errorf("Search = %v, not among the %d legal moves", got, len(legal))
}

func TestSearchCancelledContext(t *testing.T) {
	// A context cancelled before the first rollout still produces a legal
	// move promptly, via the uniform fallback.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pos := board.New()
	s := NewSearcher(3)
	start := time.Now()
	got, err := s.Search(ctx, pos, board.White, Limits{MoveTime: 10 * time.Second})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Search took %v after cancellation, want a prompt return", elapsed)
	}
	if got == board.NoMove {
		t.Error("Search returned NoMove from the initial position")
	}
	found := false
	for _, m := range pos.LegalMoves(board.White) {
		if m == got {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Search = %v, not a legal move", got)
	}
}

func TestSearchDoesNotMutateCaller(t *testing.T) {
	pos := board.New()
	before := pos.FEN()
	s := NewSearcher(11)
	if _, err := s.Search(context.Background(), pos, board.White, Limits{MoveTime: 50 * time.Millisecond, Plies: 4}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if after := pos.FEN(); after != before {
		t.Errorf("caller's board changed:\n before %s\n after  %s", before, after)
	}
	if pos.Turn() != board.White {
		t.Errorf("caller's turn changed to %v", pos.Turn())
	}
}

func TestSearchReportsInfo(t *testing.T) {
	pos := board.New()
	s := NewSearcher(5)
	var info Info
	called := false
	s.OnInfo = func(i Info) {
		info = i
		called = true
	}
	got, err := s.Search(context.Background(), pos, board.White, Limits{MoveTime: 50 * time.Millisecond, Plies: 4})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !called {
		t.Fatal("OnInfo was not invoked")
	}
	if info.Rollouts < 1 {
		t.Errorf("Info.Rollouts = %d, want at least 1", info.Rollouts)
	}
	if info.Best != got {
		t.Errorf("Info.Best = %v, returned move %v", info.Best, got)
	}
	if info.Elapsed <= 0 {
		t.Errorf("Info.Elapsed = %v, want > 0", info.Elapsed)
	}
}

func TestSearchZeroPliesUsesDefault(t *testing.T) {
	// Plies left at zero falls back to DefaultPlies rather than producing
	// zero-length rollouts.
	pos := board.New()
	s := NewSearcher(9)
	var info Info
	s.OnInfo = func(i Info) { info = i }
	if _, err := s.Search(context.Background(), pos, board.White, Limits{MoveTime: 50 * time.Millisecond}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if info.Rollouts < 1 {
		t.Errorf("Info.Rollouts = %d, want at least 1", info.Rollouts)
	}
}
