package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"montechess/internal/board"
	"montechess/internal/engine"
)

// fakeEngine stands in for the UCI client, answering with one canned
// response and remembering what it was asked.
type fakeEngine struct {
	move     string
	score    float64
	err      error
	history  []string
	movetime time.Duration
}

func (f *fakeEngine) BestMove(_ context.Context, history []string, movetime time.Duration) (string, float64, error) {
	f.history = append([]string(nil), history...)
	f.movetime = movetime
	return f.move, f.score, f.err
}

func TestEnginePlayerForcesMove(t *testing.T) {
	fake := &fakeEngine{move: "e2e4", score: 0.31}
	p := NewEnginePlayer("sf", fake, 500*time.Millisecond)
	s := NewSession()

	got, err := p.Play(context.Background(), s)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got != "e2e4" {
		t.Errorf("Play = %q, want e2e4", got)
	}
	if hist := s.History(); len(hist) != 1 || hist[0] != "e2e4" {
		t.Errorf("History = %v, want [e2e4]", hist)
	}
	if len(fake.history) != 0 {
		t.Errorf("engine got history %v, want empty", fake.history)
	}
	if fake.movetime != 500*time.Millisecond {
		t.Errorf("movetime = %v, want 500ms", fake.movetime)
	}
	if p.Evaluation() != 0.31 {
		t.Errorf("Evaluation = %v, want 0.31", p.Evaluation())
	}
}

func TestEnginePlayerReplaysHistory(t *testing.T) {
	s := NewSession()
	playText(t, s, "e2e4", "e7e5")

	fake := &fakeEngine{move: "g1f3"}
	p := NewEnginePlayer("sf", fake, time.Second)
	if _, err := p.Play(context.Background(), s); err != nil {
		t.Fatalf("Play: %v", err)
	}
	want := []string{"e2e4", "e7e5"}
	if len(fake.history) != len(want) || fake.history[0] != want[0] || fake.history[1] != want[1] {
		t.Errorf("engine got history %v, want %v", fake.history, want)
	}
	if hist := s.History(); hist[len(hist)-1] != "g1f3" {
		t.Errorf("History = %v, engine move missing", hist)
	}
}

func TestEnginePlayerNoMoveTokens(t *testing.T) {
	for _, token := range []string{"", "0000", "(none)"} {
		t.Run("token "+token, func(t *testing.T) {
			fake := &fakeEngine{move: token}
			p := NewEnginePlayer("sf", fake, time.Second)
			s := NewSession()

			_, err := p.Play(context.Background(), s)
			if !errors.Is(err, ErrNoMove) {
				t.Fatalf("Play error = %v, want ErrNoMove", err)
			}
			if hist := s.History(); len(hist) != 0 {
				t.Errorf("History = %v, want empty", hist)
			}
		})
	}
}

func TestEnginePlayerPropagatesClientError(t *testing.T) {
	fake := &fakeEngine{err: errors.New("engine crashed")}
	p := NewEnginePlayer("sf", fake, time.Second)

	if _, err := p.Play(context.Background(), NewSession()); err == nil {
		t.Fatal("Play swallowed the client error")
	}
}

func TestEnginePlayerDefaults(t *testing.T) {
	fake := &fakeEngine{move: "e2e4"}
	p := NewEnginePlayer("", fake, 0)
	if p.Name() != "stockfish" {
		t.Errorf("Name = %q, want stockfish", p.Name())
	}
	if _, err := p.Play(context.Background(), NewSession()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if fake.movetime != time.Second {
		t.Errorf("movetime = %v, want the 1s default", fake.movetime)
	}
}

func TestSearchPlayerPlaysLegalMove(t *testing.T) {
	p := NewSearchPlayer("mc", engine.NewSearcher(1), engine.Limits{MoveTime: 30 * time.Millisecond, Plies: 4})
	s := NewSession()

	got, err := p.Play(context.Background(), s)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	hist := s.History()
	if len(hist) != 1 || hist[0] != got {
		t.Errorf("History = %v, Play returned %q", hist, got)
	}
	if s.Turn() != board.Black {
		t.Errorf("Turn = %v after White's move, want Black", s.Turn())
	}
}

func TestSearchPlayerNoMovesAtMate(t *testing.T) {
	s := NewSession()
	playText(t, s, "e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6")
	// One move before mate the searcher still has options; deliver mate
	// through the validated path, then ask the mated side to play.
	playText(t, s, "h5f7")

	p := NewSearchPlayer("mc", engine.NewSearcher(2), engine.Limits{MoveTime: 30 * time.Millisecond})
	_, err := p.Play(context.Background(), s)
	if !errors.Is(err, ErrNoMove) {
		t.Fatalf("Play error = %v, want ErrNoMove", err)
	}
}
