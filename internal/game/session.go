// Package game holds the live match state: the session owning the
// authoritative board, the players that move on it and the runner that
// drives complete games.
package game

import (
	"errors"
	"fmt"
	"sync"

	"montechess/internal/board"
)

// Errors returned by session operations.
var (
	ErrIllegalMove = errors.New("move is not legal in this position")
	ErrGameOver    = errors.New("game already decided")
)

// Outcome is the result of a game, in conventional score notation.
type Outcome string

const (
	// NoOutcome means the game is still in progress.
	NoOutcome Outcome = "*"
	WhiteWon  Outcome = "1-0"
	BlackWon  Outcome = "0-1"
	Draw      Outcome = "1/2-1/2"
)

// Method is how an outcome came about.
type Method uint8

const (
	NoMethod Method = iota
	Checkmate
	Stalemate
)

// String returns the lower-case method name, empty for NoMethod.
func (m Method) String() string {
	switch m {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return ""
}

// Event describes one applied move. Listeners receive a detached snapshot;
// nothing in it aliases session state.
type Event struct {
	Move    string
	Board   board.Snapshot
	Turn    board.Color
	Outcome Outcome
	Method  Method
	Ply     int
}

// Session owns the authoritative board for one match. All access is
// serialized through its mutex; exactly one side's move is computed and
// applied at a time. Components that need to read or search the position
// take copies, never the live board.
type Session struct {
	// notifyMu serializes move application with listener delivery so
	// events reach listeners in apply order. Mutating operations acquire
	// it before mu; plain reads take mu alone.
	notifyMu sync.Mutex

	mu        sync.Mutex
	board     *board.Board
	history   []string
	outcome   Outcome
	method    Method
	listeners []func(Event)
}

// NewSession returns a session at the standard initial position.
func NewSession() *Session {
	return &Session{
		board:   board.New(),
		outcome: NoOutcome,
	}
}

// Reset restores the initial position and clears the move history. It
// waits out any in-flight listener delivery so a new game never starts
// under an old game's notification.
func (s *Session) Reset() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.Reset()
	s.history = nil
	s.outcome = NoOutcome
	s.method = NoMethod
}

// Turn returns the side to move.
func (s *Session) Turn() board.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Turn()
}

// Snapshot returns a detached copy of the grid.
func (s *Session) Snapshot() board.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Snapshot()
}

// BoardCopy returns an independent copy of the position, safe to hand to a
// searcher.
func (s *Session) BoardCopy() *board.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Copy()
}

// History returns a copy of the moves played so far, in coordinate
// notation suitable for replaying to an engine.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// FEN renders the current position.
func (s *Session) FEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.FEN()
}

// Outcome returns the game result and the method that produced it.
func (s *Session) Outcome() (Outcome, Method) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.method
}

// OnMove registers a listener called synchronously after every applied
// move. Listeners run one at a time in apply order, outside the state
// lock, so they may read the session; they must not apply moves
// themselves.
func (s *Session) OnMove(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// MakeMove validates m against the current side's legal moves, applies it,
// records it (promotions gain a "q" suffix so engine replays stay in sync)
// and flips the turn.
func (s *Session) MakeMove(m board.Move) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.outcome != NoOutcome {
		s.mu.Unlock()
		return ErrGameOver
	}
	if !s.isLegalLocked(m) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	ev, fns, err := s.applyLocked(m, "")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

// MakeMoveText parses text (coordinate or castle notation) for the side to
// move and plays it through MakeMove's validation. Castle shorthand is
// recorded in normalized king-move coordinates.
func (s *Session) MakeMoveText(text string) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.outcome != NoOutcome {
		s.mu.Unlock()
		return ErrGameOver
	}
	m, err := board.ParseMove(text, s.board.Turn())
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.isLegalLocked(m) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}
	ev, fns, err := s.applyLocked(m, "")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

// ForceMove applies an engine-supplied move string without checking it
// against the legal list; only bounds and the source square are verified.
// Whatever the engine said goes into the history verbatim, promotion
// suffix included, so the replayed line always matches the engine's own
// record.
func (s *Session) ForceMove(text string) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.outcome != NoOutcome {
		s.mu.Unlock()
		return ErrGameOver
	}
	m, err := board.ParseMove(text, s.board.Turn())
	if err != nil {
		s.mu.Unlock()
		return err
	}
	ev, fns, err := s.applyLocked(m, text)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

// isLegalLocked reports whether m is in the side to move's legal list.
func (s *Session) isLegalLocked(m board.Move) bool {
	for _, lm := range s.board.LegalMoves(s.board.Turn()) {
		if lm == m {
			return true
		}
	}
	return false
}

// applyLocked executes the move, records text (derived from the move and
// its effect when empty), flips the turn and refreshes the outcome. It
// returns the event and the listener set to notify after unlocking.
func (s *Session) applyLocked(m board.Move, text string) (Event, []func(Event), error) {
	eff, err := s.board.Apply(m)
	if err != nil {
		return Event{}, nil, err
	}
	if text == "" {
		text = m.String()
		if eff.Promotion {
			text += "q"
		}
	}
	s.history = append(s.history, text)
	s.board.SwitchTurn()
	s.refreshOutcomeLocked()

	ev := Event{
		Move:    text,
		Board:   s.board.Snapshot(),
		Turn:    s.board.Turn(),
		Outcome: s.outcome,
		Method:  s.method,
		Ply:     len(s.history),
	}
	fns := append([]func(Event)(nil), s.listeners...)
	return ev, fns, nil
}

// refreshOutcomeLocked inspects the side now to move. Checkmate decides
// the game for the mover; stalemate is a draw.
func (s *Session) refreshOutcomeLocked() {
	next := s.board.Turn()
	switch {
	case s.board.IsCheckmate(next):
		s.method = Checkmate
		if next == board.White {
			s.outcome = BlackWon
		} else {
			s.outcome = WhiteWon
		}
	case s.board.IsStalemate(next):
		s.method = Stalemate
		s.outcome = Draw
	}
}
