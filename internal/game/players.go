package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"montechess/internal/engine"
)

// ErrNoMove reports that a player found nothing to play; the game is over
// from that side's point of view.
var ErrNoMove = errors.New("no move available")

// Player takes one turn when Play is called: it chooses a move, applies it
// to the session itself and returns the move as recorded.
type Player interface {
	Name() string
	Play(ctx context.Context, s *Session) (string, error)
}

// BestMover is the slice of the engine client a player needs.
type BestMover interface {
	BestMove(ctx context.Context, history []string, movetime time.Duration) (string, float64, error)
}

// EnginePlayer has an external UCI engine take a side. The full history is
// replayed to the engine each turn and whatever move it returns is forced
// onto the session.
type EnginePlayer struct {
	name     string
	client   BestMover
	movetime time.Duration
	score    float64
}

// NewEnginePlayer wraps client as a player. An empty name becomes
// "stockfish"; movetime <= 0 falls back to one second.
func NewEnginePlayer(name string, client BestMover, movetime time.Duration) *EnginePlayer {
	if name == "" {
		name = "stockfish"
	}
	if movetime <= 0 {
		movetime = time.Second
	}
	return &EnginePlayer{name: name, client: client, movetime: movetime}
}

// Name returns the player's label in logs and match records.
func (p *EnginePlayer) Name() string { return p.name }

// Evaluation returns the engine's last reported score in pawns, from the
// engine's own point of view.
func (p *EnginePlayer) Evaluation() float64 { return p.score }

// Play asks the engine for a move. "0000", "(none)" and an empty token all
// mean the engine has nothing left to play.
func (p *EnginePlayer) Play(ctx context.Context, s *Session) (string, error) {
	move, score, err := p.client.BestMove(ctx, s.History(), p.movetime)
	if err != nil {
		return "", err
	}
	p.score = score
	switch move {
	case "", "0000", "(none)":
		return "", ErrNoMove
	}
	if err := s.ForceMove(move); err != nil {
		return "", fmt.Errorf("applying engine move %s: %w", move, err)
	}
	return move, nil
}

// SearchPlayer plays moves found by the rollout searcher on a copy of the
// session's position. The player owns the searcher's info callback.
type SearchPlayer struct {
	name     string
	searcher *engine.Searcher
	limits   engine.Limits
	score    int
}

// NewSearchPlayer wraps searcher as a player. An empty name becomes
// "montecarlo".
func NewSearchPlayer(name string, searcher *engine.Searcher, limits engine.Limits) *SearchPlayer {
	if name == "" {
		name = "montecarlo"
	}
	p := &SearchPlayer{name: name, searcher: searcher, limits: limits}
	searcher.OnInfo = func(info engine.Info) { p.score = info.Score }
	return p
}

// Name returns the player's label in logs and match records.
func (p *SearchPlayer) Name() string { return p.name }

// Evaluation returns the accumulated rollout score of the last chosen
// move.
func (p *SearchPlayer) Evaluation() float64 { return float64(p.score) }

// Play searches a copy of the position and plays the chosen move through
// the session's validation.
func (p *SearchPlayer) Play(ctx context.Context, s *Session) (string, error) {
	pos := s.BoardCopy()
	m, err := p.searcher.Search(ctx, pos, pos.Turn(), p.limits)
	if err != nil {
		if errors.Is(err, engine.ErrNoLegalMoves) {
			return "", ErrNoMove
		}
		return "", err
	}
	if err := s.MakeMove(m); err != nil {
		return "", fmt.Errorf("applying search move %s: %w", m, err)
	}
	hist := s.History()
	return hist[len(hist)-1], nil
}
