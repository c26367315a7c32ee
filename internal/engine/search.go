package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"montechess/internal/board"
)

// Search defaults: five seconds of wall clock, eight half-moves per
// rollout.
const (
	DefaultMoveTime = 5 * time.Second
	DefaultPlies    = 8
)

// ErrNoLegalMoves is returned when the searched side has no move at all.
var ErrNoLegalMoves = errors.New("no legal moves")

// Limits bounds one search call. Zero fields fall back to the defaults.
type Limits struct {
	MoveTime time.Duration // wall-clock budget
	Plies    int           // half-moves per rollout
}

// Info summarizes a finished search for the OnInfo callback.
type Info struct {
	Rollouts int
	Best     board.Move
	Score    int
	Elapsed  time.Duration
}

// Searcher picks moves by time-boxed random rollouts: short sequences of
// uniformly random legal moves played on private copies of the position,
// every ply scored with Evaluate, each rollout's total accumulated
// against the first move of its sequence. No tree is kept across
// rollouts; strength is explicitly traded for bounded, predictable cost.
type Searcher struct {
	rng *rand.Rand

	// OnInfo, when set, receives a summary after every search.
	OnInfo func(Info)
}

// NewSearcher returns a Searcher with its own RNG seeded by seed.
func NewSearcher(seed int64) *Searcher {
	return &Searcher{rng: rand.New(rand.NewSource(seed))}
}

// Search chooses a move for side within lim. The caller's board is
// copied once at entry and never mutated. Deadline and ctx are polled at
// rollout boundaries only, so a rollout in flight always runs to its
// depth; cancellation acts as an early deadline and still returns
// whatever the completed rollouts accumulated. The rollout totals sum
// Evaluate after every applied ply, White-perspective regardless of the
// mover, and the first move with the highest accumulated total wins. If
// no rollout completed, a uniformly random legal move is returned; if
// side has no legal move at all, NoMove and ErrNoLegalMoves.
func (s *Searcher) Search(ctx context.Context, pos *board.Board, side board.Color, lim Limits) (board.Move, error) {
	if lim.MoveTime <= 0 {
		lim.MoveTime = DefaultMoveTime
	}
	if lim.Plies <= 0 {
		lim.Plies = DefaultPlies
	}

	root := pos.Copy()
	candidates := root.LegalMoves(side)
	if len(candidates) == 0 {
		return board.NoMove, ErrNoLegalMoves
	}

	start := time.Now()
	deadline := start.Add(lim.MoveTime)
	scores := make(map[board.Move]int)
	rollouts := 0
	for time.Now().Before(deadline) && ctx.Err() == nil {
		first, total := s.rollout(root, side, lim.Plies)
		if first == board.NoMove {
			break
		}
		scores[first] += total
		rollouts++
	}

	best := board.NoMove
	bestScore := 0
	for m, total := range scores {
		if best == board.NoMove || total > bestScore {
			best, bestScore = m, total
		}
	}
	if best == board.NoMove {
		best = candidates[s.rng.Intn(len(candidates))]
	}
	if s.OnInfo != nil {
		s.OnInfo(Info{Rollouts: rollouts, Best: best, Score: bestScore, Elapsed: time.Since(start)})
	}
	return best, nil
}

// rollout plays up to maxPlies random legal moves on a fresh copy,
// alternating sides, stopping early when the mover is stuck. It returns
// the first move played and the sum of Evaluate after every ply.
func (s *Searcher) rollout(root *board.Board, side board.Color, maxPlies int) (board.Move, int) {
	sim := root.Copy()
	mover := side
	first := board.NoMove
	total := 0
	for ply := 0; ply < maxPlies; ply++ {
		moves := sim.LegalMoves(mover)
		if len(moves) == 0 {
			break
		}
		m := moves[s.rng.Intn(len(moves))]
		if ply == 0 {
			first = m
		}
		if _, err := sim.Apply(m); err != nil {
			break
		}
		total += Evaluate(sim)
		mover = mover.Other()
	}
	return first, total
}
