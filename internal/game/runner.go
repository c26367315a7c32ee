package game

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"montechess/internal/board"
)

// MatchRecord is the durable summary of one finished game.
type MatchRecord struct {
	ID      string    `json:"id"`
	White   string    `json:"white"`
	Black   string    `json:"black"`
	Moves   []string  `json:"moves"`
	Outcome Outcome   `json:"outcome"`
	Method  string    `json:"method"`
	Started time.Time `json:"started"`
	Ended   time.Time `json:"ended"`
}

// Recorder persists finished matches.
type Recorder interface {
	SaveMatch(rec MatchRecord) error
}

// evaluator is the optional player upgrade the runner uses for score
// fields in move logs.
type evaluator interface {
	Evaluation() float64
}

// Runner plays complete games between two players on one session and
// records each finished game.
type Runner struct {
	session *Session
	white   Player
	black   Player
	rec     Recorder
	log     *zap.Logger
}

// NewRunner wires a runner. rec may be nil to skip persistence; a nil
// logger is replaced with a no-op one.
func NewRunner(session *Session, white, black Player, rec Recorder, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{session: session, white: white, black: black, rec: rec, log: logger}
}

// Run plays games back to back, resetting the session between them.
// games <= 0 keeps playing until the context ends.
func (r *Runner) Run(ctx context.Context, games int) error {
	for played := 0; games <= 0 || played < games; played++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.playGame(ctx, played+1)
		if err != nil {
			return err
		}
		r.log.Info("game finished",
			zap.Int("game", played+1),
			zap.String("id", rec.ID),
			zap.String("outcome", string(rec.Outcome)),
			zap.String("method", rec.Method),
			zap.Int("plies", len(rec.Moves)),
		)
		if r.rec != nil {
			if err := r.rec.SaveMatch(rec); err != nil {
				r.log.Warn("failed to record match", zap.Error(err), zap.String("id", rec.ID))
			}
		}
	}
	return nil
}

// playGame resets the session and alternates players until the outcome is
// terminal, a player runs out of moves, or the context ends.
func (r *Runner) playGame(ctx context.Context, number int) (MatchRecord, error) {
	r.session.Reset()
	rec := MatchRecord{
		ID:      uuid.NewString(),
		White:   r.white.Name(),
		Black:   r.black.Name(),
		Started: time.Now(),
	}

	for {
		if outcome, _ := r.session.Outcome(); outcome != NoOutcome {
			break
		}
		player := r.black
		if r.session.Turn() == board.White {
			player = r.white
		}
		move, err := r.playOne(ctx, player)
		if errors.Is(err, ErrNoMove) {
			break
		}
		if err != nil {
			return rec, err
		}

		fields := []zap.Field{
			zap.Int("game", number),
			zap.Int("ply", len(r.session.History())),
			zap.String("player", player.Name()),
			zap.String("move", move),
		}
		if ev, ok := player.(evaluator); ok {
			fields = append(fields, zap.Float64("eval", ev.Evaluation()))
		}
		r.log.Info("move played", fields...)
	}

	outcome, method := r.session.Outcome()
	rec.Moves = r.session.History()
	rec.Outcome = outcome
	rec.Method = method.String()
	rec.Ended = time.Now()
	return rec, nil
}

type playResult struct {
	move string
	err  error
}

// playOne runs the player's turn on a worker goroutine so a cancelled
// context interrupts the wait even mid-think.
func (r *Runner) playOne(ctx context.Context, p Player) (string, error) {
	done := make(chan playResult, 1)
	go func() {
		move, err := p.Play(ctx, r.session)
		done <- playResult{move: move, err: err}
	}()
	select {
	case res := <-done:
		return res.move, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
