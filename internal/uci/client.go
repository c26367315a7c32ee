// Package uci drives an external chess engine process over the Universal
// Chess Interface line protocol.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// responseGrace pads the read deadline past the engine's movetime.
	responseGrace = 2 * time.Second
	// quitTimeout bounds how long Quit waits before killing the process.
	quitTimeout = 2 * time.Second
)

// ErrEngineClosed reports that the engine closed its output stream.
var ErrEngineClosed = errors.New("engine closed its output stream")

// Client talks to one engine process. All exchanges are serialized; the
// engine answers exactly one command at a time.
type Client struct {
	cmd   *exec.Cmd
	in    io.Writer
	lines chan string
	done  chan struct{}
	log   *zap.Logger

	mu     sync.Mutex
	closed bool
	// stale counts bestmove replies still owed by abandoned exchanges, so
	// a late reply is never attributed to a newer query.
	stale int
}

// New spawns the engine binary at path ("stockfish" when empty, resolved on
// PATH) and wires its standard streams. Start must be called before any
// other exchange, and Quit must be called when done: it stops the process
// and releases the goroutine reading its output.
func New(path string, logger *zap.Logger) (*Client, error) {
	if path == "" {
		path = "stockfish"
	}
	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting engine %s: %w", path, err)
	}
	c := newClient(stdin, stdout, logger)
	c.cmd = cmd
	return c, nil
}

// newClient wires the protocol loop over explicit streams. Tests drive it
// with scripted transcripts instead of a live process.
func newClient(in io.Writer, out io.Reader, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		in:    in,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
		log:   logger,
	}
	go func() {
		defer close(c.lines)
		sc := bufio.NewScanner(out)
		for sc.Scan() {
			select {
			case c.lines <- sc.Text():
			case <-c.done:
				return
			}
		}
	}()
	return c
}

// Start performs the uci/uciok handshake, logs the engine's identity and
// waits for it to report ready.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send("uci"); err != nil {
		return err
	}
	var name string
	err := c.readUntil(ctx, func(line string) bool {
		if strings.HasPrefix(line, "id name ") {
			name = strings.TrimPrefix(line, "id name ")
		}
		return line == "uciok"
	})
	if err != nil {
		return fmt.Errorf("uci handshake: %w", err)
	}
	if name != "" {
		c.log.Info("engine identified", zap.String("name", name))
	}
	return c.ready(ctx)
}

// NewGame tells the engine to drop per-game state and re-synchronizes.
func (c *Client) NewGame(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send("ucinewgame"); err != nil {
		return err
	}
	return c.ready(ctx)
}

// SetOption sends a "setoption name <name> value <value>" command. The
// engine does not acknowledge options.
func (c *Client) SetOption(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(fmt.Sprintf("setoption name %s value %s", name, value))
}

// BestMove replays the game history from the start position, asks the
// engine to think for movetime and returns the move it settles on together
// with the last centipawn score it reported, in pawns. The token comes back
// verbatim; "0000" and "(none)" are the engine's no-move forms and are for
// the caller to map.
func (c *Client) BestMove(ctx context.Context, history []string, movetime time.Duration) (string, float64, error) {
	if movetime <= 0 {
		return "", 0, fmt.Errorf("movetime must be positive, got %v", movetime)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pos := "position startpos"
	if len(history) > 0 {
		pos += " moves " + strings.Join(history, " ")
	}
	if err := c.send(pos); err != nil {
		return "", 0, err
	}
	if err := c.send(fmt.Sprintf("go movetime %d", movetime.Milliseconds())); err != nil {
		return "", 0, err
	}

	// The engine owes a bestmove shortly after movetime elapses; the grace
	// period covers process scheduling and pipe latency.
	ctx, cancel := context.WithTimeout(ctx, movetime+responseGrace)
	defer cancel()

	var (
		best  string
		score float64
	)
	err := c.readUntil(ctx, func(line string) bool {
		f := strings.Fields(line)
		if len(f) == 0 {
			return false
		}
		switch f[0] {
		case "info":
			for i := 0; i < len(f)-2; i++ {
				if f[i] == "score" && f[i+1] == "cp" {
					if cp, err := strconv.Atoi(f[i+2]); err == nil {
						score = float64(cp) / 100.0
					}
				}
			}
		case "bestmove":
			if len(f) > 1 {
				best = f[1]
			}
			return true
		}
		return false
	})
	if err != nil {
		// The go command went out, so the engine still owes a bestmove;
		// mark it stale so a later exchange does not take it for its own.
		c.stale++
		return "", 0, fmt.Errorf("waiting for bestmove: %w", err)
	}
	c.log.Debug("engine move", zap.String("move", best), zap.Float64("score", score))
	return best, score, nil
}

// Quit asks the engine to exit and kills it if it lingers. It also stops
// the output reader; the client is unusable afterwards, and repeated calls
// are no-ops.
func (c *Client) Quit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	sendErr := c.send("quit")
	if c.cmd == nil {
		return sendErr
	}

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case err := <-done:
		if sendErr != nil {
			return sendErr
		}
		return err
	case <-time.After(quitTimeout):
		c.log.Warn("engine did not exit, killing process")
		if err := c.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("killing engine: %w", err)
		}
		<-done
		return nil
	}
}

// ready sends isready and blocks until readyok. Callers hold the mutex.
func (c *Client) ready(ctx context.Context) error {
	if err := c.send("isready"); err != nil {
		return err
	}
	err := c.readUntil(ctx, func(line string) bool { return line == "readyok" })
	if err != nil {
		return fmt.Errorf("isready: %w", err)
	}
	return nil
}

func (c *Client) send(cmd string) error {
	c.log.Debug("uci send", zap.String("command", cmd))
	if _, err := fmt.Fprintf(c.in, "%s\n", cmd); err != nil {
		return fmt.Errorf("writing %q to engine: %w", cmd, err)
	}
	return nil
}

// readUntil feeds engine output lines to stop until it reports the
// terminator was seen, the context expires or the stream closes. Bestmove
// lines owed to abandoned exchanges are discarded here, whichever exchange
// happens to receive them. Callers hold the mutex.
func (c *Client) readUntil(ctx context.Context, stop func(string) bool) error {
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return ErrEngineClosed
			}
			if c.stale > 0 && strings.HasPrefix(line, "bestmove") {
				c.stale--
				c.log.Debug("uci drop stale", zap.String("line", line))
				continue
			}
			c.log.Debug("uci recv", zap.String("line", line))
			if stop(line) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
