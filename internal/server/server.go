// Package server exposes the live match over HTTP and websockets so
// external renderers can follow and drive games.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"montechess/internal/board"
	"montechess/internal/game"
	"montechess/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// MatchSource reads recorded matches and aggregate statistics.
type MatchSource interface {
	LoadStats() (*storage.Stats, error)
	RecentMatches(limit int) ([]game.MatchRecord, error)
}

// statePayload is the wire form of the live session, pushed over the
// websocket and served from /api/state.
type statePayload struct {
	Board   board.Snapshot `json:"board"`
	Turn    string         `json:"turn"`
	History []string       `json:"history"`
	Plies   int            `json:"plies"`
	Outcome string         `json:"outcome"`
	Method  string         `json:"method"`
	FEN     string         `json:"fen"`
}

type apiMove struct {
	Move string `json:"move"`
}

// Server serves the REST endpoints and the websocket feed for one session.
type Server struct {
	session *game.Session
	matches MatchSource
	hub     *Hub
	log     *zap.Logger
	http    *http.Server
}

// New wires a server for the session. matches may be nil when storage
// is disabled; the match endpoints then report that.
func New(addr string, session *game.Session, matches MatchSource, logger *zap.Logger) (*Server, error) {
	if addr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		session: session,
		matches: matches,
		hub:     NewHub(),
		log:     logger,
	}
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}

	// Every applied move, whichever player made it, reaches the feed.
	session.OnMove(func(game.Event) {
		s.hub.Broadcast(s.state())
	})

	return s, nil
}

// Handler returns the HTTP handler, wired for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.state())
	})

	r.Post("/api/move", s.handleMove)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/matches", s.handleMatches)

	r.Get("/ws", s.serveWS)

	return r
}

// Start runs the hub and the HTTP listener until ctx is cancelled, then
// shuts the listener down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx.Done())

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.Info("server listening", zap.String("addr", s.http.Addr))

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("graceful shutdown failed", zap.Error(err))
		return s.http.Close()
	}
	return nil
}

func (s *Server) state() statePayload {
	outcome, method := s.session.Outcome()
	history := s.session.History()
	return statePayload{
		Board:   s.session.Snapshot(),
		Turn:    s.session.Turn().String(),
		History: history,
		Plies:   len(history),
		Outcome: string(outcome),
		Method:  method.String(),
		FEN:     s.session.FEN(),
	}
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var payload apiMove
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := s.session.MakeMoveText(payload.Move); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.matches == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "storage disabled"})
		return
	}
	stats, err := s.matches.LoadStats()
	if err != nil {
		s.log.Error("loading stats failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if s.matches == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "storage disabled"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	recs, err := s.matches.RecentMatches(limit)
	if err != nil {
		s.log.Error("loading matches failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "matches unavailable"})
		return
	}
	if recs == nil {
		recs = []game.MatchRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: s.hub, send: make(chan []byte, 16)}
	s.hub.Register(client)

	client.sendJSON(wsMessage{Type: "state", Payload: mustMarshal(s.state())})

	go func() {
		defer conn.Close()
		if err := writeWithHeartbeat(conn, client.send); err != nil {
			return
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_state":
			client.sendJSON(wsMessage{Type: "state", Payload: mustMarshal(s.state())})
		}
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
