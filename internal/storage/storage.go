package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"montechess/internal/game"
)

// Storage keys
const (
	keyStats    = "stats"
	prefixMatch = "match:"
)

// ErrClosed reports use of a store after Close.
var ErrClosed = errors.New("store is closed")

// Stats aggregates results across every recorded match.
type Stats struct {
	GamesPlayed int            `json:"games_played"`
	WhiteWins   int            `json:"white_wins"`
	BlackWins   int            `json:"black_wins"`
	Draws       int            `json:"draws"`
	WinsByName  map[string]int `json:"wins_by_player"`
	TotalPlies  int            `json:"total_plies"`
	LongestGame int            `json:"longest_game"`
}

// NewStats returns empty statistics
func NewStats() *Stats {
	return &Stats{
		WinsByName: make(map[string]int),
	}
}

// WinRate returns the named player's win rate as a percentage (0-100)
func (s *Stats) WinRate(player string) float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.WinsByName[player]) / float64(s.GamesPlayed) * 100
}

// AveragePlies returns the mean game length in plies
func (s *Stats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

func (s *Stats) add(rec game.MatchRecord) {
	s.GamesPlayed++
	s.TotalPlies += len(rec.Moves)
	if len(rec.Moves) > s.LongestGame {
		s.LongestGame = len(rec.Moves)
	}

	switch rec.Outcome {
	case game.WhiteWon:
		s.WhiteWins++
		s.WinsByName[rec.White]++
	case game.BlackWon:
		s.BlackWins++
		s.WinsByName[rec.Black]++
	case game.Draw:
		s.Draws++
	}
}

// Store wraps BadgerDB for persistent match storage
type Store struct {
	db *badger.DB
}

var _ game.Recorder = (*Store)(nil)

// Open opens the match database at dir, falling back to the default
// data directory when dir is empty.
func Open(dir string) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Further use of the store returns ErrClosed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Match keys embed the start time zero-padded so that byte order is
// chronological order.
func matchKey(rec game.MatchRecord) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixMatch, rec.Started.UnixNano(), rec.ID))
}

// SaveMatch persists a finished match and folds it into the aggregate
// statistics within the same transaction.
func (s *Store) SaveMatch(rec game.MatchRecord) error {
	if s.db == nil {
		return ErrClosed
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(matchKey(rec), data); err != nil {
			return err
		}

		stats, err := readStats(txn)
		if err != nil {
			return err
		}
		stats.add(rec)

		out, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), out)
	})
}

// LoadStats loads aggregate statistics, returns empty stats if none recorded
func (s *Store) LoadStats() (*Stats, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	var stats *Stats

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = readStats(txn)
		return err
	})

	return stats, err
}

func readStats(txn *badger.Txn) (*Stats, error) {
	stats := NewStats()

	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RecentMatches returns up to limit match records, newest first. A
// non-positive limit uses a default of 20.
func (s *Store) RecentMatches(limit int) ([]game.MatchRecord, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	var recs []game.MatchRecord
	prefix := []byte(prefixMatch)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the last possible match key, then walk backwards.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(recs) < limit; it.Next() {
			var rec game.MatchRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})

	return recs, err
}
