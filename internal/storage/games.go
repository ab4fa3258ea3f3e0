package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Storage keys
const (
	prefixGame = "game/"
	keyStats   = "stats"
)

// GameRecord is a finished (or abandoned) game.
type GameRecord struct {
	ID         uuid.UUID `json:"id"`
	StartFEN   string    `json:"start_fen"`
	FinalFEN   string    `json:"final_fen"`
	Moves      []string  `json:"moves"`
	Result     string    `json:"result"`
	Method     string    `json:"method"`
	Depth      int       `json:"depth"`
	Evaluator  string    `json:"evaluator"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the game took.
func (g *GameRecord) Duration() time.Duration {
	return g.FinishedAt.Sub(g.StartedAt)
}

// GameStats stores aggregate statistics over recorded games
type GameStats struct {
	GamesPlayed   int           `json:"games_played"`
	WhiteWins     int           `json:"white_wins"`
	BlackWins     int           `json:"black_wins"`
	Draws         int           `json:"draws"`
	Unfinished    int           `json:"unfinished"`
	TotalPlies    int           `json:"total_plies"`
	TotalPlayTime time.Duration `json:"total_play_time"`
	LongestGame   int           `json:"longest_game"`
}

// WhiteScore returns White's score as a percentage (0-100), counting
// draws as half points.
func (s *GameStats) WhiteScore() float64 {
	decided := s.WhiteWins + s.BlackWins + s.Draws
	if decided == 0 {
		return 0
	}
	return (float64(s.WhiteWins) + float64(s.Draws)/2) / float64(decided) * 100
}

// AveragePlies returns the mean game length.
func (s *GameStats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

func (s *GameStats) add(g *GameRecord) {
	s.GamesPlayed++
	s.TotalPlies += len(g.Moves)
	s.TotalPlayTime += g.Duration()
	if len(g.Moves) > s.LongestGame {
		s.LongestGame = len(g.Moves)
	}
	switch g.Result {
	case "1-0":
		s.WhiteWins++
	case "0-1":
		s.BlackWins++
	case "1/2-1/2":
		s.Draws++
	default:
		s.Unfinished++
	}
}

// SaveGame stores a game record, assigning an ID when it has none.
func (s *Storage) SaveGame(g *GameRecord) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return writeJSON(txn, prefixGame+g.ID.String(), g)
	})
}

// RecordGame stores a game record and folds it into the statistics in a
// single transaction.
func (s *Storage) RecordGame(g *GameRecord) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		var stats GameStats
		if _, err := readJSON(txn, keyStats, &stats); err != nil {
			return err
		}
		stats.add(g)
		if err := writeJSON(txn, prefixGame+g.ID.String(), g); err != nil {
			return err
		}
		return writeJSON(txn, keyStats, &stats)
	})
	if err != nil {
		return fmt.Errorf("storage: record game %s: %w", g.ID, err)
	}
	s.log.Infow("game recorded", "id", g.ID, "result", g.Result, "plies", len(g.Moves))
	return nil
}

// LoadGame loads a game record by ID.
func (s *Storage) LoadGame(id uuid.UUID) (*GameRecord, error) {
	var g GameRecord
	found, err := s.getJSON(prefixGame+id.String(), &g)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: game %s", ErrNotFound, id)
	}
	return &g, nil
}

// ListGames returns all game records, oldest first.
func (s *Storage) ListGames() ([]*GameRecord, error) {
	var games []*GameRecord
	err := s.forEachPrefix(prefixGame, func(key string, val []byte) error {
		var g GameRecord
		if err := json.Unmarshal(val, &g); err != nil {
			return fmt.Errorf("%w: game %s: %v", ErrCorrupt, key, err)
		}
		games = append(games, &g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].FinishedAt.Before(games[j].FinishedAt)
	})
	return games, nil
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := &GameStats{}
	if _, err := s.getJSON(keyStats, stats); err != nil {
		return nil, err
	}
	return stats, nil
}
