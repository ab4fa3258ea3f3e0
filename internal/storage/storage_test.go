package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"go.uber.org/zap/zaptest"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/engine"
	"github.com/hailam/chessplay-minimax/internal/eval"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory(zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func game(result string, plies int, finished time.Time) *GameRecord {
	g := &GameRecord{
		StartFEN:   board.StartFEN,
		Result:     result,
		Depth:      2,
		Evaluator:  "material",
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
	}
	for i := 0; i < plies; i++ {
		g.Moves = append(g.Moves, "e2e4")
	}
	return g
}

func TestGameRoundTrip(t *testing.T) {
	s := openTest(t)
	g := game("1-0", 3, time.Now().UTC().Truncate(time.Second))

	if err := s.SaveGame(g); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if g.ID == uuid.Nil {
		t.Fatal("SaveGame did not assign an ID")
	}

	got, err := s.LoadGame(g.ID)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if got.Result != "1-0" || len(got.Moves) != 3 || !got.FinishedAt.Equal(g.FinishedAt) {
		t.Errorf("Loaded %+v, want %+v", got, g)
	}

	if _, err := s.LoadGame(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRecordGameStats(t *testing.T) {
	s := openTest(t)
	base := time.Now()

	games := []*GameRecord{
		game("1-0", 40, base.Add(3*time.Hour)),
		game("0-1", 60, base.Add(1*time.Hour)),
		game("1/2-1/2", 100, base.Add(2*time.Hour)),
		game("1-0", 20, base.Add(4*time.Hour)),
	}
	for _, g := range games {
		if err := s.RecordGame(g); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 4 || stats.WhiteWins != 2 || stats.BlackWins != 1 || stats.Draws != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.TotalPlies != 220 || stats.LongestGame != 100 {
		t.Errorf("Plies %d longest %d", stats.TotalPlies, stats.LongestGame)
	}
	if got := stats.WhiteScore(); got != 62.5 {
		t.Errorf("Expected White score 62.5%%, got %.2f%%", got)
	}
	if stats.TotalPlayTime != 4*time.Minute {
		t.Errorf("Expected 4m play time, got %v", stats.TotalPlayTime)
	}

	list, err := s.ListGames()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 4 {
		t.Fatalf("Expected 4 games, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].FinishedAt.Before(list[i-1].FinishedAt) {
			t.Error("ListGames is not ordered by finish time")
		}
	}
}

func TestEmptyStats(t *testing.T) {
	stats, err := openTest(t).LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 0 || stats.WhiteScore() != 0 || stats.AveragePlies() != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTest(t)

	e, err := engine.New[*chess.Move](eval.NewMaterial())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	b := board.NewBoard()
	if _, _, err := e.BestMove(context.Background(), b, 2, e.NewHistory().Append(b.Encode())); err != nil {
		t.Fatal(err)
	}
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	if err := SaveSnapshot(s, snap, board.MoveCodec{}, "material"); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	loaded, err := LoadSnapshot[*chess.Move](s, board.MoveCodec{}, "material")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if len(loaded.Table) != len(snap.Table) || len(loaded.Moves) != len(snap.Moves) {
		t.Fatalf("Loaded %d/%d entries, saved %d/%d",
			len(loaded.Table), len(loaded.Moves), len(snap.Table), len(snap.Moves))
	}
	for k, v := range snap.Table {
		if loaded.Table[k] != v {
			t.Fatalf("Entry %s: got %v, want %v", k, loaded.Table[k], v)
		}
	}
	start := loaded.Moves[engine.Position(board.StartFEN)]
	if len(start) != 20 {
		t.Fatalf("Expected 20 stored moves for the start, got %d", len(start))
	}
	for i, m := range snap.Moves[engine.Position(board.StartFEN)] {
		if board.EncodeMove(m) != board.EncodeMove(start[i]) {
			t.Errorf("Move %d: got %s, want %s", i, start[i], m)
		}
	}

	// A second save replaces rather than merges
	if err := SaveSnapshot(s, engine.Snapshot[*chess.Move]{}, board.MoveCodec{}, "material"); err != nil {
		t.Fatal(err)
	}
	empty, err := LoadSnapshot[*chess.Move](s, board.MoveCodec{}, "material")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Table) != 0 || len(empty.Moves) != 0 {
		t.Errorf("Expected empty snapshot after overwrite, got %d/%d", len(empty.Table), len(empty.Moves))
	}
}

func TestSnapshotFingerprintMismatch(t *testing.T) {
	s := openTest(t)

	e, err := engine.New[*chess.Move](eval.NewMaterial())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	b := board.NewBoard()
	if _, _, err := e.BestMove(context.Background(), b, 2, e.NewHistory()); err != nil {
		t.Fatal(err)
	}
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if err := SaveSnapshot(s, snap, board.MoveCodec{}, "material"); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadSnapshot[*chess.Move](s, board.MoveCodec{}, "network")
	if !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("Expected ErrStaleSnapshot, got %v", err)
	}
	if len(loaded.Table) != 0 {
		t.Errorf("Stale table should be skipped, got %d entries", len(loaded.Table))
	}
	if len(loaded.Moves) != len(snap.Moves) {
		t.Errorf("Move lists should still load: got %d, want %d", len(loaded.Moves), len(snap.Moves))
	}

	if err := s.ClearSnapshot(); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot[*chess.Move](s, board.MoveCodec{}, "network"); err != nil {
		t.Errorf("Cleared snapshot should load without error, got %v", err)
	}
}

func TestOpenPersists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	g := game("0-1", 5, time.Now())
	if err := s.RecordGame(g); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir, nil)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.LoadGame(g.ID); err != nil {
		t.Errorf("Game lost after reopen: %v", err)
	}
}

func TestDataPaths(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG_DATA_HOME only applies on Unix-like systems")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if want := filepath.Join(base, appName, "db"); dbDir != want {
		t.Errorf("Expected %s, got %s", want, dbDir)
	}
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		t.Errorf("Database directory was not created: %s", dbDir)
	}
}
