package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/hailam/chessplay-minimax/internal/engine"
)

// Snapshot keys
const (
	prefixTable    = "tt/"
	prefixMoves    = "moves/"
	keyFingerprint = "snapshot/fingerprint"
)

// ErrStaleSnapshot means the stored table was computed by a different
// evaluator setup.
var ErrStaleSnapshot = errors.New("storage: snapshot from a different evaluator")

// MoveCodec converts moves to text relative to the position they belong to.
type MoveCodec[M any] interface {
	EncodeMove(m M) string
	DecodeMove(fen, s string) (M, error)
}

// SaveSnapshot replaces the stored cache snapshot with snap. fingerprint
// identifies the evaluator setup that produced the table scores.
func SaveSnapshot[M any](s *Storage, snap engine.Snapshot[M], codec MoveCodec[M], fingerprint string) error {
	if err := s.ClearSnapshot(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	fp, err := json.Marshal(fingerprint)
	if err != nil {
		return fmt.Errorf("storage: encode fingerprint: %w", err)
	}
	if err := wb.Set([]byte(keyFingerprint), fp); err != nil {
		return fmt.Errorf("storage: write fingerprint: %w", err)
	}
	for k, score := range snap.Table {
		data, err := json.Marshal(score)
		if err != nil {
			return fmt.Errorf("storage: encode score for %s: %w", k, err)
		}
		if err := wb.Set([]byte(prefixTable+k.String()), data); err != nil {
			return fmt.Errorf("storage: write table entry: %w", err)
		}
	}
	for pos, moves := range snap.Moves {
		text := make([]string, len(moves))
		for i, m := range moves {
			text[i] = codec.EncodeMove(m)
		}
		data, err := json.Marshal(text)
		if err != nil {
			return fmt.Errorf("storage: encode moves for %s: %w", pos, err)
		}
		if err := wb.Set([]byte(prefixMoves+string(pos)), data); err != nil {
			return fmt.Errorf("storage: write move list: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("storage: flush snapshot: %w", err)
	}

	s.log.Infow("snapshot saved",
		"table", humanize.Comma(int64(len(snap.Table))),
		"positions", humanize.Comma(int64(len(snap.Moves))),
	)
	return nil
}

// LoadSnapshot reads the stored cache snapshot. An empty database yields
// an empty snapshot. When the stored fingerprint differs from fingerprint
// the table is skipped and ErrStaleSnapshot is returned together with the
// move lists, which do not depend on the evaluator.
func LoadSnapshot[M any](s *Storage, codec MoveCodec[M], fingerprint string) (engine.Snapshot[M], error) {
	snap := engine.Snapshot[M]{
		Table: make(map[engine.SearchKey]engine.Score),
		Moves: make(map[engine.Position][]M),
	}

	var stored string
	found, err := s.getJSON(keyFingerprint, &stored)
	if err != nil {
		return engine.Snapshot[M]{}, err
	}
	stale := found && stored != fingerprint

	err = s.forEachPrefix(prefixMoves, func(fen string, val []byte) error {
		var text []string
		if err := json.Unmarshal(val, &text); err != nil {
			return fmt.Errorf("%w: move list %s: %v", ErrCorrupt, fen, err)
		}
		moves := make([]M, len(text))
		for i, t := range text {
			m, err := codec.DecodeMove(fen, t)
			if err != nil {
				return fmt.Errorf("%w: move list %s: %v", ErrCorrupt, fen, err)
			}
			moves[i] = m
		}
		snap.Moves[engine.Position(fen)] = moves
		return nil
	})
	if err != nil {
		return engine.Snapshot[M]{}, err
	}
	if stale {
		s.log.Warnw("snapshot table skipped", "stored", stored, "want", fingerprint)
		return snap, fmt.Errorf("%w: stored %q, want %q", ErrStaleSnapshot, stored, fingerprint)
	}

	err = s.forEachPrefix(prefixTable, func(key string, val []byte) error {
		k, err := engine.ParseSearchKey(key)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		var score engine.Score
		if err := json.Unmarshal(val, &score); err != nil {
			return fmt.Errorf("%w: table entry %s: %v", ErrCorrupt, key, err)
		}
		snap.Table[k] = score
		return nil
	})
	if err != nil {
		return engine.Snapshot[M]{}, err
	}

	s.log.Infow("snapshot loaded",
		"table", humanize.Comma(int64(len(snap.Table))),
		"positions", humanize.Comma(int64(len(snap.Moves))),
	)
	return snap, nil
}

// ClearSnapshot deletes the stored cache snapshot.
func (s *Storage) ClearSnapshot() error {
	if err := s.db.DropPrefix([]byte(prefixTable), []byte(prefixMoves), []byte(keyFingerprint)); err != nil {
		return fmt.Errorf("storage: clear snapshot: %w", err)
	}
	return nil
}
