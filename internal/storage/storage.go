// Package storage persists finished matches in a BadgerDB key-value store
// so completed games survive server restarts and can be listed later.
package storage

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

const matchPrefix = "match:"

// ErrNotFound is returned when the requested match id has no record.
var ErrNotFound = errors.New("match not found")

// MatchRecord is the archived form of one finished game. ID is unique per
// record; GameID groups the games of one pairing, which rematches reuse.
type MatchRecord struct {
	ID        string         `json:"id"`
	GameID    string         `json:"game_id"`
	Red       string         `json:"red"`
	Black     string         `json:"black"`
	Winner    string         `json:"winner,omitempty"`
	Reason    string         `json:"reason"`
	Moves     []xiangqi.Move `json:"moves"`
	FinalFEN  string         `json:"final_fen"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
}

// Store wraps BadgerDB for match archival.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the archive database in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func matchKey(id string) []byte {
	return []byte(matchPrefix + id)
}

// SaveMatch writes one finished match, overwriting any record with the
// same id.
func (s *Store) SaveMatch(rec MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(matchKey(rec.ID), data)
	})
}

// GetMatch loads one match by id.
func (s *Store) GetMatch(id string) (MatchRecord, error) {
	var rec MatchRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(matchKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})

	return rec, err
}

// ListMatches returns archived matches, most recently finished first.
// A limit of zero or less returns everything.
func (s *Store) ListMatches(limit int) ([]MatchRecord, error) {
	var recs []MatchRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(matchPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec MatchRecord
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
	if err != nil {
		return nil, err
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].EndedAt.After(recs[j].EndedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
