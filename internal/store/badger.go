// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/models"
)

// Key layout:
//
//	marker:<id>                       -> JSON badgerRecord
//	seed:<hex seed>:<seq %020d>:<id>  -> <id>
//
// The seed is hex-encoded so a seed containing ':' cannot share a prefix
// with another seed. Zero-padded sequence numbers make key order equal
// creation order.
const (
	markerKeyPrefix = "marker:"
	seedKeyPrefix   = "seed:"
	sequenceKey     = "sequence:markers"

	sequenceBandwidth = 100
	gcDiscardRatio    = 0.5
)

type badgerRecord struct {
	ID    string `json:"id"`
	Seed  string `json:"seed"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label"`
	Color string `json:"color"`
	Type  string `json:"type"`
	Notes string `json:"notes"`
	Seq   uint64 `json:"seq"`
}

func (r *badgerRecord) marker() *models.Marker {
	return &models.Marker{
		ID: r.ID, Seed: r.Seed, X: r.X, Y: r.Y,
		Label: r.Label, Color: r.Color, Type: r.Type, Notes: r.Notes,
		Seq: r.Seq,
	}
}

func recordFromMarker(m *models.Marker) *badgerRecord {
	return &badgerRecord{
		ID: m.ID, Seed: m.Seed, X: m.X, Y: m.Y,
		Label: m.Label, Color: m.Color, Type: m.Type, Notes: m.Notes,
		Seq: m.Seq,
	}
}

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenBadgerStore opens (or creates) a BadgerDB directory at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return NewBadgerStore(db)
}

// NewBadgerStore wraps an open database. The store owns db from here on.
func NewBadgerStore(db *badger.DB) (*BadgerStore, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("acquire marker sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

func (s *BadgerStore) Name() string { return "badger" }

func seedPrefix(seed string) []byte {
	return []byte(seedKeyPrefix + hex.EncodeToString([]byte(seed)) + ":")
}

func seedIndexKey(seed string, seq uint64, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", seedPrefix(seed), seq, id))
}

func (s *BadgerStore) List(ctx context.Context, seed string) ([]models.Marker, error) {
	markers := make([]models.Marker, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := seedPrefix(seed)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			rec, err := getRecord(txn, id)
			if errors.Is(err, ErrNotFound) {
				logging.Warn().Str("marker_id", id).Str("seed", seed).Msg("Dangling seed index entry")
				continue
			}
			if err != nil {
				return err
			}
			markers = append(markers, *rec.marker())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	return markers, nil
}

func (s *BadgerStore) Create(ctx context.Context, seed string, in *models.MarkerInput) (*models.Marker, error) {
	seq, err := s.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("next marker sequence: %w", err)
	}

	m := in.ToMarker(newMarkerID(), seed)
	m.Seq = seq + 1

	data, err := json.Marshal(recordFromMarker(m))
	if err != nil {
		return nil, fmt.Errorf("marshal marker: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(markerKeyPrefix+m.ID), data); err != nil {
			return fmt.Errorf("set marker: %w", err)
		}
		if err := txn.Set(seedIndexKey(seed, m.Seq, m.ID), []byte(m.ID)); err != nil {
			return fmt.Errorf("set seed index: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *BadgerStore) Get(ctx context.Context, id string) (*models.Marker, error) {
	var rec *badgerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec.marker(), nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete([]byte(markerKeyPrefix + id)); err != nil {
			return fmt.Errorf("delete marker: %w", err)
		}
		if err := txn.Delete(seedIndexKey(rec.Seed, rec.Seq, id)); err != nil {
			return fmt.Errorf("delete seed index: %w", err)
		}
		return nil
	})
}

func getRecord(txn *badger.Txn, id string) (*badgerRecord, error) {
	item, err := txn.Get([]byte(markerKeyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get marker: %w", err)
	}

	var rec badgerRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal marker: %w", err)
	}
	return &rec, nil
}

func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errStoreClosed
	}
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// Maintain runs value-log garbage collection until there is nothing left
// to rewrite or ctx is done.
func (s *BadgerStore) Maintain(ctx context.Context) error {
	rewrites := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return fmt.Errorf("value log gc: %w", err)
		}
		rewrites++
	}
	if rewrites > 0 {
		logging.Debug().Int("rewrites", rewrites).Msg("Badger value log GC completed")
	}
	return nil
}

func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("Failed to release marker sequence")
	}
	return s.db.Close()
}
