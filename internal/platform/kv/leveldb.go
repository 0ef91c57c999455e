// Package kv wraps an embedded LevelDB database shared by the LevelDB
// repositories. Each component owns a disjoint key prefix; multi-key
// mutations are applied through a single leveldb.Batch so they are atomic.
package kv

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
)

type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMem opens a database backed by memory, for tests and ephemeral runs.
func OpenMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open in-memory leveldb: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value under key or apperr.ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("key %s: %w", key, apperr.ErrNotFound)
	}
	return v, err
}

func (s *Store) Has(key string) (bool, error) {
	return s.db.Has([]byte(key), nil)
}

// GetJSON decodes the JSON value under key into v.
func (s *Store) GetJSON(key string, v interface{}) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Write applies b atomically.
func (s *Store) Write(b *leveldb.Batch) error {
	return s.db.Write(b, nil)
}

// Scan calls fn for every key with the given prefix in key order. Keys and
// values passed to fn are only valid for the duration of the call.
func (s *Store) Scan(prefix string, fn func(key, value []byte) error) error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Counter returns the uint64 stored under key, or 0 when absent.
func (s *Store) Counter(key string) (uint64, error) {
	raw, err := s.Get(key)
	if errors.Is(err, apperr.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("counter %s: corrupt value of %d bytes", key, len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// PutCounter stages n under key.
func PutCounter(b *leveldb.Batch, key string, n uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	b.Put([]byte(key), buf[:])
}

// PutJSON stages the JSON encoding of v under key.
func PutJSON(b *leveldb.Batch, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	b.Put([]byte(key), raw)
	return nil
}

// SeqKey renders a sequence number so lexical key order equals numeric order.
func SeqKey(prefix string, n uint64) string {
	return fmt.Sprintf("%s%020d", prefix, n)
}

// Key segments are terminated by \x00. Ids may contain any byte, so \x00 and
// the escape byte \x01 are escaped inside a segment; an escaped id never
// contains the terminator and one id's segment is never a prefix of another's.
var (
	segEscaper   = strings.NewReplacer("\x01", "\x01\x02", "\x00", "\x01\x01")
	segUnescaper = strings.NewReplacer("\x01\x02", "\x01", "\x01\x01", "\x00")
)

// Escape encodes id for use inside a key.
func Escape(id string) string { return segEscaper.Replace(id) }

// Unescape reverses Escape.
func Unescape(s string) string { return segUnescaper.Replace(s) }

// Segment is the escaped id followed by the \x00 terminator.
func Segment(id string) string { return Escape(id) + "\x00" }
