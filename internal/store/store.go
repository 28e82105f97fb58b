// Package store persists the watchlist and cached genre tables in bbolt.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/cineverse/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// DBFile is the database file name inside the data dir
const DBFile = "cineverse.db"

// WatchlistKey is the key of the watchlist blob
const WatchlistKey = "cineverse_watchlist"

// Bucket names
var (
	bucketWatchlist = []byte("watchlist")
	bucketGenres    = []byte("genres")
)

// Store implements domain.WatchlistStorage and domain.GenreStore using BoltDB.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access).
	// In memory-only mode this is the only copy.
	cache map[string][]byte
}

// Open opens or creates the database in dataDir. An empty dataDir gives a
// memory-only store that is lost on exit.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, DBFile)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketWatchlist, bucketGenres} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

// Persistent reports whether writes survive a restart
func (s *Store) Persistent() bool {
	return s.db != nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

// getRaw returns a copy of the stored value, or nil when absent
func (s *Store) getRaw(bucket []byte, key string) []byte {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil
	}

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data
}

func (s *Store) get(bucket []byte, key string, dest any) bool {
	data := s.getRaw(bucket, key)
	if data == nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *Store) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Put([]byte(key), data)
		})
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", bucket, err)
		}
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()
	return nil
}

// clearBucket deletes every key in bucket
func (s *Store) clearBucket(bucket []byte) error {
	prefix := string(bucket) + ":"
	s.mu.Lock()
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		var keys [][]byte
		b.ForEach(func(k, _ []byte) error {
			keys = append(keys, append([]byte(nil), k...))
			return nil
		})
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Watchlist ===

// LoadWatchlist returns the persisted entries. A missing blob is (nil, nil);
// an unparseable blob is reported as domain.ErrInvalidFormat.
func (s *Store) LoadWatchlist() ([]domain.WatchlistEntry, error) {
	data := s.getRaw(bucketWatchlist, WatchlistKey)
	if data == nil {
		return nil, nil
	}
	var entries []domain.WatchlistEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	return entries, nil
}

// SaveWatchlist replaces the persisted blob
func (s *Store) SaveWatchlist(entries []domain.WatchlistEntry) error {
	if entries == nil {
		entries = []domain.WatchlistEntry{}
	}
	return s.set(bucketWatchlist, WatchlistKey, entries)
}

// === Genres ===

func (s *Store) GetGenres(kind domain.MediaKind) ([]domain.Genre, bool) {
	var genres []domain.Genre
	ok := s.get(bucketGenres, string(kind), &genres)
	return genres, ok && len(genres) > 0
}

func (s *Store) SaveGenres(kind domain.MediaKind, genres []domain.Genre) error {
	return s.set(bucketGenres, string(kind), genres)
}

// ClearGenres drops the cached genre tables
func (s *Store) ClearGenres() error {
	return s.clearBucket(bucketGenres)
}
