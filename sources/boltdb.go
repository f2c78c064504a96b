package sources

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocolly/colly/v2/storage"
	bolt "go.etcd.io/bbolt"
)

// BoltStorage owns the bbolt database that backs colly collectors.
// Each source keeps its visit marks and cookies in its own bucket,
// handed out through ForSource, so state never bleeds between sites.
type BoltStorage struct {
	DBPath string
	db     *bolt.DB
	mu     sync.RWMutex
}

// Init opens the database.
func (s *BoltStorage) Init() error {
	if s.db != nil {
		return nil
	}

	dbDir := filepath.Dir(s.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for bolt storage: %w", err)
	}

	db, err := bolt.Open(s.DBPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to open bolt storage: %w", err)
	}

	s.db = db
	return nil
}

// ForSource returns a storage view scoped to the named source's bucket.
func (s *BoltStorage) ForSource(name string) storage.Storage {
	return &sourceStorage{parent: s, bucket: []byte("source:" + name)}
}

// Close closes the underlying database
func (s *BoltStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// sourceStorage is one source's slice of the shared bolt database.
type sourceStorage struct {
	parent *BoltStorage
	bucket []byte
}

// Init creates the source's bucket. The parent must already be open.
func (s *sourceStorage) Init() error {
	if s.parent.db == nil {
		return fmt.Errorf("bolt storage not initialized")
	}
	return s.parent.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
}

// Visited implements storage.Storage
func (s *sourceStorage) Visited(requestID uint64) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	return s.parent.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		key := []byte(fmt.Sprintf("v:%d", requestID))
		return b.Put(key, []byte("1"))
	})
}

// IsVisited implements storage.Storage
func (s *sourceStorage) IsVisited(requestID uint64) (bool, error) {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()

	var visited bool
	err := s.parent.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		key := []byte(fmt.Sprintf("v:%d", requestID))
		visited = b.Get(key) != nil
		return nil
	})
	return visited, err
}

// Cookies implements storage.Storage
func (s *sourceStorage) Cookies(u *url.URL) string {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()

	var cookies string
	s.parent.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		key := []byte(fmt.Sprintf("c:%s", u))
		if v := b.Get(key); v != nil {
			cookies = string(v)
		}
		return nil
	})
	return cookies
}

// SetCookies implements storage.Storage
func (s *sourceStorage) SetCookies(u *url.URL, cookies string) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	s.parent.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		key := []byte(fmt.Sprintf("c:%s", u))
		return b.Put(key, []byte(cookies))
	})
}

var _ storage.Storage = (*sourceStorage)(nil)
