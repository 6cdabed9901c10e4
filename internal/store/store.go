package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// metaBucket holds store-internal state; its sequence is the global id generator.
const metaBucket = "__meta"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Options configures Open.
type Options struct {
	// FlushInterval is how often buffered commits are synced to disk.
	// Zero syncs every commit.
	FlushInterval time.Duration

	// CacheCapacity is the initial memory map size in bytes.
	CacheCapacity int

	// Logger receives flush failures from the background ticker.
	Logger *slog.Logger
}

// Store is the process-wide durable key-value store.
// Build it once at startup, share it with every component, and Close it
// during shutdown so buffered commits reach the disk.
type Store struct {
	db  *bbolt.DB
	log *slog.Logger

	mu         sync.Mutex
	partitions map[string]*Partition

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Open creates or opens the store at path.
//
// A failure here means the disk or configuration needs human attention;
// callers should not retry.
func Open(path string, opts Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{
		Timeout:         time.Second,
		InitialMmapSize: opts.CacheCapacity,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		db:         db,
		log:        logger,
		partitions: make(map[string]*Partition),
		done:       make(chan struct{}),
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create meta bucket: %w", err)
	}

	if opts.FlushInterval > 0 {
		// Commits skip fsync; the ticker and Flush make them durable.
		db.NoSync = true
		s.wg.Add(1)
		go s.flushLoop(opts.FlushInterval)
	}

	return s, nil
}

// Partition returns the named partition, creating it on first use.
// Calling it repeatedly with the same name returns the same partition.
func (s *Store) Partition(name string) (*Partition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.partitions[name]; ok {
		return p, nil
	}
	if name == metaBucket {
		return nil, fmt.Errorf("partition name %q is reserved", name)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("open partition %q: %w", name, err)
	}

	p := &Partition{db: s.db, name: []byte(name)}
	s.partitions[name] = p
	return p, nil
}

// NextID returns a new globally unique id. Ids increase monotonically,
// start at 1 and are never handed out twice, even across restarts.
// Safe for concurrent use.
func (s *Store) NextID() (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(metaBucket))
		if b == nil {
			return fmt.Errorf("meta bucket is missing")
		}
		var err error
		id, err = b.NextSequence()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("generate id: %w", err)
	}
	return id, nil
}

// Flush forces all committed writes to disk.
func (s *Store) Flush() error {
	if err := s.db.Sync(); err != nil {
		return fmt.Errorf("flush store: %w", err)
	}
	return nil
}

// Close stops the flush ticker, flushes, and closes the database.
// Safe to call more than once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()

		s.log.Debug("flushing store prior to shutdown", "path", s.db.Path())
		if err := s.Flush(); err != nil {
			s.closeErr = err
		}
		if err := s.db.Close(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("close store: %w", err)
		}
	})
	return s.closeErr
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) flushLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.db.Sync(); err != nil {
				s.log.Error("periodic store flush failed", "error", err)
			}
		}
	}
}
