package cache

import (
	"crypto/md5"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gnolang/trs/internal/types"
)

const cacheFileName = "results.gob"

// Key identifies a search: the same input searched with the same rules and
// limits always produces the same report.
type Key struct {
	Input         string
	Fingerprint   string
	Depth         int
	Order         string
	MaxExpansions int
}

func (k Key) String() string {
	raw := strings.Join([]string{
		k.Input,
		k.Fingerprint,
		strconv.Itoa(k.Depth),
		k.Order,
		strconv.Itoa(k.MaxExpansions),
	}, "\x00")
	return fmt.Sprintf("%x", md5.Sum([]byte(raw)))
}

type Entry struct {
	Report       types.Report
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache is an on-disk store of search reports. It is safe for concurrent use.
type Cache struct {
	Dir     string
	entries map[string]Entry
	mutex   sync.RWMutex
	// maxAge of zero keeps entries forever.
	maxAge time.Duration
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		Dir:     dir,
		entries: make(map[string]Entry),
		logger:  logger,
	}

	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return c, nil
}

func (c *Cache) path() string {
	return filepath.Join(c.Dir, cacheFileName)
}

func (c *Cache) load() error {
	file, err := os.Open(c.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(&c.entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}
	c.logger.Debug("cache loaded", zap.String("dir", c.Dir), zap.Int("entries", len(c.entries)))
	return nil
}

// save must be called with the mutex held.
func (c *Cache) save() error {
	tmp, err := os.CreateTemp(c.Dir, cacheFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(c.entries); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return os.Rename(tmp.Name(), c.path())
}

func (c *Cache) Set(key Key, report types.Report) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	c.entries[key.String()] = Entry{
		Report:       report,
		CreatedAt:    now,
		LastAccessed: now,
	}

	return c.save()
}

func (c *Cache) Get(key Key) (types.Report, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	id := key.String()
	entry, exists := c.entries[id]
	if !exists {
		return types.Report{}, false
	}

	if c.isExpired(entry) {
		delete(c.entries, id)
		c.logger.Debug("cache entry expired", zap.String("input", key.Input))
		return types.Report{}, false
	}

	entry.LastAccessed = time.Now()
	c.entries[id] = entry

	return entry.Report, true
}

func (c *Cache) isExpired(entry Entry) bool {
	return c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge
}

func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

// Prune drops expired entries and persists the result.
func (c *Cache) Prune() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for id, entry := range c.entries {
		if c.isExpired(entry) {
			delete(c.entries, id)
		}
	}
	return c.save()
}

func (c *Cache) InvalidateAll() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]Entry)
	return c.save()
}
