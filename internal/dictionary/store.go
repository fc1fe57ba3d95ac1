package dictionary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// Store provides the cached dictionary: memory first, disk second, live
// generation last. Generation walks the whole schema and profiles every
// column, so repeated sessions read the cached artifact instead.
type Store struct {
	inspector *Inspector
	memory    *gocache.Cache
	dir       string
	memoryTTL time.Duration
	diskTTL   time.Duration
	enabled   bool
}

// NewStore creates a Store over an inspector and the cache policy.
func NewStore(inspector *Inspector, cfg model.CacheConfig) *Store {
	memTTL := cfg.MemoryTTL
	if memTTL <= 0 {
		memTTL = 15 * time.Minute
	}
	diskTTL := cfg.DiskTTL
	if diskTTL <= 0 {
		diskTTL = 24 * time.Hour
	}
	return &Store{
		inspector: inspector,
		memory:    gocache.New(memTTL, 10*time.Minute),
		dir:       cfg.Dir,
		memoryTTL: memTTL,
		diskTTL:   diskTTL,
		enabled:   cfg.Enabled,
	}
}

// Get returns the dictionary, generating and caching it on first use.
func (s *Store) Get(ctx context.Context) (*Dictionary, error) {
	key := storeKey()

	if s.enabled {
		if v, found := s.memory.Get(key); found {
			return v.(*Dictionary), nil
		}
		if d, ok := s.readDisk(key); ok {
			s.memory.Set(key, d, s.memoryTTL)
			return d, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh regenerates the dictionary from the live database and replaces the
// cached copies.
func (s *Store) Refresh(ctx context.Context) (*Dictionary, error) {
	d, err := s.inspector.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate dictionary: %w", err)
	}
	if s.enabled {
		key := storeKey()
		s.memory.Set(key, d, s.memoryTTL)
		// Disk persistence is best effort; the in-memory copy still serves.
		_ = s.writeDisk(key, d)
	}
	return d, nil
}

// Invalidate drops the cached dictionary from both layers.
func (s *Store) Invalidate() {
	key := storeKey()
	s.memory.Delete(key)
	if s.dir != "" {
		_ = os.Remove(s.path(key))
	}
}

type diskEntry struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (s *Store) readDisk(key string) (*Dictionary, bool) {
	if s.dir == "" {
		return nil, false
	}
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	var entry diskEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(s.path(key))
		return nil, false
	}
	d, err := Load(entry.Data)
	if err != nil {
		return nil, false
	}
	return d, true
}

func (s *Store) writeDisk(key string, d *Dictionary) error {
	if s.dir == "" {
		return nil
	}
	data, err := d.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal dictionary: %w", err)
	}
	entry := diskEntry{Data: data, ExpiresAt: time.Now().Add(s.diskTTL)}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(s.path(key), raw, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func storeKey() string {
	hash := sha256.Sum256([]byte(databaseName + ":dictionary:v1"))
	return "hdx:" + hex.EncodeToString(hash[:8])
}
