// Package storage is the durable per-profile state store, the
// equivalent of the browser profile the original client persisted into.
// Each logical value lives under one canonical key. Persistence is
// best-effort: an unavailable or corrupted store degrades to empty
// in-memory state and is never fatal to the application.
package storage

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Canonical keys. KeyLegacyToken is read once at session restore and
// then deleted; it is never written to.
const (
	KeyCart        = "cart"
	KeySession     = "session"
	KeyLegacyToken = "access_token"
)

// Store is a small key/value contract over the durable state. Get never
// fails loudly: a missing or unreadable value reports ok=false and the
// caller treats it as "no state".
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

type record struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (record) TableName() string { return "client_state" }

// SQLiteStore keeps the state in a single SQLite file. Concurrent
// processes sharing the file are last-write-wins; that limitation is
// accepted, not guaranteed against.
type SQLiteStore struct {
	db  *gorm.DB
	log *slog.Logger
}

func Open(path string, log *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("storage path is empty")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db, log: log}, nil
}

// OpenOrFallback opens the SQLite store and, when that fails, logs and
// returns an in-memory store so the application still starts.
func OpenOrFallback(path string, log *slog.Logger) Store {
	store, err := Open(path, log)
	if err != nil {
		log.Warn("durable storage unavailable, falling back to in-memory state",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return NewMemory()
	}

	return store
}

func (s *SQLiteStore) Get(key string) (string, bool) {
	var rec record

	err := s.db.First(&rec, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("state read failed", slog.String("key", key), slog.String("error", err.Error()))
		}

		return "", false
	}

	return rec.Value, true
}

func (s *SQLiteStore) Set(key, value string) error {
	return s.db.Save(&record{Key: key, Value: value}).Error
}

func (s *SQLiteStore) Delete(key string) error {
	return s.db.Delete(&record{}, "key = ?", key).Error
}

// MemoryStore backs tests and the degraded no-disk mode.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]

	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value

	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)

	return nil
}
