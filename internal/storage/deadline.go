package storage

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DeadlineStorage provides in-memory storage for session deadlines by key.
type DeadlineStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewDeadlineStorage creates a new DeadlineStorage.
func NewDeadlineStorage() *DeadlineStorage {
	return &DeadlineStorage{
		values: make(map[string]string),
	}
}

// Get retrieves the value stored under key.
func (s *DeadlineStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set saves value under key.
func (s *DeadlineStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes key.
func (s *DeadlineStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// DeleteBySuffix removes every key ending with suffix.
func (s *DeadlineStorage) DeleteBySuffix(_ context.Context, suffix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.values {
		if strings.HasSuffix(k, suffix) {
			delete(s.values, k)
		}
	}
	return nil
}

// PurgeExpired removes deadlines that passed before the given time and values
// that are not millisecond timestamps.
func (s *DeadlineStorage) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := before.UnixMilli()
	var n int64
	for k, v := range s.values {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms < cutoff {
			delete(s.values, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored keys.
func (s *DeadlineStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
