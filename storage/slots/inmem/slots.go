package inmemslots

import (
	"context"
	"sync"

	"github.com/trezcool/mahudhurio/core/session"
)

// Slots keeps the session slots in memory; nothing survives a restart.
type Slots struct {
	mutex sync.RWMutex
	table map[string]string
}

var _ session.BatchStorage = (*Slots)(nil)

func New() *Slots {
	return &Slots{table: make(map[string]string)}
}

func (s *Slots) Get(_ context.Context, key string) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	val, ok := s.table[key]
	return val, ok, nil
}

func (s *Slots) Set(_ context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.table[key] = value
	return nil
}

func (s *Slots) Remove(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.table, key)
	return nil
}

func (s *Slots) SetMany(_ context.Context, values map[string]string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for key, val := range values {
		s.table[key] = val
	}
	return nil
}

func (s *Slots) RemoveMany(_ context.Context, keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, key := range keys {
		delete(s.table, key)
	}
	return nil
}

// Len returns the number of slots set.
func (s *Slots) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.table)
}
