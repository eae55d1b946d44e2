package session_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/account"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
)

var (
	logger     = logsvc.NewDiscardLogger()
	errStorage = errors.New("storage unavailable")
)

// plainStorage is a Storage without batch support, able to fail on a given slot.
type plainStorage struct {
	mu      sync.Mutex
	values  map[string]string
	failSet string
	failGet bool
	writes  []string
}

func newPlainStorage() *plainStorage {
	return &plainStorage{values: map[string]string{}}
}

func (s *plainStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return "", false, errStorage
	}
	val, ok := s.values[key]
	return val, ok, nil
}

func (s *plainStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.failSet {
		return errStorage
	}
	s.values[key] = value
	s.writes = append(s.writes, key)
	return nil
}

func (s *plainStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *plainStorage) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func testAccount(role account.Role) account.Account {
	return account.Account{ID: "acc-1", Email: "someone@mahudhurio.test", Role: role, IsActive: true}
}

func testProfile(t *testing.T, role account.Role) account.Profile {
	t.Helper()
	prof, err := account.NewProfile(role, json.RawMessage(`{"name": "Daudi Kimaro", "employee_code": "EMP-001"}`))
	if err != nil {
		t.Fatalf("NewProfile() failed: %v", err)
	}
	return prof
}
