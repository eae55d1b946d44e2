package session

import (
	"context"
	"sync"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
)

// Source tells where the credentials of a Session came from.
type Source string

const (
	SourceLogin   Source = "login"
	SourceStorage Source = "storage"
)

// Session is a snapshot of the authenticated state.
type Session struct {
	Account       *account.Account
	Profile       *account.Profile
	Token         string
	Authenticated bool // Account != nil && Token != ""
	Loading       bool // a login request is in flight
	Source        Source
}

// Role returns the role of the session account, "" when logged out.
func (s Session) Role() account.Role {
	if s.Account == nil {
		return ""
	}
	return s.Account.Role
}

// Store is the single owner of the process-wide Session.
// Other components read snapshots through Session and mutate it through the narrow API below.
type Store struct {
	mu     sync.RWMutex
	state  Session
	record *Record
	logger core.Logger
}

func NewStore(record *Record, logger core.Logger) *Store {
	return &Store{record: record, logger: logger}
}

// Session returns a copy of the current state; it never fails.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.state
	if s.state.Account != nil {
		acc := *s.state.Account
		sess.Account = &acc
	}
	if s.state.Profile != nil {
		prof := account.Profile{Role: s.state.Profile.Role, Fields: make(map[string]interface{}, len(s.state.Profile.Fields))}
		for k, v := range s.state.Profile.Fields {
			prof.Fields[k] = v
		}
		sess.Profile = &prof
	}
	return sess
}

// Token returns the current bearer token, "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// SetCredentials replaces the session after a fresh login. Persisting the Record is the caller's job.
func (s *Store) SetCredentials(acc account.Account, prof account.Profile, token string) {
	s.set(acc, prof, token, SourceLogin)
}

// Hydrate replaces the session with credentials replayed from the Record.
func (s *Store) Hydrate(acc account.Account, prof account.Profile, token string) {
	s.set(acc, prof, token, SourceStorage)
}

func (s *Store) set(acc account.Account, prof account.Profile, token string, src Source) {
	s.mu.Lock()
	s.state = Session{
		Account:       &acc,
		Profile:       &prof,
		Token:         token,
		Authenticated: token != "",
		Source:        src,
	}
	s.mu.Unlock()

	s.logger.Info("session established", map[string]interface{}{"source": string(src), "role": string(acc.Role)}, acc)
}

// SetLoading only flips the transient loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = loading
}

// Logout empties the session and clears the durable Record. It is safe to call when already logged out.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	wasAuthed := s.state.Authenticated
	s.state = Session{}
	s.mu.Unlock()

	if s.record != nil {
		if err := s.record.Clear(ctx); err != nil {
			s.logger.Error("clearing session record", err)
		}
	}
	if wasAuthed {
		s.logger.Info("session cleared")
	}
}
