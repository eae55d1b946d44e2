package devapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/mahudhurio/core/account"
)

var (
	// errors
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailExists     = errors.New("email already taken")
)

// NowFunc is mockable in tests.
var NowFunc = func() time.Time { return time.Now().UTC() }

type (
	// AccountRecord is an account as stored by the dev backend.
	AccountRecord struct {
		account.Account
		Profile      map[string]interface{}
		PasswordHash []byte
	}

	// Accounts is an in-memory account repository.
	Accounts struct {
		mutex sync.RWMutex
		table map[string]*AccountRecord
	}
)

func (rec *AccountRecord) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	rec.PasswordHash = hash
	return nil
}

func (rec AccountRecord) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(pwd))
}

func NewAccounts() *Accounts {
	return &Accounts{table: make(map[string]*AccountRecord)}
}

// Create adds an account with a new random ID.
func (repo *Accounts) Create(email, pwd string, role account.Role, profile map[string]interface{}, isActive bool) (AccountRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := NowFunc()
	rec := AccountRecord{
		Account: account.Account{
			ID:        uuid.New().String(),
			Email:     email,
			Role:      role,
			IsActive:  isActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Profile: profile,
	}
	if err := rec.Account.Validate(); err != nil {
		return AccountRecord{}, err
	}
	if err := rec.SetPassword(pwd); err != nil {
		return AccountRecord{}, err
	}

	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	for _, other := range repo.table {
		if other.Email == email {
			return AccountRecord{}, ErrEmailExists
		}
	}
	repo.table[rec.ID] = &rec
	return rec, nil
}

func (repo *Accounts) GetByID(id string) (AccountRecord, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if rec, ok := repo.table[id]; ok {
		return *rec, nil
	}
	return AccountRecord{}, ErrAccountNotFound
}

func (repo *Accounts) GetByEmail(email string) (AccountRecord, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, rec := range repo.table {
		if rec.Email == email {
			return *rec, nil
		}
	}
	return AccountRecord{}, ErrAccountNotFound
}

// QueryAll returns the accounts ordered by email.
func (repo *Accounts) QueryAll() []AccountRecord {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	recs := make([]AccountRecord, 0, len(repo.table))
	for _, rec := range repo.table {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Email < recs[j].Email })
	return recs
}
