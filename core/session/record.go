package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/account"
)

// Durable slots
const (
	TokenSlot   = "token"
	AccountSlot = "user"
	ProfileSlot = "profile"
)

// Slots lists the three durable slots of a session record.
var Slots = []string{TokenSlot, AccountSlot, ProfileSlot}

var (
	// errors
	ErrRecordEmpty   = errors.New("no session record")
	ErrRecordCorrupt = errors.New("corrupt session record")
)

type (
	// Storage is a durable, client-side key/value storage of string slots.
	Storage interface {
		// Get returns ok == false (and no error) when the slot is missing.
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
		// Remove does not fail on missing slots.
		Remove(ctx context.Context, key string) error
	}

	// BatchStorage is implemented by storages able to write or remove several slots at once.
	BatchStorage interface {
		Storage
		SetMany(ctx context.Context, values map[string]string) error
		RemoveMany(ctx context.Context, keys ...string) error
	}

	// Record is the durable mirror of an authenticated Session: token, serialized account & serialized profile.
	// The three slots are written together and cleared together.
	Record struct {
		storage Storage
		codec   Codec
	}
)

func NewRecord(storage Storage, codec Codec) *Record {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Record{storage: storage, codec: codec}
}

// Save writes the three slots. On failure every slot is cleared again so that no partial record survives.
func (r *Record) Save(ctx context.Context, acc account.Account, prof account.Profile, token string) error {
	accVal, err := r.codec.Encode(AccountSlot, acc)
	if err != nil {
		return errors.Wrap(err, "encoding account")
	}
	profVal, err := r.codec.Encode(ProfileSlot, prof)
	if err != nil {
		return errors.Wrap(err, "encoding profile")
	}
	values := map[string]string{
		TokenSlot:   token,
		AccountSlot: accVal,
		ProfileSlot: profVal,
	}

	if batch, ok := r.storage.(BatchStorage); ok {
		err = batch.SetMany(ctx, values)
	} else {
		for _, key := range Slots {
			if err = r.storage.Set(ctx, key, values[key]); err != nil {
				break
			}
		}
	}
	if err != nil {
		_ = r.Clear(ctx)
		return errors.Wrap(err, "writing session record")
	}
	return nil
}

// Load reads and decodes the three slots.
// It returns ErrRecordEmpty when no slot is set and ErrRecordCorrupt (wrapped) on partial or malformed data.
func (r *Record) Load(ctx context.Context) (account.Account, account.Profile, string, error) {
	var (
		acc  account.Account
		prof account.Profile
	)

	values := make(map[string]string, len(Slots))
	for _, key := range Slots {
		val, ok, err := r.storage.Get(ctx, key)
		if err != nil {
			return acc, prof, "", errors.Wrapf(err, "reading %q slot", key)
		}
		if ok && val != "" {
			values[key] = val
		}
	}

	switch len(values) {
	case 0:
		return acc, prof, "", ErrRecordEmpty
	case len(Slots): // pass
	default:
		return acc, prof, "", errors.Wrapf(ErrRecordCorrupt, "partial record: %d of %d slots", len(values), len(Slots))
	}

	if err := r.codec.Decode(AccountSlot, values[AccountSlot], &acc); err != nil {
		return acc, prof, "", errors.Wrapf(ErrRecordCorrupt, "decoding account: %v", err)
	}
	if err := acc.Validate(); err != nil {
		return acc, prof, "", errors.Wrapf(ErrRecordCorrupt, "%v", err)
	}
	if err := r.codec.Decode(ProfileSlot, values[ProfileSlot], &prof); err != nil {
		return acc, prof, "", errors.Wrapf(ErrRecordCorrupt, "decoding profile: %v", err)
	}
	if prof.Role == "" {
		prof.Role = acc.Role
	} else if prof.Role != acc.Role {
		return acc, prof, "", errors.Wrapf(ErrRecordCorrupt, "profile role %q does not match account role %q", prof.Role, acc.Role)
	}
	return acc, prof, values[TokenSlot], nil
}

// Clear removes the three slots. Every slot is attempted even if one fails; the first error is returned.
func (r *Record) Clear(ctx context.Context) error {
	if batch, ok := r.storage.(BatchStorage); ok {
		return errors.Wrap(batch.RemoveMany(ctx, Slots...), "clearing session record")
	}

	var firstErr error
	for _, key := range Slots {
		if err := r.storage.Remove(ctx, key); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "removing %q slot", key)
		}
	}
	return firstErr
}
