package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// Bootstrapper restores a previous Session from the durable Record, once per process.
type Bootstrapper struct {
	once   sync.Once
	store  *Store
	record *Record
	logger core.Logger
}

func NewBootstrapper(store *Store, record *Record, logger core.Logger) *Bootstrapper {
	return &Bootstrapper{store: store, record: record, logger: logger}
}

// Run must complete before the first route is rendered. Only the first call has any effect.
// Failures are never returned: a missing or corrupt record simply leaves the session logged out.
func (b *Bootstrapper) Run(ctx context.Context) {
	b.once.Do(func() { b.restore(ctx) })
}

func (b *Bootstrapper) restore(ctx context.Context) {
	acc, prof, token, err := b.record.Load(ctx)
	switch {
	case err == nil:
		b.store.Hydrate(acc, prof, token)
	case errors.Is(err, ErrRecordEmpty): // never logged in, or logged out
	case errors.Is(err, ErrRecordCorrupt):
		b.logger.Warn("discarding session record", err)
		if err = b.record.Clear(ctx); err != nil {
			b.logger.Error("clearing corrupt session record", err)
		}
	default:
		b.logger.Error("reading session record", err)
	}
}
