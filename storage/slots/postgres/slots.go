package pgslots

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/session"
)

// Slots stores the session slots as rows of a key/value table, one namespace per console.
type Slots struct {
	db        *sqlx.DB
	table     string // quoted
	namespace string
}

var _ session.BatchStorage = (*Slots)(nil)

func New(db *sqlx.DB, table, namespace string) *Slots {
	return &Slots{db: db, table: pq.QuoteIdentifier(table), namespace: namespace}
}

// Migrate creates the slots table if it does not exist.
func (s *Slots) Migrate(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return errors.Wrap(err, "creating slots table")
}

func (s *Slots) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	q := fmt.Sprintf("SELECT value FROM %s WHERE namespace = $1 AND key = $2", s.table)
	if err := s.db.GetContext(ctx, &value, q, s.namespace, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "getting %q slot", key)
	}
	return value, true, nil
}

func (s *Slots) upsert(ctx context.Context, exec sqlx.ExecerContext, key, value string) error {
	q := fmt.Sprintf(`INSERT INTO %s (namespace, key, value, updated_at) VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, s.table)
	_, err := exec.ExecContext(ctx, q, s.namespace, key, value)
	return errors.Wrapf(err, "setting %q slot", key)
}

func (s *Slots) Set(ctx context.Context, key, value string) error {
	return s.upsert(ctx, s.db, key, value)
}

func (s *Slots) Remove(ctx context.Context, key string) error {
	return s.RemoveMany(ctx, key)
}

// SetMany writes all values in one transaction.
func (s *Slots) SetMany(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	for key, val := range values {
		if err = s.upsert(ctx, tx, key, val); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "committing slots")
}

func (s *Slots) RemoveMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE namespace = $1 AND key = ANY($2)", s.table)
	_, err := s.db.ExecContext(ctx, q, s.namespace, pq.Array(keys))
	return errors.Wrap(err, "removing slots")
}
