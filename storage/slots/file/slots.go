package fileslots

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/session"
)

var errInvalidKey = errors.New("invalid slot key")

// Slots stores each slot in its own file under a directory.
type Slots struct {
	dir string
}

var _ session.BatchStorage = (*Slots)(nil)

// New creates the directory if it does not exist yet.
func New(dir string) (*Slots, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating slots directory")
	}
	return &Slots{dir: dir}, nil
}

func (s *Slots) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\.`) {
		return "", errors.Wrapf(errInvalidKey, "%q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func (s *Slots) Get(_ context.Context, key string) (string, bool, error) {
	fp, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "reading %q", fp)
	}
	return string(data), true, nil
}

func (s *Slots) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

func (s *Slots) Remove(ctx context.Context, key string) error {
	return s.RemoveMany(ctx, key)
}

// SetMany writes every value to a temp file first, then renames them in place,
// so a failure while writing leaves the previous slots untouched.
func (s *Slots) SetMany(_ context.Context, values map[string]string) error {
	tmps := make(map[string]string, len(values)) // {tmp path: final path}
	cleanup := func() {
		for tmp := range tmps {
			_ = os.Remove(tmp)
		}
	}

	for key, val := range values {
		fp, err := s.path(key)
		if err != nil {
			cleanup()
			return err
		}
		f, err := os.CreateTemp(s.dir, "."+key+"-*")
		if err != nil {
			cleanup()
			return errors.Wrap(err, "creating temp file")
		}
		tmps[f.Name()] = fp
		_, err = f.WriteString(val)
		if cErr := f.Close(); err == nil {
			err = cErr
		}
		if err != nil {
			cleanup()
			return errors.Wrapf(err, "writing %q slot", key)
		}
	}

	for tmp, fp := range tmps {
		if err := os.Rename(tmp, fp); err != nil {
			cleanup()
			return errors.Wrapf(err, "renaming %q", tmp)
		}
		delete(tmps, tmp)
	}
	return nil
}

func (s *Slots) RemoveMany(_ context.Context, keys ...string) error {
	var firstErr error
	for _, key := range keys {
		fp, err := s.path(key)
		if err == nil {
			if err = os.Remove(fp); os.IsNotExist(err) {
				err = nil
			}
		}
		if err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "removing %q slot", key)
		}
	}
	return firstErr
}
