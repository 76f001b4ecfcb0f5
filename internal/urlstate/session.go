package urlstate

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/pelletier/go-toml/v2"
)

// Session is the on-disk form of the last visited location.
type Session struct {
	Location string    `toml:"location"`
	SavedAt  time.Time `toml:"saved_at"`
}

// LoadSession reads a session file. A missing file yields an empty session.
func LoadSession(path string) (Session, error) {
	var sess Session

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sess, nil
		}
		return sess, errors.Wrapf(err, "read session file %q", path)
	}

	if err := toml.Unmarshal(data, &sess); err != nil {
		return sess, errors.Wrapf(err, "parse session file %q", path)
	}
	return sess, nil
}

// SaveSession writes the location to path, creating parent directories.
func SaveSession(path string, location url.Values) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create session directory")
	}

	data, err := toml.Marshal(Session{
		Location: location.Encode(),
		SavedAt:  time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write session file %q", path)
	}
	return nil
}

// Restore builds a store from the session at path.
func Restore(path string) (*Store, error) {
	sess, err := LoadSession(path)
	if err != nil {
		return New(nil), err
	}

	store, err := Parse(sess.Location)
	if err != nil {
		return New(nil), errors.Wrapf(err, "decode session location %q", sess.Location)
	}
	return store, nil
}

// Persist saves every location change of store to path. onError may be nil.
func Persist(store *Store, path string, onError func(error)) func() {
	return store.Subscribe(func(values url.Values) {
		if err := SaveSession(path, values); err != nil && onError != nil {
			onError(err)
		}
	})
}
