// Package prefs persists per-user settings objects as JSON in SQLite.
package prefs

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a key/value table of JSON documents scoped by user.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path. Use ":memory:"
// for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open preferences db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			user_id    TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, key)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create preferences table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetRaw returns the stored JSON for (user, key). ok is false when
// nothing was saved yet.
func (s *Store) GetRaw(ctx context.Context, user, key string) (json.RawMessage, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE user_id = ? AND key = ?`, user, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return json.RawMessage(v), true, nil
}

// PutRaw stores a JSON document, replacing any previous value.
func (s *Store) PutRaw(ctx context.Context, user, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("preference %s: value is not valid JSON", key)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, user, key, string(value), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put preference %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, user, key string, dst any) error {
	raw, ok, err := s.GetRaw(ctx, user, key)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode preference %s: %w", key, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, user, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.PutRaw(ctx, user, key, b)
}

// NotificationSettings returns the saved settings, or the defaults.
// Fields missing from an older saved document keep their default value.
func (s *Store) NotificationSettings(ctx context.Context, user string) (NotificationSettings, error) {
	v := DefaultNotificationSettings()
	err := s.get(ctx, user, KeyNotifications, &v)
	return v, err
}

func (s *Store) SaveNotificationSettings(ctx context.Context, user string, v NotificationSettings) error {
	return s.put(ctx, user, KeyNotifications, v)
}

// Gestures returns the saved swipe gestures, or the defaults.
func (s *Store) Gestures(ctx context.Context, user string) (GesturePreferences, error) {
	v := DefaultGesturePreferences()
	err := s.get(ctx, user, KeyGestures, &v)
	return v, err
}

func (s *Store) SaveGestures(ctx context.Context, user string, v GesturePreferences) error {
	if err := v.Validate(); err != nil {
		return err
	}
	return s.put(ctx, user, KeyGestures, v)
}

// Load returns the settings object for a known key, defaults applied.
func (s *Store) Load(ctx context.Context, user, key string) (any, error) {
	switch key {
	case KeyNotifications:
		return s.NotificationSettings(ctx, user)
	case KeyGestures:
		return s.Gestures(ctx, user)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Save decodes body as the settings object for key, validates it and
// stores it. Unknown fields are rejected.
func (s *Store) Save(ctx context.Context, user, key string, body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	switch key {
	case KeyNotifications:
		v := DefaultNotificationSettings()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if err := s.SaveNotificationSettings(ctx, user, v); err != nil {
			return nil, err
		}
		return v, nil
	case KeyGestures:
		v := DefaultGesturePreferences()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if err := s.SaveGestures(ctx, user, v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}
