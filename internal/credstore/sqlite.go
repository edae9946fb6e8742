package credstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lookforge/lookforge-go/internal/models"
)

// SQLiteStore keeps credentials in the local sqlite database created by
// InitDatabase.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) get(ctx context.Context, q querier, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) set(ctx context.Context, q querier, key string, value []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set credentials[%s]: %w", key, err)
	}
	return nil
}

// Load reads the full credential pair. Absent keys come back as zero values.
func (s *SQLiteStore) Load(ctx context.Context) (*Credentials, error) {
	c := &Credentials{}

	access, err := s.get(ctx, s.db, KeyAccessToken)
	if err != nil {
		return nil, err
	}
	c.AccessToken = string(access)

	refresh, err := s.get(ctx, s.db, KeyRefreshToken)
	if err != nil {
		return nil, err
	}
	c.RefreshToken = string(refresh)

	raw, err := s.get(ctx, s.db, KeyUser)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("failed to decode stored user: %w", err)
		}
		c.User = &u
	}
	return c, nil
}

// Save writes the token pair and the user record in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, c Credentials) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.set(ctx, tx, KeyAccessToken, []byte(c.AccessToken)); err != nil {
			return err
		}
		if err := s.set(ctx, tx, KeyRefreshToken, []byte(c.RefreshToken)); err != nil {
			return err
		}
		var raw []byte
		if c.User != nil {
			var err error
			if raw, err = json.Marshal(c.User); err != nil {
				return fmt.Errorf("failed to encode user: %w", err)
			}
		}
		return s.set(ctx, tx, KeyUser, raw)
	})
}

func (s *SQLiteStore) AccessToken(ctx context.Context) (string, error) {
	v, err := s.get(ctx, s.db, KeyAccessToken)
	return string(v), err
}

func (s *SQLiteStore) RefreshToken(ctx context.Context) (string, error) {
	v, err := s.get(ctx, s.db, KeyRefreshToken)
	return string(v), err
}

// SetTokens persists a rotated token pair. An empty refresh token means the
// server did not rotate it and the stored one stays.
func (s *SQLiteStore) SetTokens(ctx context.Context, access, refresh string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.set(ctx, tx, KeyAccessToken, []byte(access)); err != nil {
			return err
		}
		if refresh == "" {
			return nil
		}
		return s.set(ctx, tx, KeyRefreshToken, []byte(refresh))
	})
}

// Clear deletes every stored credential. Clearing an empty store is a no-op.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing on success and rolling back
// on error or panic.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = fn(tx)
	return err
}
