package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
	"github.com/jwebster45206/story-adventure/pkg/storage"
)

// SQLiteStorage keeps adventures in a single-file database for local play
// without Redis. Locks live in their own table so several API processes
// sharing the file still see each other.
type SQLiteStorage struct {
	conn    *sqlx.DB
	logger  *slog.Logger
	ttl     time.Duration
	lockTTL time.Duration
}

// Ensure SQLiteStorage implements Storage interface
var _ storage.Storage = (*SQLiteStorage)(nil)

type adventureRow struct {
	ID        string `db:"id"`
	Data      []byte `db:"data"`
	ExpiresAt int64  `db:"expires_at"`
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string, ttl, lockTTL time.Duration, logger *slog.Logger) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer keeps the lock table's insert-or-ignore race free.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStorage{conn: conn, logger: logger, ttl: ttl, lockTTL: lockTTL}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("SQLite storage opened", "path", path)
	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS adventures (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS adventure_locks (
		id TEXT PRIMARY KEY,
		token TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_adventures_expires ON adventures(expires_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStorage) SaveAdventure(ctx context.Context, a *adventure.Adventure) error {
	if a == nil {
		return errors.New("adventure cannot be nil")
	}
	a.UpdatedAt = time.Now()

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal adventure: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `INSERT INTO adventures (id, data, updated_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at, expires_at = excluded.expires_at`,
		a.ID.String(), data, a.UpdatedAt.Unix(), a.UpdatedAt.Add(s.ttl).Unix())
	if err != nil {
		s.logger.Error("Failed to save adventure", "adventure_id", a.ID, "error", err)
		return fmt.Errorf("failed to save adventure: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadAdventure(ctx context.Context, id uuid.UUID) (*adventure.Adventure, error) {
	var row adventureRow
	err := s.conn.GetContext(ctx, &row, `SELECT id, data, expires_at FROM adventures WHERE id = ?`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("Failed to load adventure", "adventure_id", id, "error", err)
		return nil, fmt.Errorf("failed to load adventure: %w", err)
	}

	if time.Now().Unix() >= row.ExpiresAt {
		if _, err := s.conn.ExecContext(ctx, `DELETE FROM adventures WHERE id = ?`, row.ID); err != nil {
			s.logger.Warn("Failed to purge expired adventure", "adventure_id", id, "error", err)
		}
		return nil, nil
	}

	var a adventure.Adventure
	if err := json.Unmarshal(row.Data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal adventure: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStorage) DeleteAdventure(ctx context.Context, id uuid.UUID) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM adventures WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete adventure: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) TryLock(ctx context.Context, id uuid.UUID) (string, bool, error) {
	now := time.Now()
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM adventure_locks WHERE id = ? AND expires_at <= ?`, id.String(), now.UnixMilli()); err != nil {
		return "", false, fmt.Errorf("failed to clear expired lock: %w", err)
	}

	token := uuid.New().String()
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO adventure_locks (id, token, expires_at) VALUES (?, ?, ?)`,
		id.String(), token, now.Add(s.lockTTL).UnixMilli())
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if n == 0 {
		return "", false, nil
	}
	return token, true, nil
}

func (s *SQLiteStorage) Unlock(ctx context.Context, id uuid.UUID, token string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM adventure_locks WHERE id = ? AND token = ?`, id.String(), token)
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrLockNotHeld
	}
	return nil
}

func (s *SQLiteStorage) IsLocked(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int
	err := s.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM adventure_locks WHERE id = ? AND expires_at > ?`,
		id.String(), time.Now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("failed to check lock: %w", err)
	}
	return n > 0, nil
}
