package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists per-skill sync state in a single SQLite file. Rows are
// keyed by (owner_id, skill, key) and hold an opaque JSON mapping.
type Store struct {
	db *sql.DB
}

// SkillDataRow is one stored mapping with its location and write time.
type SkillDataRow struct {
	Skill     string
	Key       string
	Data      map[string]any
	UpdatedAt time.Time
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetSkillData returns the mapping stored under (ownerID, skill, key), or
// nil with no error when nothing has been stored there yet.
func (s *Store) GetSkillData(ctx context.Context, ownerID, skill, key string) (map[string]any, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM skill_data
		WHERE owner_id = ? AND skill = ? AND key = ?
	`, ownerID, skill, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get skill data: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode skill data: %w", err)
	}
	return data, nil
}

// SaveSkillData overwrites the mapping stored under (ownerID, skill, key).
func (s *Store) SaveSkillData(ctx context.Context, ownerID, skill, key string, data map[string]any) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(ownerID) == "" {
		return errors.New("owner id is required")
	}
	if strings.TrimSpace(skill) == "" {
		return errors.New("skill is required")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("key is required")
	}
	if data == nil {
		data = map[string]any{}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode skill data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO skill_data (owner_id, skill, key, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, skill, key) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`,
		ownerID,
		skill,
		key,
		string(raw),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save skill data: %w", err)
	}

	return nil
}

// ListSkillData returns every stored mapping for the owner, ordered by
// skill then key.
func (s *Store) ListSkillData(ctx context.Context, ownerID string) ([]SkillDataRow, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT skill, key, data, updated_at FROM skill_data
		WHERE owner_id = ?
		ORDER BY skill, key
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list skill data: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []SkillDataRow
	for rows.Next() {
		var (
			row       SkillDataRow
			raw       string
			updatedAt string
		)
		if err := rows.Scan(&row.Skill, &row.Key, &raw, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan skill data: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &row.Data); err != nil {
			return nil, fmt.Errorf("decode skill data: %w", err)
		}
		row.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skill data: %w", err)
	}

	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return time.Time{}.UTC().Format(time.RFC3339Nano)
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}
