package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/picklecup/internal/models"
)

// SnapshotID is the row holding the live tournament snapshot.
const SnapshotID = "pc_tuyen_quang"

// Setting keys.
const (
	SettingBaseURL   = "base_url"
	SettingEventName = "event_name"
	SettingLastSync  = "last_sync"
)

// VariantSettingKey is the setting holding the bracket variant of a category.
func VariantSettingKey(key models.CategoryKey) string {
	return "bracket_variant:" + string(key)
}

// Repository stores snapshots, settings and the audit log in SQLite.
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates it.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// A single connection keeps ":memory:" databases shared and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// DB returns the underlying database connection.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS match_audit (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			match_id TEXT,
			action TEXT NOT NULL,
			detail TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_audit_category ON match_audit(category)`,
	}
	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	// base_url is left to the app, which knows the LAN address at startup.
	defaultSettings := map[string]string{
		SettingEventName: "Giải Pickleball PC Tuyên Quang",
	}
	for key, value := range defaultSettings {
		if _, err := r.db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Snapshot Methods ====================

// SaveSnapshot stores t under id, replacing any previous snapshot.
func (r *Repository) SaveSnapshot(ctx context.Context, id string, t *models.Tournament) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// LoadSnapshot returns the snapshot stored under id and when it was written.
func (r *Repository) LoadSnapshot(ctx context.Context, id string) (*models.Tournament, time.Time, error) {
	var data, updated string
	err := r.db.QueryRowContext(ctx, `SELECT data, updated_at FROM snapshots WHERE id = ?`, id).Scan(&data, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	var t models.Tournament
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	updatedAt, _ := time.Parse(time.RFC3339Nano, updated)
	return t.Clone(), updatedAt, nil
}

// Name identifies the repository as a save target.
func (r *Repository) Name() string {
	return "sqlite"
}

// Save writes the live snapshot. It lets the repository act as a save target.
func (r *Repository) Save(ctx context.Context, t *models.Tournament) error {
	return r.SaveSnapshot(ctx, SnapshotID, t)
}

// ==================== Settings Methods ====================

func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// ==================== Audit Methods ====================

// RecordAudit appends an entry to the activity log.
func (r *Repository) RecordAudit(ctx context.Context, e models.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO match_audit (category, match_id, action, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Category, nullString(e.MatchID), e.Action, nullString(e.Detail), e.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// ListAudit returns the newest entries first. An empty category lists all of them.
func (r *Repository) ListAudit(ctx context.Context, category string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, category, match_id, action, detail, created_at FROM match_audit`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		var matchID, detail sql.NullString
		var created string
		if err := rows.Scan(&e.ID, &e.Category, &matchID, &e.Action, &detail, &created); err != nil {
			return nil, err
		}
		e.MatchID = matchID.String
		e.Detail = detail.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// validTables lists the tables ClearTable may empty.
var validTables = map[string]bool{
	"snapshots":   true,
	"match_audit": true,
	"settings":    true,
}

// ClearTable deletes every row of a whitelisted table.
func (r *Repository) ClearTable(ctx context.Context, table string) error {
	if !validTables[table] {
		return ErrInvalidTable
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM "+table)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
