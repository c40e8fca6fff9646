package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

type Zone struct {
	Start int `json:"start"`
	Score int `json:"score"`
}

// Analysis is one completed zone search.
type Analysis struct {
	ID         string
	ChatID     int64
	Source     string
	AnalyzedAt time.Time
	Events     int
	Skipped    int
	Window     int

	// Wrap records whether zones could cross midnight, which decides how
	// end times are shown.
	Wrap  bool
	Zones []Zone
}

var ErrNotFound = errors.New("not found")

func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	st := &Store{db: db}
	if err := st.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			chat_id INTEGER NOT NULL,
			source TEXT NOT NULL,
			analyzed_at_unix INTEGER NOT NULL,
			events INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			window_minutes INTEGER NOT NULL,
			wrap INTEGER NOT NULL DEFAULT 0,
			zones_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_chat ON analyses(chat_id, analyzed_at_unix);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_at ON analyses(analyzed_at_unix);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return s.ensureColumn(ctx, "analyses", "wrap", "INTEGER NOT NULL DEFAULT 0")
}

// ensureColumn adds a column missing from databases created before it existed.
func (s *Store) ensureColumn(ctx context.Context, table, column, decl string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("table info %s: %w", table, err)
	}
	found := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("table info %s: %w", table, err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("table info %s: %w", table, err)
	}
	if found {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func (s *Store) SaveAnalysis(ctx context.Context, a Analysis) error {
	zones := a.Zones
	if zones == nil {
		zones = []Zone{}
	}
	zonesJSON, err := json.Marshal(zones)
	if err != nil {
		return fmt.Errorf("marshal zones: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, chat_id, source, analyzed_at_unix, events, skipped, window_minutes, wrap, zones_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.ChatID, a.Source, a.AnalyzedAt.Unix(), a.Events, a.Skipped, a.Window, a.Wrap, string(zonesJSON))
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// RecentAnalyses returns up to limit analyses of chatID, newest first.
func (s *Store) RecentAnalyses(ctx context.Context, chatID int64, limit int) ([]Analysis, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, source, analyzed_at_unix, events, skipped, window_minutes, wrap, zones_json
		FROM analyses
		WHERE chat_id = ?
		ORDER BY analyzed_at_unix DESC, rowid DESC
		LIMIT ?
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		var atUnix int64
		var zonesJSON string
		if err := rows.Scan(&a.ID, &a.ChatID, &a.Source, &atUnix, &a.Events, &a.Skipped, &a.Window, &a.Wrap, &zonesJSON); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if err := json.Unmarshal([]byte(zonesJSON), &a.Zones); err != nil {
			return nil, fmt.Errorf("unmarshal zones: %w", err)
		}
		a.AnalyzedAt = time.Unix(atUnix, 0).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}

func (s *Store) AnalysisCount(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM analyses`)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, fmt.Errorf("analysis count: %w", err)
	}
	return c, nil
}

// PurgeBefore deletes analyses older than cutoff and returns how many went.
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE analyzed_at_unix < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge analyses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge analyses: %w", err)
	}
	return n, nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return v, nil
}

func (s *Store) SetSetting(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
