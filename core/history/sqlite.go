package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists schedules in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS schedules (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        generated_at INTEGER NOT NULL,
        generated_by TEXT,
        grid_hours INTEGER,
        record TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS schedules_generated_at ON schedules (generated_at DESC);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	sum := rec.Summarize()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedules (id, generated_at, generated_by, grid_hours, record) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.GeneratedAt.UnixNano(), rec.GeneratedBy, sum.GridHours, string(b))
	return err
}

func (s *SQLiteStore) scanRecord(row *sql.Row) (Record, error) {
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, fmt.Errorf("decode schedule: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Latest(ctx context.Context) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record FROM schedules ORDER BY generated_at DESC, seq DESC LIMIT 1`)
	return s.scanRecord(row)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT record FROM schedules WHERE id = ?`, id)
	return s.scanRecord(row)
}

func (s *SQLiteStore) List(ctx context.Context, p Page) ([]Summary, int, error) {
	p = p.Normalize()
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, generated_at, generated_by, grid_hours FROM schedules
        ORDER BY generated_at DESC, seq DESC LIMIT ? OFFSET ?`, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()
	out := []Summary{}
	for rows.Next() {
		var (
			sum Summary
			ts  int64
			by  sql.NullString
		)
		if err := rows.Scan(&sum.ID, &ts, &by, &sum.GridHours); err != nil {
			return nil, 0, err
		}
		sum.GeneratedAt = unixNano(ts)
		sum.GeneratedBy = by.String
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
