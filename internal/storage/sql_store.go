/**
 * SQL history store
 *
 * Same table layout on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
 * Queries are written with "?" placeholders and rebound for PostgreSQL.
 */

package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/adverant/nexus/docscan-client/internal/errors"
)

// SQL drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// createdAtLayout is fixed-width so text ordering matches time ordering
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scan_history (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		word_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS scan_history_created_at_idx ON scan_history (created_at)`,
}

// SQLStore keeps the history in a relational table
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens the database, verifies the connection and creates the table
func NewSQLStore(ctx context.Context, driver string, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY on concurrent saves.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(2 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create history schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO scan_history (id, title, body, created_at, word_count) VALUES (?, ?, ?, ?, ?)`),
		rec.ID, rec.Title, rec.Text, rec.CreatedAt.UTC().Format(createdAtLayout), rec.WordCount)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23505" {
			return errors.NewStorageFailedError("append", fmt.Errorf("duplicate history id %s", rec.ID))
		}
		return errors.NewStorageFailedError("append", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, body, created_at, word_count FROM scan_history ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.NewStorageFailedError("list", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewStorageFailedError("list", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageFailedError("list", err)
	}

	return records, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, title, body, created_at, word_count FROM scan_history WHERE id = ?`), id)

	rec, err := scanRecord(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("history record", id)
	}
	if err != nil {
		return nil, errors.NewStorageFailedError("get", err)
	}
	return rec, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM scan_history WHERE id = ?`), id)
	if err != nil {
		return errors.NewStorageFailedError("delete", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStorageFailedError("delete", err)
	}
	if n == 0 {
		return errors.NewNotFoundError("history record", id)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scan_history`); err != nil {
		return errors.NewStorageFailedError("clear", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites "?" placeholders as $1..$n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Text, &createdAt, &rec.WordCount); err != nil {
		return nil, err
	}

	t, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = t
	return &rec, nil
}
