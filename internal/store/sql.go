package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	version    BIGINT NOT NULL DEFAULT 0,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_owner_idx ON documents (owner_id, created_at);
`

// SQLStore keeps documents as JSON rows in PostgreSQL (pgx) or SQLite.
// Updates are optimistic: each row carries a version that a write must
// match, and a lost race re-reads and re-applies.
type SQLStore struct {
	db     *sql.DB
	dollar bool
	now    func() time.Time
}

// OpenSQL opens driver ("pgx" or "sqlite") at dsn, verifies the
// connection and creates the schema if missing.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	if driver == "sqlite" {
		// One writer; also keeps an in-memory database on a single connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(20)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := NewSQLStore(db, driver)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database. The schema must already exist.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, dollar: driver == "pgx" || driver == "postgres", now: time.Now}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if !s.dollar {
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

func (s *SQLStore) Create(ctx context.Context, doc *document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO documents (id, owner_id, status, created_at, updated_at, version, data) VALUES (?, ?, ?, ?, ?, 0, ?)`),
		doc.ID, doc.OwnerID, string(doc.Status), doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano(), string(data))
	if err != nil {
		if ok, _ := s.Exists(ctx, doc.ID); ok {
			return ErrExists
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*document.Document, error) {
	doc, _, err := s.load(ctx, id)
	return doc, err
}

func (s *SQLStore) load(ctx context.Context, id string) (*document.Document, int64, error) {
	var (
		data    string
		version int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data, version FROM documents WHERE id = ?`), id).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("lookup document: %w", err)
	}
	doc, err := decodeDocument([]byte(data))
	if err != nil {
		return nil, 0, err
	}
	return doc, version, nil
}

func (s *SQLStore) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM documents WHERE id = ?`), id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) ListByOwner(ctx context.Context, ownerID string) ([]document.Document, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT data FROM documents WHERE owner_id = ? ORDER BY created_at DESC`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []document.Document
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeDocument([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM documents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) UpdateStatus(ctx context.Context, id string, status document.Status) error {
	return s.update(ctx, id, func(doc *document.Document) error {
		applyStatus(doc, status, s.now())
		return nil
	})
}

func (s *SQLStore) ClaimForAnalysis(ctx context.Context, id string, staleAfter time.Duration) error {
	return s.update(ctx, id, func(doc *document.Document) error {
		now := s.now()
		if !claimable(doc, now, staleAfter) {
			return ErrAlreadyAnalyzing
		}
		applyClaim(doc, now)
		return nil
	})
}

func (s *SQLStore) SaveAnalysis(ctx context.Context, id string, run document.AnalysisRun) error {
	return s.update(ctx, id, func(doc *document.Document) error {
		applyAnalysis(doc, run, s.now())
		return nil
	})
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) update(ctx context.Context, id string, fn func(*document.Document) error) error {
	for range maxTxAttempts {
		doc, version, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		res, err := s.db.ExecContext(ctx, s.rebind(
			`UPDATE documents SET status = ?, updated_at = ?, version = version + 1, data = ? WHERE id = ? AND version = ?`),
			string(doc.Status), doc.UpdatedAt.UnixNano(), string(data), id, version)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if n == 1 {
			return nil
		}
	}
	return fmt.Errorf("update document %s: too much contention", id)
}
