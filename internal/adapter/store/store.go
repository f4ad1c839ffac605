package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arturoeanton/codechat/internal/domain"
	"github.com/arturoeanton/codechat/internal/port"
)

// addContactRetries bounds the compare-and-set loop in AddContact.
const addContactRetries = 5

// SQLStore implements port.RepoStore on database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects to the database, applies the schema and returns a store instance.
func Open(ctx context.Context, driver, databaseURL string) (*SQLStore, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.DriverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d.singleConn {
		// An in-memory SQLite database exists per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ApplyMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLStore{db: db, dialect: d, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const repoColumns = `id, source_url, contacts, summary, file_summaries, is_processed, processing_error, created_at, updated_at`

// Create inserts a new record, returning port.ErrConflict when the URL is taken.
func (s *SQLStore) Create(ctx context.Context, r *domain.Repo) error {
	contacts, err := encodeList(r.Contacts)
	if err != nil {
		return fmt.Errorf("create repo: %w", err)
	}
	summaries, err := encodeList(r.FileSummaries)
	if err != nil {
		return fmt.Errorf("create repo: %w", err)
	}

	now := s.now().UTC()
	query := s.dialect.Rebind(`INSERT INTO repositories (` + repoColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT (source_url) DO NOTHING`)

	res, err := s.db.ExecContext(ctx, query,
		r.ID, r.SourceURL, contacts, r.Summary, summaries, r.IsProcessed, nullString(r.ProcessingError), now, now,
	)
	if err != nil {
		return fmt.Errorf("create repo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create repo: %w", err)
	}
	if n == 0 {
		return port.ErrConflict
	}

	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetByID returns a record by its shareable identifier.
func (s *SQLStore) GetByID(ctx context.Context, id string) (*domain.Repo, error) {
	query := s.dialect.Rebind(`SELECT ` + repoColumns + ` FROM repositories WHERE id = ?`)
	return s.getOne(ctx, query, id)
}

// GetByURL returns the record for a source URL.
func (s *SQLStore) GetByURL(ctx context.Context, sourceURL string) (*domain.Repo, error) {
	query := s.dialect.Rebind(`SELECT ` + repoColumns + ` FROM repositories WHERE source_url = ?`)
	return s.getOne(ctx, query, sourceURL)
}

func (s *SQLStore) getOne(ctx context.Context, query string, arg string) (*domain.Repo, error) {
	var (
		r         domain.Repo
		contacts  string
		summaries string
		procErr   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&r.ID, &r.SourceURL, &contacts, &r.Summary, &summaries,
		&r.IsProcessed, &procErr, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrRepoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get repo: %w", err)
	}

	if r.Contacts, err = decodeList(contacts); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	if r.FileSummaries, err = decodeList(summaries); err != nil {
		return nil, fmt.Errorf("decode file summaries: %w", err)
	}
	r.ProcessingError = procErr.String
	return &r, nil
}

// AddContact appends addr to the record's contacts. Concurrent callers are
// serialized with a compare-and-set on the stored list. A processed record
// has already notified its contacts and returns port.ErrAlreadyProcessed.
func (s *SQLStore) AddContact(ctx context.Context, id, addr string) error {
	selectQuery := s.dialect.Rebind(`SELECT contacts, is_processed FROM repositories WHERE id = ?`)
	updateQuery := s.dialect.Rebind(`UPDATE repositories SET contacts = ?, updated_at = ?
	          WHERE id = ? AND contacts = ? AND is_processed = ?`)

	for attempt := 0; attempt < addContactRetries; attempt++ {
		var (
			raw       string
			processed bool
		)
		err := s.db.QueryRowContext(ctx, selectQuery, id).Scan(&raw, &processed)
		if errors.Is(err, sql.ErrNoRows) {
			return port.ErrRepoNotFound
		}
		if err != nil {
			return fmt.Errorf("add contact: %w", err)
		}
		if processed {
			return port.ErrAlreadyProcessed
		}

		contacts, err := decodeList(raw)
		if err != nil {
			return fmt.Errorf("add contact: %w", err)
		}
		for _, c := range contacts {
			if c == addr {
				return nil
			}
		}
		updated, err := encodeList(append(contacts, addr))
		if err != nil {
			return fmt.Errorf("add contact: %w", err)
		}

		res, err := s.db.ExecContext(ctx, updateQuery, updated, s.now().UTC(), id, raw, false)
		if err != nil {
			return fmt.Errorf("add contact: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return nil
		}
	}
	return fmt.Errorf("add contact: concurrent updates on %s", id)
}

// SaveResult stores the aggregate and per-file summaries and marks the record
// processed in a single statement.
func (s *SQLStore) SaveResult(ctx context.Context, id, summary string, fileSummaries []string) error {
	summaries, err := encodeList(fileSummaries)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	query := s.dialect.Rebind(`UPDATE repositories
	          SET summary = ?, file_summaries = ?, is_processed = ?, processing_error = NULL, updated_at = ?
	          WHERE id = ?`)
	return s.execOne(ctx, "save result", query, summary, summaries, true, s.now().UTC(), id)
}

// MarkFailed records a processing error and marks the record processed.
func (s *SQLStore) MarkFailed(ctx context.Context, id, message string) error {
	query := s.dialect.Rebind(`UPDATE repositories
	          SET is_processed = ?, processing_error = ?, updated_at = ?
	          WHERE id = ?`)
	return s.execOne(ctx, "mark failed", query, true, message, s.now().UTC(), id)
}

// Delete removes a record.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query := s.dialect.Rebind(`DELETE FROM repositories WHERE id = ?`)
	return s.execOne(ctx, "delete repo", query, id)
}

func (s *SQLStore) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return port.ErrRepoNotFound
	}
	return nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
