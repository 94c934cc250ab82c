// Package sqlite is a file-backed document store for single-user and
// development deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"resume-builder/internal/adapter/repository/sqlite/migrations"
	"resume-builder/internal/domain"
	"resume-builder/internal/usecase"
)

var _ usecase.Store = (*Store)(nil)

const dbName = "resumes.db"

type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database under dataDir and applies
// pending migrations.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("sqlite: data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, dbName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Path() string { return s.path }

func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Load(ctx context.Context, owner, id uuid.UUID) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT content, created_at, updated_at
		FROM resume_documents
		WHERE id = ? AND owner_id = ?
	`, id.String(), owner.String())

	var content string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&content, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Record{}, domain.ErrNotFound
		}
		return domain.Record{}, fmt.Errorf("loading document: %w", err)
	}
	return domain.Record{
		ID:        id,
		OwnerID:   owner,
		Content:   json.RawMessage(content),
		CreatedAt: createdAt.Time,
		UpdatedAt: updatedAt.Time,
	}, nil
}

// Save upserts the record. The update only applies when the stored owner
// matches, otherwise no row changes and ErrNotFound is returned.
func (s *Store) Save(ctx context.Context, owner, id uuid.UUID, content json.RawMessage) (time.Time, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO resume_documents (id, owner_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at
		WHERE resume_documents.owner_id = excluded.owner_id
	`, id.String(), owner.String(), string(content), now, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("saving document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("saving document: %w", err)
	}
	if n == 0 {
		return time.Time{}, domain.ErrNotFound
	}
	return now, nil
}

func (s *Store) List(ctx context.Context, owner uuid.UUID) ([]domain.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, updated_at
		FROM resume_documents
		WHERE owner_id = ?
		ORDER BY updated_at DESC
	`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Summary, 0)
	for rows.Next() {
		var id string
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&id, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		uid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		out = append(out, domain.Summary{ID: uid, CreatedAt: createdAt.Time, UpdatedAt: updatedAt.Time})
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, owner, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM resume_documents WHERE id = ? AND owner_id = ?", id.String(), owner.String())
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
