package migration

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
)

// RunMigrations brings the documents schema up to date. Every step is
// idempotent, so it runs on each startup.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("Starting database migrations")

	for _, m := range Migrations() {
		if err := m.Up(ctx, pool); err != nil {
			slog.Error("Migration failed", "name", m.Name, "error", err)
			return err
		}
		slog.Info("Migration completed", "name", m.Name)
	}

	slog.Info("All migrations completed successfully")
	return nil
}

// Migration represents a database migration
type Migration struct {
	Name string
	Up   func(ctx context.Context, pool *pgxpool.Pool) error
}

// Migrations lists the schema steps in the order they run.
func Migrations() []Migration {
	return []Migration{
		{Name: "create_resume_documents", Up: exec(createResumeDocuments)},
		{Name: "index_resume_documents_owner", Up: exec(indexResumeDocumentsOwner)},
	}
}

const createResumeDocuments = `
	CREATE TABLE IF NOT EXISTS resume_documents (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL,
		content JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

const indexResumeDocumentsOwner = `
	CREATE INDEX IF NOT EXISTS idx_resume_documents_owner
	ON resume_documents (owner_id, updated_at DESC);
`

func exec(query string) func(ctx context.Context, pool *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, query)
		return err
	}
}
