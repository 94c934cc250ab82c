package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"resume-builder/internal/domain"
	"resume-builder/internal/usecase"
)

var _ usecase.Store = (*DocumentsRepo)(nil)

// DocumentsRepo stores resume documents as JSONB rows of resume_documents.
type DocumentsRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentsRepo(pool *pgxpool.Pool) *DocumentsRepo {
	return &DocumentsRepo{pool: pool}
}

func (r *DocumentsRepo) Load(ctx context.Context, owner, id uuid.UUID) (domain.Record, error) {
	rec := domain.Record{ID: id, OwnerID: owner}
	var content []byte
	err := r.pool.QueryRow(ctx, `SELECT content, created_at, updated_at FROM resume_documents
		WHERE id = $1 AND owner_id = $2`, id, owner).Scan(&content, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("load document %s: %w", id, err)
	}
	rec.Content = json.RawMessage(content)
	return rec, nil
}

// Save upserts the row. The conflict branch only fires for the same owner;
// for anyone else no row comes back and the call reports ErrNotFound.
func (r *DocumentsRepo) Save(ctx context.Context, owner, id uuid.UUID, content json.RawMessage) (time.Time, error) {
	now := time.Now().UTC()
	var committed time.Time
	err := r.pool.QueryRow(ctx, `INSERT INTO resume_documents (id, owner_id, content, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$4)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
		WHERE resume_documents.owner_id = EXCLUDED.owner_id
		RETURNING updated_at`,
		id, owner, []byte(content), now).Scan(&committed)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("save document %s: %w", id, err)
	}
	return committed, nil
}

func (r *DocumentsRepo) List(ctx context.Context, owner uuid.UUID) ([]domain.Summary, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, created_at, updated_at FROM resume_documents
		WHERE owner_id = $1 ORDER BY updated_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Summary, 0)
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *DocumentsRepo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resume_documents WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
