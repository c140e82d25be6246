package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"docledger/internal/domain"
	"docledger/internal/port"
)

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO documents (
		filename, file_type, client_name, language, layout, prompt_history, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		doc.Filename, doc.FileType, doc.ClientName, doc.Language,
		doc.Layout, doc.PromptHistory, doc.CreatedAt).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM documents WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.SelectContext(ctx, &docs,
		"SELECT * FROM documents ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("documentRepo.List: %w", err)
	}
	return docs, nil
}

func (r *documentRepo) FirstByClientWithPrompt(ctx context.Context, clientName string) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc,
		`SELECT * FROM documents
		 WHERE client_name = $1 AND prompt_history IS NOT NULL
		 ORDER BY id LIMIT 1`, clientName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.FirstByClientWithPrompt: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) ListWithPrompts(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.SelectContext(ctx, &docs,
		"SELECT * FROM documents WHERE prompt_history IS NOT NULL ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ListWithPrompts: %w", err)
	}
	return docs, nil
}

func (r *documentRepo) CountByClient(ctx context.Context, clientName string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM documents WHERE client_name = $1", clientName)
	if err != nil {
		return 0, fmt.Errorf("documentRepo.CountByClient: %w", err)
	}
	return count, nil
}

func (r *documentRepo) LatestLedgerForLayout(ctx context.Context, layout domain.Layout) (domain.PromptLedger, error) {
	var ledger domain.PromptLedger
	err := r.db.GetContext(ctx, &ledger,
		`SELECT prompt_history FROM documents
		 WHERE layout = $1 AND prompt_history IS NOT NULL
		 ORDER BY created_at DESC, id DESC LIMIT 1`, layout.Serialize())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("documentRepo.LatestLedgerForLayout: %w", err)
	}
	return ledger, nil
}

// UpdateVersion point-edits one version of a record's ledger. The row is
// locked for the duration of the read-modify-write so concurrent layout
// propagation cannot interleave with the edit.
func (r *documentRepo) UpdateVersion(ctx context.Context, id int64, version int, prompt string) (*domain.Document, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.UpdateVersion begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var doc domain.Document
	err = tx.GetContext(ctx, &doc,
		"SELECT * FROM documents WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.UpdateVersion select: %w", err)
	}

	updated, err := doc.PromptHistory.UpdateAt(version, prompt)
	if err != nil {
		return nil, err
	}
	doc.PromptHistory = updated

	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET prompt_history = $1 WHERE id = $2",
		doc.PromptHistory, id); err != nil {
		return nil, fmt.Errorf("documentRepo.UpdateVersion update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("documentRepo.UpdateVersion commit: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) IDsByLayout(ctx context.Context, layout domain.Layout) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		"SELECT id FROM documents WHERE layout = $1 ORDER BY id", layout.Serialize())
	if err != nil {
		return nil, fmt.Errorf("documentRepo.IDsByLayout: %w", err)
	}
	return ids, nil
}

// AppendVersion appends one ledger entry to a single record. The row is
// locked for the read-modify-write so concurrent appends serialize.
func (r *documentRepo) AppendVersion(ctx context.Context, id int64, prompt string, ts time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("documentRepo.AppendVersion begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var ledger domain.PromptLedger
	err = tx.GetContext(ctx, &ledger,
		"SELECT prompt_history FROM documents WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrDocumentNotFound
		}
		return fmt.Errorf("documentRepo.AppendVersion select: %w", err)
	}

	ledger = ledger.Append(prompt, ts)

	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET prompt_history = $1 WHERE id = $2", ledger, id); err != nil {
		return fmt.Errorf("documentRepo.AppendVersion update: %w", err)
	}
	return tx.Commit()
}

func (r *documentRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("documentRepo.DeleteAll: %w", err)
	}
	return nil
}
