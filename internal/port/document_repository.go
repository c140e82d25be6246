package port

import (
	"context"
	"time"

	"docledger/internal/domain"
)

// DocumentRepository is the persistent registry of processed documents.
// Implementations must serialize read-modify-write sequences on a single
// record's ledger; concurrent creation of unrelated records must not block.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)

	// List returns all records, newest first (created_at DESC, id DESC).
	List(ctx context.Context) ([]domain.Document, error)

	// FirstByClientWithPrompt returns the lowest-id record matching the client
	// name that has at least one saved prompt version, or ErrDocumentNotFound.
	FirstByClientWithPrompt(ctx context.Context, clientName string) (*domain.Document, error)

	// ListWithPrompts returns every record holding at least one saved prompt
	// version, in ascending id order.
	ListWithPrompts(ctx context.Context) ([]domain.Document, error)

	CountByClient(ctx context.Context, clientName string) (int, error)

	// LatestLedgerForLayout returns the ledger of the most recently created
	// record with the exact serialized layout, or nil if no record with a
	// saved prompt exists for that layout.
	LatestLedgerForLayout(ctx context.Context, layout domain.Layout) (domain.PromptLedger, error)

	// UpdateVersion point-edits one version of a record's ledger as a
	// serialized read-modify-write and returns the updated ledger.
	UpdateVersion(ctx context.Context, id int64, version int, prompt string) (*domain.Document, error)

	// IDsByLayout returns the ids of every record whose layout serializes
	// identically, in ascending order.
	IDsByLayout(ctx context.Context, layout domain.Layout) ([]int64, error)

	// AppendVersion appends one entry to a single record's ledger as a
	// serialized read-modify-write in its own transaction.
	AppendVersion(ctx context.Context, id int64, prompt string, ts time.Time) error

	DeleteAll(ctx context.Context) error
}
