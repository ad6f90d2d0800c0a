package port

import (
	"context"

	"github.com/procurehq/procureflow/internal/domain/entity"
)

// RequestFilter narrows a request listing. Zero values mean "no constraint".
type RequestFilter struct {
	CreatedBy string
	Status    entity.RequestStatus
}

// RequestRepository defines persistence operations for PurchaseRequest rows.
// Mutating operations take the caller-held Version; implementations must
// fail with the conflict sentinel when the stored version has moved on.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.PurchaseRequest) error
	GetByID(ctx context.Context, id int64) (*entity.PurchaseRequest, error)
	Update(ctx context.Context, req *entity.PurchaseRequest) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter RequestFilter) ([]*entity.PurchaseRequest, error)
}

// ItemRepository defines persistence operations for RequestItem rows. Items
// are replaced wholesale when a pending request is edited.
type ItemRepository interface {
	Replace(ctx context.Context, requestID int64, items []*entity.RequestItem) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.RequestItem, error)
}

// StepRepository defines persistence operations for the append-only approval
// step ledger.
type StepRepository interface {
	Create(ctx context.Context, step *entity.ApprovalStep) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalStep, error)
}

// NoteRepository defines persistence operations for finance notes.
type NoteRepository interface {
	Create(ctx context.Context, note *entity.FinanceNote) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.FinanceNote, error)
}

// PolicyRepository provides the active approval policy bands.
type PolicyRepository interface {
	ListActive(ctx context.Context) ([]*entity.ApprovalPolicy, error)
}

// TransactionManager handles database transactions.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
