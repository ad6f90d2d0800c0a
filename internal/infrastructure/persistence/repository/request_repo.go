package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procurehq/procureflow/internal/application/port"
	"github.com/procurehq/procureflow/internal/domain/approval"
	"github.com/procurehq/procureflow/internal/domain/entity"
	"github.com/procurehq/procureflow/internal/infrastructure/persistence/sqlite"
)

// RequestRepository persists purchase request rows. Status-affecting writes
// are versioned: an UPDATE that matches no row because the version moved on
// surfaces the conflict sentinel, which the caller retries after re-reading.
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository.
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{db: db, logger: logger}
}

const requestColumns = `id, title, description, amount, status, required_approval_levels,
		created_by, proforma_invoice, purchase_order, receipt, version, created_at, updated_at`

// Create inserts a new request row and fills in the assigned id.
func (r *RequestRepository) Create(ctx context.Context, req *entity.PurchaseRequest) error {
	query := `
		INSERT INTO purchase_requests (
			title, description, amount, status, required_approval_levels,
			created_by, proforma_invoice, purchase_order, receipt, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`
	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		req.Title,
		req.Description,
		req.Amount.String(),
		string(req.Status),
		req.RequiredApprovalLevels,
		req.CreatedBy,
		req.Documents.ProformaInvoice,
		req.Documents.PurchaseOrder,
		req.Documents.Receipt,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	req.Version = 1
	return nil
}

// GetByID retrieves a request row by id. Returns (nil, nil) when absent.
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.PurchaseRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM purchase_requests WHERE id = ?`

	req, err := scanRequest(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// Update writes the mutable columns guarded by the caller-held version and
// bumps it. Zero matched rows means a concurrent writer won the race.
func (r *RequestRepository) Update(ctx context.Context, req *entity.PurchaseRequest) error {
	query := `
		UPDATE purchase_requests
		SET title = ?, description = ?, amount = ?, status = ?,
			proforma_invoice = ?, purchase_order = ?, receipt = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		req.Title,
		req.Description,
		req.Amount.String(),
		string(req.Status),
		req.Documents.ProformaInvoice,
		req.Documents.PurchaseOrder,
		req.Documents.Receipt,
		req.UpdatedAt,
		req.ID,
		req.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %d version %d", approval.ErrConflict, req.ID, req.Version)
	}
	req.Version++
	return nil
}

// Delete removes a request row. Child rows go with it via ON DELETE CASCADE.
func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM purchase_requests WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete request", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %d", approval.ErrNotFound, id)
	}
	return nil
}

// List retrieves request rows matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter) ([]*entity.PurchaseRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM purchase_requests WHERE 1=1`
	args := []interface{}{}

	if filter.CreatedBy != "" {
		query += ` AND created_by = ?`
		args = append(args, filter.CreatedBy)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.PurchaseRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.PurchaseRequest, error) {
	var req entity.PurchaseRequest
	var amount, status string

	err := row.Scan(
		&req.ID,
		&req.Title,
		&req.Description,
		&amount,
		&status,
		&req.RequiredApprovalLevels,
		&req.CreatedBy,
		&req.Documents.ProformaInvoice,
		&req.Documents.PurchaseOrder,
		&req.Documents.Receipt,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	req.Status = entity.RequestStatus(status)
	return &req, nil
}

var _ port.RequestRepository = (*RequestRepository)(nil)
