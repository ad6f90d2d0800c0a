package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procurehq/procureflow/internal/application/port"
	"github.com/procurehq/procureflow/internal/domain/entity"
	"github.com/procurehq/procureflow/internal/infrastructure/persistence/sqlite"
)

// ItemRepository persists the request item ledger.
type ItemRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *sqlite.DB, logger *zap.Logger) *ItemRepository {
	return &ItemRepository{db: db, logger: logger}
}

// Replace swaps the item ledger of a request wholesale. Pending-request
// edits replace items rather than patching them, matching the create path.
func (r *ItemRepository) Replace(ctx context.Context, requestID int64, items []*entity.RequestItem) error {
	exec := r.db.Executor(ctx)

	if _, err := exec.ExecContext(ctx, `DELETE FROM request_items WHERE request_id = ?`, requestID); err != nil {
		r.logger.Error("Failed to clear items", zap.Int64("request_id", requestID), zap.Error(err))
		return fmt.Errorf("failed to clear items: %w", err)
	}

	query := `INSERT INTO request_items (request_id, item_name, qty, price) VALUES (?, ?, ?, ?)`
	for _, item := range items {
		result, err := exec.ExecContext(ctx, query, requestID, item.ItemName, item.Qty, item.Price.String())
		if err != nil {
			r.logger.Error("Failed to insert item", zap.Int64("request_id", requestID), zap.Error(err))
			return fmt.Errorf("failed to insert item: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		item.ID = id
		item.RequestID = requestID
	}
	return nil
}

// GetByRequestID retrieves the items of a request in insertion order.
func (r *ItemRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.RequestItem, error) {
	query := `SELECT id, request_id, item_name, qty, price FROM request_items WHERE request_id = ? ORDER BY id`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get items", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []*entity.RequestItem
	for rows.Next() {
		var item entity.RequestItem
		var price string
		if err := rows.Scan(&item.ID, &item.RequestID, &item.ItemName, &item.Qty, &price); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

var _ port.ItemRepository = (*ItemRepository)(nil)
