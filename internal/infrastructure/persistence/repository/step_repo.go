package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/procurehq/procureflow/internal/application/port"
	"github.com/procurehq/procureflow/internal/domain/approval"
	"github.com/procurehq/procureflow/internal/domain/entity"
	"github.com/procurehq/procureflow/internal/infrastructure/persistence/sqlite"
)

// StepRepository persists the append-only approval step ledger. The
// UNIQUE(request_id, level) index is the storage-level backstop for the
// one-step-per-level invariant; a racing insert for the same level comes
// back as a conflict.
type StepRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewStepRepository creates a new step repository.
func NewStepRepository(db *sqlite.DB, logger *zap.Logger) *StepRepository {
	return &StepRepository{db: db, logger: logger}
}

// Create appends one resolved step to the ledger.
func (r *StepRepository) Create(ctx context.Context, step *entity.ApprovalStep) error {
	query := `
		INSERT INTO approval_steps (request_id, level, approver_id, status, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		step.RequestID,
		step.Level,
		step.ApproverID,
		string(step.Status),
		step.Comments,
		step.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: level %d of request %d already decided",
				approval.ErrConflict, step.Level, step.RequestID)
		}
		r.logger.Error("Failed to create approval step",
			zap.Int64("request_id", step.RequestID), zap.Int("level", step.Level), zap.Error(err))
		return fmt.Errorf("failed to create approval step: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	step.ID = id
	return nil
}

// GetByRequestID retrieves the ledger of a request in level order.
func (r *StepRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalStep, error) {
	query := `
		SELECT id, request_id, level, approver_id, status, comments, created_at
		FROM approval_steps WHERE request_id = ? ORDER BY level
	`
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get approval steps", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval steps: %w", err)
	}
	defer rows.Close()

	var steps []*entity.ApprovalStep
	for rows.Next() {
		var step entity.ApprovalStep
		var status string
		if err := rows.Scan(&step.ID, &step.RequestID, &step.Level, &step.ApproverID, &status, &step.Comments, &step.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}
		step.Status = entity.Decision(status)
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}

var _ port.StepRepository = (*StepRepository)(nil)
