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

// PolicyRepository reads the approval policy bands.
type PolicyRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository.
func NewPolicyRepository(db *sqlite.DB, logger *zap.Logger) *PolicyRepository {
	return &PolicyRepository{db: db, logger: logger}
}

// ListActive retrieves the active policy bands in ascending MinAmount order.
func (r *PolicyRepository) ListActive(ctx context.Context) ([]*entity.ApprovalPolicy, error) {
	query := `
		SELECT id, title, min_amount, max_amount, required_approval_levels, active, created_at
		FROM approval_policies WHERE active = 1 ORDER BY min_amount
	`
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list approval policies", zap.Error(err))
		return nil, fmt.Errorf("failed to list approval policies: %w", err)
	}
	defer rows.Close()

	var policies []*entity.ApprovalPolicy
	for rows.Next() {
		var policy entity.ApprovalPolicy
		var minAmount, maxAmount string
		if err := rows.Scan(&policy.ID, &policy.Title, &minAmount, &maxAmount,
			&policy.RequiredApprovalLevels, &policy.Active, &policy.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval policy: %w", err)
		}
		if policy.MinAmount, err = decimal.NewFromString(minAmount); err != nil {
			return nil, fmt.Errorf("invalid stored min amount %q: %w", minAmount, err)
		}
		if policy.MaxAmount, err = decimal.NewFromString(maxAmount); err != nil {
			return nil, fmt.Errorf("invalid stored max amount %q: %w", maxAmount, err)
		}
		policies = append(policies, &policy)
	}
	return policies, rows.Err()
}

var _ port.PolicyRepository = (*PolicyRepository)(nil)
