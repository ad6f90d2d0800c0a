package service

import (
	"context"
	"fmt"
	"time"

	"github.com/procurehq/procureflow/internal/application/port"
	"github.com/procurehq/procureflow/internal/domain/approval"
	"github.com/procurehq/procureflow/internal/domain/entity"
)

// DecisionService records approver decisions against the approval-step
// ledger and keeps the request status in sync.
type DecisionService interface {
	Decide(ctx context.Context, actor entity.Actor, requestID int64, decision entity.Decision, comments string) (*entity.PurchaseRequest, error)
}

type decisionServiceImpl struct {
	loader    aggregateLoader
	ledger    *approval.Ledger
	txManager port.TransactionManager
	logger    Logger
	now       func() time.Time
}

// NewDecisionService creates a new DecisionService.
func NewDecisionService(
	requestRepo port.RequestRepository,
	itemRepo port.ItemRepository,
	stepRepo port.StepRepository,
	noteRepo port.NoteRepository,
	txManager port.TransactionManager,
	logger Logger,
) DecisionService {
	return &decisionServiceImpl{
		loader:    aggregateLoader{requestRepo: requestRepo, itemRepo: itemRepo, stepRepo: stepRepo, noteRepo: noteRepo},
		ledger:    approval.NewLedger(),
		txManager: txManager,
		logger:    logger,
		now:       time.Now,
	}
}

// Decide appends one resolved approval step at the next unfilled level and
// persists the step together with any status change as a single atomic
// unit. A concurrent decision for the same level loses with the conflict
// sentinel and should be retried by the caller after re-reading state.
func (s *decisionServiceImpl) Decide(ctx context.Context, actor entity.Actor, requestID int64, decision entity.Decision, comments string) (*entity.PurchaseRequest, error) {
	if actor.Role != entity.RoleApprover {
		return nil, fmt.Errorf("%w: only approvers may decide", approval.ErrUnauthorized)
	}

	var updated *entity.PurchaseRequest

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.loader.load(txCtx, requestID)
		if err != nil {
			return err
		}

		step, err := s.ledger.RecordDecision(req, actor, decision, comments, s.now())
		if err != nil {
			return err
		}

		if err := s.loader.stepRepo.Create(txCtx, step); err != nil {
			return err
		}
		if err := s.loader.requestRepo.Update(txCtx, req); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record decision",
			"error", err, "request_id", requestID, "approver", actor.ID, "decision", string(decision))
		return nil, err
	}

	s.logger.Info("Decision recorded",
		"request_id", requestID, "approver", actor.ID,
		"decision", string(decision), "status", string(updated.Status))
	return updated, nil
}
