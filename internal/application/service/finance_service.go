package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/procurehq/procureflow/internal/application/port"
	"github.com/procurehq/procureflow/internal/domain/approval"
	"github.com/procurehq/procureflow/internal/domain/entity"
)

// FinanceService covers the post-approval stage: free-text annotations and
// the purchase-order/receipt document slots.
type FinanceService interface {
	AddNote(ctx context.Context, actor entity.Actor, requestID int64, text string) (*entity.PurchaseRequest, error)
	AttachDocument(ctx context.Context, actor entity.Actor, requestID int64, slot entity.DocumentSlot, fileRef string) (*entity.PurchaseRequest, error)
}

type financeServiceImpl struct {
	loader    aggregateLoader
	txManager port.TransactionManager
	logger    Logger
	now       func() time.Time
}

// NewFinanceService creates a new FinanceService.
func NewFinanceService(
	requestRepo port.RequestRepository,
	itemRepo port.ItemRepository,
	stepRepo port.StepRepository,
	noteRepo port.NoteRepository,
	txManager port.TransactionManager,
	logger Logger,
) FinanceService {
	return &financeServiceImpl{
		loader:    aggregateLoader{requestRepo: requestRepo, itemRepo: itemRepo, stepRepo: stepRepo, noteRepo: noteRepo},
		txManager: txManager,
		logger:    logger,
		now:       time.Now,
	}
}

// AddNote appends a finance note to an approved request. The request status
// is not altered.
func (s *financeServiceImpl) AddNote(ctx context.Context, actor entity.Actor, requestID int64, text string) (*entity.PurchaseRequest, error) {
	if actor.Role != entity.RoleFinance {
		return nil, fmt.Errorf("%w: only finance may add notes", approval.ErrUnauthorized)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: note text is required", approval.ErrValidation)
	}

	var updated *entity.PurchaseRequest

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.loader.load(txCtx, requestID)
		if err != nil {
			return err
		}
		if req.Status != entity.StatusApproved {
			return fmt.Errorf("%w: request %d is %s", approval.ErrInvalidState, requestID, req.Status)
		}

		note := &entity.FinanceNote{
			RequestID:     requestID,
			FinanceUserID: actor.ID,
			Note:          text,
			CreatedAt:     s.now(),
		}
		if err := s.loader.noteRepo.Create(txCtx, note); err != nil {
			return err
		}
		req.Notes = append(req.Notes, note)
		updated = req
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to add finance note", "error", err, "request_id", requestID, "actor", actor.ID)
		return nil, err
	}

	s.logger.Info("Finance note added", "request_id", requestID, "actor", actor.ID)
	return updated, nil
}

// AttachDocument stores a file reference in the purchase-order or receipt
// slot of an approved request. A prior reference in the slot is replaced
// (last write wins, no history kept).
func (s *financeServiceImpl) AttachDocument(ctx context.Context, actor entity.Actor, requestID int64, slot entity.DocumentSlot, fileRef string) (*entity.PurchaseRequest, error) {
	if actor.Role != entity.RoleFinance {
		return nil, fmt.Errorf("%w: only finance may attach documents", approval.ErrUnauthorized)
	}
	if !slot.FinanceSettable() {
		return nil, fmt.Errorf("%w: slot %q is not finance-settable", approval.ErrValidation, slot)
	}
	if strings.TrimSpace(fileRef) == "" {
		return nil, fmt.Errorf("%w: file reference is required", approval.ErrValidation)
	}

	var updated *entity.PurchaseRequest

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.loader.load(txCtx, requestID)
		if err != nil {
			return err
		}
		if req.Status != entity.StatusApproved {
			return fmt.Errorf("%w: request %d is %s", approval.ErrInvalidState, requestID, req.Status)
		}

		req.SetSlotRef(slot, fileRef)
		req.UpdatedAt = s.now()
		if err := s.loader.requestRepo.Update(txCtx, req); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to attach document",
			"error", err, "request_id", requestID, "slot", string(slot), "actor", actor.ID)
		return nil, err
	}

	s.logger.Info("Document attached", "request_id", requestID, "slot", string(slot), "actor", actor.ID)
	return updated, nil
}
