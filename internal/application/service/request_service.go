package service

import (
	"context"
	"fmt"
	"time"

	"github.com/procurehq/procureflow/internal/application/port"
	"github.com/procurehq/procureflow/internal/domain/approval"
	"github.com/procurehq/procureflow/internal/domain/entity"
)

// ListScope selects which slice of requests a listing returns. Staff and
// approvers have exactly one scope each; finance defaults to approved
// requests and may ask for everything (reporting).
type ListScope string

const (
	ScopeDefault ListScope = ""
	ScopeAll     ListScope = "all"
)

// RequestService exposes the staff-facing lifecycle operations plus the
// role-scoped read side.
type RequestService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateRequestInput) (*entity.PurchaseRequest, error)
	Edit(ctx context.Context, actor entity.Actor, id int64, patch EditRequestInput) (*entity.PurchaseRequest, error)
	Delete(ctx context.Context, actor entity.Actor, id int64) error
	Get(ctx context.Context, actor entity.Actor, id int64) (*entity.PurchaseRequest, error)
	List(ctx context.Context, actor entity.Actor, scope ListScope) ([]*entity.PurchaseRequest, error)
}

type requestServiceImpl struct {
	loader     aggregateLoader
	policyRepo port.PolicyRepository
	txManager  port.TransactionManager
	logger     Logger
	now        func() time.Time
}

// NewRequestService creates a new RequestService.
func NewRequestService(
	requestRepo port.RequestRepository,
	itemRepo port.ItemRepository,
	stepRepo port.StepRepository,
	noteRepo port.NoteRepository,
	policyRepo port.PolicyRepository,
	txManager port.TransactionManager,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		loader:     aggregateLoader{requestRepo: requestRepo, itemRepo: itemRepo, stepRepo: stepRepo, noteRepo: noteRepo},
		policyRepo: policyRepo,
		txManager:  txManager,
		logger:     logger,
		now:        time.Now,
	}
}

// Create validates the input, derives the amount and the required approval
// levels, and persists the request with its item ledger in one transaction.
func (s *requestServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreateRequestInput) (*entity.PurchaseRequest, error) {
	if actor.Role != entity.RoleStaff {
		return nil, fmt.Errorf("%w: only staff may create requests", approval.ErrUnauthorized)
	}

	now := s.now()
	req := &entity.PurchaseRequest{
		Title:       input.Title,
		Description: input.Description,
		Status:      entity.StatusPending,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       toItems(0, input.Items),
		Documents:   entity.Documents{ProformaInvoice: input.ProformaInvoice},
	}
	req.Recalculate()

	policies, err := s.policyRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	req.RequiredApprovalLevels = approval.RequiredLevels(policies, req.Amount)

	if err := approval.ValidateNewRequest(req); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.loader.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		for _, item := range req.Items {
			item.RequestID = req.ID
		}
		if err := s.loader.itemRepo.Replace(txCtx, req.ID, req.Items); err != nil {
			return fmt.Errorf("create items: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create request", "error", err, "actor", actor.ID)
		return nil, err
	}

	s.logger.Info("Request created",
		"id", req.ID, "actor", actor.ID,
		"amount", req.Amount.String(), "levels", req.RequiredApprovalLevels)
	return req, nil
}

// Edit applies a partial update to a pending request. Only the creator may
// edit, and only while the request is still PENDING.
func (s *requestServiceImpl) Edit(ctx context.Context, actor entity.Actor, id int64, patch EditRequestInput) (*entity.PurchaseRequest, error) {
	var updated *entity.PurchaseRequest

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.loader.load(txCtx, id)
		if err != nil {
			return err
		}
		if req.CreatedBy != actor.ID || actor.Role != entity.RoleStaff {
			return fmt.Errorf("%w: only the creator may edit a request", approval.ErrUnauthorized)
		}
		if req.Status != entity.StatusPending {
			return fmt.Errorf("%w: request %d is %s", approval.ErrInvalidState, id, req.Status)
		}

		if patch.Title != nil {
			req.Title = *patch.Title
		}
		if patch.Description != nil {
			req.Description = *patch.Description
		}
		if patch.ProformaInvoice != nil {
			req.Documents.ProformaInvoice = *patch.ProformaInvoice
		}
		itemsReplaced := patch.Items != nil
		if itemsReplaced {
			req.Items = toItems(req.ID, patch.Items)
			req.Recalculate()
		}
		req.UpdatedAt = s.now()

		// Required approval levels stay fixed after creation even when the
		// amount changes.
		if err := approval.ValidateNewRequest(req); err != nil {
			return err
		}

		if itemsReplaced {
			if err := s.loader.itemRepo.Replace(txCtx, req.ID, req.Items); err != nil {
				return fmt.Errorf("replace items: %w", err)
			}
		}
		if err := s.loader.requestRepo.Update(txCtx, req); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to edit request", "error", err, "id", id, "actor", actor.ID)
		return nil, err
	}

	s.logger.Info("Request edited", "id", id, "actor", actor.ID)
	return updated, nil
}

// Delete removes a pending request. Only the creator may delete.
func (s *requestServiceImpl) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.loader.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("%w: request %d", approval.ErrNotFound, id)
		}
		if req.CreatedBy != actor.ID || actor.Role != entity.RoleStaff {
			return fmt.Errorf("%w: only the creator may delete a request", approval.ErrUnauthorized)
		}
		if req.Status != entity.StatusPending {
			return fmt.Errorf("%w: request %d is %s", approval.ErrInvalidState, id, req.Status)
		}
		return s.loader.requestRepo.Delete(txCtx, id)
	})
	if err != nil {
		s.logger.Error("Failed to delete request", "error", err, "id", id, "actor", actor.ID)
		return err
	}

	s.logger.Info("Request deleted", "id", id, "actor", actor.ID)
	return nil
}

// Get returns one request, enforcing the role visibility rules: staff see
// their own, approvers see requests still awaiting a decision, finance sees
// everything.
func (s *requestServiceImpl) Get(ctx context.Context, actor entity.Actor, id int64) (*entity.PurchaseRequest, error) {
	req, err := s.loader.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case entity.RoleStaff:
		if req.CreatedBy != actor.ID {
			return nil, fmt.Errorf("%w: not the creator", approval.ErrUnauthorized)
		}
	case entity.RoleApprover:
		if req.Status != entity.StatusPending {
			return nil, fmt.Errorf("%w: request is not awaiting decision", approval.ErrUnauthorized)
		}
	case entity.RoleFinance:
		// Finance may inspect any request (reporting).
	default:
		return nil, fmt.Errorf("%w: unknown role %q", approval.ErrUnauthorized, actor.Role)
	}
	return req, nil
}

// List returns the role-scoped request listing.
func (s *requestServiceImpl) List(ctx context.Context, actor entity.Actor, scope ListScope) ([]*entity.PurchaseRequest, error) {
	var filter port.RequestFilter

	switch actor.Role {
	case entity.RoleStaff:
		filter.CreatedBy = actor.ID
	case entity.RoleApprover:
		filter.Status = entity.StatusPending
	case entity.RoleFinance:
		if scope != ScopeAll {
			filter.Status = entity.StatusApproved
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", approval.ErrUnauthorized, actor.Role)
	}

	requests, err := s.loader.requestRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err, "actor", actor.ID)
		return nil, err
	}
	for _, req := range requests {
		if req.Items, err = s.loader.itemRepo.GetByRequestID(ctx, req.ID); err != nil {
			return nil, err
		}
		if req.Steps, err = s.loader.stepRepo.GetByRequestID(ctx, req.ID); err != nil {
			return nil, err
		}
		if req.Notes, err = s.loader.noteRepo.GetByRequestID(ctx, req.ID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}
