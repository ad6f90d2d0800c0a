package service

import (
	"context"
	"fmt"

	"github.com/procurehq/procureflow/internal/application/port"
	"github.com/procurehq/procureflow/internal/domain/approval"
	"github.com/procurehq/procureflow/internal/domain/entity"
)

// memStore is an in-memory stand-in for the sqlite repositories. It keeps
// the same observable semantics the real layer has: versioned request
// updates and a unique (request, level) constraint on steps.
type memStore struct {
	requests map[int64]*entity.PurchaseRequest
	items    map[int64][]*entity.RequestItem
	steps    map[int64][]*entity.ApprovalStep
	notes    map[int64][]*entity.FinanceNote
	policies []*entity.ApprovalPolicy
	nextID   int64

	// updateHook, when set, replaces the request update entirely; used to
	// inject conflicts.
	updateHook func(req *entity.PurchaseRequest) error
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[int64]*entity.PurchaseRequest),
		items:    make(map[int64][]*entity.RequestItem),
		steps:    make(map[int64][]*entity.ApprovalStep),
		notes:    make(map[int64][]*entity.FinanceNote),
	}
}

type memRequests struct{ s *memStore }

func (r memRequests) Create(_ context.Context, req *entity.PurchaseRequest) error {
	r.s.nextID++
	req.ID = r.s.nextID
	req.Version = 1
	stored := *req
	r.s.requests[req.ID] = &stored
	return nil
}

func (r memRequests) GetByID(_ context.Context, id int64) (*entity.PurchaseRequest, error) {
	stored, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *stored
	cp.Items, cp.Steps, cp.Notes = nil, nil, nil
	return &cp, nil
}

func (r memRequests) Update(_ context.Context, req *entity.PurchaseRequest) error {
	if r.s.updateHook != nil {
		return r.s.updateHook(req)
	}
	stored, ok := r.s.requests[req.ID]
	if !ok {
		return fmt.Errorf("%w: request %d", approval.ErrNotFound, req.ID)
	}
	if stored.Version != req.Version {
		return fmt.Errorf("%w: request %d version %d", approval.ErrConflict, req.ID, req.Version)
	}
	cp := *req
	cp.Items, cp.Steps, cp.Notes = nil, nil, nil
	cp.Version++
	r.s.requests[req.ID] = &cp
	req.Version++
	return nil
}

func (r memRequests) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.requests[id]; !ok {
		return fmt.Errorf("%w: request %d", approval.ErrNotFound, id)
	}
	delete(r.s.requests, id)
	delete(r.s.items, id)
	delete(r.s.steps, id)
	delete(r.s.notes, id)
	return nil
}

func (r memRequests) List(_ context.Context, filter port.RequestFilter) ([]*entity.PurchaseRequest, error) {
	var out []*entity.PurchaseRequest
	for id := int64(1); id <= r.s.nextID; id++ {
		stored, ok := r.s.requests[id]
		if !ok {
			continue
		}
		if filter.CreatedBy != "" && stored.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Status != "" && stored.Status != filter.Status {
			continue
		}
		cp := *stored
		cp.Items, cp.Steps, cp.Notes = nil, nil, nil
		out = append(out, &cp)
	}
	return out, nil
}

type memItems struct{ s *memStore }

func (r memItems) Replace(_ context.Context, requestID int64, items []*entity.RequestItem) error {
	stored := make([]*entity.RequestItem, 0, len(items))
	for i, item := range items {
		cp := *item
		cp.ID = int64(i + 1)
		cp.RequestID = requestID
		stored = append(stored, &cp)
	}
	r.s.items[requestID] = stored
	return nil
}

func (r memItems) GetByRequestID(_ context.Context, requestID int64) ([]*entity.RequestItem, error) {
	return append([]*entity.RequestItem(nil), r.s.items[requestID]...), nil
}

type memSteps struct{ s *memStore }

func (r memSteps) Create(_ context.Context, step *entity.ApprovalStep) error {
	for _, existing := range r.s.steps[step.RequestID] {
		if existing.Level == step.Level {
			return fmt.Errorf("%w: level %d of request %d already decided",
				approval.ErrConflict, step.Level, step.RequestID)
		}
	}
	cp := *step
	cp.ID = int64(len(r.s.steps[step.RequestID]) + 1)
	r.s.steps[step.RequestID] = append(r.s.steps[step.RequestID], &cp)
	step.ID = cp.ID
	return nil
}

func (r memSteps) GetByRequestID(_ context.Context, requestID int64) ([]*entity.ApprovalStep, error) {
	return append([]*entity.ApprovalStep(nil), r.s.steps[requestID]...), nil
}

type memNotes struct{ s *memStore }

func (r memNotes) Create(_ context.Context, note *entity.FinanceNote) error {
	cp := *note
	cp.ID = int64(len(r.s.notes[note.RequestID]) + 1)
	r.s.notes[note.RequestID] = append(r.s.notes[note.RequestID], &cp)
	note.ID = cp.ID
	return nil
}

func (r memNotes) GetByRequestID(_ context.Context, requestID int64) ([]*entity.FinanceNote, error) {
	return append([]*entity.FinanceNote(nil), r.s.notes[requestID]...), nil
}

type memPolicies struct{ s *memStore }

func (r memPolicies) ListActive(_ context.Context) ([]*entity.ApprovalPolicy, error) {
	return r.s.policies, nil
}

type memTx struct{}

func (memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// fixture wires the three services over a shared memStore.
type fixture struct {
	store    *memStore
	requests RequestService
	decide   DecisionService
	finance  FinanceService
}

func newFixture() *fixture {
	s := newMemStore()
	req := memRequests{s}
	items := memItems{s}
	steps := memSteps{s}
	notes := memNotes{s}
	policies := memPolicies{s}

	return &fixture{
		store:    s,
		requests: NewRequestService(req, items, steps, notes, policies, memTx{}, nopLogger{}),
		decide:   NewDecisionService(req, items, steps, notes, memTx{}, nopLogger{}),
		finance:  NewFinanceService(req, items, steps, notes, memTx{}, nopLogger{}),
	}
}

var (
	staff       = entity.Actor{ID: "u-staff-1", Name: "Ada", Role: entity.RoleStaff}
	approver    = entity.Actor{ID: "u-appr-1", Name: "Grace", Role: entity.RoleApprover}
	approver2nd = entity.Actor{ID: "u-appr-2", Name: "Edsger", Role: entity.RoleApprover}
	financeUser = entity.Actor{ID: "u-fin-1", Name: "Barbara", Role: entity.RoleFinance}
)
