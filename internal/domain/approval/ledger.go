package approval

import (
	"fmt"
	"strings"
	"time"

	"github.com/procurehq/procureflow/internal/domain/entity"
)

// Ledger applies approver decisions to a request's approval-step ledger and
// keeps the aggregate status in sync with it. The ledger is append-only:
// decisions are born resolved and never edited.
type Ledger struct {
	machine *Machine
}

// NewLedger creates a ledger bound to the purchase-request lifecycle machine.
func NewLedger() *Ledger {
	return &Ledger{machine: NewMachine()}
}

// RecordDecision appends one resolved approval step at the next unfilled
// level and recomputes the aggregate status. The caller persists the new
// step and the status change as a single atomic unit.
func (l *Ledger) RecordDecision(req *entity.PurchaseRequest, approver entity.Actor, decision entity.Decision, comments string, now time.Time) (*entity.ApprovalStep, error) {
	if req.Status != entity.StatusPending {
		return nil, fmt.Errorf("%w: request %d is %s", ErrInvalidState, req.ID, req.Status)
	}
	if !decision.IsValid() {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, decision)
	}
	nextLevel := req.NextLevel()
	if nextLevel > req.RequiredApprovalLevels {
		return nil, fmt.Errorf("%w: request %d already has %d of %d levels",
			ErrLevelExceeded, req.ID, nextLevel-1, req.RequiredApprovalLevels)
	}
	comments = strings.TrimSpace(comments)
	if decision == entity.DecisionRejected && comments == "" {
		return nil, fmt.Errorf("%w: comments are required when rejecting", ErrValidation)
	}

	step := &entity.ApprovalStep{
		RequestID:  req.ID,
		Level:      nextLevel,
		ApproverID: approver.ID,
		Status:     decision,
		Comments:   comments,
		CreatedAt:  now,
	}
	req.Steps = append(req.Steps, step)

	switch ProjectStatus(req.Steps, req.RequiredApprovalLevels) {
	case entity.StatusRejected:
		if err := l.machine.Fire(req, TriggerReject); err != nil {
			return nil, err
		}
	case entity.StatusApproved:
		if err := l.machine.Fire(req, TriggerApprove); err != nil {
			return nil, err
		}
	}
	req.UpdatedAt = now

	return step, nil
}

// ProjectStatus derives the aggregate status from the step ledger: any
// rejection is terminal, a full set of approvals is terminal, anything else
// is still pending.
func ProjectStatus(steps []*entity.ApprovalStep, requiredLevels int) entity.RequestStatus {
	approved := 0
	for _, step := range steps {
		if step.Status == entity.DecisionRejected {
			return entity.StatusRejected
		}
		if step.Status == entity.DecisionApproved {
			approved++
		}
	}
	if approved >= requiredLevels {
		return entity.StatusApproved
	}
	return entity.StatusPending
}

// VerifyLedger checks the structural invariants of a persisted step ledger:
// levels form a strictly increasing sequence from 1 with no gaps, and no
// step follows a rejection.
func VerifyLedger(steps []*entity.ApprovalStep) error {
	for i, step := range steps {
		if step.Level != i+1 {
			return fmt.Errorf("%w: step at index %d has level %d", ErrValidation, i, step.Level)
		}
		if step.Status == entity.DecisionRejected && i != len(steps)-1 {
			return fmt.Errorf("%w: steps recorded after rejection at level %d", ErrValidation, step.Level)
		}
	}
	return nil
}
