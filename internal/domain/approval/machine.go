package approval

import (
	"fmt"

	"github.com/procurehq/procureflow/internal/domain/entity"
)

// Trigger is an event that can move a request between lifecycle states.
type Trigger string

const (
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}

// GuardFunc evaluates whether a transition should be allowed for a request.
type GuardFunc func(req *entity.PurchaseRequest) bool

type transition struct {
	toStatus entity.RequestStatus
	guard    GuardFunc
}

// Machine validates and applies lifecycle transitions for purchase requests.
// PENDING is the only non-terminal state; APPROVED and REJECTED accept no
// further triggers.
type Machine struct {
	transitions map[entity.RequestStatus]map[Trigger][]transition
}

// NewMachine builds the purchase-request lifecycle machine:
//
//	PENDING --APPROVE (all required levels approved)--> APPROVED
//	PENDING --REJECT--> REJECTED
func NewMachine() *Machine {
	m := &Machine{transitions: make(map[entity.RequestStatus]map[Trigger][]transition)}
	m.permit(entity.StatusPending, TriggerApprove, entity.StatusApproved, func(req *entity.PurchaseRequest) bool {
		return req.ApprovedCount() == req.RequiredApprovalLevels
	})
	m.permit(entity.StatusPending, TriggerReject, entity.StatusRejected, nil)
	return m
}

func (m *Machine) permit(from entity.RequestStatus, trigger Trigger, to entity.RequestStatus, guard GuardFunc) {
	if m.transitions[from] == nil {
		m.transitions[from] = make(map[Trigger][]transition)
	}
	m.transitions[from][trigger] = append(m.transitions[from][trigger], transition{toStatus: to, guard: guard})
}

// IsTerminal returns true if no trigger can leave the given status.
func (m *Machine) IsTerminal(status entity.RequestStatus) bool {
	return len(m.transitions[status]) == 0
}

// CanFire returns true if the trigger is configured for the request's
// current status and its guard passes.
func (m *Machine) CanFire(req *entity.PurchaseRequest, trigger Trigger) bool {
	for _, t := range m.transitions[req.Status][trigger] {
		if t.guard == nil || t.guard(req) {
			return true
		}
	}
	return false
}

// Fire applies the trigger, mutating the request's status. It returns
// ErrInvalidTransition when the trigger is not configured for the current
// status and ErrInvalidState when every guard rejects the transition.
func (m *Machine) Fire(req *entity.PurchaseRequest, trigger Trigger) error {
	transitions, ok := m.transitions[req.Status][trigger]
	if !ok || len(transitions) == 0 {
		return fmt.Errorf("%w: trigger %s from status %s", ErrInvalidTransition, trigger, req.Status)
	}
	for _, t := range transitions {
		if t.guard == nil || t.guard(req) {
			req.Status = t.toStatus
			return nil
		}
	}
	return fmt.Errorf("%w: guard rejected trigger %s from status %s", ErrInvalidState, trigger, req.Status)
}

// PermittedTriggers returns the triggers configured for a status.
func (m *Machine) PermittedTriggers(status entity.RequestStatus) []Trigger {
	triggers := make([]Trigger, 0, len(m.transitions[status]))
	for trigger := range m.transitions[status] {
		triggers = append(triggers, trigger)
	}
	return triggers
}
