package entity

// RequestStatus is the aggregate lifecycle status of a purchase request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
)

// Decision is the resolved outcome of a single approval step. Steps are
// created already resolved; a pending level is simply an absent step.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// IsValid returns true if the decision is one of the two resolved outcomes.
func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Role identifies what an authenticated actor may do to a request.
type Role string

const (
	RoleStaff    Role = "staff"
	RoleApprover Role = "approver"
	RoleFinance  Role = "finance"
)

// IsValid returns true if the role is one of the three known roles.
func (r Role) IsValid() bool {
	return r == RoleStaff || r == RoleApprover || r == RoleFinance
}

// DocumentSlot names one of the three attachment points on a request.
type DocumentSlot string

const (
	SlotProformaInvoice DocumentSlot = "proforma_invoice"
	SlotPurchaseOrder   DocumentSlot = "purchase_order"
	SlotReceipt         DocumentSlot = "receipt"
)

// FinanceSettable returns true if finance actors may write this slot after
// approval. The proforma invoice is set by the creator at creation time.
func (s DocumentSlot) FinanceSettable() bool {
	return s == SlotPurchaseOrder || s == SlotReceipt
}
