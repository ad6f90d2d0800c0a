package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRequest is the root entity of the approval workflow. Amount is
// always derived from the items; Status is always derived from the approval
// step ledger. Version backs optimistic concurrency at the storage layer.
type PurchaseRequest struct {
	ID                     int64           `json:"id"`
	Title                  string          `json:"title"`
	Description            string          `json:"description"`
	Amount                 decimal.Decimal `json:"amount"`
	Status                 RequestStatus   `json:"status"`
	RequiredApprovalLevels int             `json:"required_approval_levels"`
	CreatedBy              string          `json:"created_by"`
	Version                int64           `json:"-"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`

	Items     []*RequestItem  `json:"items"`
	Steps     []*ApprovalStep `json:"approval_steps"`
	Notes     []*FinanceNote  `json:"finance_notes"`
	Documents Documents       `json:"documents"`
}

// RequestItem is a single line entry of a purchase request.
type RequestItem struct {
	ID        int64           `json:"id"`
	RequestID int64           `json:"request_id"`
	ItemName  string          `json:"item_name"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

// TotalPrice returns qty * unit price.
func (i *RequestItem) TotalPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// ApprovalStep is one approver's resolved decision at a specific level.
// Steps form an append-only ledger; they are never edited or deleted.
type ApprovalStep struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	Level      int       `json:"level"`
	ApproverID string    `json:"approver_id"`
	Status     Decision  `json:"status"`
	Comments   string    `json:"comments,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FinanceNote is a free-text annotation added by finance after approval.
type FinanceNote struct {
	ID            int64     `json:"id"`
	RequestID     int64     `json:"request_id"`
	FinanceUserID string    `json:"finance_user_id"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
}

// Documents holds the three attachment slots. Values are opaque file
// references supplied by the upload collaborator; empty means unset.
type Documents struct {
	ProformaInvoice string `json:"proforma_invoice,omitempty"`
	PurchaseOrder   string `json:"purchase_order,omitempty"`
	Receipt         string `json:"receipt,omitempty"`
}

// Recalculate recomputes Amount from the item ledger.
func (r *PurchaseRequest) Recalculate() {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.TotalPrice())
	}
	r.Amount = total
}

// NextLevel returns the level the next approval step must occupy.
func (r *PurchaseRequest) NextLevel() int {
	max := 0
	for _, step := range r.Steps {
		if step.Level > max {
			max = step.Level
		}
	}
	return max + 1
}

// ApprovedCount returns the number of resolved APPROVED steps.
func (r *PurchaseRequest) ApprovedCount() int {
	n := 0
	for _, step := range r.Steps {
		if step.Status == DecisionApproved {
			n++
		}
	}
	return n
}

// SlotRef returns the stored reference for a document slot.
func (r *PurchaseRequest) SlotRef(slot DocumentSlot) string {
	switch slot {
	case SlotProformaInvoice:
		return r.Documents.ProformaInvoice
	case SlotPurchaseOrder:
		return r.Documents.PurchaseOrder
	case SlotReceipt:
		return r.Documents.Receipt
	}
	return ""
}

// SetSlotRef stores a reference in a document slot, replacing any prior one.
func (r *PurchaseRequest) SetSlotRef(slot DocumentSlot, ref string) {
	switch slot {
	case SlotProformaInvoice:
		r.Documents.ProformaInvoice = ref
	case SlotPurchaseOrder:
		r.Documents.PurchaseOrder = ref
	case SlotReceipt:
		r.Documents.Receipt = ref
	}
}
