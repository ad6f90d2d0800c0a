package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurehq/procureflow/internal/domain/approval"
	"github.com/procurehq/procureflow/internal/domain/entity"
)

// approvedRequest creates a request and walks it through the full chain.
func approvedRequest(t *testing.T, f *fixture) *entity.PurchaseRequest {
	t.Helper()
	ctx := context.Background()

	created, err := f.requests.Create(ctx, staff, laptopOrder())
	require.NoError(t, err)
	_, err = f.decide.Decide(ctx, approver, created.ID, entity.DecisionApproved, "")
	require.NoError(t, err)
	req, err := f.decide.Decide(ctx, approver2nd, created.ID, entity.DecisionApproved, "")
	require.NoError(t, err)
	require.Equal(t, entity.StatusApproved, req.Status)
	return req
}

func TestFinanceService_AddNote(t *testing.T) {
	f := newFixture()
	req := approvedRequest(t, f)

	updated, err := f.finance.AddNote(context.Background(), financeUser, req.ID, "PO issued, payment net 30")
	require.NoError(t, err)

	require.Len(t, updated.Notes, 1)
	assert.Equal(t, financeUser.ID, updated.Notes[0].FinanceUserID)
	assert.Equal(t, "PO issued, payment net 30", updated.Notes[0].Note)
	// annotations never move the status
	assert.Equal(t, entity.StatusApproved, updated.Status)
}

func TestFinanceService_AddNoteBeforeApprovalFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pending, err := f.requests.Create(ctx, staff, laptopOrder())
	require.NoError(t, err)
	_, err = f.finance.AddNote(ctx, financeUser, pending.ID, "too early")
	assert.ErrorIs(t, err, approval.ErrInvalidState)

	rejected, err := f.requests.Create(ctx, staff, laptopOrder())
	require.NoError(t, err)
	_, err = f.decide.Decide(ctx, approver, rejected.ID, entity.DecisionRejected, "duplicate purchase")
	require.NoError(t, err)
	_, err = f.finance.AddNote(ctx, financeUser, rejected.ID, "noting a rejected request")
	assert.ErrorIs(t, err, approval.ErrInvalidState)
}

func TestFinanceService_AddNoteValidation(t *testing.T) {
	f := newFixture()
	req := approvedRequest(t, f)
	ctx := context.Background()

	_, err := f.finance.AddNote(ctx, financeUser, req.ID, "  \t ")
	assert.ErrorIs(t, err, approval.ErrValidation)

	for _, actor := range []entity.Actor{staff, approver} {
		_, err := f.finance.AddNote(ctx, actor, req.ID, "not my lane")
		assert.ErrorIs(t, err, approval.ErrUnauthorized, "role %s", actor.Role)
	}
}

func TestFinanceService_AttachDocument(t *testing.T) {
	f := newFixture()
	req := approvedRequest(t, f)
	ctx := context.Background()

	updated, err := f.finance.AttachDocument(ctx, financeUser, req.ID, entity.SlotPurchaseOrder, "po/2026-0147.pdf")
	require.NoError(t, err)
	assert.Equal(t, "po/2026-0147.pdf", updated.Documents.PurchaseOrder)

	// re-attaching replaces the reference
	updated, err = f.finance.AttachDocument(ctx, financeUser, req.ID, entity.SlotPurchaseOrder, "po/2026-0147-rev2.pdf")
	require.NoError(t, err)
	assert.Equal(t, "po/2026-0147-rev2.pdf", updated.Documents.PurchaseOrder)

	updated, err = f.finance.AttachDocument(ctx, financeUser, req.ID, entity.SlotReceipt, "receipts/inv-881.pdf")
	require.NoError(t, err)
	assert.Equal(t, "receipts/inv-881.pdf", updated.Documents.Receipt)
}

func TestFinanceService_AttachDocumentValidation(t *testing.T) {
	f := newFixture()
	req := approvedRequest(t, f)
	ctx := context.Background()

	// the proforma invoice belongs to the requester, not finance
	_, err := f.finance.AttachDocument(ctx, financeUser, req.ID, entity.SlotProformaInvoice, "proforma/late.pdf")
	assert.ErrorIs(t, err, approval.ErrValidation)

	_, err = f.finance.AttachDocument(ctx, financeUser, req.ID, entity.SlotPurchaseOrder, "")
	assert.ErrorIs(t, err, approval.ErrValidation)

	_, err = f.finance.AttachDocument(ctx, approver, req.ID, entity.SlotPurchaseOrder, "po/x.pdf")
	assert.ErrorIs(t, err, approval.ErrUnauthorized)
}

func TestFinanceService_AttachDocumentBeforeApprovalFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pending, err := f.requests.Create(ctx, staff, laptopOrder())
	require.NoError(t, err)

	_, err = f.finance.AttachDocument(ctx, financeUser, pending.ID, entity.SlotPurchaseOrder, "po/early.pdf")
	assert.ErrorIs(t, err, approval.ErrInvalidState)
}
