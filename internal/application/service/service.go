package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/procurehq/procureflow/internal/application/port"
	"github.com/procurehq/procureflow/internal/domain/approval"
	"github.com/procurehq/procureflow/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ItemInput is one line item supplied by the caller.
type ItemInput struct {
	ItemName string          `json:"item_name"`
	Qty      int             `json:"qty"`
	Price    decimal.Decimal `json:"price"`
}

// CreateRequestInput carries everything staff supply at creation time.
type CreateRequestInput struct {
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Items           []ItemInput `json:"items"`
	ProformaInvoice string      `json:"proforma_invoice,omitempty"`
}

// EditRequestInput is a partial update of a pending request. Nil fields are
// left untouched; a non-nil Items slice replaces the item ledger wholesale.
type EditRequestInput struct {
	Title           *string     `json:"title,omitempty"`
	Description     *string     `json:"description,omitempty"`
	Items           []ItemInput `json:"items,omitempty"`
	ProformaInvoice *string     `json:"proforma_invoice,omitempty"`
}

func toItems(requestID int64, inputs []ItemInput) []*entity.RequestItem {
	items := make([]*entity.RequestItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, &entity.RequestItem{
			RequestID: requestID,
			ItemName:  in.ItemName,
			Qty:       in.Qty,
			Price:     in.Price,
		})
	}
	return items
}

// aggregateLoader assembles a full request aggregate from the granular
// repositories.
type aggregateLoader struct {
	requestRepo port.RequestRepository
	itemRepo    port.ItemRepository
	stepRepo    port.StepRepository
	noteRepo    port.NoteRepository
}

func (l *aggregateLoader) load(ctx context.Context, id int64) (*entity.PurchaseRequest, error) {
	req, err := l.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", approval.ErrNotFound, id)
	}

	if req.Items, err = l.itemRepo.GetByRequestID(ctx, id); err != nil {
		return nil, err
	}
	if req.Steps, err = l.stepRepo.GetByRequestID(ctx, id); err != nil {
		return nil, err
	}
	if req.Notes, err = l.noteRepo.GetByRequestID(ctx, id); err != nil {
		return nil, err
	}
	return req, nil
}
