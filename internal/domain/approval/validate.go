package approval

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/procurehq/procureflow/internal/domain/entity"
)

// ValidateNewRequest checks the creation rules: non-empty title and
// description, at least one well-formed item, and a positive number of
// required approval levels.
func ValidateNewRequest(req *entity.PurchaseRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if req.RequiredApprovalLevels < 1 {
		return fmt.Errorf("%w: required approval levels must be at least 1", ErrValidation)
	}
	return ValidateItems(req.Items)
}

// ValidateItems checks the item ledger rules: at least one item, each with a
// name, qty >= 1 and a non-negative price.
func ValidateItems(items []*entity.RequestItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for i, item := range items {
		if strings.TrimSpace(item.ItemName) == "" {
			return fmt.Errorf("%w: item %d has no name", ErrValidation, i+1)
		}
		if item.Qty < 1 {
			return fmt.Errorf("%w: item %q qty must be at least 1", ErrValidation, item.ItemName)
		}
		if item.Price.LessThan(decimal.Zero) {
			return fmt.Errorf("%w: item %q price must not be negative", ErrValidation, item.ItemName)
		}
	}
	return nil
}
