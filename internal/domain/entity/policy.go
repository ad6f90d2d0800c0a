package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalPolicy is an amount band that decides how many approval levels a
// request needs. Bands are evaluated in ascending MinAmount order; the first
// active band containing the amount wins.
type ApprovalPolicy struct {
	ID                     int64           `json:"id"`
	Title                  string          `json:"title"`
	MinAmount              decimal.Decimal `json:"min_amount"`
	MaxAmount              decimal.Decimal `json:"max_amount"`
	RequiredApprovalLevels int             `json:"required_approval_levels"`
	Active                 bool            `json:"active"`
	CreatedAt              time.Time       `json:"created_at"`
}

// Matches reports whether the amount falls inside this band.
func (p *ApprovalPolicy) Matches(amount decimal.Decimal) bool {
	if !p.Active {
		return false
	}
	return amount.GreaterThanOrEqual(p.MinAmount) && amount.LessThanOrEqual(p.MaxAmount)
}
