package approval

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/procurehq/procureflow/internal/domain/entity"
)

// DefaultApprovalLevels applies when no policy band matches the amount.
const DefaultApprovalLevels = 2

// RequiredLevels evaluates the active policy bands in ascending MinAmount
// order and returns the required approval levels of the first band containing
// the amount, or DefaultApprovalLevels when none matches.
func RequiredLevels(policies []*entity.ApprovalPolicy, amount decimal.Decimal) int {
	sorted := make([]*entity.ApprovalPolicy, len(policies))
	copy(sorted, policies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinAmount.LessThan(sorted[j].MinAmount)
	})

	for _, policy := range sorted {
		if policy.Matches(amount) {
			return policy.RequiredApprovalLevels
		}
	}
	return DefaultApprovalLevels
}
