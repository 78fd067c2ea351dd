package checkout

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/marketplace/internal/store"
)

var hundred = decimal.NewFromInt(100)

// resolveDiscount returns the price multiplier for code. Unknown, expired and
// already redeemed codes yield 1. A fresh redemption is recorded in tx.
func (o *Orchestrator) resolveDiscount(tx store.Tx, userID uuid.UUID, code string) (decimal.Decimal, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return decimal.NewFromInt(1), nil
	}

	discount, err := tx.FindDiscountByCode(code)
	if err != nil {
		return decimal.Zero, err
	}
	if discount == nil || !discount.Active(o.now()) {
		return decimal.NewFromInt(1), nil
	}

	fresh, err := tx.RedeemDiscount(userID, discount.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if !fresh {
		return decimal.NewFromInt(1), nil
	}

	return Multiplier(discount.Percent), nil
}

// Multiplier converts a percent off into a price factor.
func Multiplier(percent int) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(percent)).Div(hundred))
}
