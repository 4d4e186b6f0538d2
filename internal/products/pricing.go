package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// EffectivePriceCents resolves the selling price from the original price and
// the discount window as of now. The result is only applied on writes: an
// expired discount keeps its last computed price until the listing is next
// saved.
func EffectivePriceCents(originalCents int, discountPercent *int, startsAt, endsAt *time.Time, now time.Time) int {
	if originalCents < 0 {
		return 0
	}
	if discountPercent == nil || *discountPercent <= 0 {
		return originalCents
	}
	if startsAt != nil && now.Before(*startsAt) {
		return originalCents
	}
	if endsAt != nil && now.After(*endsAt) {
		return originalCents
	}

	percent := *discountPercent
	if percent >= 100 {
		return 0
	}

	price := decimal.NewFromInt(int64(originalCents)).
		Mul(decimal.NewFromInt(int64(100 - percent))).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return int(price.IntPart())
}
