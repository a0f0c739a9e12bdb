package limiter

import "context"

// Aggregate summarizes cart lines that count toward one rule.
type Aggregate struct {
	PerVariation map[int64]int
	// Order lists variation ids in the order they first appear in the cart.
	Order []int64
	Total int
}

// AggregateLines sums quantities of variation lines whose parent product
// belongs to the rule's category. Lines without a variation are skipped.
// A zero Total means the rule does not apply to this cart.
func AggregateLines(ctx context.Context, lines []CartLine, rule Rule, membership CategoryMembership) (Aggregate, error) {
	agg := Aggregate{PerVariation: map[int64]int{}}
	membership = memoize(membership)

	for _, line := range lines {
		if line.VariationID == 0 {
			continue
		}
		in, err := membership.InCategory(ctx, line.ProductID, rule.CategorySlug)
		if err != nil {
			return Aggregate{}, unavailable(err, "category membership lookup failed")
		}
		if !in {
			continue
		}
		if _, ok := agg.PerVariation[line.VariationID]; !ok {
			agg.Order = append(agg.Order, line.VariationID)
		}
		agg.PerVariation[line.VariationID] = AddQuantities(agg.PerVariation[line.VariationID], line.Quantity)
		agg.Total = AddQuantities(agg.Total, line.Quantity)
	}
	return agg, nil
}

// VariationCartQuantity sums the quantity of variationID across lines.
func VariationCartQuantity(lines []CartLine, variationID int64) int {
	if variationID == 0 {
		return 0
	}
	qty := 0
	for _, line := range lines {
		if line.VariationID == variationID {
			qty = AddQuantities(qty, line.Quantity)
		}
	}
	return qty
}
