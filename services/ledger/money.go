package ledger

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// spread splits total into n shares truncated to cents. The last share takes
// the remainder so the shares always sum to total. A negative total yields
// zero shares.
func spread(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	out := make([]decimal.Decimal, n)
	if !total.IsPositive() {
		for i := range out {
			out[i] = decimal.Zero
		}
		return out
	}
	share := total.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	acc := decimal.Zero
	for i := 0; i < n-1; i++ {
		out[i] = share
		acc = acc.Add(share)
	}
	out[n-1] = total.Sub(acc)
	return out
}

// monthlyShare is the headline per-month figure shown on a ledger.
func monthlyShare(total decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(months))).Truncate(2)
}

func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(2)
}

// inCents reports whether d carries no more than two decimal places.
func inCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
