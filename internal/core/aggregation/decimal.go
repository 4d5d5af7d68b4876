package aggregation

import "github.com/shopspring/decimal"

// moneyPlaces is the scale of every persisted monetary amount.
const moneyPlaces = 2

// RoundMoney rounds half away from zero to two decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

func roundBreakdown(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = RoundMoney(v)
	}
	return out
}
